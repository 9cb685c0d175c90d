//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/bistro/internal/domain/catalog"
	"github.com/xenking/bistro/internal/domain/order"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "bistro",
				"POSTGRES_PASSWORD": "bistro",
				"POSTGRES_DB":       "bistro",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = container.Terminate(ctx) }()

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres endpoint: %v\n", err)
		return 1
	}

	testPool, err = NewPool(ctx, "postgres://bistro:bistro@"+endpoint+"/bistro?sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create pool: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}
	return m.Run()
}

// --- Helpers ---

func newTestOrder(id, email string, created time.Time) *order.Order {
	return &order.Order{
		ID:            id,
		Customer:      order.Customer{Name: "Alice Nguyen", Phone: "0901", Email: email},
		Lines:         []order.Line{{ItemID: "pho", Name: "Pho", UnitPrice: 50000, Quantity: 2}},
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentCash,
		PaymentTiming: order.PaymentPostpaid,
		Note:          "no onions",
		CreatedAt:     created.UTC().Truncate(time.Millisecond),
	}
}

// --- Tests ---

func TestMenuRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository(testPool, 0)

	require.NoError(t, repo.Upsert(ctx, []catalog.MenuItem{
		{ID: "pho", Name: "Pho", UnitPrice: 50000, Available: 10},
		{ID: "bun", Name: "Bun Cha", UnitPrice: 45000, Available: 0, Description: "grilled pork"},
	}))

	items, err := repo.GetByIDs(ctx, []string{"pho", "missing"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(50000), items[0].UnitPrice)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)

	// Exponent 2 reads the same NUMERIC as hundredths.
	cents := NewMenuRepository(testPool, 2)
	items, err = cents.GetByIDs(ctx, []string{"bun"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(4500000), items[0].UnitPrice)
	assert.Equal(t, "grilled pork", items[0].Description)
}

func TestOrderRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	o := newTestOrder("it-create", "alice@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = repo.Get(ctx, "it-missing")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepository_UpdateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	o := newTestOrder("it-cas", "alice@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, o))

	completed := *o
	completed.Status = order.StatusCompleted
	require.NoError(t, repo.Update(ctx, &completed, o.State()))

	// A second writer still expecting the pending state loses.
	cancelled := *o
	cancelled.Status = order.StatusCancelled
	require.ErrorIs(t, repo.Update(ctx, &cancelled, o.State()), order.ErrConflict)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)

	ghost := newTestOrder("it-ghost", "alice@example.com", time.Now())
	require.ErrorIs(t, repo.Update(ctx, ghost, ghost.State()), order.ErrNotFound)
}

func TestOrderRepository_Search(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	base := time.Date(2023, 1, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newTestOrder("it-s1", "Search@Example.com", base)))
	require.NoError(t, repo.Create(ctx, newTestOrder("it-s2", "search@example.com", base.Add(24*time.Hour))))
	require.NoError(t, repo.Create(ctx, newTestOrder("it-s3", "other@example.com", base.Add(48*time.Hour))))

	got, err := repo.Search(ctx, order.Criteria{
		CustomerEmail: "search@example.com",
		From:          base,
		To:            base.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "it-s1", got[0].ID)
	assert.Equal(t, "it-s2", got[1].ID)

	got, err = repo.Search(ctx, order.Criteria{CustomerName: "alice", From: base.Add(48 * time.Hour), To: base.Add(49 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "it-s3", got[0].ID)
}

func TestOrderRepository_SearchNameIsLiteral(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	base := time.Date(2023, 2, 10, 9, 0, 0, 0, time.UTC)
	window := order.Criteria{From: base, To: base.Add(time.Hour)}
	plain := newTestOrder("it-lit1", "plain@example.com", base)
	plain.Customer.Name = "Bao Tran"
	percent := newTestOrder("it-lit2", "percent@example.com", base.Add(time.Minute))
	percent.Customer.Name = "100% Bao"
	require.NoError(t, repo.Create(ctx, plain))
	require.NoError(t, repo.Create(ctx, percent))

	for _, name := range []string{"%", "_ao", "0% b"} {
		c := window
		c.CustomerName = name
		got, err := repo.Search(ctx, c)
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, o := range got {
			ids = append(ids, o.ID)
		}
		switch name {
		case "_ao":
			assert.Empty(t, ids, name)
		default:
			assert.Equal(t, []string{"it-lit2"}, ids, name)
		}
	}
}

func TestOrderRepository_ImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	o := newTestOrder("it-import", "alice@example.com", time.Now())
	written, err := repo.Import(ctx, o)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.Import(ctx, o)
	require.NoError(t, err)
	assert.False(t, written)

	ids, err := repo.IDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "it-import")

	var seen int
	require.NoError(t, repo.Each(ctx, func(*order.Order) error {
		seen++
		return nil
	}))
	assert.Equal(t, len(ids), seen)
}
