//go:build integration

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/bistro/internal/domain/catalog"
	"github.com/xenking/bistro/internal/handler"
	"github.com/xenking/bistro/internal/storage/postgres"
	"github.com/xenking/bistro/internal/wire"
	"github.com/xenking/bistro/pkg/health"
)

const (
	adminKey    = "integration-admin"
	adminPepper = "integration-pepper"
)

var databaseURL string

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
	databaseURL = "postgres://bistro:bistro@" + endpoint + "/bistro?sslmode=disable"
	return m.Run()
}

// --- Helpers ---

// morningZone returns a fixed-offset zone in which it is currently about
// 06:00, so a late cutoff never closes ordering during the test.
func morningZone() string {
	offset := 6 - time.Now().UTC().Hour()
	if offset < -12 {
		offset += 24
	}
	if offset >= 0 {
		return fmt.Sprintf("Etc/GMT-%d", offset)
	}
	return fmt.Sprintf("Etc/GMT+%d", -offset)
}

type client struct {
	t       *testing.T
	baseURL string
}

func (c *client) do(method, path, body string, headers map[string]string) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, r)
	require.NoError(c.t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *client) json(method, path, body string, headers map[string]string, wantStatus int) map[string]any {
	c.t.Helper()
	status, data := c.do(method, path, body, headers)
	require.Equal(c.t, wantStatus, status, string(data))
	var out map[string]any
	require.NoError(c.t, json.Unmarshal(data, &out), string(data))
	return out
}

func customerHeaders(name, email string) map[string]string {
	return map[string]string{
		handler.HeaderCustomerName:  name,
		handler.HeaderCustomerPhone: "0901",
		handler.HeaderCustomerEmail: email,
	}
}

func adminHeaders() map[string]string {
	return map[string]string{handler.HeaderAdminKey: adminKey}
}

func startServer(t *testing.T) *client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lg := zaptest.NewLogger(t)
	ctx = zctx.Base(ctx, lg)

	pool, err := postgres.NewPool(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	_, err = pool.Exec(ctx, "TRUNCATE orders, menu_items")
	require.NoError(t, err)
	require.NoError(t, postgres.NewMenuRepository(pool, 0).Upsert(ctx, []catalog.MenuItem{
		{ID: "pho", Name: "Pho", UnitPrice: 55000, Available: 10},
		{ID: "tra", Name: "Tra Da", UnitPrice: 5000, Available: 100},
	}))

	cfg := &Config{
		DatabaseURL:    databaseURL,
		AdminKeyHash:   handler.HashKey(adminKey, []byte(adminPepper)),
		AdminKeyPepper: adminPepper,
		MaxBodyBytes:   1 << 16,
		Orders: OrdersConfig{
			CutoffTime:  "23:59",
			TimeZone:    morningZone(),
			Currency:    "VND",
			StatusCodes: wire.DefaultStatusCodes,
		},
		Reports:   ReportsConfig{TopCustomers: 10, RecentOrders: 10, StatsDays: 30},
		RateLimit: RateLimitConfig{Max: 100, Window: time.Minute},
	}
	require.NoError(t, cfg.Validate())

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", time.Second, health.PingCheck(pool))
	healthSvc.SetReady(true)

	h, err := NewHandler(ctx, lg, cfg, pool, healthSvc, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &client{t: t, baseURL: srv.URL}
}

// --- Tests ---

func TestOrderLifecycle(t *testing.T) {
	c := startServer(t)
	alice := customerHeaders("Alice", "alice@example.com")
	bob := customerHeaders("Bob", "bob@example.com")

	status, data := c.do(http.MethodGet, "/api/v1/menu", "", nil)
	require.Equal(t, http.StatusOK, status)
	var menu []map[string]any
	require.NoError(t, json.Unmarshal(data, &menu))
	assert.Len(t, menu, 2)

	placed := c.json(http.MethodPost, "/api/v1/orders/place",
		`{"orderDetails":[{"id":"pho","quantity":2},{"id":"tra","quantity":1}],"paymentMethod":"CASH","paymentType":"POSTPAID"}`,
		alice, http.StatusCreated)
	id := placed["id"].(string)
	assert.Equal(t, "P", placed["status"])
	assert.Equal(t, float64(115000), placed["totalPrice"])

	status, _ = c.do(http.MethodGet, "/api/v1/orders/"+id, "", bob)
	assert.Equal(t, http.StatusNotFound, status, "foreign orders are hidden")

	edited := c.json(http.MethodPut, "/api/v1/orders/"+id,
		`{"orderDetails":[{"id":"pho","quantity":1}],"note":"no onions"}`, alice, http.StatusOK)
	assert.Equal(t, float64(55000), edited["totalPrice"])
	assert.Equal(t, "no onions", edited["note"])

	c.json(http.MethodPut, "/api/v1/admin/orders/confirm/"+id, "", adminHeaders(), http.StatusOK)
	c.json(http.MethodPut, "/api/v1/admin/orders/complete/"+id, "", adminHeaders(), http.StatusOK)

	rejected := c.json(http.MethodPut, "/api/v1/orders/delete/"+id, "", alice, http.StatusConflict)
	assert.Equal(t, "invalid_transition", rejected["errorData"].(map[string]any)["kind"])

	got := c.json(http.MethodGet, "/api/v1/orders/"+id, "", alice, http.StatusOK)
	assert.Equal(t, "S", got["status"])
	assert.Equal(t, true, got["isPaid"])

	billing := c.json(http.MethodGet, "/api/v1/admin/billing/summary", "", adminHeaders(), http.StatusOK)
	assert.Equal(t, float64(55000), billing["totalRevenue"])
	assert.Equal(t, float64(55000), billing["paidAmount"])

	customers := c.json(http.MethodGet, "/api/v1/admin/customers/summary", "", adminHeaders(), http.StatusOK)
	assert.Equal(t, float64(1), customers["totalCustomers"])
}

func TestPlaceOrder_Rejections(t *testing.T) {
	c := startServer(t)
	alice := customerHeaders("Alice", "alice@example.com")

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{name: "empty cart", body: `{"orderDetails":[],"paymentMethod":"CASH","paymentType":"PREPAID"}`, status: http.StatusBadRequest, kind: "empty_cart"},
		{name: "unknown item", body: `{"orderDetails":[{"id":"bun","quantity":1}],"paymentMethod":"CASH","paymentType":"PREPAID"}`, status: http.StatusUnprocessableEntity, kind: "item_not_found"},
		{name: "over stock", body: `{"orderDetails":[{"id":"pho","quantity":11}],"paymentMethod":"CASH","paymentType":"PREPAID"}`, status: http.StatusUnprocessableEntity, kind: "item_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := c.json(http.MethodPost, "/api/v1/orders/place", tt.body, alice, tt.status)
			assert.Equal(t, tt.kind, body["errorData"].(map[string]any)["kind"])
		})
	}
}

func TestSearchAndSummary(t *testing.T) {
	c := startServer(t)
	for _, who := range []map[string]string{
		customerHeaders("Alice Nguyen", "alice@example.com"),
		customerHeaders("Bob Tran", "bob@example.com"),
	} {
		c.json(http.MethodPost, "/api/v1/orders/place",
			`{"orderDetails":[{"id":"tra","quantity":2}],"paymentMethod":"MOMO","paymentType":"PREPAID"}`,
			who, http.StatusCreated)
	}

	status, data := c.do(http.MethodGet, "/api/v1/orders/search?customerName=alice", "", adminHeaders())
	require.Equal(t, http.StatusOK, status)
	var found []map[string]any
	require.NoError(t, json.Unmarshal(data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Alice Nguyen", found[0]["customerName"])

	status, data = c.do(http.MethodGet, "/api/v1/orders/search", "", customerHeaders("Bob Tran", "BOB@example.com"))
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &found))
	assert.Len(t, found, 1, "customers only see their own orders")

	summary := c.json(http.MethodGet, "/api/v1/orders/summary", "", customerHeaders("Bob Tran", "bob@example.com"), http.StatusOK)
	assert.Len(t, summary["todayOrders"], 2)

	overview := c.json(http.MethodGet, "/api/v1/admin/orders/summary", "", adminHeaders(), http.StatusOK)
	assert.Equal(t, float64(2), overview["pendingOrders"])
}

func TestProbes(t *testing.T) {
	c := startServer(t)

	status, _ := c.do(http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
