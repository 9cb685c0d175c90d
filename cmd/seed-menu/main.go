package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro/internal/domain/catalog"
	"github.com/xenking/bistro/internal/handler"
	"github.com/xenking/bistro/internal/storage/postgres"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Available   int             `json:"available"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
}

func main() {
	var (
		databaseURL string
		menuFile    string
		exponent    int
		adminKey    string
		pepper      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu JSON file")
	flag.IntVar(&exponent, "currency-exponent", 0, "minor unit exponent of menu prices")
	flag.StringVar(&adminKey, "hash-admin-key", "", "print BISTRO_ADMIN_KEY_HASH for this key and exit")
	flag.StringVar(&pepper, "admin-key-pepper", "", "HMAC pepper for the admin key (or BISTRO_ADMIN_KEY_PEPPER env)")
	flag.Parse()

	if adminKey != "" {
		if pepper == "" {
			pepper = os.Getenv("BISTRO_ADMIN_KEY_PEPPER")
		}
		fmt.Println(handler.HashKey(adminKey, []byte(pepper)))
		return
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile, int32(exponent)); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile string, exponent int32) error {
	items, err := readMenu(menuFile, exponent)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	if err := postgres.NewMenuRepository(pool, exponent).Upsert(ctx, items); err != nil {
		return errors.Wrap(err, "upsert menu")
	}

	for _, it := range items {
		slog.Info("upserted menu item", slog.String("id", it.ID), slog.String("name", it.Name))
	}

	return nil
}

func readMenu(path string, exponent int32) ([]catalog.MenuItem, error) {
	slog.Info("reading menu file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read menu file")
	}

	var raw []menuItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}

	items := make([]catalog.MenuItem, 0, len(raw))
	for _, m := range raw {
		if m.ID == "" || m.Name == "" {
			return nil, errors.Errorf("menu item %q: id and name are required", m.ID)
		}
		price, err := postgres.ToMinor(m.Price, exponent)
		if err != nil {
			return nil, errors.Wrapf(err, "menu item %s price", m.ID)
		}
		items = append(items, catalog.MenuItem{
			ID:          m.ID,
			Name:        m.Name,
			UnitPrice:   price,
			Available:   max(m.Available, 0),
			Description: m.Description,
			ImageURL:    m.ImageURL,
		})
	}
	return items, nil
}
