package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro/internal/storage/postgres"
)

const usage = `usage:
  order-archive export [-database-url URL] -out FILE
  order-archive import [-database-url URL] [-dry-run] FILE...
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var (
		databaseURL string
		out         string
		dryRun      bool
	)
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	switch cmd {
	case "export":
		fs.StringVar(&out, "out", "orders.jsonl.gz", "archive file to write")
	case "import":
		fs.BoolVar(&dryRun, "dry-run", false, "estimate new orders without writing")
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	_ = fs.Parse(args)

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cmd, databaseURL, out, fs.Args(), dryRun); err != nil {
		slog.Error("order archive failed", slog.String("command", cmd), slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order archive completed successfully", slog.String("command", cmd))
}

func run(ctx context.Context, cmd, databaseURL, out string, files []string, dryRun bool) error {
	if cmd == "import" && len(files) == 0 {
		return errors.New("no archive files given")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	orders := postgres.NewOrderRepository(pool)

	if cmd == "export" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "create %s", out)
		}
		n, err := exportOrders(ctx, orders, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		slog.Info("orders exported", slog.String("file", out), slog.Int("count", n))
		return nil
	}

	stats, err := importArchives(ctx, orders, files, dryRun)
	if err != nil {
		return err
	}
	slog.Info("orders imported",
		slog.Bool("dry_run", dryRun),
		slog.Int("read", stats.Read),
		slog.Int("new", stats.New),
		slog.Int("duplicates", stats.Duplicates),
	)
	return nil
}
