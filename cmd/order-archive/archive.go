package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bistro/internal/domain/order"
	"github.com/xenking/bistro/internal/wire"
)

const (
	bloomMinCapacity = 1 << 16
	bloomFPR         = 0.001
	progressEvery    = 10_000
	maxLineBytes     = 4 << 20
)

// orderSource streams stored orders.
type orderSource interface {
	Each(ctx context.Context, fn func(o *order.Order) error) error
}

// orderSink receives imported orders. Import must be idempotent and report
// whether a row was written.
type orderSink interface {
	IDs(ctx context.Context) ([]string, error)
	Import(ctx context.Context, o *order.Order) (bool, error)
}

// exportOrders writes every order of src to w as gzip JSON lines.
func exportOrders(ctx context.Context, src orderSource, w io.Writer) (int, error) {
	gz := pgzip.NewWriter(w)
	bw := bufio.NewWriter(gz)

	var (
		e     jx.Encoder
		count int
	)
	err := src.Each(ctx, func(o *order.Order) error {
		e.Reset()
		wire.EncodeOrder(&e, o, wire.CanonicalStatusCodes)
		if _, err := bw.Write(e.Bytes()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		count++
		if count%progressEvery == 0 {
			slog.Info("export progress", slog.Int("orders", count))
		}
		return nil
	})
	if err != nil {
		return count, errors.Wrap(err, "write orders")
	}
	if err := bw.Flush(); err != nil {
		return count, errors.Wrap(err, "flush")
	}
	if err := gz.Close(); err != nil {
		return count, errors.Wrap(err, "close gzip writer")
	}
	return count, nil
}

// readArchive decodes a gzip JSON lines archive and calls fn for each order.
func readArchive(ctx context.Context, path string, fn func(o order.Order) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	var line int
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		o, err := wire.DecodeOrder(jx.DecodeBytes(scanner.Bytes()), wire.CanonicalStatusCodes)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		if o.ID == "" {
			return errors.Errorf("%s:%d: order without id", path, line)
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// importStats summarises an import run. In a dry run New is an estimate
// bounded by the bloom filter false positive rate.
type importStats struct {
	Read       int
	New        int
	Duplicates int
}

// importArchives decodes archives concurrently and imports their orders
// through a single writer. A bloom filter over existing and already seen
// ids separates certainly new orders from probable duplicates; the sink
// stays the authority on duplicates.
func importArchives(ctx context.Context, sink orderSink, paths []string, dryRun bool) (importStats, error) {
	var stats importStats

	ids, err := sink.IDs(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "load existing ids")
	}
	known := bloom.NewWithEstimates(uint(max(2*len(ids), bloomMinCapacity)), bloomFPR)
	for _, id := range ids {
		known.AddString(id)
	}
	slog.Info("existing orders loaded", slog.Int("count", len(ids)))

	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan order.Order, 256)

	var readers sync.WaitGroup
	for _, path := range paths {
		readers.Add(1)
		g.Go(func() error {
			defer readers.Done()
			return readArchive(gctx, path, func(o order.Order) error {
				select {
				case ch <- o:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		})
	}
	go func() {
		readers.Wait()
		close(ch)
	}()

	g.Go(func() error {
		for o := range ch {
			stats.Read++
			probable := known.TestOrAddString(o.ID)

			if dryRun {
				if probable {
					stats.Duplicates++
				} else {
					stats.New++
				}
				continue
			}

			written, err := sink.Import(gctx, &o)
			if err != nil {
				return errors.Wrapf(err, "import order %s", o.ID)
			}
			if written {
				stats.New++
			} else {
				stats.Duplicates++
			}
			if !probable && !written {
				slog.Warn("order missing from filter was already stored", slog.String("id", o.ID))
			}
			if stats.Read%progressEvery == 0 {
				slog.Info("import progress", slog.Int("read", stats.Read), slog.Int("new", stats.New))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
