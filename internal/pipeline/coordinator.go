package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osmpoi/internal/config"
	"github.com/wegman-software/osmpoi/internal/logger"
	"github.com/wegman-software/osmpoi/internal/metrics"
	"github.com/wegman-software/osmpoi/internal/osmfile"
	"github.com/wegman-software/osmpoi/internal/store"
	"github.com/wegman-software/osmpoi/internal/wkb"
)

// Coordinator wires the input file, the database and the loader together and
// runs the progress and metrics reporters alongside the load
type Coordinator struct {
	cfg     *config.Config
	loader  *Loader
	bytes   ByteCounter
	closers []func() error
}

// NewCoordinator connects to the database, optionally creates the schema and
// opens the input file. Nothing is read until Run.
func NewCoordinator(ctx context.Context, cfg *config.Config) (*Coordinator, error) {
	log := logger.Get()

	srid, err := cfg.SRID()
	if err != nil {
		return nil, err
	}
	enc, err := wkb.NewPointEncoder(srid)
	if err != nil {
		return nil, err
	}

	sink, err := store.Open(ctx, cfg.DatabaseURL, store.Options{WriteTimeout: cfg.WriteTimeout})
	if err != nil {
		return nil, err
	}

	if cfg.CreateSchema {
		log.Info("Ensuring schema", zap.Int("srid", srid))
		if err := sink.EnsureSchema(ctx, srid); err != nil {
			sink.Close(context.Background())
			return nil, err
		}
	}

	src, err := osmfile.Open(ctx, cfg.InputFile)
	if err != nil {
		sink.Close(context.Background())
		return nil, err
	}

	c := newCoordinator(cfg, src, sink, enc, src)
	c.closers = []func() error{
		src.Close,
		func() error { return sink.Close(context.Background()) },
	}
	return c, nil
}

func newCoordinator(cfg *config.Config, src Source, sink Sink, enc LocationEncoder, bytes ByteCounter) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		loader: NewLoader(src, sink, enc, LoaderConfig{SingleTransaction: cfg.SingleTransaction}),
		bytes:  bytes,
	}
}

// Close releases the input file and the database connection
func (c *Coordinator) Close() error {
	var first error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// Run executes the load. The reporters stop as soon as the loader returns.
func (c *Coordinator) Run(ctx context.Context) (Stats, error) {
	log := logger.Get()

	g, gctx := errgroup.WithContext(ctx)
	monitorCtx, stopMonitors := context.WithCancel(gctx)
	defer stopMonitors()

	if c.cfg.MetricsInterval > 0 {
		live := c.loader.LiveStats()
		collector := metrics.NewCollector(c.cfg.MetricsInterval, log).
			WithThroughput(func() (int64, int64) {
				s := live.Snapshot()
				return s.Entities(), s.Points()
			})
		g.Go(func() error {
			collector.Start(monitorCtx)
			return nil
		})
		log.Info("System metrics collection started",
			zap.Duration("interval", c.cfg.MetricsInterval))
	}

	reporter := NewReporter(c.loader.LiveStats(), c.bytes, c.cfg.ProgressInterval, log)
	g.Go(func() error {
		reporter.Run(monitorCtx)
		return nil
	})

	var stats Stats
	g.Go(func() error {
		defer stopMonitors()
		var err error
		stats, err = c.loader.Run(gctx)
		return err
	})

	err := g.Wait()
	c.logSummary(log, stats, err)
	return stats, err
}

func (c *Coordinator) logSummary(log *zap.Logger, s Stats, err error) {
	fields := []zap.Field{
		zap.Duration("elapsed", s.Elapsed.Round(time.Millisecond)),
		zap.Int64("nodes", s.Nodes),
		zap.Int64("ways", s.Ways),
		zap.Int64("relations", s.Relations),
		zap.Int64("amenities", s.Amenities),
		zap.Int64("shops", s.Shops),
		zap.Int64("tags", s.Tags),
	}
	switch {
	case err != nil && c.cfg.SingleTransaction:
		log.Warn("Load aborted; the transaction was rolled back", fields...)
		return
	case err != nil:
		log.Warn("Load aborted; rows written before the failure are kept", fields...)
		return
	}
	log.Info("Load complete", fields...)
}
