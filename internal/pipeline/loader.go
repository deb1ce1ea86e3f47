// Package pipeline drives the decode, classify and load loop.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wegman-software/osmpoi/internal/logger"
	"github.com/wegman-software/osmpoi/internal/poi"
)

// LoaderConfig holds loader options
type LoaderConfig struct {
	// SingleTransaction wraps the whole run in one transaction so a failure
	// leaves the database untouched. The sink must implement TxSink.
	SingleTransaction bool
}

// Loader pulls entities from a Source and writes accepted points to a Sink.
// It is strictly sequential: one entity is fully written before the next is read.
type Loader struct {
	src   Source
	sink  Sink
	enc   LocationEncoder
	cfg   LoaderConfig
	stats *LiveStats
}

// NewLoader creates a loader
func NewLoader(src Source, sink Sink, enc LocationEncoder, cfg LoaderConfig) *Loader {
	return &Loader{
		src:   src,
		sink:  sink,
		enc:   enc,
		cfg:   cfg,
		stats: &LiveStats{StartTime: time.Now()},
	}
}

// LiveStats returns the counters updated while Run is in progress
func (l *Loader) LiveStats() *LiveStats {
	return l.stats
}

// Run consumes the whole source. The first decode or write error aborts the
// run and is returned; nothing is retried.
func (l *Loader) Run(ctx context.Context) (stats Stats, err error) {
	log := logger.Get()

	if l.cfg.SingleTransaction {
		txSink, ok := l.sink.(TxSink)
		if !ok {
			return Stats{}, eris.New("pipeline: sink does not support transactions")
		}
		if err := txSink.Begin(ctx); err != nil {
			return Stats{}, err
		}
		log.Warn("Loading in a single transaction; a failure rolls back every row of this run")
		defer func() {
			if err != nil {
				if rbErr := txSink.Rollback(context.Background()); rbErr != nil {
					log.Error("Rollback failed", zap.Error(rbErr))
				}
				return
			}
			if cErr := txSink.Commit(ctx); cErr != nil {
				err = cErr
			}
		}()
	}

	for {
		e, err := l.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return l.stats.Snapshot(), eris.Wrap(err, "pipeline: read entity")
		}

		l.count(e.Kind)
		if err := l.process(ctx, e); err != nil {
			return l.stats.Snapshot(), err
		}
	}

	return l.stats.Snapshot(), nil
}

// process writes one entity: the points row first, then its residual tags
func (l *Loader) process(ctx context.Context, e poi.Entity) error {
	class, ok := poi.Classify(e)
	if !ok {
		return nil
	}

	location, err := l.enc.EncodePoint(e.Lon, e.Lat)
	if err != nil {
		return eris.Wrapf(err, "pipeline: encode location of node %d", e.ID)
	}

	attrs := poi.Partition(e.Tags)
	if err := l.sink.InsertPoint(ctx, poi.NewPointRecord(e, class, attrs, location)); err != nil {
		return err
	}
	switch class.Category {
	case poi.Amenity:
		l.stats.Amenities.Add(1)
	case poi.Shop:
		l.stats.Shops.Add(1)
	}

	for _, tag := range attrs.Tags(e.ID) {
		if err := l.sink.InsertTag(ctx, tag); err != nil {
			return err
		}
		l.stats.Tags.Add(1)
	}

	if ce := logger.Get().Check(zap.DebugLevel, "Loaded point"); ce != nil {
		ce.Write(
			zap.Int64("id", e.ID),
			zap.String("type", class.Category.String()),
			zap.String("subtype", class.Subtype),
			zap.Int("tags", len(attrs.Residual)))
	}
	return nil
}

func (l *Loader) count(k poi.Kind) {
	switch k {
	case poi.KindNode:
		l.stats.Nodes.Add(1)
	case poi.KindWay:
		l.stats.Ways.Add(1)
	case poi.KindRelation:
		l.stats.Relations.Add(1)
	}
}
