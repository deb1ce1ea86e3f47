package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wegman-software/osmpoi/internal/poi"
)

// Source produces decoded entities in file order; io.EOF ends the stream
type Source interface {
	Next(ctx context.Context) (poi.Entity, error)
}

// Sink receives the two dependent inserts for each accepted entity
type Sink interface {
	InsertPoint(ctx context.Context, rec poi.PointRecord) error
	InsertTag(ctx context.Context, tag poi.Tag) error
}

// TxSink is a Sink that can wrap the whole run in a single transaction
type TxSink interface {
	Sink
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// LocationEncoder turns node coordinates into the geometry value of the location column
type LocationEncoder interface {
	EncodePoint(lon, lat float64) ([]byte, error)
}

// LiveStats are updated by the loader and may be read concurrently
type LiveStats struct {
	Nodes     atomic.Int64
	Ways      atomic.Int64
	Relations atomic.Int64
	Amenities atomic.Int64
	Shops     atomic.Int64
	Tags      atomic.Int64
	StartTime time.Time
}

// Stats is a point-in-time copy of LiveStats
type Stats struct {
	Nodes     int64
	Ways      int64
	Relations int64
	Amenities int64
	Shops     int64
	Tags      int64
	Elapsed   time.Duration
}

// Entities returns the number of decoded entities of any kind
func (s Stats) Entities() int64 {
	return s.Nodes + s.Ways + s.Relations
}

// Points returns the number of points rows written
func (s Stats) Points() int64 {
	return s.Amenities + s.Shops
}

// Snapshot copies the current counters
func (s *LiveStats) Snapshot() Stats {
	return Stats{
		Nodes:     s.Nodes.Load(),
		Ways:      s.Ways.Load(),
		Relations: s.Relations.Load(),
		Amenities: s.Amenities.Load(),
		Shops:     s.Shops.Load(),
		Tags:      s.Tags.Load(),
		Elapsed:   time.Since(s.StartTime),
	}
}
