package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ByteCounter reports how far the decoder has read into its input
type ByteCounter interface {
	BytesRead() int64
	Size() int64
}

// Progress is a derived view of a stats snapshot
type Progress struct {
	Stats      Stats
	Percentage float64
	ETA        time.Duration
	Throughput float64 // entities per second
}

// CalculateProgress derives percentage, ETA and throughput. Percentage and ETA
// stay zero when the input size is unknown.
func CalculateProgress(s Stats, bytesRead, totalBytes int64) Progress {
	p := Progress{Stats: s}
	secs := s.Elapsed.Seconds()
	if secs > 0 {
		p.Throughput = float64(s.Entities()) / secs
	}

	if totalBytes > 0 && bytesRead > 0 {
		p.Percentage = float64(bytesRead) / float64(totalBytes) * 100
		if p.Percentage > 100 {
			p.Percentage = 100
		}
		if secs > 0 && bytesRead < totalBytes {
			rate := float64(bytesRead) / secs
			p.ETA = time.Duration(float64(totalBytes-bytesRead)/rate) * time.Second
		}
	}
	return p
}

// Reporter logs loader progress on a fixed interval
type Reporter struct {
	stats    *LiveStats
	bytes    ByteCounter
	interval time.Duration
	log      *zap.Logger
}

// NewReporter creates a reporter; bytes may be nil when the input size is unknown
func NewReporter(stats *LiveStats, bytes ByteCounter, interval time.Duration, log *zap.Logger) *Reporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reporter{stats: stats, bytes: bytes, interval: interval, log: log}
}

// Run logs until ctx is cancelled
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	var read, total int64
	if r.bytes != nil {
		read, total = r.bytes.BytesRead(), r.bytes.Size()
	}
	p := CalculateProgress(r.stats.Snapshot(), read, total)

	r.log.Info("Import progress",
		zap.String("read", fmt.Sprintf("%s / %s (%.1f%%)", FormatBytes(read), FormatBytes(total), p.Percentage)),
		zap.Int64("entities", p.Stats.Entities()),
		zap.Int64("points", p.Stats.Points()),
		zap.Int64("tags", p.Stats.Tags),
		zap.String("rate", FormatThroughput(p.Throughput)),
		zap.String("eta", FormatETA(p.ETA)),
	)
}

// FormatETA formats a duration as "1h 2m 3s"
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}
	d = d.Round(time.Second)
	h, m, s := d/time.Hour, (d%time.Hour)/time.Minute, (d%time.Minute)/time.Second
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatThroughput formats items per second with K/M suffixes
func FormatThroughput(perSec float64) string {
	switch {
	case perSec >= 1_000_000:
		return fmt.Sprintf("%.1fM/s", perSec/1_000_000)
	case perSec >= 1_000:
		return fmt.Sprintf("%.1fK/s", perSec/1_000)
	default:
		return fmt.Sprintf("%.0f/s", perSec)
	}
}

// FormatBytes formats a byte count with binary units
func FormatBytes(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
