package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCalculateProgress(t *testing.T) {
	s := Stats{Nodes: 900, Ways: 100, Elapsed: 10 * time.Second}

	p := CalculateProgress(s, 250, 1000)
	assert.InDelta(t, 25.0, p.Percentage, 0.001)
	assert.InDelta(t, 100.0, p.Throughput, 0.001)
	assert.Equal(t, 30*time.Second, p.ETA)
}

func TestCalculateProgressUnknownSize(t *testing.T) {
	p := CalculateProgress(Stats{Nodes: 10, Elapsed: time.Second}, 0, 0)
	assert.Zero(t, p.Percentage)
	assert.Zero(t, p.ETA)
	assert.InDelta(t, 10.0, p.Throughput, 0.001)
}

func TestCalculateProgressCapsAtHundred(t *testing.T) {
	p := CalculateProgress(Stats{Elapsed: time.Second}, 2000, 1000)
	assert.Equal(t, 100.0, p.Percentage)
	assert.Zero(t, p.ETA)
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "calculating..."},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 2m 3s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatETA(tt.in))
	}
}

func TestFormatThroughput(t *testing.T) {
	assert.Equal(t, "12/s", FormatThroughput(12))
	assert.Equal(t, "1.5K/s", FormatThroughput(1500))
	assert.Equal(t, "2.0M/s", FormatThroughput(2_000_000))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "3.0 MB", FormatBytes(3<<20))
	assert.Equal(t, "1.0 GB", FormatBytes(1<<30))
}

type fixedBytes struct{ read, size int64 }

func (f fixedBytes) BytesRead() int64 { return f.read }
func (f fixedBytes) Size() int64      { return f.size }

func TestReporterLogsUntilCancelled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	stats := &LiveStats{StartTime: time.Now()}
	stats.Nodes.Add(3)
	stats.Amenities.Add(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReporter(stats, fixedBytes{read: 10, size: 100}, 5*time.Millisecond, zap.New(core)).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return logs.FilterMessage("Import progress").Len() > 0 },
		time.Second, 5*time.Millisecond)
	cancel()
	<-done

	entry := logs.FilterMessage("Import progress").All()[0]
	assert.Equal(t, int64(1), entry.ContextMap()["points"])
	assert.Equal(t, int64(3), entry.ContextMap()["entities"])
}
