// Package metrics samples host and process resource usage while a load runs.
package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// SystemMetrics holds one sample
type SystemMetrics struct {
	CPUPercent        float64 // System-wide CPU usage (0-100%)
	ProcessCPUPercent float64 // Can exceed 100% on multi-core
	IOWaitPercent     float64 // High values mean the database or disk is the bottleneck
	ProcessRSSMB      float64
	MemoryUsedGB      float64
	MemoryPercent     float64

	// Cumulative loader counters and their rates since the previous sample
	Entities       int64
	Points         int64
	EntitiesPerSec float64
	PointsPerSec   float64

	Timestamp time.Time
}

// Throughput reports the loader's cumulative entity and point counts
type Throughput func() (entities, points int64)

// Collector periodically samples and logs system metrics
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	proc     *process.Process

	throughput Throughput

	lastCPUTimes cpu.TimesStat
	hasCPUTimes  bool
	last         *SystemMetrics
}

// NewCollector creates a collector; intervals under a second fall back to 30s
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Debug("Process metrics unavailable", zap.Error(err))
		proc = nil
	}

	return &Collector{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}
}

// WithThroughput adds loader rates to every sample
func (c *Collector) WithThroughput(fn Throughput) *Collector {
	c.throughput = fn
	return c
}

// Start samples once immediately and then on every tick until ctx is cancelled
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	m := c.sample()
	c.addThroughput(m)
	c.last = m

	fields := []zap.Field{
		zap.Float64("sys_cpu", m.CPUPercent),
		zap.Float64("proc_cpu", m.ProcessCPUPercent),
		zap.Float64("iowait", m.IOWaitPercent),
		zap.String("rss", formatMB(m.ProcessRSSMB)),
		zap.Float64("mem_pct", m.MemoryPercent),
		zap.String("mem_used", formatGB(m.MemoryUsedGB)),
	}
	if c.throughput != nil {
		fields = append(fields,
			zap.Float64("entities_per_sec", m.EntitiesPerSec),
			zap.Float64("points_per_sec", m.PointsPerSec))
	}
	c.logger.Info("System metrics", fields...)
}

// addThroughput fills the loader counters; rates stay zero on the first sample
func (c *Collector) addThroughput(m *SystemMetrics) {
	if c.throughput == nil {
		return
	}
	m.Entities, m.Points = c.throughput()
	if c.last == nil {
		return
	}
	secs := m.Timestamp.Sub(c.last.Timestamp).Seconds()
	if secs <= 0 {
		return
	}
	m.EntitiesPerSec = float64(m.Entities-c.last.Entities) / secs
	m.PointsPerSec = float64(m.Points-c.last.Points) / secs
}

func (c *Collector) sample() *SystemMetrics {
	m := &SystemMetrics{Timestamp: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		m.CPUPercent = pct[0]
	}

	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			m.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil && info != nil {
			m.ProcessRSSMB = float64(info.RSS) / (1024 * 1024)
		}
	}

	m.IOWaitPercent = c.calculateIOWait()

	if vmem, err := mem.VirtualMemory(); err == nil {
		m.MemoryPercent = vmem.UsedPercent
		m.MemoryUsedGB = float64(vmem.Used) / (1024 * 1024 * 1024)
	}
	return m
}

// calculateIOWait returns the iowait share of CPU time since the previous call
func (c *Collector) calculateIOWait() float64 {
	times, err := cpu.Times(false)
	if err != nil || len(times) == 0 {
		return 0
	}
	current := times[0]

	if !c.hasCPUTimes {
		c.lastCPUTimes = current
		c.hasCPUTimes = true
		return 0
	}

	pct := iowaitPercent(c.lastCPUTimes, current)
	c.lastCPUTimes = current
	return pct
}

func iowaitPercent(last, current cpu.TimesStat) float64 {
	totalDelta := (current.User - last.User) +
		(current.System - last.System) +
		(current.Idle - last.Idle) +
		(current.Iowait - last.Iowait) +
		(current.Irq - last.Irq) +
		(current.Softirq - last.Softirq) +
		(current.Steal - last.Steal)
	if totalDelta <= 0 {
		return 0
	}
	return (current.Iowait - last.Iowait) / totalDelta * 100
}

func formatGB(gb float64) string {
	return fmt.Sprintf("%.1f GB", gb)
}

func formatMB(mb float64) string {
	return fmt.Sprintf("%.1f MB", mb)
}
