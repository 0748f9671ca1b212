// Package metrics composes process-level and host-level resource
// snapshots for the control-plane API.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/vein-tools/veind/pkg/gameprocess"
	"github.com/vein-tools/veind/pkg/log"
)

// ProcessSampler samples the managed game server process.
type ProcessSampler interface {
	Sample(ctx context.Context) (*gameprocess.Stats, error)
}

// HostStats is the host-wide portion of a snapshot, collected regardless
// of whether the managed process is running.
type HostStats struct {
	CPUPercent float64 `json:"cpu_percent"`

	MemoryTotalBytes     uint64 `json:"memory_total_bytes"`
	MemoryTotalHumanized string `json:"memory_total_humanized"`
	MemoryUsedBytes      uint64 `json:"memory_used_bytes"`
	MemoryUsedHumanized  string `json:"memory_used_humanized"`
	MemoryUsedPercent    string `json:"memory_used_percent"`

	DiskTotalBytes     uint64 `json:"disk_total_bytes"`
	DiskTotalHumanized string `json:"disk_total_humanized"`
	DiskUsedBytes      uint64 `json:"disk_used_bytes"`
	DiskUsedHumanized  string `json:"disk_used_humanized"`
	DiskUsedPercent    string `json:"disk_used_percent"`
}

// Snapshot is an immutable point-in-time combination of process and host
// stats. It is never persisted.
type Snapshot struct {
	Timestamp     time.Time          `json:"timestamp"`
	ServerRunning bool               `json:"server_running"`
	Process       *gameprocess.Stats `json:"process,omitempty"`
	Host          HostStats          `json:"host"`
}

// Collector builds snapshots. Sampling is bounded by the fixed interval
// and never blocks indefinitely.
type Collector struct {
	sampler        ProcessSampler
	serverDir      string
	sampleInterval time.Duration
}

func NewCollector(sampler ProcessSampler, serverDir string, sampleInterval time.Duration) *Collector {
	return &Collector{
		sampler:        sampler,
		serverDir:      serverDir,
		sampleInterval: sampleInterval,
	}
}

// Collect samples the managed process (when alive) and the host.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	procStats, err := c.sampler.Sample(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sample process: %w", err)
	}

	host, err := c.collectHost(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Timestamp:     time.Now().UTC(),
		ServerRunning: procStats != nil,
		Process:       procStats,
		Host:          host,
	}, nil
}

func (c *Collector) collectHost(ctx context.Context) (HostStats, error) {
	stats := HostStats{}

	percents, err := cpu.PercentWithContext(ctx, c.sampleInterval, false)
	if err != nil {
		return stats, fmt.Errorf("failed to sample host cpu: %w", err)
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read host memory: %w", err)
	}
	stats.MemoryTotalBytes = vm.Total
	stats.MemoryTotalHumanized = humanize.Bytes(vm.Total)
	stats.MemoryUsedBytes = vm.Used
	stats.MemoryUsedHumanized = humanize.Bytes(vm.Used)
	stats.MemoryUsedPercent = fmt.Sprintf("%.2f", vm.UsedPercent)

	usage, err := disk.UsageWithContext(ctx, c.serverDir)
	if err != nil {
		// the server install dir may not exist yet (first boot before
		// the update tool ran); report memory/cpu without disk
		log.Logger.Warnw("failed to read disk usage", "dir", c.serverDir, "error", err)
		return stats, nil
	}
	stats.DiskTotalBytes = usage.Total
	stats.DiskTotalHumanized = humanize.Bytes(usage.Total)
	stats.DiskUsedBytes = usage.Used
	stats.DiskUsedHumanized = humanize.Bytes(usage.Used)
	stats.DiskUsedPercent = fmt.Sprintf("%.2f", usage.UsedPercent)

	return stats, nil
}
