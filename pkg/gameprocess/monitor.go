// Package gameprocess detects the managed game server process and samples
// its resource usage.
package gameprocess

import (
	"context"
	"fmt"
	"strings"
	"time"

	procs "github.com/shirou/gopsutil/v4/process"

	"github.com/vein-tools/veind/pkg/log"
)

// Status is a transient view of the managed process, recomputed on each
// query and never cached across requests.
type Status struct {
	Running   bool      `json:"running"`
	PID       int32     `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`

	UptimeSeconds   float64 `json:"uptime_seconds,omitempty"`
	UptimeFormatted string  `json:"uptime_formatted,omitempty"`
}

// Stats is a point-in-time sample of the managed process.
type Stats struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`

	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`

	UptimeSeconds   float64 `json:"uptime_seconds"`
	UptimeFormatted string  `json:"uptime_formatted"`
}

// Monitor finds the managed process by its binary identity.
type Monitor struct {
	processName    string
	sampleInterval time.Duration

	// overridable for tests
	listProcesses func(ctx context.Context) ([]*procs.Process, error)
}

func NewMonitor(processName string, sampleInterval time.Duration) *Monitor {
	return &Monitor{
		processName:    processName,
		sampleInterval: sampleInterval,
		listProcesses:  procs.ProcessesWithContext,
	}
}

// Find returns the first process whose name or command line contains the
// configured binary identity, or nil when none is running.
func (m *Monitor) Find(ctx context.Context) (*procs.Process, error) {
	processes, err := m.listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	for _, p := range processes {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// exited or inaccessible between listing and inspection
			continue
		}
		if strings.Contains(name, m.processName) {
			return p, nil
		}

		cmdline, err := p.CmdlineSliceWithContext(ctx)
		if err != nil {
			continue
		}
		for _, arg := range cmdline {
			if strings.Contains(arg, m.processName) {
				return p, nil
			}
		}
	}
	return nil, nil
}

// Status reports whether the managed process is alive, with pid and uptime.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	p, err := m.Find(ctx)
	if err != nil {
		return Status{}, err
	}
	if p == nil {
		return Status{Running: false}, nil
	}

	st := Status{Running: true, PID: p.Pid}
	createMs, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		// process died between find and inspect
		return Status{Running: false}, nil
	}
	st.StartedAt = time.UnixMilli(createMs).UTC()
	uptime := time.Since(st.StartedAt)
	st.UptimeSeconds = uptime.Seconds()
	st.UptimeFormatted = FormatUptime(uptime)
	return st, nil
}

// Sample measures CPU over the fixed sampling interval plus resident
// memory. A nil Stats with nil error means the process is not running;
// a process vanishing mid-sample degrades the same way rather than
// failing the request.
func (m *Monitor) Sample(ctx context.Context) (*Stats, error) {
	p, err := m.Find(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	createMs, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		log.Logger.Debugw("process exited before sampling", "error", err)
		return nil, nil
	}

	// interval sampling; a single instantaneous read yields 0%/100% artifacts
	cpuPct, err := p.PercentWithContext(ctx, m.sampleInterval)
	if err != nil {
		log.Logger.Debugw("process exited during cpu sampling", "error", err)
		return nil, nil
	}

	memInfo, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		log.Logger.Debugw("process exited during memory sampling", "error", err)
		return nil, nil
	}
	memPct, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		log.Logger.Debugw("process exited during memory sampling", "error", err)
		return nil, nil
	}

	uptime := time.Since(time.UnixMilli(createMs))
	return &Stats{
		PID:             p.Pid,
		CPUPercent:      cpuPct,
		MemoryMB:        float64(memInfo.RSS) / (1024 * 1024),
		MemoryPercent:   float64(memPct),
		UptimeSeconds:   uptime.Seconds(),
		UptimeFormatted: FormatUptime(uptime),
	}, nil
}

// FormatUptime renders a duration as "1d 2h 3m 4s", dropping leading
// zero units.
func FormatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = 0
	}

	days := secs / 86400
	hours := (secs % 86400) / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
