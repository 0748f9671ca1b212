// Package lifecycle orchestrates restart and update of the managed game
// server process. Both operations share one mutex so they can never run
// concurrently, while status, metrics, config and log requests proceed
// without ever touching that mutex.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vein-tools/veind/pkg/config"
	"github.com/vein-tools/veind/pkg/errdefs"
	"github.com/vein-tools/veind/pkg/gameprocess"
	"github.com/vein-tools/veind/pkg/log"
	"github.com/vein-tools/veind/pkg/process"
)

type State string

const (
	StateStopped    State = "STOPPED"
	StateRunning    State = "RUNNING"
	StateRestarting State = "RESTARTING"
	StateUpdating   State = "UPDATING"
)

// launcher binary candidates, resolved relative to the server dir
var launcherNames = []string{"VeinServer.sh", "VeinServer"}

// maxOutputBytes bounds the diagnostic excerpt kept from the update
// tool's combined output. Only the tail survives truncation.
const maxOutputBytes = 4096

// killWaitTimeout bounds the wait after SIGKILL escalation.
const killWaitTimeout = 10 * time.Second

// Monitor resolves the managed process state on the host.
type Monitor interface {
	Status(ctx context.Context) (gameprocess.Status, error)
}

// Status is the lifecycle view of the managed process.
type Status struct {
	State   State               `json:"state"`
	Process *gameprocess.Status `json:"process,omitempty"`
}

// RestartResult reports what a restart did. PreviousPID is zero when the
// server was not running beforehand.
type RestartResult struct {
	PreviousPID int32    `json:"previous_pid,omitempty"`
	PID         int32    `json:"pid"`
	Command     string   `json:"command"`
	Args        []string `json:"args"`
}

// UpdateResult reports the outcome of a synchronous update run.
type UpdateResult struct {
	UpdateDetected bool    `json:"update_detected"`
	BuildIDBefore  string  `json:"build_id_before,omitempty"`
	BuildIDAfter   string  `json:"build_id_after,omitempty"`
	DurationSecs   float64 `json:"duration_seconds"`
	Output         string  `json:"output"`
}

// Controller serializes restart and update against each other and
// enforces their preconditions.
type Controller struct {
	cfg     *config.Config
	monitor Monitor
	procCtl process.Controller

	// opMu is the single lifecycle lock shared by Restart and Update.
	opMu sync.Mutex

	// stateMu guards the in-flight transition marker only, so Status
	// never blocks behind a running update.
	stateMu    sync.Mutex
	transition State

	// swapped out in tests to avoid spawning real binaries
	newProcess func(opts ...process.OpOption) (process.Process, error)
}

func New(cfg *config.Config, monitor Monitor, procCtl process.Controller) *Controller {
	return &Controller{
		cfg:        cfg,
		monitor:    monitor,
		procCtl:    procCtl,
		newProcess: process.New,
	}
}

// Status derives the current state from the process table, except while
// a restart or update is in flight.
func (c *Controller) Status(ctx context.Context) (*Status, error) {
	c.stateMu.Lock()
	transition := c.transition
	c.stateMu.Unlock()

	if transition != "" {
		return &Status{State: transition}, nil
	}

	st, err := c.monitor.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !st.Running {
		return &Status{State: StateStopped}, nil
	}
	return &Status{State: StateRunning, Process: &st}, nil
}

func (c *Controller) setTransition(s State) {
	c.stateMu.Lock()
	c.transition = s
	c.stateMu.Unlock()
}

// Restart stops the server if it is running (SIGTERM, bounded wait,
// SIGKILL escalation) and spawns the launcher with flags derived from
// the current configuration. Flags supplied out of band at the original
// process start are not reconstructed.
func (c *Controller) Restart(ctx context.Context) (*RestartResult, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	// The HTTP layer cancels the request context as soon as the handler
	// returns, which would kill the launcher we just spawned. Neither
	// lifecycle operation supports cancellation once started, so detach.
	ctx = context.WithoutCancel(ctx)

	c.setTransition(StateRestarting)
	defer c.setTransition("")

	st, err := c.monitor.Status(ctx)
	if err != nil {
		return nil, err
	}

	var previousPID int32
	if st.Running {
		previousPID = st.PID
		if err := c.stop(ctx, st.PID); err != nil {
			return nil, err
		}
	}

	launcher, err := c.findLauncher()
	if err != nil {
		return nil, fmt.Errorf("previous pid %d: %v: %w", previousPID, err, errdefs.ErrUnavailable)
	}

	args := c.launchArgs()
	p, err := c.newProcess(
		process.WithCommand(append([]string{launcher}, args...)...),
		process.WithWorkingDir(c.cfg.ServerDir),
	)
	if err != nil {
		return nil, fmt.Errorf("previous pid %d: failed to prepare launcher: %v: %w", previousPID, err, errdefs.ErrUnavailable)
	}
	if err := p.Start(ctx); err != nil {
		return nil, fmt.Errorf("previous pid %d: failed to spawn launcher: %v: %w", previousPID, err, errdefs.ErrUnavailable)
	}

	log.Logger.Infow("server restarted",
		"previousPID", previousPID,
		"pid", p.PID(),
		"command", launcher,
		"args", args,
	)

	return &RestartResult{
		PreviousPID: previousPID,
		PID:         p.PID(),
		Command:     launcher,
		Args:        args,
	}, nil
}

func (c *Controller) stop(ctx context.Context, pid int32) error {
	if err := c.procCtl.Terminate(ctx, pid); err != nil {
		return fmt.Errorf("failed to signal server: %v: %w", err, errdefs.ErrUnavailable)
	}

	exited, err := c.procCtl.WaitExit(ctx, pid, c.cfg.GracefulTimeout)
	if err != nil {
		return err
	}
	if exited {
		return nil
	}

	log.Logger.Warnw("server ignored SIGTERM, escalating", "pid", pid, "waited", c.cfg.GracefulTimeout)
	if err := c.procCtl.Kill(ctx, pid); err != nil {
		return fmt.Errorf("failed to kill server: %v: %w", err, errdefs.ErrUnavailable)
	}

	exited, err = c.procCtl.WaitExit(ctx, pid, killWaitTimeout)
	if err != nil {
		return err
	}
	if !exited {
		return fmt.Errorf("server pid %d survived SIGKILL: %w", pid, errdefs.ErrUnavailable)
	}
	return nil
}

func (c *Controller) findLauncher() (string, error) {
	for _, name := range launcherNames {
		p := filepath.Join(c.cfg.ServerDir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no server launcher found in %s", c.cfg.ServerDir)
}

func (c *Controller) launchArgs() []string {
	args := []string{
		"-log",
		"-QueryPort=" + c.cfg.QueryPort,
		"-Port=" + c.cfg.GamePort,
	}
	if c.cfg.MultihomeIP != "" {
		args = append(args, "-multihome="+c.cfg.MultihomeIP)
	}
	return args
}

// Update synchronously runs the update tool. The server must be stopped
// first; update never starts it. The tool can run for minutes and keeps
// running to completion even if the caller goes away; a half-applied
// download is worse than an unobserved complete one.
func (c *Controller) Update(ctx context.Context) (*UpdateResult, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	ctx = context.WithoutCancel(ctx)

	if c.cfg.AppID == "" {
		return nil, fmt.Errorf("no APPID configured, cannot run the update tool: %w", errdefs.ErrInvalidArgument)
	}

	st, err := c.monitor.Status(ctx)
	if err != nil {
		return nil, err
	}
	if st.Running {
		return nil, fmt.Errorf("server is running (pid %d), stop or restart it before updating: %w",
			st.PID, errdefs.ErrConflict)
	}

	c.setTransition(StateUpdating)
	defer c.setTransition("")

	buildBefore := c.currentBuildID()

	p, err := c.newProcess(
		process.WithCommand(
			c.cfg.SteamCmdPath,
			"+force_install_dir", c.cfg.ServerDir,
			"+login", c.cfg.SteamUser,
			"+app_update", c.cfg.AppID, "validate",
			"+quit",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update tool: %v: %w", err, errdefs.ErrUnavailable)
	}

	start := time.Now()
	out, err := p.StartAndWaitForCombinedOutput(ctx)
	elapsed := time.Since(start)
	excerpt := truncateTail(out, maxOutputBytes)
	if err != nil {
		return nil, fmt.Errorf("update tool failed: %v: output: %s: %w", err, excerpt, errdefs.ErrUnavailable)
	}

	buildAfter := c.currentBuildID()

	log.Logger.Infow("update completed",
		"appid", c.cfg.AppID,
		"buildBefore", buildBefore,
		"buildAfter", buildAfter,
		"elapsed", elapsed,
	)

	return &UpdateResult{
		UpdateDetected: buildBefore != "" && buildAfter != "" && buildBefore != buildAfter,
		BuildIDBefore:  buildBefore,
		BuildIDAfter:   buildAfter,
		DurationSecs:   elapsed.Seconds(),
		Output:         excerpt,
	}, nil
}

func (c *Controller) currentBuildID() string {
	m, err := ReadManifest(c.cfg.ServerDir, c.cfg.AppID)
	if err != nil {
		return ""
	}
	return m.BuildID
}

// UpdateInfo reports the locally installed version from the cached app
// manifest. Whether a newer version exists upstream is unknowable
// without downloading; the update tool offers no availability check.
func (c *Controller) UpdateInfo() (*UpdateInfo, error) {
	if c.cfg.AppID == "" {
		return nil, fmt.Errorf("no APPID configured, cannot locate the app manifest: %w", errdefs.ErrInvalidArgument)
	}
	m, err := ReadManifest(c.cfg.ServerDir, c.cfg.AppID)
	if err != nil {
		return nil, err
	}
	return &UpdateInfo{
		AppID:       c.cfg.AppID,
		BuildID:     m.BuildID,
		LastUpdated: m.LastUpdated,
		Note:        "installed version only; update availability cannot be checked without downloading",
	}, nil
}

// UpdateInfo is the installed-version report for the API.
type UpdateInfo struct {
	AppID       string    `json:"appid"`
	BuildID     string    `json:"build_id"`
	LastUpdated time.Time `json:"last_updated"`
	Note        string    `json:"note"`
}

func truncateTail(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return "..." + string(b[len(b)-max:])
}
