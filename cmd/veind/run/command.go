// Package run implements the "run" command.
package run

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/vein-tools/veind/pkg/config"
	"github.com/vein-tools/veind/pkg/gameprocess"
	"github.com/vein-tools/veind/pkg/iniconf"
	"github.com/vein-tools/veind/pkg/lifecycle"
	"github.com/vein-tools/veind/pkg/log"
	"github.com/vein-tools/veind/pkg/logtail"
	"github.com/vein-tools/veind/pkg/metrics"
	"github.com/vein-tools/veind/pkg/process"
	"github.com/vein-tools/veind/pkg/server"
	"github.com/vein-tools/veind/version"
)

const shutdownTimeout = 10 * time.Second

func Command(cliContext *cli.Context) error {
	logLevel := cliContext.String("log-level")
	logFile := cliContext.String("log-file")
	zapLvl, err := log.ParseLogLevel(logLevel)
	if err != nil {
		return err
	}
	log.Logger = log.CreateLogger(zapLvl, logFile)

	if zapLvl.Level() > zap.DebugLevel { // e.g., info, warn, error
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	cfg := config.DefaultConfig()
	applyFlags(cfg, cliContext)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.APIKey == "" {
		log.Logger.Warnw("no api key configured, every request will be accepted")
	}

	monitor := gameprocess.NewMonitor(cfg.ProcessName, cfg.SampleInterval)
	collector := metrics.NewCollector(monitor, cfg.ServerDir, cfg.SampleInterval)
	lc := lifecycle.New(cfg, monitor, process.NewController())

	srv, err := server.New(cfg, lc, collector, iniconf.NewStore(), logtail.NewReader(cfg.LogDir))
	if err != nil {
		return err
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger.Infow("starting veind", "version", version.Version, "address", cfg.Address)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-rootCtx.Done():
	}

	log.Logger.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(ctx)
}

func applyFlags(cfg *config.Config, cliContext *cli.Context) {
	if v := cliContext.String("address"); v != "" {
		cfg.Address = v
	}
	if v := cliContext.String("server-dir"); v != "" {
		cfg.ServerDir = v
		// keep the derived layout in sync unless explicitly overridden
		if os.Getenv("CONFIG_PATH") == "" && cliContext.String("config-dir") == "" {
			cfg.ConfigDir = filepath.Join(v, "Vein/Saved/Config/LinuxServer")
		}
		if os.Getenv("LOG_DIR") == "" && cliContext.String("log-dir") == "" {
			cfg.LogDir = filepath.Join(v, "Vein/Saved/Logs")
		}
	}
	if v := cliContext.String("config-dir"); v != "" {
		cfg.ConfigDir = v
	}
	if v := cliContext.String("log-dir"); v != "" {
		cfg.LogDir = v
	}
	if v := cliContext.String("api-key"); v != "" {
		cfg.APIKey = v
	}
	if v := cliContext.String("appid"); v != "" {
		cfg.AppID = v
	}
	if v := cliContext.String("process-name"); v != "" {
		cfg.ProcessName = v
	}
	if v := cliContext.Duration("graceful-timeout"); v > 0 {
		cfg.GracefulTimeout = v
	}
}
