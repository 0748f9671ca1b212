// Package server exposes the control-plane HTTP API: process status and
// metrics, config editing, restart/update orchestration, and log access.
package server

import (
	"context"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vein-tools/veind/pkg/config"
	"github.com/vein-tools/veind/pkg/iniconf"
	"github.com/vein-tools/veind/pkg/lifecycle"
	"github.com/vein-tools/veind/pkg/log"
	"github.com/vein-tools/veind/pkg/logtail"
	"github.com/vein-tools/veind/pkg/metrics"
)

// Lifecycle is the restart/update orchestrator behind the API.
type Lifecycle interface {
	Status(ctx context.Context) (*lifecycle.Status, error)
	Restart(ctx context.Context) (*lifecycle.RestartResult, error)
	Update(ctx context.Context) (*lifecycle.UpdateResult, error)
	UpdateInfo() (*lifecycle.UpdateInfo, error)
}

// MetricsCollector samples process and host resource usage.
type MetricsCollector interface {
	Collect(ctx context.Context) (*metrics.Snapshot, error)
}

type Server struct {
	cfg       *config.Config
	lifecycle Lifecycle
	collector MetricsCollector
	store     *iniconf.Store
	logs      *logtail.Reader

	router *gin.Engine
	srv    *http.Server
}

func New(cfg *config.Config, lc Lifecycle, collector MetricsCollector, store *iniconf.Store, logs *logtail.Reader) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		lifecycle: lc,
		collector: collector,
		store:     store,
		logs:      logs,
	}

	promReg := prometheus.NewRegistry()
	if err := registerMetrics(promReg); err != nil {
		return nil, err
	}
	promReg.MustRegister(collectors.NewGoCollector())

	router := gin.New()
	installRootGinMiddlewares(router)
	installCommonGinMiddlewares(router, log.Logger.Desugar())

	// the liveness probe is the only unauthenticated route
	router.GET("/health", createHealthzHandler())

	// the scrape endpoint honors the API key when one is configured;
	// requireAPIKey passes everything through when none is set
	promHandler := promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
	router.GET("/metrics", s.requireAPIKey(), func(c *gin.Context) {
		promHandler.ServeHTTP(c.Writer, c.Request)
	})

	api := router.Group("/api")

	// if the request header is set "Accept-Encoding: gzip",
	// the middleware automatically gzip-compresses the response with the response header "Content-Encoding: gzip"
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.Use(s.requireAPIKey())

	api.GET("/server/status", s.getServerStatus)
	api.POST("/server/restart", s.postServerRestart)
	api.GET("/server/update-info", s.getServerUpdateInfo)
	api.POST("/server/update", s.postServerUpdate)

	api.GET("/metrics", s.getMetrics)

	api.GET("/config/game", s.createConfigGetHandler(cfg.GameINIPath()))
	api.PUT("/config/game", s.createConfigUpdateHandler(cfg.GameINIPath()))
	api.PATCH("/config/game", s.createConfigUpdateHandler(cfg.GameINIPath()))
	api.GET("/config/engine", s.createConfigGetHandler(cfg.EngineINIPath()))
	api.PUT("/config/engine", s.createConfigUpdateHandler(cfg.EngineINIPath()))
	api.PATCH("/config/engine", s.createConfigUpdateHandler(cfg.EngineINIPath()))

	api.GET("/logs", s.getLogs)
	api.GET("/logs/:filename", s.getLogContent)

	s.router = router
	return s, nil
}

// Handler returns the underlying http handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.router,
	}
	log.Logger.Infow("starting control-plane server", "address", s.cfg.Address)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
