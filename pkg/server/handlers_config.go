package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vein-tools/veind/pkg/errdefs"
	"github.com/vein-tools/veind/pkg/iniconf"
)

type configUpdateRequest struct {
	// values must be strings; the engine consumes them verbatim and
	// coercing JSON numbers or booleans would alter formatting
	Config map[string]map[string]any `json:"config"`
}

func (s *Server) createConfigGetHandler(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := s.store.Load(path)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"file":   filepath.Base(path),
			"config": f.Sections(),
		})
	}
}

func (s *Server) createConfigUpdateHandler(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req configUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("malformed request body: %v: %w", err, errdefs.ErrInvalidArgument))
			return
		}

		patch, err := toPatch(req.Config)
		if err != nil {
			respondError(c, err)
			return
		}

		res, err := s.store.Update(path, patch)
		if err != nil {
			respondError(c, err)
			return
		}

		metricConfigWrites.WithLabelValues(filepath.Base(path)).Inc()
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": filepath.Base(path) + " updated successfully",
			"backup":  filepath.Base(res.BackupPath),
			"note":    "Server restart required for changes to take effect",
		})
	}
}

func toPatch(raw map[string]map[string]any) (iniconf.Patch, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no config provided: %w", errdefs.ErrInvalidArgument)
	}

	patch := make(iniconf.Patch, len(raw))
	for section, items := range raw {
		if len(items) == 0 {
			continue
		}
		patch[section] = make(map[string]string, len(items))
		for key, value := range items {
			str, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("value for [%s] %s must be a string, got %T: %w",
					section, key, value, errdefs.ErrInvalidArgument)
			}
			patch[section][key] = str
		}
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("no config values provided: %w", errdefs.ErrInvalidArgument)
	}
	return patch, nil
}
