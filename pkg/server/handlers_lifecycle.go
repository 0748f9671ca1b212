package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vein-tools/veind/pkg/errdefs"
)

func (s *Server) getServerStatus(c *gin.Context) {
	st, err := s.lifecycle.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) postServerRestart(c *gin.Context) {
	res, err := s.lifecycle.Restart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	metricRestarts.Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "server restarted",
		"restart": res,
	})
}

func (s *Server) getServerUpdateInfo(c *gin.Context) {
	info, err := s.lifecycle.UpdateInfo()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) postServerUpdate(c *gin.Context) {
	res, err := s.lifecycle.Update(c.Request.Context())
	if err != nil {
		// precondition conflicts are not tool failures
		if errdefs.IsUnavailable(err) {
			metricUpdateFailures.Inc()
		}
		respondError(c, err)
		return
	}

	metricUpdates.Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "update completed, server left stopped",
		"update":  res,
	})
}
