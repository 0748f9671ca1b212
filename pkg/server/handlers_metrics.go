package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getMetrics(c *gin.Context) {
	snap, err := s.collector.Collect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
