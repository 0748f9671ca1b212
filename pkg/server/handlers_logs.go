package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vein-tools/veind/pkg/errdefs"
)

func (s *Server) getLogs(c *gin.Context) {
	entries, err := s.logs.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  entries,
		"count": len(entries),
	})
}

// defaultTailLines bounds the cost of a log read when the caller does
// not ask for a specific count. lines=0 requests the whole file.
const defaultTailLines = 100

func (s *Server) getLogContent(c *gin.Context) {
	lines := defaultTailLines
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, fmt.Errorf("invalid lines parameter %q: %w", raw, errdefs.ErrInvalidArgument))
			return
		}
		lines = n
	}

	content, err := s.logs.Tail(c.Param("filename"), lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}
