package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sigs.k8s.io/yaml"

	"github.com/vein-tools/veind/version"
)

type Healthz struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func createHealthzHandler() func(ctx *gin.Context) {
	healthz := Healthz{
		Status:  "healthy",
		Version: version.Version,
	}
	return func(c *gin.Context) {
		if c.GetHeader("Content-Type") == "application/yaml" {
			yb, err := yaml.Marshal(healthz)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "failed to marshal healthz " + err.Error()})
				return
			}
			c.String(http.StatusOK, string(yb))
		} else {
			if c.GetHeader("json-indent") == "true" {
				c.IndentedJSON(http.StatusOK, healthz)
			} else {
				c.JSON(http.StatusOK, healthz)
			}
		}
	}
}
