package api

import (
	"context"
	"errors"
	"net/http"

	"qacurator/logger"
	"qacurator/pipeline"
	"qacurator/quality"
	"qacurator/types"

	"github.com/gin-gonic/gin"
)

// Deps are the services behind the HTTP routes. Deduplicator may be nil when
// no embeddings provider is configured.
type Deps struct {
	Scorer       *quality.Scorer
	Deduplicator pipeline.DuplicateFinder
	Pipeline     *pipeline.Pipeline
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	RegisterQualityRoutes(r, deps.Scorer)
	RegisterDeduplicationRoutes(r, deps.Deduplicator)
	RegisterCurationRoutes(r, deps.Pipeline)
	return r
}

// RegisterHealthRoutes registers the liveness endpoint.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInputMismatch):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrProviderFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondWithError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("API error", "path", c.FullPath(), "message", message, "error", err)
	}
	c.JSON(status, gin.H{"error": message + ": " + err.Error()})
}
