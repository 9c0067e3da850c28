package api

import (
	"net/http"

	"qacurator/pipeline"
	"qacurator/types"

	"github.com/gin-gonic/gin"
)

// RegisterCurationRoutes registers full-pipeline endpoints.
func RegisterCurationRoutes(r *gin.Engine, p *pipeline.Pipeline) {
	h := &curationHandler{pipeline: p}
	g := r.Group("/api/curation")
	g.POST("/run", h.handleRun)
	g.GET("/status", h.handleStatus)
}

type curationHandler struct {
	pipeline *pipeline.Pipeline
}

// CurationRequest carries a raw candidate batch.
type CurationRequest struct {
	Candidates []types.Candidate `json:"candidates" binding:"required"`
}

// handleRun scores, filters and deduplicates the batch synchronously.
func (h *curationHandler) handleRun(c *gin.Context) {
	var req CurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.pipeline.Run(c.Request.Context(), req.Candidates)
	if err != nil {
		respondWithError(c, "curation run failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleStatus returns the run tracker snapshot.
func (h *curationHandler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Status())
}
