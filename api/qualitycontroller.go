package api

import (
	"net/http"

	"qacurator/quality"
	"qacurator/types"

	"github.com/gin-gonic/gin"
)

// RegisterQualityRoutes registers quality scoring endpoints.
func RegisterQualityRoutes(r *gin.Engine, scorer *quality.Scorer) {
	h := &qualityHandler{scorer: scorer}
	g := r.Group("/api/quality")
	g.POST("/score", h.handleScore)
	g.POST("/filter", h.handleFilter)
}

type qualityHandler struct {
	scorer *quality.Scorer
}

// ScoreRequest carries the batch to score.
type ScoreRequest struct {
	Candidates []types.Candidate `json:"candidates" binding:"required"`
}

// ScoreResponse holds one metrics entry per candidate, index-aligned.
type ScoreResponse struct {
	Metrics    []types.QualityMetrics `json:"metrics"`
	Statistics quality.Statistics     `json:"statistics"`
}

// FilterRequest pairs candidates with previously computed metrics.
type FilterRequest struct {
	Candidates []types.Candidate      `json:"candidates" binding:"required"`
	Metrics    []types.QualityMetrics `json:"metrics" binding:"required"`
}

// FilterResponse lists the candidates that met the threshold.
type FilterResponse struct {
	Candidates []types.Candidate `json:"candidates"`
	Kept       int               `json:"kept"`
	Removed    int               `json:"removed"`
}

func (h *qualityHandler) handleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metrics := h.scorer.ScoreBatch(req.Candidates)
	c.JSON(http.StatusOK, ScoreResponse{
		Metrics:    metrics,
		Statistics: quality.BatchStatistics(metrics),
	})
}

func (h *qualityHandler) handleFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kept, err := h.scorer.FilterByQuality(req.Candidates, req.Metrics)
	if err != nil {
		respondWithError(c, "failed to filter candidates", err)
		return
	}

	c.JSON(http.StatusOK, FilterResponse{
		Candidates: kept,
		Kept:       len(kept),
		Removed:    len(req.Candidates) - len(kept),
	})
}
