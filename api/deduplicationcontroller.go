package api

import (
	"net/http"
	"strconv"

	"qacurator/deduplication"
	"qacurator/pipeline"
	"qacurator/types"

	"github.com/gin-gonic/gin"
)

// RegisterDeduplicationRoutes registers deduplication service endpoints.
func RegisterDeduplicationRoutes(r *gin.Engine, dedup pipeline.DuplicateFinder) {
	h := &deduplicationHandler{dedup: dedup}
	g := r.Group("/api/deduplication")
	g.POST("/run", h.handleRun)
}

type deduplicationHandler struct {
	dedup pipeline.DuplicateFinder
}

// DeduplicationRequest represents the request to deduplicate a batch
type DeduplicationRequest struct {
	Candidates    []types.Candidate `json:"candidates" binding:"required"`
	QualityScores []float64         `json:"quality_scores" binding:"required"`
}

// DeduplicationResponse represents the response from a deduplication run
type DeduplicationResponse struct {
	Result       *types.DuplicationResult             `json:"result"`
	Statistics   deduplication.DedupStats             `json:"statistics"`
	Similarity   deduplication.SimilarityDistribution `json:"similarity_distribution"`
	Deduplicated []types.Candidate                    `json:"candidates"`
}

// handleRun deduplicates one batch.
// Query params: include_matrix (bool, default true)
func (h *deduplicationHandler) handleRun(c *gin.Context) {
	if h.dedup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "deduplication is not configured"})
		return
	}

	var req DeduplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	includeMatrix := true
	if v := c.Query("include_matrix"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "include_matrix must be a boolean"})
			return
		}
		includeMatrix = b
	}

	result, err := h.dedup.DeduplicateBatch(c.Request.Context(), req.Candidates, req.QualityScores)
	if err != nil {
		respondWithError(c, "failed to deduplicate", err)
		return
	}

	kept, err := deduplication.ApplyDeduplication(req.Candidates, result)
	if err != nil {
		respondWithError(c, "failed to apply deduplication", err)
		return
	}

	response := DeduplicationResponse{
		Result:       result,
		Statistics:   deduplication.Stats(result, h.dedup.Threshold()),
		Similarity:   deduplication.AnalyzeSimilarity(result.SimilarityMatrix, h.dedup.Threshold()),
		Deduplicated: kept,
	}
	if !includeMatrix {
		trimmed := *result
		trimmed.SimilarityMatrix = nil
		response.Result = &trimmed
	}

	c.JSON(http.StatusOK, response)
}
