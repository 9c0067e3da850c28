package client

import (
	"context"
	"net/http"

	"qacurator/api"
	"qacurator/pipeline"
	"qacurator/types"
)

// Health returns nil when the API answers its health check.
func (c *CuratorClient) Health(ctx context.Context) error {
	return c.doJSONRequest(ctx, http.MethodGet, "/api/health", nil, nil)
}

// ScoreBatch scores candidates remotely.
func (c *CuratorClient) ScoreBatch(ctx context.Context, candidates []types.Candidate) (*api.ScoreResponse, error) {
	var resp api.ScoreResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/quality/score", api.ScoreRequest{Candidates: candidates}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FilterByQuality filters candidates against previously computed metrics.
func (c *CuratorClient) FilterByQuality(ctx context.Context, candidates []types.Candidate, metrics []types.QualityMetrics) ([]types.Candidate, error) {
	var resp api.FilterResponse
	req := api.FilterRequest{Candidates: candidates, Metrics: metrics}
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/quality/filter", req, &resp); err != nil {
		return nil, err
	}
	return resp.Candidates, nil
}

// Deduplicate runs the deduplicator on one batch.
func (c *CuratorClient) Deduplicate(ctx context.Context, candidates []types.Candidate, scores []float64, includeMatrix bool) (*api.DeduplicationResponse, error) {
	path := "/api/deduplication/run"
	if !includeMatrix {
		path += "?include_matrix=false"
	}
	var resp api.DeduplicationResponse
	req := api.DeduplicationRequest{Candidates: candidates, QualityScores: scores}
	if err := c.doJSONRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Curate runs the full pipeline remotely.
func (c *CuratorClient) Curate(ctx context.Context, candidates []types.Candidate) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/curation/run", api.CurationRequest{Candidates: candidates}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status fetches the server's run tracker snapshot.
func (c *CuratorClient) Status(ctx context.Context) (*pipeline.Status, error) {
	var st pipeline.Status
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/curation/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
