package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qacurator/config"
	"qacurator/deduplication"
	"qacurator/logger"
	"qacurator/quality"
	"qacurator/types"
)

// DuplicateFinder is the deduplication step of a run.
type DuplicateFinder interface {
	DeduplicateBatch(ctx context.Context, candidates []types.Candidate, scores []float64) (*types.DuplicationResult, error)
	Threshold() float64
}

// Summary describes what a run did to its batch.
type Summary struct {
	TotalInput            int                                   `json:"total_input"`
	RemovedByQuality      int                                   `json:"total_removed_by_quality"`
	RemovedByDedup        int                                   `json:"total_removed_by_dedup"`
	TotalOutput           int                                   `json:"total_output"`
	TierDistribution      map[types.Tier]int                    `json:"tier_distribution"`
	GroupSizeDistribution map[int]int                           `json:"duplicate_group_size_distribution"`
	Quality               quality.Statistics                    `json:"quality_statistics"`
	Dedup                 *deduplication.DedupStats             `json:"deduplication_statistics,omitempty"`
	Similarity            *deduplication.SimilarityDistribution `json:"similarity_distribution,omitempty"`
	DedupSkipped          bool                                  `json:"dedup_skipped"`
	DedupError            string                                `json:"dedup_error,omitempty"`
	DurationMS            int64                                 `json:"duration_ms"`
}

// Result is the output of one run.
type Result struct {
	RunID      string            `json:"run_id"`
	Candidates []types.Candidate `json:"candidates"`
	Summary    Summary           `json:"summary"`
	Stage      Stage             `json:"stage"`
}

// Pipeline scores, filters and deduplicates candidate batches.
type Pipeline struct {
	scorer *quality.Scorer
	dedup  DuplicateFinder
	policy string
	state  *Tracker
}

// New creates a pipeline. A nil dedup disables deduplication; every run then
// reports dedup_skipped.
func New(scorer *quality.Scorer, dedup DuplicateFinder, cfg config.Pipeline) (*Pipeline, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer cannot be nil")
	}
	policy := cfg.DedupFailurePolicy
	if policy == "" {
		policy = config.DedupFailurePolicyFail
	}
	if policy != config.DedupFailurePolicyFail && policy != config.DedupFailurePolicySkip {
		return nil, fmt.Errorf("unknown dedup failure policy %q", policy)
	}
	return &Pipeline{
		scorer: scorer,
		dedup:  dedup,
		policy: policy,
		state:  NewTracker(50),
	}, nil
}

// Status returns the run tracker snapshot.
func (p *Pipeline) Status() Status { return p.state.Status() }

// Run curates one batch. Input contract violations and cancellation always
// fail the run; a provider failure fails it unless the policy is skip.
func (p *Pipeline) Run(ctx context.Context, candidates []types.Candidate) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	p.state.Begin(runID, len(candidates))

	res, err := p.run(ctx, runID, candidates)
	if err != nil {
		p.state.Fail(runID, err)
		logger.Error("Curation run failed", "run_id", runID, "error", err)
		return nil, err
	}

	res.Summary.DurationMS = time.Since(started).Milliseconds()
	res.Stage = StageComplete
	p.state.Finish(runID, res.Summary)

	logger.Info("Curation run complete",
		"run_id", runID,
		"input", res.Summary.TotalInput,
		"removed_by_quality", res.Summary.RemovedByQuality,
		"removed_by_dedup", res.Summary.RemovedByDedup,
		"output", res.Summary.TotalOutput,
		"dedup_skipped", res.Summary.DedupSkipped,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, candidates []types.Candidate) (*Result, error) {
	metrics := p.scorer.ScoreBatch(candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.state.SetStage(runID, StageFiltering)
	filtered, err := quality.FilterByQuality(candidates, metrics)
	if err != nil {
		return nil, err
	}

	summary := Summary{
		TotalInput:            len(candidates),
		RemovedByQuality:      len(candidates) - len(filtered),
		TierDistribution:      quality.TierDistribution(metrics),
		GroupSizeDistribution: map[int]int{},
		Quality:               quality.BatchStatistics(metrics),
	}
	logger.Debug("Quality filter applied", "run_id", runID, "kept", len(filtered), "removed", summary.RemovedByQuality)

	if p.dedup == nil {
		summary.DedupSkipped = true
		summary.TotalOutput = len(filtered)
		return &Result{RunID: runID, Candidates: filtered, Summary: summary}, nil
	}

	p.state.SetStage(runID, StageDeduplicating)
	scores := make([]float64, len(filtered))
	for i, c := range filtered {
		scores[i] = c.Quality.FinalScore
	}

	result, err := p.dedup.DeduplicateBatch(ctx, filtered, scores)
	if err != nil {
		if p.skippable(ctx, err) {
			logger.Warn("Deduplication failed, emitting quality-filtered batch", "run_id", runID, "error", err)
			p.state.AddLog(runID, fmt.Sprintf("Deduplication skipped: %v", err))
			summary.DedupSkipped = true
			summary.DedupError = err.Error()
			summary.TotalOutput = len(filtered)
			return &Result{RunID: runID, Candidates: filtered, Summary: summary}, nil
		}
		return nil, err
	}

	kept, err := deduplication.ApplyDeduplication(filtered, result)
	if err != nil {
		return nil, err
	}

	stats := deduplication.Stats(result, p.dedup.Threshold())
	sim := deduplication.AnalyzeSimilarity(result.SimilarityMatrix, p.dedup.Threshold())
	summary.Dedup = &stats
	summary.Similarity = &sim
	summary.GroupSizeDistribution = stats.GroupSizeDistribution
	summary.RemovedByDedup = result.TotalRemoved
	summary.TotalOutput = len(kept)

	return &Result{RunID: runID, Candidates: kept, Summary: summary}, nil
}

func (p *Pipeline) skippable(ctx context.Context, err error) bool {
	if p.policy != config.DedupFailurePolicySkip || ctx.Err() != nil {
		return false
	}
	return errors.Is(err, types.ErrProviderFailure)
}
