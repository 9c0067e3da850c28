package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"qacurator/config"
	"qacurator/deduplication"
	"qacurator/quality"
	"qacurator/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubProvider) ModelName() string { return "stub-embed" }

func (s *stubProvider) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

func qa(title string, views, upvotes, rep int64, answer *types.Answer, code, image bool) types.Candidate {
	return types.Candidate{
		Source: "stackexchange",
		Question: &types.Question{
			Title:                 title,
			ViewCount:             views,
			UpvoteScore:           upvotes,
			ContributorReputation: rep,
		},
		Answer:  answer,
		Signals: types.CompletionSignals{HasCodeBlock: code, HasImageContext: image},
	}
}

func accepted(upvotes, rep int64) *types.Answer {
	return &types.Answer{UpvoteScore: upvotes, IsAccepted: true, ContributorReputation: rep}
}

// Final scores with default weights: 6.20, 5.38, 5.78, 7.21, 10, 0.
// Candidates 2 and 4 ask the same question.
func curationBatch() ([]types.Candidate, *stubProvider) {
	batch := []types.Candidate{
		qa("Sum values by month", 1000, 5, 500, accepted(4, 800), true, false),
		qa("Remove duplicate rows", 800, 4, 300, accepted(3, 600), true, false),
		qa("How to highlight cells with formulas", 900, 4, 400, accepted(4, 500), true, false),
		qa("Freeze the top row", 1200, 6, 900, accepted(5, 1000), false, true),
		qa("Highlight every cell that has a formula", 2000, 8, 1500, accepted(9, 3000), true, true),
		qa("anyone?", 0, 0, 0, nil, false, false),
	}
	p := &stubProvider{vectors: map[string][]float32{
		"Sum values by month":                     {1, 0, 0, 0},
		"Remove duplicate rows":                   {0, 1, 0, 0},
		"highlight cells with formulas":           {0, 0, 1, 0},
		"Freeze the top row":                      {0, 0, 0, 1},
		"Highlight every cell that has a formula": {0, 0, 0.99, 0.141},
	}}
	return batch, p
}

func newTestPipeline(t *testing.T, p *stubProvider, policy string) *Pipeline {
	t.Helper()
	d, err := deduplication.NewDeduplicator(p, deduplication.DeduplicatorConfig{Dedup: config.DefaultDedup()})
	require.NoError(t, err)
	pl, err := New(quality.NewScorer(config.DefaultQuality()), d, config.Pipeline{DedupFailurePolicy: policy})
	require.NoError(t, err)
	return pl
}

func titles(cs []types.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Title()
	}
	return out
}

func TestRunScoresFiltersAndDeduplicates(t *testing.T) {
	batch, p := curationBatch()
	pl := newTestPipeline(t, p, config.DedupFailurePolicyFail)

	res, err := pl.Run(context.Background(), batch)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, StageComplete, res.Stage)
	assert.Equal(t, []string{
		"Sum values by month",
		"Remove duplicate rows",
		"Freeze the top row",
		"Highlight every cell that has a formula",
	}, titles(res.Candidates))

	s := res.Summary
	assert.Equal(t, 6, s.TotalInput)
	assert.Equal(t, 1, s.RemovedByQuality)
	assert.Equal(t, 1, s.RemovedByDedup)
	assert.Equal(t, 4, s.TotalOutput)
	assert.False(t, s.DedupSkipped)
	assert.Equal(t, map[int]int{2: 1}, s.GroupSizeDistribution)
	assert.Equal(t, map[types.Tier]int{
		types.TierExcellent: 1,
		types.TierGood:      1,
		types.TierFair:      3,
		types.TierPoor:      1,
	}, s.TierDistribution)
	require.NotNil(t, s.Dedup)
	assert.Equal(t, 5, s.Dedup.TotalInput)
	require.NotNil(t, s.Similarity)
	assert.Equal(t, 1, s.Similarity.AboveThreshold)

	best := res.Candidates[3]
	require.NotNil(t, best.Quality)
	assert.InDelta(t, 10.0, best.Quality.FinalScore, 1e-9)
	assert.Equal(t, &types.DedupInfo{WasDuplicate: true, GroupSize: 2}, best.Dedup)
	for _, c := range res.Candidates {
		assert.True(t, c.Quality.MeetsThreshold)
	}

	st := pl.Status()
	assert.Equal(t, StageComplete, st.Stage)
	assert.Equal(t, res.RunID, st.RunID)
	require.NotNil(t, st.LastSummary)
	assert.Equal(t, 4, st.LastSummary.TotalOutput)
}

func TestRunProviderFailureFailsByDefault(t *testing.T) {
	batch, p := curationBatch()
	p.err = errors.New("rate limited")
	pl := newTestPipeline(t, p, "")

	res, err := pl.Run(context.Background(), batch)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrProviderFailure)

	st := pl.Status()
	assert.Equal(t, StageError, st.Stage)
	assert.Contains(t, st.Error, "rate limited")
}

func TestRunProviderFailureSkipPolicy(t *testing.T) {
	batch, p := curationBatch()
	p.err = errors.New("rate limited")
	pl := newTestPipeline(t, p, config.DedupFailurePolicySkip)

	res, err := pl.Run(context.Background(), batch)
	require.NoError(t, err)

	assert.True(t, res.Summary.DedupSkipped)
	assert.Contains(t, res.Summary.DedupError, "rate limited")
	assert.Equal(t, 5, res.Summary.TotalOutput)
	assert.Equal(t, 0, res.Summary.RemovedByDedup)
	assert.Nil(t, res.Summary.Dedup)
	require.Len(t, res.Candidates, 5)
	for _, c := range res.Candidates {
		assert.Nil(t, c.Dedup)
		assert.NotNil(t, c.Quality)
	}
}

func TestRunCancelledFailsEvenWithSkipPolicy(t *testing.T) {
	batch, p := curationBatch()
	pl := newTestPipeline(t, p, config.DedupFailurePolicySkip)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pl.Run(ctx, batch)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestRunWithoutDeduplicator(t *testing.T) {
	batch, _ := curationBatch()
	pl, err := New(quality.NewScorer(config.DefaultQuality()), nil, config.Pipeline{})
	require.NoError(t, err)

	res, err := pl.Run(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, res.Summary.DedupSkipped)
	assert.Empty(t, res.Summary.DedupError)
	assert.Len(t, res.Candidates, 5)
	assert.Empty(t, res.Summary.GroupSizeDistribution)
}

func TestRunEmptyBatch(t *testing.T) {
	p := &stubProvider{}
	pl := newTestPipeline(t, p, config.DedupFailurePolicyFail)

	res, err := pl.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 0, res.Summary.TotalInput)
	assert.Zero(t, p.calls)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, nil, config.Pipeline{})
	assert.Error(t, err)

	_, err = New(quality.NewScorer(config.DefaultQuality()), nil, config.Pipeline{DedupFailurePolicy: "retry"})
	assert.Error(t, err)
}
