package quality

import (
	"math"
	"runtime"

	"qacurator/config"
	"qacurator/logger"
	"qacurator/types"

	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of candidates one goroutine scores.
const chunkSize = 256

// Scorer assigns batch-normalized quality scores to candidates.
//
// Normalization is relative to the batch being scored: the same candidate can
// receive different final scores in different batches.
type Scorer struct {
	cfg     config.Quality
	workers int
}

// NewScorer creates a scorer. Zero weights, bonuses and threshold fall back
// to defaults.
func NewScorer(cfg config.Quality) *Scorer {
	return &Scorer{
		cfg:     applyConfigDefaults(cfg),
		workers: runtime.GOMAXPROCS(0),
	}
}

func applyConfigDefaults(cfg config.Quality) config.Quality {
	def := config.DefaultQuality()
	w := cfg.Weights
	if w.Question == 0 && w.Answer == 0 && w.Completion == 0 {
		cfg.Weights = def.Weights
	}
	b := cfg.CompletionBonus
	if b.Base == 0 && b.Code == 0 && b.Image == 0 {
		cfg.CompletionBonus = def.CompletionBonus
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	return cfg
}

// Config returns the effective configuration.
func (s *Scorer) Config() config.Quality { return s.cfg }

// ScoreBatch returns one QualityMetrics per candidate, in input order.
// An empty batch yields an empty result. Malformed candidates are scored
// with zero signals and logged, never failing the batch.
func (s *Scorer) ScoreBatch(candidates []types.Candidate) []types.QualityMetrics {
	if len(candidates) == 0 {
		return []types.QualityMetrics{}
	}

	components := make([]types.QualityScoreComponents, len(candidates))
	s.parallel(len(candidates), func(i int) {
		components[i] = s.rawComponents(i, candidates[i])
	})

	qMin, qMax := bounds(components, func(c *types.QualityScoreComponents) float64 { return c.RawQuestionScore })
	aMin, aMax := bounds(components, func(c *types.QualityScoreComponents) float64 { return c.RawAnswerScore })
	cMin, cMax := bounds(components, func(c *types.QualityScoreComponents) float64 { return c.RawCompletionBonus })

	w := s.cfg.Weights
	metrics := make([]types.QualityMetrics, len(candidates))
	s.parallel(len(candidates), func(i int) {
		c := &components[i]
		c.NormQuestionScore = minMax(c.RawQuestionScore, qMin, qMax)
		c.NormAnswerScore = minMax(c.RawAnswerScore, aMin, aMax)
		c.NormCompletionBonus = minMax(c.RawCompletionBonus, cMin, cMax)

		final := 10 * (w.Question*c.NormQuestionScore + w.Answer*c.NormAnswerScore + w.Completion*c.NormCompletionBonus)
		metrics[i] = types.QualityMetrics{
			FinalScore:     final,
			Tier:           types.TierFor(final),
			MeetsThreshold: final >= s.cfg.Threshold,
			Components:     *c,
		}
	})

	logger.Debug("Scored batch", "candidates", len(candidates))
	return metrics
}

// FilterByQuality keeps the candidates whose metrics meet the threshold,
// in their original relative order, with the metrics attached.
func (s *Scorer) FilterByQuality(candidates []types.Candidate, metrics []types.QualityMetrics) ([]types.Candidate, error) {
	return FilterByQuality(candidates, metrics)
}

// FilterByQuality is the stateless form of Scorer.FilterByQuality.
func FilterByQuality(candidates []types.Candidate, metrics []types.QualityMetrics) ([]types.Candidate, error) {
	if len(candidates) != len(metrics) {
		return nil, types.NewInputMismatch("candidates vs quality metrics", len(candidates), len(metrics))
	}

	kept := make([]types.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if !metrics[i].MeetsThreshold {
			continue
		}
		m := metrics[i]
		c.Quality = &m
		kept = append(kept, c)
	}
	return kept, nil
}

// FinalScores extracts the final score of each metric.
func FinalScores(metrics []types.QualityMetrics) []float64 {
	out := make([]float64, len(metrics))
	for i, m := range metrics {
		out[i] = m.FinalScore
	}
	return out
}

func (s *Scorer) rawComponents(idx int, c types.Candidate) types.QualityScoreComponents {
	return types.QualityScoreComponents{
		RawQuestionScore:   questionScore(idx, c.Question),
		RawAnswerScore:     answerScore(idx, c.Answer),
		RawCompletionBonus: s.completionBonus(c.Signals),
	}
}

// questionScore = log10(views+1) + 2*upvotes + log10(reputation+1)
func questionScore(idx int, q *types.Question) float64 {
	if q == nil {
		logger.Warn("Candidate has no question, scoring signals as zero", "index", idx)
		return 0
	}
	views := nonNegative(idx, "view_count", q.ViewCount)
	rep := nonNegative(idx, "question.contributor_reputation", q.ContributorReputation)
	return math.Log10(float64(views)+1) + 2*float64(q.UpvoteScore) + math.Log10(float64(rep)+1)
}

// answerScore = 2*upvotes + 5*accepted + log10(reputation+1), or 0 with no answer
func answerScore(idx int, a *types.Answer) float64 {
	if a == nil {
		return 0
	}
	accepted := 0.0
	if a.IsAccepted {
		accepted = 1
	}
	rep := nonNegative(idx, "answer.contributor_reputation", a.ContributorReputation)
	return 2*float64(a.UpvoteScore) + 5*accepted + math.Log10(float64(rep)+1)
}

func (s *Scorer) completionBonus(sig types.CompletionSignals) float64 {
	b := s.cfg.CompletionBonus
	bonus := b.Base
	if sig.HasCodeBlock {
		bonus += b.Code
	}
	if sig.HasImageContext {
		bonus += b.Image
	}
	return bonus
}

// nonNegative clamps counts that cannot be negative before taking log10.
func nonNegative(idx int, field string, v int64) int64 {
	if v < 0 {
		logger.Warn("Negative signal replaced with zero", "index", idx, "field", field, "value", v)
		return 0
	}
	return v
}

func bounds(cs []types.QualityScoreComponents, get func(*types.QualityScoreComponents) float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range cs {
		v := get(&cs[i])
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// minMax scales v into [0,1]; a constant component maps to 1.
func minMax(v, lo, hi float64) float64 {
	if hi == lo {
		return 1.0
	}
	return (v - lo) / (hi - lo)
}

// parallel runs fn for every index in [0,n), split into fixed chunks.
func (s *Scorer) parallel(n int, fn func(i int)) {
	if n <= chunkSize {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(s.workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
