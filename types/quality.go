package types

// Tier is the discrete quality bucket derived from a final score.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// Tiers lists every tier from best to worst.
var Tiers = []Tier{TierExcellent, TierGood, TierFair, TierPoor}

// TierFor maps a final score in [0,10] to its tier.
func TierFor(score float64) Tier {
	switch {
	case score >= 9.0:
		return TierExcellent
	case score >= 7.0:
		return TierGood
	case score >= 5.0:
		return TierFair
	default:
		return TierPoor
	}
}

// QualityScoreComponents are the raw and batch-normalized inputs of a final score.
type QualityScoreComponents struct {
	RawQuestionScore    float64 `json:"raw_question_score"`
	RawAnswerScore      float64 `json:"raw_answer_score"`
	RawCompletionBonus  float64 `json:"raw_completion_bonus"`
	NormQuestionScore   float64 `json:"norm_question_score"`
	NormAnswerScore     float64 `json:"norm_answer_score"`
	NormCompletionBonus float64 `json:"norm_completion_bonus"`
}

// QualityMetrics is produced once per candidate and never modified.
type QualityMetrics struct {
	FinalScore     float64                `json:"final_score"`
	Tier           Tier                   `json:"quality_tier"`
	MeetsThreshold bool                   `json:"meets_threshold"`
	Components     QualityScoreComponents `json:"components"`
}
