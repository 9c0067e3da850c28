package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"qacurator/logger"
)

// Question holds the question side of a collected Q&A record.
type Question struct {
	Title                 string   `json:"title"`
	Body                  string   `json:"body"`
	ViewCount             int64    `json:"view_count"`
	UpvoteScore           int64    `json:"upvote_score"`
	FavoriteCount         int64    `json:"favorite_count"`
	ContributorReputation int64    `json:"contributor_reputation"`
	Tags                  []string `json:"tags,omitempty"`
}

// Answer holds the accepted or best answer for a question.
type Answer struct {
	Body                  string `json:"body,omitempty"`
	UpvoteScore           int64  `json:"upvote_score"`
	IsAccepted            bool   `json:"is_accepted"`
	ContributorReputation int64  `json:"contributor_reputation"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	aux := struct {
		*plain
		ViewCount             signal `json:"view_count"`
		UpvoteScore           signal `json:"upvote_score"`
		FavoriteCount         signal `json:"favorite_count"`
		ContributorReputation signal `json:"contributor_reputation"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.ViewCount = int64(aux.ViewCount)
	q.UpvoteScore = int64(aux.UpvoteScore)
	q.FavoriteCount = int64(aux.FavoriteCount)
	q.ContributorReputation = int64(aux.ContributorReputation)
	return nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	type plain Answer
	aux := struct {
		*plain
		UpvoteScore           signal `json:"upvote_score"`
		ContributorReputation signal `json:"contributor_reputation"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.UpvoteScore = int64(aux.UpvoteScore)
	a.ContributorReputation = int64(aux.ContributorReputation)
	return nil
}

// signal decodes a count leniently: integers, fractional numbers (truncated)
// and numeric strings are accepted. Anything else decodes to zero with a
// warning so one bad field never rejects a batch.
type signal int64

func (n *signal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = 0
		return nil
	}
	text := raw
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &text); err != nil {
			text = ""
		}
		text = strings.TrimSpace(text)
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		*n = signal(v)
		return nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*n = signal(clampToInt64(f))
		return nil
	}
	logger.Warn("Ignoring non-numeric signal", "value", raw)
	*n = 0
	return nil
}

func clampToInt64(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}

// CompletionSignals are supplied by upstream enrichment and only read here.
type CompletionSignals struct {
	HasCodeBlock    bool `json:"has_code_block"`
	HasImageContext bool `json:"has_image_context"`
}

// Candidate is one raw collected item awaiting scoring and deduplication.
// Candidates are identified by their position in a batch; ExternalID is
// carried through untouched for downstream writers.
type Candidate struct {
	Source     string            `json:"source,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Question   *Question         `json:"question"`
	Answer     *Answer           `json:"answer,omitempty"`
	Signals    CompletionSignals `json:"completion_signals"`

	// Derived metadata, attached by the scorer and deduplicator.
	Quality *QualityMetrics `json:"quality,omitempty"`
	Dedup   *DedupInfo      `json:"deduplication_info,omitempty"`
}

// Title returns the question title, or "" if the question is missing.
func (c Candidate) Title() string {
	if c.Question == nil {
		return ""
	}
	return c.Question.Title
}

// Batch is the top-level wrapper exchanged with collectors and writers.
type Batch struct {
	BatchID        string      `json:"batch_id,omitempty"`
	Source         string      `json:"source,omitempty"`
	CollectedAt    time.Time   `json:"collected_at,omitempty"`
	CandidateCount int         `json:"candidate_count"`
	Candidates     []Candidate `json:"candidates"`
}

// GenerateID creates a short stable identifier from source and question title.
func GenerateID(source, title string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(source) + "|" + strings.TrimSpace(title)))
	return hex.EncodeToString(hash[:])[:16]
}
