package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// Stage is the step a curation run is currently in.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageScoring       Stage = "scoring"
	StageFiltering     Stage = "filtering"
	StageDeduplicating Stage = "deduplicating"
	StageComplete      Stage = "complete"
	StageError         Stage = "error"
)

// LogEntry is one line of the tracker's run log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id,omitempty"`
	Message   string    `json:"message"`
}

// Status is a point-in-time snapshot of the tracker.
type Status struct {
	Stage       Stage      `json:"stage"`
	RunID       string     `json:"run_id,omitempty"`
	Running     int        `json:"running"`
	LastSummary *Summary   `json:"last_summary,omitempty"`
	Error       string     `json:"error,omitempty"`
	Logs        []LogEntry `json:"logs"`
}

// Tracker records the progress of curation runs with thread-safe access.
// Runs may overlap; the stage reflects whichever run moved last.
type Tracker struct {
	mu sync.RWMutex

	stage   Stage
	runID   string
	running int
	last    *Summary
	lastErr error

	// ring buffer
	logs    []LogEntry
	maxLogs int
}

// NewTracker creates a tracker keeping the last maxLogs log entries.
func NewTracker(maxLogs int) *Tracker {
	if maxLogs <= 0 {
		maxLogs = 50
	}
	return &Tracker{
		stage:   StageIdle,
		logs:    make([]LogEntry, 0),
		maxLogs: maxLogs,
	}
}

// Begin marks the start of a run.
func (t *Tracker) Begin(runID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running++
	t.runID = runID
	t.stage = StageScoring
	t.lastErr = nil
	t.appendLocked(runID, fmt.Sprintf("Run started with %d candidates", total))
}

// SetStage moves the run to stage.
func (t *Tracker) SetStage(runID string, stage Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runID = runID
	t.stage = stage
	t.appendLocked(runID, fmt.Sprintf("Stage: %s", stage))
}

// AddLog adds a log entry for runID.
func (t *Tracker) AddLog(runID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendLocked(runID, message)
}

// Finish records a successful run.
func (t *Tracker) Finish(runID string, summary Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = max(t.running-1, 0)
	t.runID = runID
	t.stage = StageComplete
	t.last = &summary
	t.appendLocked(runID, fmt.Sprintf("Run complete: %d in, %d out", summary.TotalInput, summary.TotalOutput))
}

// Fail records a failed run.
func (t *Tracker) Fail(runID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = max(t.running-1, 0)
	t.runID = runID
	t.stage = StageError
	t.lastErr = err
	t.appendLocked(runID, fmt.Sprintf("Error: %v", err))
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stage
}

// Status returns a snapshot of the tracker.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Status{
		Stage:   t.stage,
		RunID:   t.runID,
		Running: t.running,
		Logs:    append([]LogEntry{}, t.logs...),
	}
	if t.last != nil {
		last := *t.last
		s.LastSummary = &last
	}
	if t.lastErr != nil {
		s.Error = t.lastErr.Error()
	}
	return s
}

// appendLocked must be called with mu held.
func (t *Tracker) appendLocked(runID, message string) {
	t.logs = append(t.logs, LogEntry{Timestamp: time.Now(), RunID: runID, Message: message})
	if len(t.logs) > t.maxLogs {
		t.logs = t.logs[len(t.logs)-t.maxLogs:]
	}
}
