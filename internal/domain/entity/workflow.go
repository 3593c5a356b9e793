package entity

import (
	"errors"
	"time"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusFailed  RunStatus = "failed"
	RunStatusStuck   RunStatus = "stuck"
)

// ErrRecordFinalized is returned when appending to a closed record.
var ErrRecordFinalized = errors.New("workflow record already finalized")

// WorkflowEntry is one captured step: the executed action, its outcome,
// the screenshot taken right after it, and the oracle's stated reasoning.
type WorkflowEntry struct {
	Step       int          `json:"step"`
	Result     ActionResult `json:"result"`
	Screenshot string       `json:"screenshot,omitempty"`
	Rationale  string       `json:"rationale,omitempty"`
	URL        string       `json:"url"`
	Title      string       `json:"title,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// WorkflowRecord is the append-only, ordered log of one run. A run owns
// exactly one record; after Finalize no further entries are accepted.
type WorkflowRecord struct {
	RunID      string          `json:"run_id"`
	Goal       string          `json:"goal"`
	AppName    string          `json:"app_name,omitempty"`
	StartURL   string          `json:"start_url,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Status     RunStatus       `json:"status"`
	Summary    string          `json:"summary,omitempty"`
	Entries    []WorkflowEntry `json:"entries"`

	finalized bool
}

func NewWorkflowRecord(runID, goal, appName, startURL string) *WorkflowRecord {
	return &WorkflowRecord{
		RunID:     runID,
		Goal:      goal,
		AppName:   appName,
		StartURL:  startURL,
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
	}
}

// Append adds one entry. Step numbers are assigned here so the record's
// length always equals the number of executed actions.
func (r *WorkflowRecord) Append(e WorkflowEntry) error {
	if r.finalized {
		return ErrRecordFinalized
	}
	e.Step = len(r.Entries) + 1
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	r.Entries = append(r.Entries, e)
	return nil
}

// Finalize closes the record. Idempotent.
func (r *WorkflowRecord) Finalize(status RunStatus, summary string) {
	if r.finalized {
		return
	}
	r.finalized = true
	r.Status = status
	r.Summary = summary
	r.FinishedAt = time.Now()
}

func (r *WorkflowRecord) Finalized() bool { return r.finalized }

func (r *WorkflowRecord) StepCount() int { return len(r.Entries) }

type HistoryEventKind string

const (
	HistoryAction     HistoryEventKind = "action"
	HistoryNotice     HistoryEventKind = "notice"
	HistoryValidation HistoryEventKind = "validation"
)

// HistoryEvent is one line of the condensed history handed back to the
// oracle: an executed action summary, a loop-guard notice, or a
// validation rejection. Only the trailing window is ever serialized.
type HistoryEvent struct {
	Step int
	Kind HistoryEventKind
	Text string
}
