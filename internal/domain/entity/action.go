package entity

import (
	"fmt"
	"time"
)

type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionType     ActionKind = "type"
	ActionPressKey ActionKind = "press_key"
	ActionScroll   ActionKind = "scroll"
	ActionNavigate ActionKind = "navigate"
	ActionWait     ActionKind = "wait"
	ActionDone     ActionKind = "done"
)

// NeedsTarget reports whether the action references a snapshot element.
func (k ActionKind) NeedsTarget() bool {
	return k == ActionClick || k == ActionType
}

// ActionProposal is one action suggested by the reasoning oracle.
// Target is nil for actions that do not reference an element.
type ActionProposal struct {
	Kind      ActionKind `json:"kind"`
	Target    *int       `json:"target,omitempty"`
	Value     string     `json:"value,omitempty"`
	Amount    int        `json:"amount,omitempty"`
	Rationale string     `json:"rationale,omitempty"`
}

// TargetID returns the referenced element id, or -1 when absent.
func (p *ActionProposal) TargetID() int {
	if p.Target == nil {
		return -1
	}
	return *p.Target
}

// Describe renders a short human-readable form for history and logs.
func (p *ActionProposal) Describe() string {
	switch p.Kind {
	case ActionClick:
		return fmt.Sprintf("click #%d", p.TargetID())
	case ActionType:
		return fmt.Sprintf("type %q into #%d", shorten(p.Value, 30), p.TargetID())
	case ActionPressKey:
		return fmt.Sprintf("press %s", p.Value)
	case ActionScroll:
		return fmt.Sprintf("scroll %s", p.Value)
	case ActionNavigate:
		return fmt.Sprintf("navigate to %s", p.Value)
	case ActionWait:
		return fmt.Sprintf("wait %dms", p.Amount)
	case ActionDone:
		return fmt.Sprintf("done: %s", shorten(p.Value, 60))
	}
	return string(p.Kind)
}

type OutcomeKind string

const (
	OutcomeOK         OutcomeKind = "ok"
	OutcomeNoOp       OutcomeKind = "no-op"
	OutcomeNavigation OutcomeKind = "navigation"
	OutcomeError      OutcomeKind = "error"
)

// Outcome classifies what an executed action did to the page.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func (o Outcome) String() string {
	if o.Kind == OutcomeError {
		return fmt.Sprintf("error(%s: %s)", o.ErrorKind, o.Message)
	}
	return string(o.Kind)
}

// ActionResult records one executed proposal. It is immutable once
// appended to the workflow record.
type ActionResult struct {
	Proposal       ActionProposal `json:"proposal"`
	Outcome        Outcome        `json:"outcome"`
	SnapshotBefore int            `json:"snapshot_before"`
	SnapshotAfter  int            `json:"snapshot_after"`
	Duration       time.Duration  `json:"duration_ms"`
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
