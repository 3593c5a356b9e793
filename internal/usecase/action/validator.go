package action

import (
	"net/url"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

// MaxWaitMs bounds the wait action so the oracle cannot stall a run.
const MaxWaitMs = 30000

var scrollDirections = map[string]bool{
	"up": true, "down": true, "top": true, "bottom": true,
}

type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate gates a proposal against the most recent snapshot. A non-nil
// return is always a *entity.ValidationError: recoverable, fed back to
// the oracle as history, never raised to the caller.
func (v *Validator) Validate(p *entity.ActionProposal, snap *entity.Snapshot) error {
	switch p.Kind {
	case entity.ActionClick, entity.ActionType:
		el, err := v.target(p, snap)
		if err != nil {
			return err
		}
		if !el.Visible {
			return reject(p, "target element is not visible")
		}
		if el.Disabled() {
			return reject(p, "target element is disabled")
		}
		if p.Kind == entity.ActionType && p.Value == "" {
			return reject(p, "type action requires text in value")
		}

	case entity.ActionPressKey:
		if p.Value == "" {
			return reject(p, "press_key requires a key name in value")
		}

	case entity.ActionScroll:
		if !scrollDirections[p.Value] {
			return reject(p, "scroll direction must be up, down, top or bottom")
		}

	case entity.ActionNavigate:
		u, err := url.Parse(p.Value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return reject(p, "navigate requires a well-formed http(s) URL")
		}

	case entity.ActionWait:
		if p.Amount < 0 || p.Amount > MaxWaitMs {
			return reject(p, "wait amount must be between 0 and 30000 ms")
		}

	case entity.ActionDone:
		// terminal proposal, always accepted
	}
	return nil
}

func (v *Validator) target(p *entity.ActionProposal, snap *entity.Snapshot) (*entity.ElementDescriptor, error) {
	if p.Target == nil {
		return nil, reject(p, "action requires an element target")
	}
	if snap == nil {
		return nil, reject(p, "no snapshot available to resolve target")
	}
	el, ok := snap.Element(*p.Target)
	if !ok {
		return nil, reject(p, "target id not present in current snapshot")
	}
	return el, nil
}

func reject(p *entity.ActionProposal, reason string) *entity.ValidationError {
	return &entity.ValidationError{Proposal: *p, Reason: reason}
}
