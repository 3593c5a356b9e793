// Package capture records every executed action as one workflow entry:
// screenshot, outcome, rationale, timestamp. Capture is unconditional -
// error outcomes are captured too, because UI states without a URL are
// only reproducible through this record.
package capture

import (
	"context"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

type Pipeline struct {
	driver output.DriverPort
	store  output.WorkflowStorePort
	logger output.LoggerPort
}

func New(driver output.DriverPort, store output.WorkflowStorePort, logger output.LoggerPort) *Pipeline {
	return &Pipeline{driver: driver, store: store, logger: logger}
}

// Record finalizes one result against its post-action snapshot and
// appends it to the record. An ok outcome whose post snapshot is
// byte-identical to the pre snapshot is downgraded to no-op: the action
// applied but changed nothing observable. The returned result is the
// recorded (immutable) version the loop guard must observe.
func (p *Pipeline) Record(ctx context.Context, rec *entity.WorkflowRecord, result entity.ActionResult, pre, post *entity.Snapshot) (entity.ActionResult, error) {
	if post != nil {
		result.SnapshotAfter = post.ID
		if isNoOp(result, pre, post) {
			result.Outcome = entity.Outcome{Kind: entity.OutcomeNoOp}
		}
	}

	ref := ""
	shot, err := p.driver.Screenshot(ctx)
	if err != nil {
		// the entry is still recorded; losing an image must not lose the step
		p.logger.Warn("screenshot failed", "step", rec.StepCount()+1, "error", err)
	} else {
		ref, err = p.store.SaveScreenshot(rec.StepCount()+1, shot)
		if err != nil {
			p.logger.Warn("screenshot not persisted", "step", rec.StepCount()+1, "error", err)
			ref = ""
		}
	}

	entry := entity.WorkflowEntry{
		Result:     result,
		Screenshot: ref,
		Rationale:  result.Proposal.Rationale,
	}
	if post != nil {
		entry.URL = post.URL
		entry.Title = post.Title
	} else if pre != nil {
		entry.URL = pre.URL
		entry.Title = pre.Title
	}

	if err := rec.Append(entry); err != nil {
		return result, err
	}
	p.logger.Info("step captured", "step", rec.StepCount(), "action", result.Proposal.Describe(), "outcome", result.Outcome.String(), "screenshot", ref)
	return result, nil
}

// isNoOp detects actions that succeeded but left the page unchanged.
// Navigation and terminal actions keep their outcome; wait is expected
// to change nothing.
func isNoOp(result entity.ActionResult, pre, post *entity.Snapshot) bool {
	if result.Outcome.Kind != entity.OutcomeOK || pre == nil {
		return false
	}
	switch result.Proposal.Kind {
	case entity.ActionClick, entity.ActionType, entity.ActionScroll, entity.ActionPressKey:
		return pre.URL == post.URL && pre.Digest() == post.Digest()
	}
	return false
}
