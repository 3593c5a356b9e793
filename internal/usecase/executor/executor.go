// Package executor applies one validated proposal to the driver. It does
// no DOM analysis; it only translates proposals into driver calls and
// classifies what came back.
package executor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

type Executor struct {
	driver output.DriverPort
	logger output.LoggerPort
}

func New(driver output.DriverPort, logger output.LoggerPort) *Executor {
	return &Executor{driver: driver, logger: logger}
}

// Execute runs one proposal against the live page and returns a result
// with outcome ok, navigation or error. The no-op downgrade happens
// later, once the post-action snapshot exists. SnapshotAfter is filled
// by the capture step for the same reason.
func (x *Executor) Execute(ctx context.Context, p *entity.ActionProposal, snap *entity.Snapshot) entity.ActionResult {
	start := time.Now()
	urlBefore := snap.URL

	err := x.apply(ctx, p, snap)

	result := entity.ActionResult{
		Proposal:       *p,
		SnapshotBefore: snap.ID,
		Duration:       time.Since(start),
	}

	if err != nil {
		kind, msg := classify(err)
		result.Outcome = entity.Outcome{Kind: entity.OutcomeError, ErrorKind: kind, Message: msg}
		x.logger.Warn("action failed", "action", p.Describe(), "kind", kind, "error", msg)
		return result
	}

	urlAfter, err := x.driver.CurrentURL(ctx)
	if err == nil && urlAfter != urlBefore {
		result.Outcome = entity.Outcome{Kind: entity.OutcomeNavigation}
	} else {
		result.Outcome = entity.Outcome{Kind: entity.OutcomeOK}
	}

	x.logger.Info("action executed", "action", p.Describe(), "outcome", result.Outcome.String(), "duration", result.Duration)
	return result
}

func (x *Executor) apply(ctx context.Context, p *entity.ActionProposal, snap *entity.Snapshot) error {
	switch p.Kind {
	case entity.ActionClick:
		el, ok := snap.Element(p.TargetID())
		if !ok {
			return &entity.DriverError{Kind: entity.DriverErrDetached, Err: errors.New("target vanished from snapshot")}
		}
		cx, cy := el.Box.Center()
		return x.driver.ClickAt(ctx, cx, cy)

	case entity.ActionType:
		el, ok := snap.Element(p.TargetID())
		if !ok {
			return &entity.DriverError{Kind: entity.DriverErrDetached, Err: errors.New("target vanished from snapshot")}
		}
		cx, cy := el.Box.Center()
		return x.driver.TypeAt(ctx, cx, cy, p.Value)

	case entity.ActionPressKey:
		return x.driver.PressKey(ctx, p.Value)

	case entity.ActionScroll:
		amount := p.Amount
		if amount <= 0 {
			amount = 1
		}
		return x.driver.Scroll(ctx, p.Value, amount)

	case entity.ActionNavigate:
		return x.driver.Navigate(ctx, p.Value)

	case entity.ActionWait:
		return sleep(ctx, time.Duration(p.Amount)*time.Millisecond)

	case entity.ActionDone:
		// terminal proposal, nothing to apply
		return nil
	}
	return errors.New("unknown action kind")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// classify maps driver failures onto the error outcome kinds.
func classify(err error) (string, string) {
	var de *entity.DriverError
	if errors.As(err, &de) {
		return de.Kind, de.Err.Error()
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(lower, "timeout"):
		return entity.DriverErrTimeout, msg
	case strings.Contains(lower, "detached") || strings.Contains(lower, "not found"):
		return entity.DriverErrDetached, msg
	case strings.Contains(lower, "intercept") || strings.Contains(lower, "covered") || strings.Contains(lower, "obscured"):
		return entity.DriverErrBlocked, msg
	case strings.Contains(lower, "connection") || strings.Contains(lower, "closed"):
		return entity.DriverErrDisconnected, msg
	}
	return entity.DriverErrBlocked, msg
}
