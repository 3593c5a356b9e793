// Package runner sequences the perceive-decide-act-capture loop and owns
// run termination. All mutable run state lives in one runContext owned
// by this controller; nothing here is global.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/input"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/action"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/capture"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/decision"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/executor"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/extractor"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/guard"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/serializer"
)

var _ input.RunExecutor = (*UseCase)(nil)

type Config struct {
	// MaxCycles is the hard cycle budget (exhaustion ends the run FAILED).
	MaxCycles int
	// MaxConsecutiveErrors ends the run FAILED when the driver keeps
	// erroring; distinct from the loop guard.
	MaxConsecutiveErrors int
	// ExtractRetryWait is the bounded wait before the single re-extract
	// after a transient extraction failure.
	ExtractRetryWait time.Duration
	// NavigationSettle bounds the load wait after navigation outcomes.
	NavigationSettle time.Duration
	// StartURL overrides app inference from the goal when set.
	StartURL string
}

func DefaultConfig() Config {
	return Config{
		MaxCycles:            40,
		MaxConsecutiveErrors: 3,
		ExtractRetryWait:     time.Second,
		NavigationSettle:     5 * time.Second,
	}
}

type UseCase struct {
	driver     output.DriverPort
	session    output.SessionPort
	store      output.WorkflowStorePort
	logger     output.LoggerPort
	extractor  *extractor.Extractor
	serializer *serializer.Serializer
	validator  *action.Validator
	engine     *decision.Engine
	exec       *executor.Executor
	capture    *capture.Pipeline
	cfg        Config
	guardCfg   guard.Config
}

type Deps struct {
	Driver     output.DriverPort
	Session    output.SessionPort // optional
	Store      output.WorkflowStorePort
	Logger     output.LoggerPort
	Extractor  *extractor.Extractor
	Serializer *serializer.Serializer
	Engine     *decision.Engine
	Config     Config
	GuardCfg   guard.Config
}

func New(d Deps) *UseCase {
	cfg := d.Config
	def := DefaultConfig()
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = def.MaxCycles
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = def.MaxConsecutiveErrors
	}
	if cfg.ExtractRetryWait <= 0 {
		cfg.ExtractRetryWait = def.ExtractRetryWait
	}
	if cfg.NavigationSettle <= 0 {
		cfg.NavigationSettle = def.NavigationSettle
	}
	return &UseCase{
		driver:     d.Driver,
		session:    d.Session,
		store:      d.Store,
		logger:     d.Logger,
		extractor:  d.Extractor,
		serializer: d.Serializer,
		validator:  action.NewValidator(),
		engine:     d.Engine,
		exec:       executor.New(d.Driver, d.Logger),
		capture:    capture.New(d.Driver, d.Store, d.Logger),
		cfg:        cfg,
		guardCfg:   d.GuardCfg,
	}
}

// Execute runs the loop to one of the three terminal states. The
// workflow record is always finalized and persisted before returning,
// whatever the outcome.
func (uc *UseCase) Execute(ctx context.Context, goal string) (*input.RunResult, error) {
	appName, startURL := InferApp(goal, uc.cfg.StartURL)

	rc := &runContext{
		record: entity.NewWorkflowRecord(uuid.NewString()[:8], goal, appName, startURL),
		guard:  guard.New(uc.guardCfg),
	}

	uc.logger.Info("run started", "run_id", rc.record.RunID, "goal", goal, "app", appName, "start_url", startURL)

	if uc.session != nil {
		if err := uc.session.Restore(ctx); err != nil {
			uc.logger.Warn("session restore failed", "error", err)
		}
	}

	status, summary := uc.runLoop(ctx, goal, startURL, rc)

	rc.record.Finalize(status, summary)
	if err := uc.store.SaveRecord(rc.record); err != nil {
		uc.logger.Error("workflow record not persisted", "error", err)
	}
	if uc.session != nil {
		if err := uc.session.Save(ctx); err != nil {
			uc.logger.Warn("session save failed", "error", err)
		}
	}

	uc.logger.Info("run finished", "run_id", rc.record.RunID, "status", status, "steps", rc.record.StepCount(), "summary", summary)

	return &input.RunResult{
		Status:    status,
		Summary:   summary,
		Steps:     rc.record.StepCount(),
		OutputDir: uc.store.Dir(),
	}, nil
}

func (uc *UseCase) runLoop(ctx context.Context, goal, startURL string, rc *runContext) (entity.RunStatus, string) {
	// the opening navigation is a real executed action: it goes through
	// the same execute/capture path so the starting state is step 1
	if startURL != "" {
		opening := &entity.ActionProposal{
			Kind:      entity.ActionNavigate,
			Value:     startURL,
			Rationale: fmt.Sprintf("Open %s to begin the task", rc.record.AppName),
		}
		if status, summary, stop := uc.act(ctx, rc, opening); stop {
			return status, summary
		}
	}

	for cycle := 1; cycle <= uc.cfg.MaxCycles; cycle++ {
		// cancellation is only honored between cycles so an in-flight
		// action is always completed and captured
		if err := ctx.Err(); err != nil {
			return entity.RunStatusFailed, "run canceled before completion"
		}

		uc.logger.Debug("cycle started", "cycle", cycle, "max", uc.cfg.MaxCycles)

		snap, err := uc.snapshot(ctx, rc)
		if err != nil {
			uc.logger.Error("extraction failed twice", "cycle", cycle, "error", err)
			return entity.RunStatusFailed, "page state could not be extracted: " + err.Error()
		}

		proposal, err := uc.engine.Decide(ctx, output.DecideRequest{
			Goal:    goal,
			State:   uc.serializer.State(snap),
			History: uc.serializer.History(rc.history),
		})
		if err != nil {
			if errors.Is(err, entity.ErrDecisionUnavailable) {
				return entity.RunStatusFailed, "reasoning oracle unavailable: " + err.Error()
			}
			return entity.RunStatusFailed, "decision failed: " + err.Error()
		}

		if verr := uc.validator.Validate(proposal, snap); verr != nil {
			// recoverable in-loop failure: surfaced to the oracle as
			// history, no step recorded, no execution
			uc.logger.Warn("proposal rejected", "action", proposal.Describe(), "reason", verr.Error())
			rc.addHistory(entity.HistoryValidation, verr.Error())
			continue
		}

		if status, summary, stop := uc.act(ctx, rc, proposal); stop {
			return status, summary
		}
	}

	return entity.RunStatusFailed, entity.ErrCyclesExhausted.Error()
}

// act executes one validated proposal, captures it, and applies the
// termination policy. stop=true carries a terminal status out.
func (uc *UseCase) act(ctx context.Context, rc *runContext, proposal *entity.ActionProposal) (entity.RunStatus, string, bool) {
	pre := rc.snapshot
	if pre == nil {
		// opening action before any extraction: synthesize the minimal
		// pre-state from the live page identity
		pre = uc.liveIdentity(ctx, rc)
	}

	result := uc.exec.Execute(ctx, proposal, pre)

	if result.Outcome.Kind == entity.OutcomeNavigation {
		if err := uc.driver.WaitSettle(ctx, uc.cfg.NavigationSettle); err != nil {
			uc.logger.Debug("load settle timed out", "error", err)
		}
	}

	post, err := uc.extract(ctx, rc)
	if err != nil {
		// tolerated: the entry is still captured, the next cycle
		// re-extracts from scratch
		uc.logger.Warn("post-action extraction failed", "error", err)
		post = nil
	}

	recorded, err := uc.capture.Record(ctx, rc.record, result, pre, post)
	if err != nil {
		return entity.RunStatusFailed, "capture failed: " + err.Error(), true
	}
	rc.snapshot = post

	rc.addHistory(entity.HistoryAction, fmt.Sprintf("%s -> %s", recorded.Proposal.Describe(), recorded.Outcome.String()))

	if recorded.Outcome.Kind == entity.OutcomeError {
		rc.consecutiveErrors++
		if rc.consecutiveErrors >= uc.cfg.MaxConsecutiveErrors {
			return entity.RunStatusFailed, fmt.Sprintf("%d consecutive driver errors, last: %s", rc.consecutiveErrors, recorded.Outcome.Message), true
		}
	} else {
		rc.consecutiveErrors = 0
	}

	if recorded.Proposal.Kind == entity.ActionDone {
		return entity.RunStatusDone, recorded.Proposal.Value, true
	}

	prev := rc.guard.State()
	switch rc.guard.Observe(recorded) {
	case guard.StateBlocked:
		return entity.RunStatusStuck, entity.ErrStuckLoop.Error(), true
	case guard.StateWarning:
		if prev != guard.StateWarning {
			rc.addHistory(entity.HistoryNotice, rc.guard.Notice())
			// nudge: a stray overlay is the usual culprit and Escape is
			// not an agent action, so it is not recorded as a step
			if err := uc.driver.PressKey(ctx, "Escape"); err != nil {
				uc.logger.Debug("escape nudge failed", "error", err)
			}
		}
	}

	return "", "", false
}

// snapshot returns the current page state, reusing the post-action
// snapshot taken during the previous capture when available.
func (uc *UseCase) snapshot(ctx context.Context, rc *runContext) (*entity.Snapshot, error) {
	if rc.snapshot != nil {
		return rc.snapshot, nil
	}
	snap, err := uc.extractRetry(ctx, rc)
	if err != nil {
		return nil, err
	}
	rc.snapshot = snap
	return snap, nil
}

func (uc *UseCase) extract(ctx context.Context, rc *runContext) (*entity.Snapshot, error) {
	tree, err := uc.driver.DOMTree(ctx)
	if err != nil {
		return nil, err
	}
	return uc.extractor.Extract(tree, rc.nextSnapshotID())
}

// extractRetry retries exactly once after a bounded wait; extraction
// failures are transient (navigation in flight, detached handle).
func (uc *UseCase) extractRetry(ctx context.Context, rc *runContext) (*entity.Snapshot, error) {
	snap, err := uc.extract(ctx, rc)
	if err == nil {
		return snap, nil
	}
	var xerr *entity.ExtractionError
	if !errors.As(err, &xerr) {
		return nil, err
	}
	uc.logger.Debug("extraction failed, retrying once", "error", err)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(uc.cfg.ExtractRetryWait):
	}
	return uc.extract(ctx, rc)
}

// liveIdentity builds an element-less snapshot from the live URL/title
// for the opening action, when no extraction has happened yet.
func (uc *UseCase) liveIdentity(ctx context.Context, rc *runContext) *entity.Snapshot {
	url, _ := uc.driver.CurrentURL(ctx)
	title, _ := uc.driver.CurrentTitle(ctx)
	return &entity.Snapshot{ID: rc.nextSnapshotID(), URL: url, Title: title, Timestamp: time.Now()}
}
