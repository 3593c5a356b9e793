// Package decision issues exactly one reasoning request per cycle and
// turns the raw response into a validated-shape ActionProposal.
package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/action"
)

type Config struct {
	// MaxParseRetries is how many additional requests are made when a
	// response cannot be parsed (or times out) before the engine gives
	// up with ErrDecisionUnavailable.
	MaxParseRetries int
	// RequestTimeout bounds each individual oracle request.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxParseRetries: 2,
		RequestTimeout:  90 * time.Second,
	}
}

// Engine holds no mutable state across cycles: given the same request
// and the same oracle, it produces the same proposal.
type Engine struct {
	oracle output.OraclePort
	logger output.LoggerPort
	cfg    Config
}

func New(oracle output.OraclePort, logger output.LoggerPort, cfg Config) *Engine {
	d := DefaultConfig()
	if cfg.MaxParseRetries < 0 {
		cfg.MaxParseRetries = d.MaxParseRetries
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = d.RequestTimeout
	}
	return &Engine{oracle: oracle, logger: logger, cfg: cfg}
}

// Decide asks the oracle for the next action. Parse failures and
// request timeouts are retried up to the configured bound; exhaustion
// escalates to ErrDecisionUnavailable, which ends the run.
func (e *Engine) Decide(ctx context.Context, req output.DecideRequest) (*entity.ActionProposal, error) {
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxParseRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := e.request(ctx, req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			lastErr = err
			e.logger.Warn("oracle request failed", "attempt", attempt+1, "error", err)
			continue
		}

		proposal, err := action.ParseProposal(raw)
		if err != nil {
			lastErr = err
			e.logger.Warn("oracle response unparseable", "attempt", attempt+1, "error", err, "raw", shorten(raw, 400))
			continue
		}

		e.logger.Debug("decision made", "action", proposal.Describe())
		return proposal, nil
	}

	return nil, fmt.Errorf("%w: %v", entity.ErrDecisionUnavailable, lastErr)
}

func (e *Engine) request(ctx context.Context, req output.DecideRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	return e.oracle.Decide(ctx, req)
}

func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
