package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

// scriptedOracle returns canned responses (or errors) in order.
type scriptedOracle struct {
	responses []string
	errs      []error
	calls     int
}

func (o *scriptedOracle) Decide(ctx context.Context, req output.DecideRequest) (string, error) {
	i := o.calls
	o.calls++
	if i < len(o.errs) && o.errs[i] != nil {
		return "", o.errs[i]
	}
	if i < len(o.responses) {
		return o.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func engineWith(oracle output.OraclePort) *Engine {
	return New(oracle, output.NopLogger{}, Config{MaxParseRetries: 2, RequestTimeout: time.Second})
}

func TestDecide_FirstResponseParses(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{`{"kind": "click", "target": 3}`}}
	e := engineWith(oracle)

	p, err := e.Decide(context.Background(), output.DecideRequest{Goal: "g"})
	require.NoError(t, err)
	assert.Equal(t, entity.ActionClick, p.Kind)
	assert.Equal(t, 1, oracle.calls)
}

func TestDecide_RetriesParseFailures(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{
		"let me think about that",
		`{"kind": "warp", "target": 1}`,
		`{"kind": "scroll", "value": "down"}`,
	}}
	e := engineWith(oracle)

	p, err := e.Decide(context.Background(), output.DecideRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.ActionScroll, p.Kind)
	assert.Equal(t, 3, oracle.calls)
}

func TestDecide_ExhaustionIsDecisionUnavailable(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{"nope", "still nope", "nope again"}}
	e := engineWith(oracle)

	_, err := e.Decide(context.Background(), output.DecideRequest{})
	require.ErrorIs(t, err, entity.ErrDecisionUnavailable)
	assert.Equal(t, 3, oracle.calls)
}

func TestDecide_TransportErrorsRetried(t *testing.T) {
	oracle := &scriptedOracle{
		errs:      []error{errors.New("502 bad gateway"), nil},
		responses: []string{"", `{"kind": "done", "value": "finished"}`},
	}
	e := engineWith(oracle)

	p, err := e.Decide(context.Background(), output.DecideRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.ActionDone, p.Kind)
}

func TestDecide_CancellationPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := engineWith(&scriptedOracle{responses: []string{`{"kind": "wait"}`}})
	_, err := e.Decide(ctx, output.DecideRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
