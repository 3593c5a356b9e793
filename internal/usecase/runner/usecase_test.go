package runner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/browser/replay"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/store"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/decision"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/extractor"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/guard"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/serializer"
)

const (
	homeURL     = "https://app.example/home"
	settingsURL = "https://app.example/settings"
)

func fixturePages() []replay.Page {
	return []replay.Page{
		{
			URL:   homeURL,
			Title: "Home",
			HTML:  `<html><body><h1>Welcome</h1><button>Settings</button></body></html>`,
		},
		{
			URL:   settingsURL,
			Title: "Settings",
			HTML:  `<html><body><h1>Settings</h1><input type="checkbox" name="dark"><button>Save</button></body></html>`,
		},
	}
}

// scriptedOracle replays canned responses and records every request.
type scriptedOracle struct {
	responses []string
	requests  []output.DecideRequest
}

func (o *scriptedOracle) Decide(ctx context.Context, req output.DecideRequest) (string, error) {
	o.requests = append(o.requests, req)
	i := len(o.requests) - 1
	if i >= len(o.responses) {
		return o.responses[len(o.responses)-1], nil
	}
	return o.responses[i], nil
}

type harness struct {
	uc     *UseCase
	driver *replay.Driver
	oracle *scriptedOracle
	store  *store.FSStore
}

func newHarness(t *testing.T, driver *replay.Driver, oracle *scriptedOracle, cfg Config, gcfg guard.Config) *harness {
	t.Helper()
	fsStore, err := store.New(t.TempDir(), "runner test")
	require.NoError(t, err)

	uc := New(Deps{
		Driver:     driver,
		Session:    replay.NullSession{},
		Store:      fsStore,
		Logger:     output.NopLogger{},
		Extractor:  extractor.New(extractor.DefaultConfig()),
		Serializer: serializer.New(serializer.DefaultConfig()),
		Engine:     decision.New(oracle, output.NopLogger{}, decision.Config{MaxParseRetries: 2, RequestTimeout: time.Second}),
		Config:     cfg,
		GuardCfg:   gcfg,
	})
	return &harness{uc: uc, driver: driver, oracle: oracle, store: fsStore}
}

func loadRecord(t *testing.T, h *harness) *entity.WorkflowRecord {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.store.Dir(), "workflow.json"))
	require.NoError(t, err)
	var rec entity.WorkflowRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	return &rec
}

// homeButtonHook navigates to settings when the home Settings button
// (third DFS row of the fixture) is clicked.
func homeButtonHook(x, y float64) string {
	if y >= 64 && y < 96 {
		return settingsURL
	}
	return ""
}

func TestExecute_ClickThroughToDone(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL)
	driver.ClickHook = homeButtonHook

	oracle := &scriptedOracle{responses: []string{
		`{"kind": "click", "target": 2, "rationale": "open the settings page"}`,
		`{"kind": "done", "value": "Settings page is open"}`,
	}}

	h := newHarness(t, driver, oracle, DefaultConfig(), guard.DefaultConfig())

	result, err := h.uc.Execute(context.Background(), "open the settings page")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusDone, result.Status)
	assert.Equal(t, "Settings page is open", result.Summary)
	assert.Equal(t, 2, result.Steps)

	rec := loadRecord(t, h)
	assert.Equal(t, entity.RunStatusDone, rec.Status)
	require.Len(t, rec.Entries, 2)

	click := rec.Entries[0]
	assert.Equal(t, 1, click.Step)
	assert.Equal(t, entity.ActionClick, click.Result.Proposal.Kind)
	assert.Equal(t, entity.OutcomeNavigation, click.Result.Outcome.Kind)
	assert.Equal(t, settingsURL, click.URL)
	assert.NotEmpty(t, click.Screenshot)

	done := rec.Entries[1]
	assert.Equal(t, 2, done.Step)
	assert.Equal(t, entity.ActionDone, done.Result.Proposal.Kind)
}

func TestExecute_StepCountEqualsExecutedActions(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL)
	driver.ClickHook = homeButtonHook

	oracle := &scriptedOracle{responses: []string{
		`{"kind": "click", "target": 2}`,
		`{"kind": "scroll", "value": "down"}`,
		`{"kind": "done", "value": "finished"}`,
	}}

	h := newHarness(t, driver, oracle, DefaultConfig(), guard.DefaultConfig())
	result, err := h.uc.Execute(context.Background(), "poke around")
	require.NoError(t, err)

	rec := loadRecord(t, h)
	assert.Equal(t, result.Steps, len(rec.Entries))
	assert.Equal(t, 3, result.Steps)

	// every step has a screenshot file on disk
	for _, e := range rec.Entries {
		require.NotEmpty(t, e.Screenshot)
		_, err := os.Stat(filepath.Join(h.store.Dir(), e.Screenshot))
		assert.NoError(t, err)
	}
}

func TestExecute_RepeatedNoOpEndsStuck(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL) // no click hook: clicks change nothing

	oracle := &scriptedOracle{responses: []string{
		`{"kind": "click", "target": 2, "rationale": "try the button"}`,
	}}

	h := newHarness(t, driver, oracle, DefaultConfig(), guard.Config{Window: 10, WarnThreshold: 3, BlockThreshold: 5})

	result, err := h.uc.Execute(context.Background(), "click the unresponsive button")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusStuck, result.Status)
	assert.Equal(t, 5, result.Steps)

	rec := loadRecord(t, h)
	assert.Equal(t, entity.RunStatusStuck, rec.Status)
	require.Len(t, rec.Entries, 5)
	for _, e := range rec.Entries {
		assert.Equal(t, entity.ActionClick, e.Result.Proposal.Kind)
	}
	// repeats after the first are downgraded to no-op
	assert.Equal(t, entity.OutcomeNoOp, rec.Entries[1].Result.Outcome.Kind)

	// the warning nudge pressed Escape but was never recorded as a step
	escapes := 0
	for _, c := range driver.Calls {
		if c.Method == "PressKey" && c.Args == "Escape" {
			escapes++
		}
	}
	assert.Equal(t, 1, escapes)

	// after the warning, the oracle saw the loop notice in its history
	sawNotice := false
	for _, req := range oracle.requests {
		if strings.Contains(req.History, "- notice:") {
			sawNotice = true
		}
	}
	assert.True(t, sawNotice)
}

func TestExecute_RejectedProposalIsNotAStep(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL)

	oracle := &scriptedOracle{responses: []string{
		`{"kind": "click", "target": 99, "rationale": "phantom element"}`,
		`{"kind": "done", "value": "nothing to do"}`,
	}}

	h := newHarness(t, driver, oracle, DefaultConfig(), guard.DefaultConfig())
	result, err := h.uc.Execute(context.Background(), "noop goal")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusDone, result.Status)
	assert.Equal(t, 1, result.Steps)

	// the rejection was surfaced to the oracle on the next request
	require.Len(t, oracle.requests, 2)
	assert.Contains(t, oracle.requests[1].History, "- rejected:")
	assert.Contains(t, oracle.requests[1].History, "target id not present")
}

func TestExecute_DecisionUnavailableFailsRun(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL)
	oracle := &scriptedOracle{responses: []string{"I refuse to emit JSON"}}

	h := newHarness(t, driver, oracle, DefaultConfig(), guard.DefaultConfig())
	result, err := h.uc.Execute(context.Background(), "any goal")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusFailed, result.Status)
	assert.Contains(t, result.Summary, "oracle unavailable")
	assert.Equal(t, 0, result.Steps)

	// the record was still finalized and persisted
	rec := loadRecord(t, h)
	assert.Equal(t, entity.RunStatusFailed, rec.Status)
}

func TestExecute_CycleBudgetExhaustionFails(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL)
	oracle := &scriptedOracle{responses: []string{`{"kind": "press_key", "value": "Tab"}`}}

	cfg := DefaultConfig()
	cfg.MaxCycles = 3

	h := newHarness(t, driver, oracle, cfg, guard.DefaultConfig())
	result, err := h.uc.Execute(context.Background(), "spin forever")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusFailed, result.Status)
	assert.Contains(t, result.Summary, "maximum cycle count")
	assert.Equal(t, 3, result.Steps)
}

func TestExecute_OpeningNavigationIsStepOne(t *testing.T) {
	driver := replay.New(fixturePages(), homeURL)
	oracle := &scriptedOracle{responses: []string{`{"kind": "done", "value": "already there"}`}}

	cfg := DefaultConfig()
	cfg.StartURL = settingsURL

	h := newHarness(t, driver, oracle, cfg, guard.DefaultConfig())
	result, err := h.uc.Execute(context.Background(), "open settings directly")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusDone, result.Status)
	require.Equal(t, 2, result.Steps)

	rec := loadRecord(t, h)
	first := rec.Entries[0]
	assert.Equal(t, entity.ActionNavigate, first.Result.Proposal.Kind)
	assert.Equal(t, settingsURL, first.Result.Proposal.Value)
	assert.Equal(t, entity.OutcomeNavigation, first.Result.Outcome.Kind)
	assert.Equal(t, settingsURL, first.URL)
}

func TestExecute_ConsecutiveDriverErrorsFail(t *testing.T) {
	// navigating to a URL with no fixture is the replay driver's error
	driver := replay.New(fixturePages(), homeURL)
	oracle := &scriptedOracle{responses: []string{`{"kind": "navigate", "value": "https://nowhere.example/"}`}}

	cfg := DefaultConfig()
	cfg.MaxConsecutiveErrors = 3

	h := newHarness(t, driver, oracle, cfg, guard.DefaultConfig())
	result, err := h.uc.Execute(context.Background(), "go nowhere")
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusFailed, result.Status)
	assert.Contains(t, result.Summary, "consecutive driver errors")
	assert.Equal(t, 3, result.Steps)

	rec := loadRecord(t, h)
	for _, e := range rec.Entries {
		assert.Equal(t, entity.OutcomeError, e.Result.Outcome.Kind)
	}
}

func TestExecute_ReplayRunsAreDeterministic(t *testing.T) {
	type stepView struct {
		Kind    entity.ActionKind
		Target  int
		Outcome entity.OutcomeKind
		URL     string
	}

	runOnce := func(t *testing.T) []stepView {
		driver := replay.New(fixturePages(), homeURL)
		driver.ClickHook = homeButtonHook
		oracle := &scriptedOracle{responses: []string{
			`{"kind": "click", "target": 2}`,
			`{"kind": "scroll", "value": "down"}`,
			`{"kind": "done", "value": "finished"}`,
		}}
		h := newHarness(t, driver, oracle, DefaultConfig(), guard.DefaultConfig())
		_, err := h.uc.Execute(context.Background(), "open the settings page")
		require.NoError(t, err)

		rec := loadRecord(t, h)
		views := make([]stepView, 0, len(rec.Entries))
		for _, e := range rec.Entries {
			views = append(views, stepView{
				Kind:    e.Result.Proposal.Kind,
				Target:  e.Result.Proposal.TargetID(),
				Outcome: e.Result.Outcome.Kind,
				URL:     e.URL,
			})
		}
		return views
	}

	first := runOnce(t)
	second := runOnce(t)
	assert.Equal(t, first, second)
}
