package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

type fakeDriver struct {
	shotErr error
	shots   int
}

func (d *fakeDriver) DOMTree(ctx context.Context) (*entity.DOMTree, error)          { return nil, nil }
func (d *fakeDriver) ClickAt(ctx context.Context, x, y float64) error               { return nil }
func (d *fakeDriver) TypeAt(ctx context.Context, x, y float64, text string) error   { return nil }
func (d *fakeDriver) PressKey(ctx context.Context, key string) error                { return nil }
func (d *fakeDriver) Scroll(ctx context.Context, direction string, amount int) error { return nil }
func (d *fakeDriver) Navigate(ctx context.Context, url string) error                { return nil }
func (d *fakeDriver) CurrentURL(ctx context.Context) (string, error)                { return "", nil }
func (d *fakeDriver) CurrentTitle(ctx context.Context) (string, error)              { return "", nil }
func (d *fakeDriver) WaitSettle(ctx context.Context, _ time.Duration) error         { return nil }
func (d *fakeDriver) Close()                                                        {}

func (d *fakeDriver) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if d.shotErr != nil {
		return nil, d.shotErr
	}
	d.shots++
	return &entity.Screenshot{Data: []byte("frame"), Format: "jpeg"}, nil
}

type fakeStore struct {
	saved   []int
	saveErr error
}

func (s *fakeStore) SaveScreenshot(step int, shot *entity.Screenshot) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved = append(s.saved, step)
	return fmt.Sprintf("screenshots/step_%03d.jpg", step), nil
}

func (s *fakeStore) SaveRecord(rec *entity.WorkflowRecord) error { return nil }
func (s *fakeStore) Dir() string                                 { return "datasets/test" }

func snap(id int, url string, text string) *entity.Snapshot {
	return &entity.Snapshot{
		ID:  id,
		URL: url,
		Elements: []entity.ElementDescriptor{
			{ID: 1, Role: entity.RoleButton, Text: text, Visible: true, InViewport: true},
		},
	}
}

func okClick(target int) entity.ActionResult {
	return entity.ActionResult{
		Proposal: entity.ActionProposal{Kind: entity.ActionClick, Target: &target, Rationale: "open the panel"},
		Outcome:  entity.Outcome{Kind: entity.OutcomeOK},
	}
}

func TestRecord_AppendsEntryWithScreenshot(t *testing.T) {
	d := &fakeDriver{}
	st := &fakeStore{}
	p := New(d, st, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	pre := snap(1, "https://x/a", "Open")
	post := snap(2, "https://x/a", "Close")

	res, err := p.Record(context.Background(), rec, okClick(1), pre, post)
	require.NoError(t, err)

	assert.Equal(t, entity.OutcomeOK, res.Outcome.Kind)
	assert.Equal(t, 2, res.SnapshotAfter)
	require.Equal(t, 1, rec.StepCount())

	entry := rec.Entries[0]
	assert.Equal(t, 1, entry.Step)
	assert.Equal(t, "screenshots/step_001.jpg", entry.Screenshot)
	assert.Equal(t, "open the panel", entry.Rationale)
	assert.Equal(t, "https://x/a", entry.URL)
	assert.Equal(t, []int{1}, st.saved)
}

func TestRecord_DowngradesUnchangedPageToNoOp(t *testing.T) {
	p := New(&fakeDriver{}, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	pre := snap(1, "https://x/a", "Same")
	post := snap(2, "https://x/a", "Same")

	res, err := p.Record(context.Background(), rec, okClick(1), pre, post)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeNoOp, res.Outcome.Kind)
}

func TestRecord_NavigationNeverDowngraded(t *testing.T) {
	p := New(&fakeDriver{}, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	pre := snap(1, "https://x/a", "Same")
	post := snap(2, "https://x/a", "Same")
	result := entity.ActionResult{
		Proposal: entity.ActionProposal{Kind: entity.ActionNavigate, Value: "https://x/a"},
		Outcome:  entity.Outcome{Kind: entity.OutcomeNavigation},
	}

	res, err := p.Record(context.Background(), rec, result, pre, post)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeNavigation, res.Outcome.Kind)
}

func TestRecord_VisibilityOnlyChangeStaysOK(t *testing.T) {
	p := New(&fakeDriver{}, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	// same URL, same elements; the click only revealed a hidden menu
	withMenu := func(id int, open bool) *entity.Snapshot {
		return &entity.Snapshot{
			ID:  id,
			URL: "https://x/a",
			Elements: []entity.ElementDescriptor{
				{ID: 1, Role: entity.RoleButton, Text: "Options", Visible: true, InViewport: true},
				{ID: 2, Role: entity.RoleMenuItem, Text: "Rename", Visible: open, InViewport: open},
			},
		}
	}

	res, err := p.Record(context.Background(), rec, okClick(1), withMenu(1, false), withMenu(2, true))
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeOK, res.Outcome.Kind)
}

func TestRecord_ChangedContentStaysOK(t *testing.T) {
	p := New(&fakeDriver{}, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	pre := snap(1, "https://x/a", "Open panel")
	post := snap(2, "https://x/a", "Close panel")

	res, err := p.Record(context.Background(), rec, okClick(1), pre, post)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeOK, res.Outcome.Kind)
}

func TestRecord_ScreenshotFailureStillRecordsStep(t *testing.T) {
	d := &fakeDriver{shotErr: errors.New("target closed")}
	p := New(d, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	_, err := p.Record(context.Background(), rec, okClick(1), snap(1, "https://x", "a"), snap(2, "https://x", "b"))
	require.NoError(t, err)

	require.Equal(t, 1, rec.StepCount())
	assert.Empty(t, rec.Entries[0].Screenshot)
}

func TestRecord_StoreFailureStillRecordsStep(t *testing.T) {
	st := &fakeStore{saveErr: errors.New("disk full")}
	p := New(&fakeDriver{}, st, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	_, err := p.Record(context.Background(), rec, okClick(1), snap(1, "https://x", "a"), snap(2, "https://x", "b"))
	require.NoError(t, err)
	require.Equal(t, 1, rec.StepCount())
	assert.Empty(t, rec.Entries[0].Screenshot)
}

func TestRecord_ErrorOutcomeIsCaptured(t *testing.T) {
	p := New(&fakeDriver{}, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")

	target := 1
	result := entity.ActionResult{
		Proposal: entity.ActionProposal{Kind: entity.ActionClick, Target: &target},
		Outcome:  entity.Outcome{Kind: entity.OutcomeError, ErrorKind: entity.DriverErrTimeout, Message: "timeout"},
	}

	res, err := p.Record(context.Background(), rec, result, snap(1, "https://x", "a"), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeError, res.Outcome.Kind)
	require.Equal(t, 1, rec.StepCount())
	// with no post snapshot the entry falls back to the pre-action page
	assert.Equal(t, "https://x", rec.Entries[0].URL)
}

func TestRecord_FinalizedRecordRejects(t *testing.T) {
	p := New(&fakeDriver{}, &fakeStore{}, output.NopLogger{})
	rec := entity.NewWorkflowRecord("r", "goal", "", "")
	rec.Finalize(entity.RunStatusDone, "done")

	_, err := p.Record(context.Background(), rec, okClick(1), snap(1, "https://x", "a"), snap(2, "https://x", "b"))
	assert.ErrorIs(t, err, entity.ErrRecordFinalized)
}
