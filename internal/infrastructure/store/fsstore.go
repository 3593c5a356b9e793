// Package store persists run artifacts to the local filesystem under
// datasets/<task>/: screenshots, the raw workflow record, a flat
// per-step index, and a markdown tutorial rendered from the record.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

var _ output.WorkflowStorePort = (*FSStore)(nil)

type FSStore struct {
	baseDir        string
	outputDir      string
	screenshotsDir string
}

// New lays out datasets/<sanitized-task>/screenshots/ eagerly so a run
// that fails on its very first action still leaves a directory behind.
func New(baseDir, taskName string) (*FSStore, error) {
	if baseDir == "" {
		baseDir = "datasets"
	}
	outputDir := filepath.Join(baseDir, sanitizeTask(taskName))
	screenshotsDir := filepath.Join(outputDir, "screenshots")
	if err := os.MkdirAll(screenshotsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dirs: %w", err)
	}
	return &FSStore{
		baseDir:        baseDir,
		outputDir:      outputDir,
		screenshotsDir: screenshotsDir,
	}, nil
}

func (s *FSStore) Dir() string { return s.outputDir }

// SaveScreenshot writes step_NNN.<ext> and returns the path relative to
// the task directory, which is what the record and tutorial reference.
func (s *FSStore) SaveScreenshot(step int, shot *entity.Screenshot) (string, error) {
	ext := shot.Format
	if ext == "" {
		ext = "jpeg"
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	name := fmt.Sprintf("step_%03d.%s", step, ext)
	if err := os.WriteFile(filepath.Join(s.screenshotsDir, name), shot.Data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return filepath.Join("screenshots", name), nil
}

func (s *FSStore) SaveRecord(rec *entity.WorkflowRecord) error {
	if err := s.writeJSON("workflow.json", rec); err != nil {
		return err
	}
	if err := s.writeJSON("steps.json", stepIndex(rec)); err != nil {
		return err
	}
	md := renderTutorial(rec)
	if err := os.WriteFile(filepath.Join(s.outputDir, "tutorial.md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write tutorial: %w", err)
	}
	return nil
}

func (s *FSStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.outputDir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// stepRow is the flat per-step view consumed by downstream tooling.
type stepRow struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Screenshot  string `json:"screenshot,omitempty"`
	ActionType  string `json:"action_type"`
	ActionTaken string `json:"action_taken"`
	Outcome     string `json:"outcome"`
	Thinking    string `json:"thinking,omitempty"`
}

func stepIndex(rec *entity.WorkflowRecord) []stepRow {
	rows := make([]stepRow, 0, len(rec.Entries))
	for _, e := range rec.Entries {
		rows = append(rows, stepRow{
			Step:        e.Step,
			Instruction: instruction(e),
			URL:         e.URL,
			Title:       e.Title,
			Screenshot:  e.Screenshot,
			ActionType:  string(e.Result.Proposal.Kind),
			ActionTaken: e.Result.Proposal.Describe(),
			Outcome:     e.Result.Outcome.String(),
			Thinking:    e.Rationale,
		})
	}
	return rows
}

// instruction renders the human-readable step text for the tutorial.
func instruction(e entity.WorkflowEntry) string {
	p := e.Result.Proposal
	switch p.Kind {
	case entity.ActionNavigate:
		return fmt.Sprintf("Navigate to %s", p.Value)
	case entity.ActionClick:
		return fmt.Sprintf("Click on element %d", p.TargetID())
	case entity.ActionType:
		return fmt.Sprintf("Type %q into element %d", p.Value, p.TargetID())
	case entity.ActionPressKey:
		return fmt.Sprintf("Press the %s key", p.Value)
	case entity.ActionScroll:
		return "Scroll the page to see more content"
	case entity.ActionWait:
		return "Wait for the page to update"
	case entity.ActionDone:
		return "Task completed"
	}
	return p.Describe()
}

func renderTutorial(rec *entity.WorkflowRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Goal)
	fmt.Fprintf(&b, "**Application:** %s\n", rec.AppName)
	if rec.StartURL != "" {
		fmt.Fprintf(&b, "**URL:** %s\n", rec.StartURL)
	}
	fmt.Fprintf(&b, "**Generated:** %s\n\n", rec.StartedAt.Format("2006-01-02 15:04:05"))

	if rec.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", rec.Summary)
	}
	b.WriteString("---\n\n")

	for _, e := range rec.Entries {
		fmt.Fprintf(&b, "## Step %d: %s\n\n", e.Step, instruction(e))
		if e.Screenshot != "" {
			fmt.Fprintf(&b, "![Step %d](%s)\n\n", e.Step, e.Screenshot)
		}
		if e.Rationale != "" {
			fmt.Fprintf(&b, "**Note:** %s\n\n", e.Rationale)
		}
		b.WriteString("---\n\n")
	}

	switch rec.Status {
	case entity.RunStatusDone:
		b.WriteString("**Task completed successfully.**\n")
	case entity.RunStatusStuck:
		b.WriteString("**Task abandoned: the agent was stuck in a loop.**\n")
	default:
		b.WriteString("**Task was not completed.**\n")
	}
	return b.String()
}

func sanitizeTask(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/':
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		s = "task"
	}
	return s
}
