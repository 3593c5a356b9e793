package input

import (
	"context"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

// RunResult is what a finished run reports to the caller. The full
// ordered record is persisted by the workflow store regardless of status.
type RunResult struct {
	Status    entity.RunStatus
	Summary   string
	Steps     int
	OutputDir string
}

type RunExecutor interface {
	Execute(ctx context.Context, goal string) (*RunResult, error)
}
