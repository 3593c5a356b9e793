package output

import (
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

// WorkflowStorePort persists screenshots and the finalized record.
// SaveScreenshot returns the reference placed into the workflow entry.
type WorkflowStorePort interface {
	SaveScreenshot(step int, shot *entity.Screenshot) (string, error)
	SaveRecord(rec *entity.WorkflowRecord) error
	Dir() string
}
