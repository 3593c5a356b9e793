package runner

import (
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/guard"
)

// runContext is the mutable state of one run. It never escapes the
// controller goroutine, so no locking.
type runContext struct {
	record  *entity.WorkflowRecord
	guard   *guard.Guard
	history []entity.HistoryEvent

	// snapshot is the latest extracted page state; the post-action
	// snapshot of one cycle is the pre-action snapshot of the next.
	snapshot *entity.Snapshot

	snapSeq           int
	consecutiveErrors int
}

func (rc *runContext) nextSnapshotID() int {
	rc.snapSeq++
	return rc.snapSeq
}

func (rc *runContext) addHistory(kind entity.HistoryEventKind, text string) {
	rc.history = append(rc.history, entity.HistoryEvent{
		Step: rc.record.StepCount(),
		Kind: kind,
		Text: text,
	})
}
