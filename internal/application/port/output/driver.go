package output

import (
	"context"
	"time"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

// DriverPort is the capability surface of the rendering/automation
// driver. Any implementation (rod, replay) is substitutable; the core
// never reaches past this interface.
type DriverPort interface {
	// DOMTree captures the raw page tree in document order.
	DOMTree(ctx context.Context) (*entity.DOMTree, error)

	ClickAt(ctx context.Context, x, y float64) error
	TypeAt(ctx context.Context, x, y float64, text string) error
	PressKey(ctx context.Context, key string) error
	Scroll(ctx context.Context, direction string, amount int) error
	Navigate(ctx context.Context, url string) error

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	CurrentURL(ctx context.Context) (string, error)
	CurrentTitle(ctx context.Context) (string, error)

	// WaitSettle blocks until the page finished loading or d elapsed.
	// Called after navigation outcomes before the next snapshot.
	WaitSettle(ctx context.Context, d time.Duration) error

	Close()
}
