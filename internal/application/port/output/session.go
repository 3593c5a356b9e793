package output

import "context"

// SessionPort saves and restores authentication state. The core calls
// Restore at run start and Save at run end and never inspects contents.
type SessionPort interface {
	Restore(ctx context.Context) error
	Save(ctx context.Context) error
}
