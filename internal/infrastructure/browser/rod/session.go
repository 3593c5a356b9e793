package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod/lib/proto"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
)

var _ output.SessionPort = (*CookieSession)(nil)

// CookieSession persists browser cookies to a JSON file so logged-in
// state survives between runs. A missing file is not an error: the run
// simply starts unauthenticated.
type CookieSession struct {
	adapter *Adapter
	path    string
}

func NewCookieSession(adapter *Adapter, path string) *CookieSession {
	return &CookieSession{adapter: adapter, path: path}
}

func (s *CookieSession) Restore(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session file unreadable: %w", err)
	}

	var cookies []*proto.NetworkCookieParam
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("session file malformed: %w", err)
	}
	if len(cookies) == 0 {
		return nil
	}
	if err := s.adapter.browser.SetCookies(cookies); err != nil {
		return fmt.Errorf("failed to restore cookies: %w", err)
	}
	return nil
}

func (s *CookieSession) Save(ctx context.Context) error {
	cookies, err := s.adapter.browser.GetCookies()
	if err != nil {
		return fmt.Errorf("failed to read cookies: %w", err)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("session dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
