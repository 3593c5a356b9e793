// Package guard is the run's safety valve against non-convergence. It
// watches a rolling window of action+outcome signatures and escalates
// CONVERGING -> WARNING -> BLOCKED purely on repetition, never on
// wall-clock time, so slow but progressing runs are never killed.
package guard

import (
	"fmt"
	"hash/fnv"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

type State int

const (
	StateConverging State = iota
	StateWarning
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateConverging:
		return "CONVERGING"
	case StateWarning:
		return "WARNING"
	case StateBlocked:
		return "BLOCKED"
	}
	return "UNKNOWN"
}

type Config struct {
	// Window is the number of recent results kept for comparison.
	Window int
	// WarnThreshold is how many identical signatures inside the window
	// raise WARNING.
	WarnThreshold int
	// BlockThreshold is how many identical signatures force BLOCKED.
	// Must exceed WarnThreshold.
	BlockThreshold int
}

func DefaultConfig() Config {
	return Config{
		Window:         10,
		WarnThreshold:  3,
		BlockThreshold: 5,
	}
}

type Guard struct {
	cfg          Config
	window       []uint64
	state        State
	warnEpisodes int
	lastNotice   string
}

func New(cfg Config) *Guard {
	d := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = d.Window
	}
	if cfg.WarnThreshold <= 0 {
		cfg.WarnThreshold = d.WarnThreshold
	}
	if cfg.BlockThreshold <= cfg.WarnThreshold {
		cfg.BlockThreshold = cfg.WarnThreshold + 2
	}
	return &Guard{cfg: cfg}
}

// Signature fingerprints what was tried and what happened. Two results
// collide only when kind, target, value and outcome all match, which is
// exactly the repetition the guard is hunting.
func Signature(res entity.ActionResult) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s|%s", res.Proposal.Kind, res.Proposal.TargetID(), res.Proposal.Value, res.Outcome.Kind)
	return h.Sum64()
}

// Observe pushes one recorded result into the window and returns the
// resulting state. Once BLOCKED the guard stays BLOCKED.
func (g *Guard) Observe(res entity.ActionResult) State {
	if g.state == StateBlocked {
		return g.state
	}

	sig := Signature(res)
	g.window = append(g.window, sig)
	if len(g.window) > g.cfg.Window {
		g.window = g.window[1:]
	}

	count := 0
	for _, s := range g.window {
		if s == sig {
			count++
		}
	}

	switch {
	case count >= g.cfg.BlockThreshold:
		g.state = StateBlocked

	case count >= g.cfg.WarnThreshold:
		if g.state != StateWarning {
			g.warnEpisodes++
			// reaching the warn threshold twice in one run means the
			// oracle did not self-correct the first time
			if g.warnEpisodes >= 2 {
				g.state = StateBlocked
				break
			}
			g.state = StateWarning
			g.lastNotice = fmt.Sprintf(
				"the action %s was attempted %d times with outcome %s and nothing changed - try a different element, a keyboard shortcut, or a direct URL",
				res.Proposal.Describe(), count, res.Outcome.Kind)
		}

	default:
		if g.state == StateWarning {
			g.state = StateConverging
		}
	}

	return g.state
}

func (g *Guard) State() State { return g.state }

// Notice returns the history message to inject while in WARNING.
func (g *Guard) Notice() string { return g.lastNotice }
