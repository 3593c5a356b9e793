// Package serializer renders a Snapshot and the trailing history into
// the fixed-structure text block the reasoning oracle consumes.
package serializer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

type Config struct {
	// HistoryDepth is how many trailing history events are rendered.
	HistoryDepth int
	// TextBudget caps element text, in runes.
	TextBudget int
	// AttrBudget caps each attribute value, in runes.
	AttrBudget int
}

func DefaultConfig() Config {
	return Config{
		HistoryDepth: 8,
		TextBudget:   80,
		AttrBudget:   50,
	}
}

type Serializer struct {
	cfg Config
}

func New(cfg Config) *Serializer {
	d := DefaultConfig()
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = d.HistoryDepth
	}
	if cfg.TextBudget <= 0 {
		cfg.TextBudget = d.TextBudget
	}
	if cfg.AttrBudget <= 0 {
		cfg.AttrBudget = d.AttrBudget
	}
	return &Serializer{cfg: cfg}
}

// serialized attribute order is fixed so output is reproducible.
var attrOrder = []string{
	"aria-label", "placeholder", "type", "href", "value", "checked",
	"disabled", "title", "name",
}

// State renders the page identity and the ordered element list. Element
// text is truncated but the [id]<role> prefix always survives: the id is
// the join key the oracle uses to reference targets.
func (s *Serializer) State(snap *entity.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s\n", snap.URL)
	fmt.Fprintf(&b, "Title: %s\n", snap.Title)
	fmt.Fprintf(&b, "Elements (%d):\n", len(snap.Elements))
	for i := range snap.Elements {
		b.WriteString(s.elementLine(&snap.Elements[i]))
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Serializer) elementLine(e *entity.ElementDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]<%s>", e.ID, e.Role)
	if text := truncate(e.Text, s.cfg.TextBudget); text != "" {
		fmt.Fprintf(&b, " %q", text)
	}
	for _, key := range attrOrder {
		if v, ok := e.Attributes[key]; ok {
			fmt.Fprintf(&b, " %s='%s'", key, truncate(v, s.cfg.AttrBudget))
		}
	}
	// attributes outside the fixed order still serialize, sorted
	var extra []string
	for k := range e.Attributes {
		if !inOrder(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(&b, " %s='%s'", k, truncate(e.Attributes[k], s.cfg.AttrBudget))
	}
	if !e.Visible {
		b.WriteString(" (hidden)")
	} else if !e.InViewport {
		b.WriteString(" (below fold)")
	}
	return b.String()
}

// History renders the condensed trailing window of events.
func (s *Serializer) History(events []entity.HistoryEvent) string {
	if len(events) == 0 {
		return "No actions taken yet.\n"
	}
	start := 0
	if len(events) > s.cfg.HistoryDepth {
		start = len(events) - s.cfg.HistoryDepth
	}
	var b strings.Builder
	b.WriteString("Recent history:\n")
	for _, ev := range events[start:] {
		switch ev.Kind {
		case entity.HistoryAction:
			fmt.Fprintf(&b, "- step %d: %s\n", ev.Step, ev.Text)
		case entity.HistoryNotice:
			fmt.Fprintf(&b, "- notice: %s\n", ev.Text)
		case entity.HistoryValidation:
			fmt.Fprintf(&b, "- rejected: %s\n", ev.Text)
		}
	}
	return b.String()
}

// Serialize joins state and history into one block.
func (s *Serializer) Serialize(snap *entity.Snapshot, events []entity.HistoryEvent) string {
	return s.State(snap) + "\n" + s.History(events)
}

func inOrder(key string) bool {
	for _, k := range attrOrder {
		if k == key {
			return true
		}
	}
	return false
}

func truncate(s string, budget int) string {
	r := []rune(s)
	if len(r) <= budget {
		return s
	}
	return string(r[:budget]) + "..."
}
