// Package extractor normalizes the driver's raw DOM tree into a bounded
// Snapshot. Ids are assigned by depth-first document order, so extracting
// an unchanged page twice yields identical descriptors.
package extractor

import (
	"sort"
	"strings"
	"time"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

type Config struct {
	// MaxElements caps the snapshot size (the oracle input budget).
	MaxElements int
	// TextBudget caps element text and attribute values, in runes.
	TextBudget int
}

func DefaultConfig() Config {
	return Config{
		MaxElements: 120,
		TextBudget:  80,
	}
}

type Extractor struct {
	cfg Config
}

func New(cfg Config) *Extractor {
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultConfig().MaxElements
	}
	if cfg.TextBudget <= 0 {
		cfg.TextBudget = DefaultConfig().TextBudget
	}
	return &Extractor{cfg: cfg}
}

// attribute allow-list copied into every descriptor, everything else is
// dropped at the boundary.
var allowedAttrs = []string{
	"aria-label", "placeholder", "href", "value", "checked", "disabled",
	"type", "title", "name",
}

// candidate pairs a descriptor with its DFS position so pruning can be
// undone into document order.
type candidate struct {
	el    entity.ElementDescriptor
	order int
}

// Extract builds a Snapshot from a raw tree. The id sequence is
// deterministic: candidates are collected depth-first, pruned by
// priority when over budget, then re-numbered in document order.
func (x *Extractor) Extract(tree *entity.DOMTree, snapshotID int) (*entity.Snapshot, error) {
	if tree == nil || tree.Root == nil {
		return nil, &entity.ExtractionError{Reason: "empty DOM tree"}
	}

	var cands []candidate
	order := 0
	var walk func(n *entity.DOMNode)
	walk = func(n *entity.DOMNode) {
		if n == nil {
			return
		}
		if role, ok := classify(n); ok {
			cands = append(cands, candidate{
				el: entity.ElementDescriptor{
					Role:       role,
					Text:       truncate(strings.TrimSpace(n.Text), x.cfg.TextBudget),
					Attributes: x.copyAttrs(n.Attrs),
					Box:        n.Rect,
					Visible:    n.Visible,
					InViewport: n.InViewport,
				},
				order: order,
			})
			order++
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree.Root)

	if len(cands) > x.cfg.MaxElements {
		cands = prune(cands, x.cfg.MaxElements)
	}

	elements := make([]entity.ElementDescriptor, len(cands))
	for i, c := range cands {
		c.el.ID = i + 1
		elements[i] = c.el
	}

	return &entity.Snapshot{
		ID:        snapshotID,
		URL:       tree.URL,
		Title:     tree.Title,
		Elements:  elements,
		Timestamp: time.Now(),
	}, nil
}

// prune drops the lowest-priority candidates first: hidden before
// off-viewport before static text. Sorting is stable on DFS order so
// equal-priority candidates keep their document positions, and the
// survivors are restored to document order afterwards.
func prune(cands []candidate, max int) []candidate {
	ranked := make([]candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return priority(ranked[i].el) > priority(ranked[j].el)
	})
	ranked = ranked[:max]
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].order < ranked[j].order
	})
	return ranked
}

// priority implements the selection policy: visible first, then
// in-viewport, then interactive roles over static text.
func priority(e entity.ElementDescriptor) int {
	p := 0
	if e.Visible {
		p += 4
	}
	if e.InViewport {
		p += 2
	}
	if e.Role.Interactive() {
		p++
	}
	return p
}

// classify maps a raw node to a descriptor role. Nodes that are neither
// interactive nor labeled text are not part of the snapshot.
func classify(n *entity.DOMNode) (entity.Role, bool) {
	tag := strings.ToLower(n.Tag)
	ariaRole := strings.ToLower(n.Attrs["role"])

	switch {
	case tag == "button", ariaRole == "button":
		return entity.RoleButton, true
	case tag == "a", ariaRole == "link":
		return entity.RoleLink, true
	case tag == "input":
		switch strings.ToLower(n.Attrs["type"]) {
		case "checkbox", "radio":
			return entity.RoleCheckbox, true
		case "hidden":
			return "", false
		default:
			return entity.RoleInput, true
		}
	case tag == "textarea":
		return entity.RoleTextArea, true
	case tag == "select":
		return entity.RoleSelect, true
	case ariaRole == "checkbox", ariaRole == "switch":
		return entity.RoleCheckbox, true
	case ariaRole == "menuitem", ariaRole == "option", ariaRole == "tab":
		return entity.RoleMenuItem, true
	case isTextTag(tag) && strings.TrimSpace(n.Text) != "":
		return entity.RoleText, true
	}
	return "", false
}

func isTextTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "label", "legend", "summary":
		return true
	}
	return false
}

func (x *Extractor) copyAttrs(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string)
	for _, key := range allowedAttrs {
		if v, ok := attrs[key]; ok && v != "" {
			out[key] = truncate(v, x.cfg.TextBudget)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truncate(s string, budget int) string {
	r := []rune(s)
	if len(r) <= budget {
		return s
	}
	return string(r[:budget]) + "..."
}
