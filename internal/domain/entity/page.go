package entity

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

type Role string

const (
	RoleButton   Role = "button"
	RoleLink     Role = "link"
	RoleInput    Role = "input"
	RoleTextArea Role = "textarea"
	RoleSelect   Role = "select"
	RoleCheckbox Role = "checkbox"
	RoleMenuItem Role = "menuitem"
	RoleText     Role = "text"
)

// Interactive reports whether the role accepts user actions.
func (r Role) Interactive() bool {
	return r != RoleText
}

// ElementDescriptor is one normalized page element. IDs are assigned in
// depth-first document order and are only meaningful within one Snapshot.
type ElementDescriptor struct {
	ID         int               `json:"id"`
	Role       Role              `json:"role"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Box        DOMRect           `json:"box"`
	Visible    bool              `json:"visible"`
	InViewport bool              `json:"in_viewport"`
}

// Disabled reports whether the element carries a disabled marker.
func (e *ElementDescriptor) Disabled() bool {
	v, ok := e.Attributes["disabled"]
	return ok && v != "false"
}

// Label returns the most descriptive short text for the element.
func (e *ElementDescriptor) Label() string {
	if e.Text != "" {
		return e.Text
	}
	for _, key := range []string{"aria-label", "placeholder", "value", "href"} {
		if v := e.Attributes[key]; v != "" {
			return v
		}
	}
	return ""
}

// Snapshot is one deterministic capture of the page's interactive structure.
// It is created once per cycle and never mutated.
type Snapshot struct {
	ID        int                 `json:"id"`
	URL       string              `json:"url"`
	Title     string              `json:"title"`
	Elements  []ElementDescriptor `json:"elements"`
	Timestamp time.Time           `json:"timestamp"`
}

// Element looks up a descriptor by its per-cycle id.
func (s *Snapshot) Element(id int) (*ElementDescriptor, bool) {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return &s.Elements[i], true
		}
	}
	return nil, false
}

// Digest fingerprints the snapshot's identity: URL plus every element's
// role, text, attributes and visibility. Two snapshots of an unchanged
// page hash equal, which is how an ok outcome gets downgraded to no-op.
// Visibility flags are included so a modal or dropdown toggled purely
// via CSS still counts as a change; ids are positional and excluded.
func (s *Snapshot) Digest() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00", s.URL, s.Title)
	for i := range s.Elements {
		e := &s.Elements[i]
		fmt.Fprintf(h, "%s|%s|%t|%t|", e.Role, e.Text, e.Visible, e.InViewport)
		keys := make([]string, 0, len(e.Attributes))
		for k := range e.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%s;", k, e.Attributes[k])
		}
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Screenshot is a captured image of the visual surface.
type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
