package entity

// DOMRect is an element bounding box in viewport coordinates.
type DOMRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the midpoint of the box, the point actions are aimed at.
func (r DOMRect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// DOMNode is one node of the raw tree the driver hands to the extractor.
// Children preserve document order so a depth-first walk is deterministic.
type DOMNode struct {
	Tag        string            `json:"tag"`
	Attrs      map[string]string `json:"attrs"`
	Text       string            `json:"text"`
	Rect       DOMRect           `json:"rect"`
	Visible    bool              `json:"visible"`
	InViewport bool              `json:"inViewport"`
	Children   []*DOMNode        `json:"children"`
}

// DOMTree is the driver's raw capture of the live page.
type DOMTree struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Root  *DOMNode `json:"root"`
}
