// Package replay is a scripted DriverPort for tests and offline runs.
// Pages are static HTML fixtures; clicks trigger registered hooks that
// swap the current page, so whole multi-step flows replay without a
// browser. Geometry is synthesized deterministically from document
// order, which is all the coordinate-based actions need.
package replay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

var _ output.DriverPort = (*Driver)(nil)

// Call is one recorded driver invocation, for assertions.
type Call struct {
	Method string
	Args   string
}

// Page is one fixture: an URL, a title, and its HTML body.
type Page struct {
	URL   string
	Title string
	HTML  string
}

type Driver struct {
	pages   map[string]Page
	current string

	// ClickHook may rewrite the current page given the click point.
	// Returning a non-empty URL navigates; empty means nothing changed.
	ClickHook func(x, y float64) string
	// TypeHook observes typed text.
	TypeHook func(x, y float64, text string) string

	Calls []Call
}

func New(pages []Page, startURL string) *Driver {
	m := make(map[string]Page, len(pages))
	for _, p := range pages {
		m[p.URL] = p
	}
	return &Driver{pages: m, current: startURL}
}

func (d *Driver) record(method, format string, args ...any) {
	d.Calls = append(d.Calls, Call{Method: method, Args: fmt.Sprintf(format, args...)})
}

func (d *Driver) page() (Page, error) {
	p, ok := d.pages[d.current]
	if !ok {
		return Page{}, &entity.DriverError{
			Kind: entity.DriverErrDetached,
			Err:  fmt.Errorf("no fixture for %q", d.current),
		}
	}
	return p, nil
}

func (d *Driver) DOMTree(ctx context.Context) (*entity.DOMTree, error) {
	p, err := d.page()
	if err != nil {
		return nil, &entity.ExtractionError{Reason: "fixture missing", Err: err}
	}
	return ParsePage(p)
}

// ParsePage parses a fixture into a raw tree. Rects are laid out top to
// bottom in document order (32px rows) so every element has a stable,
// distinct center and the same fixture always yields the same geometry.
func ParsePage(p Page) (*entity.DOMTree, error) {
	doc, err := html.Parse(strings.NewReader(p.HTML))
	if err != nil {
		return nil, &entity.ExtractionError{Reason: "fixture html malformed", Err: err}
	}

	body := findBody(doc)
	if body == nil {
		return nil, &entity.ExtractionError{Reason: "fixture has no body"}
	}

	row := 0
	root := convert(body, &row)
	return &entity.DOMTree{URL: p.URL, Title: p.Title, Root: root}, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func convert(n *html.Node, row *int) *entity.DOMNode {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	y := float64(*row * 32)
	*row++

	_, hidden := attrs["hidden"]
	node := &entity.DOMNode{
		Tag:        n.Data,
		Attrs:      attrs,
		Text:       ownText(n),
		Rect:       entity.DOMRect{X: 8, Y: y, W: 200, H: 24},
		Visible:    !hidden && !strings.Contains(attrs["style"], "display:none"),
		InViewport: y < 720,
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "script" || c.Data == "style" {
			continue
		}
		node.Children = append(node.Children, convert(c, row))
	}
	return node
}

func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (d *Driver) ClickAt(ctx context.Context, x, y float64) error {
	d.record("ClickAt", "%.0f,%.0f", x, y)
	if d.ClickHook != nil {
		if next := d.ClickHook(x, y); next != "" {
			d.current = next
		}
	}
	return nil
}

func (d *Driver) TypeAt(ctx context.Context, x, y float64, text string) error {
	d.record("TypeAt", "%.0f,%.0f %q", x, y, text)
	if d.TypeHook != nil {
		if next := d.TypeHook(x, y, text); next != "" {
			d.current = next
		}
	}
	return nil
}

func (d *Driver) PressKey(ctx context.Context, key string) error {
	d.record("PressKey", "%s", key)
	return nil
}

func (d *Driver) Scroll(ctx context.Context, direction string, amount int) error {
	d.record("Scroll", "%s %d", direction, amount)
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.record("Navigate", "%s", url)
	if _, ok := d.pages[url]; !ok {
		return &entity.DriverError{
			Kind: entity.DriverErrTimeout,
			Err:  fmt.Errorf("no fixture for %q", url),
		}
	}
	d.current = url
	return nil
}

// Screenshot returns a tiny fixed JPEG-tagged payload; replay runs only
// assert that a screenshot reference was recorded.
func (d *Driver) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	d.record("Screenshot", "%s", d.current)
	return &entity.Screenshot{
		Data:   []byte("replay-frame:" + d.current),
		Format: "jpeg",
		Width:  1024,
		Height: 720,
	}, nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) { return d.current, nil }

func (d *Driver) CurrentTitle(ctx context.Context) (string, error) {
	p, err := d.page()
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

func (d *Driver) WaitSettle(ctx context.Context, _ time.Duration) error { return nil }

func (d *Driver) Close() {}

// NullSession satisfies SessionPort for replay runs; nothing persists.
type NullSession struct{}

var _ output.SessionPort = NullSession{}

func (NullSession) Restore(ctx context.Context) error { return nil }
func (NullSession) Save(ctx context.Context) error    { return nil }
