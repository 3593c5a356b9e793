// Package rod drives a real Chromium instance through go-rod. It is
// the production DriverPort implementation.
package rod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/domain/entity"
)

var _ output.DriverPort = (*Adapter)(nil)

type Adapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
}

type Config struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
}

func DefaultConfig() Config {
	return Config{
		Headless:   false,
		SlowMotion: 200 * time.Millisecond,
		Timeout:    10 * time.Second,
		NoSandbox:  true,
		DevTools:   false,
	}
}

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-web-security").
		Set("allow-running-insecure-content").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Adapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

// treeJS walks the live document in one evaluation and returns the raw
// tree: one round trip per capture, no per-element CDP calls. Depth and
// per-node text are capped in the page so the payload stays bounded.
const treeJS = `() => {
	const keep = ["aria-label", "role", "placeholder", "href", "value",
		"checked", "disabled", "type", "title", "name", "id"];
	const vw = window.innerWidth, vh = window.innerHeight;
	const walk = (el, depth) => {
		if (!el || depth > 40) return null;
		const tag = el.tagName ? el.tagName.toLowerCase() : "";
		if (!tag || tag === "script" || tag === "style" || tag === "noscript") return null;
		const r = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const visible = style.display !== "none" && style.visibility !== "hidden" &&
			parseFloat(style.opacity || "1") > 0.05 && r.width > 0 && r.height > 0;
		const inViewport = r.bottom > 0 && r.right > 0 && r.top < vh && r.left < vw;
		const attrs = {};
		for (const k of keep) {
			const v = el.getAttribute(k);
			if (v !== null && v !== "") attrs[k] = v.slice(0, 200);
		}
		if (el.disabled) attrs["disabled"] = "true";
		if (el.checked) attrs["checked"] = "true";
		if (el.value && !attrs["value"]) attrs["value"] = String(el.value).slice(0, 200);
		let text = "";
		for (const c of el.childNodes) {
			if (c.nodeType === 3) text += c.textContent;
		}
		text = text.replace(/\s+/g, " ").trim().slice(0, 300);
		const children = [];
		for (const c of el.children) {
			const n = walk(c, depth + 1);
			if (n) children.push(n);
		}
		return {
			tag: tag, attrs: attrs, text: text,
			rect: {x: r.x, y: r.y, w: r.width, h: r.height},
			visible: visible, inViewport: inViewport, children: children,
		};
	};
	return {
		url: window.location.href,
		title: document.title,
		root: walk(document.body, 0),
	};
}`

type wireRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type wireNode struct {
	Tag        string            `json:"tag"`
	Attrs      map[string]string `json:"attrs"`
	Text       string            `json:"text"`
	Rect       wireRect          `json:"rect"`
	Visible    bool              `json:"visible"`
	InViewport bool              `json:"inViewport"`
	Children   []*wireNode       `json:"children"`
}

type wireTree struct {
	URL   string    `json:"url"`
	Title string    `json:"title"`
	Root  *wireNode `json:"root"`
}

func (a *Adapter) DOMTree(ctx context.Context) (*entity.DOMTree, error) {
	res, err := a.page.Context(ctx).Timeout(a.timeout).Eval(treeJS)
	if err != nil {
		return nil, &entity.ExtractionError{Reason: "page evaluation failed", Err: err}
	}

	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, &entity.ExtractionError{Reason: "tree payload not serializable", Err: err}
	}
	var wt wireTree
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, &entity.ExtractionError{Reason: "tree payload malformed", Err: err}
	}
	if wt.Root == nil {
		return nil, &entity.ExtractionError{Reason: "document has no body"}
	}

	return &entity.DOMTree{
		URL:   wt.URL,
		Title: wt.Title,
		Root:  toNode(wt.Root),
	}, nil
}

func toNode(w *wireNode) *entity.DOMNode {
	n := &entity.DOMNode{
		Tag:        w.Tag,
		Attrs:      w.Attrs,
		Text:       w.Text,
		Rect:       entity.DOMRect{X: w.Rect.X, Y: w.Rect.Y, W: w.Rect.W, H: w.Rect.H},
		Visible:    w.Visible,
		InViewport: w.InViewport,
	}
	for _, c := range w.Children {
		n.Children = append(n.Children, toNode(c))
	}
	return n
}

func (a *Adapter) ClickAt(ctx context.Context, x, y float64) error {
	p := a.page.Context(ctx).Timeout(a.timeout)
	if err := p.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return a.driverErr("mouse move failed", err)
	}
	if err := p.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return a.driverErr("click failed", err)
	}
	a.page.WaitIdle(2 * time.Second)
	return nil
}

func (a *Adapter) TypeAt(ctx context.Context, x, y float64, text string) error {
	if err := a.ClickAt(ctx, x, y); err != nil {
		return err
	}
	// select-all then insert replaces any existing field content
	if err := a.page.Keyboard.Press(input.ControlLeft); err == nil {
		_ = a.page.Keyboard.Type(input.KeyA)
		_ = a.page.Keyboard.Release(input.ControlLeft)
	}
	if err := a.page.InsertText(text); err != nil {
		return a.driverErr("text input failed", err)
	}
	return nil
}

// namedKeys maps the key names the oracle emits to rod's key codes.
var namedKeys = map[string]input.Key{
	"enter":      input.Enter,
	"return":     input.Enter,
	"escape":     input.Escape,
	"esc":        input.Escape,
	"tab":        input.Tab,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"space":      input.Space,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"home":       input.Home,
	"end":        input.End,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
}

func (a *Adapter) PressKey(ctx context.Context, key string) error {
	k, ok := namedKeys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		runes := []rune(key)
		if len(runes) != 1 {
			return a.driverErr("unknown key", fmt.Errorf("%q", key))
		}
		k = input.Key(runes[0])
	}
	if err := a.page.Context(ctx).Keyboard.Type(k); err != nil {
		return a.driverErr("key press failed", err)
	}
	a.page.WaitIdle(time.Second)
	return nil
}

func (a *Adapter) Scroll(ctx context.Context, direction string, amount int) error {
	if amount <= 0 {
		amount = 1
	}
	p := a.page.Context(ctx).Timeout(a.timeout)
	var err error
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		_, err = p.Eval(`(n) => window.scrollBy(0, window.innerHeight * 0.8 * n)`, amount)
	case "up":
		_, err = p.Eval(`(n) => window.scrollBy(0, -window.innerHeight * 0.8 * n)`, amount)
	case "top":
		_, err = p.Eval(`() => window.scrollTo(0, 0)`)
	case "bottom":
		_, err = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}
	if err != nil {
		return a.driverErr("scroll failed", err)
	}
	a.page.WaitIdle(800 * time.Millisecond)
	return nil
}

func (a *Adapter) Navigate(ctx context.Context, url string) error {
	p := a.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return a.driverErr("navigation failed", err)
	}
	if err := p.WaitLoad(); err != nil {
		return a.driverErr("page load failed", err)
	}
	p.WaitIdle(5 * time.Second)
	return nil
}

func (a *Adapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := a.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (a *Adapter) CurrentURL(ctx context.Context) (string, error) {
	info, err := a.page.Context(ctx).Info()
	if err != nil {
		return "", a.driverErr("page info unavailable", err)
	}
	return info.URL, nil
}

func (a *Adapter) CurrentTitle(ctx context.Context) (string, error) {
	info, err := a.page.Context(ctx).Info()
	if err != nil {
		return "", a.driverErr("page info unavailable", err)
	}
	return info.Title, nil
}

func (a *Adapter) WaitSettle(ctx context.Context, d time.Duration) error {
	p := a.page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		return a.driverErr("page load failed", err)
	}
	p.WaitIdle(d)
	return nil
}

func (a *Adapter) Close() {
	if a.browser != nil {
		_ = a.browser.Close()
	}
	if a.launcher != nil {
		a.launcher.Kill()
		a.launcher.Cleanup()
	}
}

func (a *Adapter) driverErr(msg string, err error) error {
	kind := entity.DriverErrTimeout
	s := err.Error()
	switch {
	case strings.Contains(s, "context deadline"), strings.Contains(s, "timeout"):
		kind = entity.DriverErrTimeout
	case strings.Contains(s, "detached"), strings.Contains(s, "not found"):
		kind = entity.DriverErrDetached
	case strings.Contains(s, "websocket"), strings.Contains(s, "connection"), strings.Contains(s, "closed"):
		kind = entity.DriverErrDisconnected
	default:
		kind = entity.DriverErrBlocked
	}
	return &entity.DriverError{Kind: kind, Err: fmt.Errorf("%s: %w", msg, err)}
}
