// Package ports declares the driven-side interfaces the core depends on:
// a browser driver abstraction, a read-only test-catalog
// collaborator and a write-only persistence collaborator, and a
// structured logger. Concrete implementations live under
// internal/infrastructure.
package ports

import (
	"context"
	"time"

	"browser-agent/internal/domain/entity"
)

// MouseButton names a physical mouse button for raw input dispatch.
type MouseButton string

const (
	MouseButtonLeft MouseButton = "left"
)

// UploadFile is a file handed to Element.SetFiles for a fileSelect action.
type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// BoundingBox is the viewport-relative box of a resolved element.
type BoundingBox struct {
	X, Y, Width, Height float64
}

func (b BoundingBox) CenterX() float64 { return b.X + b.Width/2 }
func (b BoundingBox) CenterY() float64 { return b.Y + b.Height/2 }

// Element is a resolved DOM node capability surface — the minimal set the
// Action Interpreter needs, never the full driver API.
type Element interface {
	BoundingBox(ctx context.Context) (BoundingBox, error)
	Visible(ctx context.Context) (bool, error)
	ScrollIntoView(ctx context.Context) error

	// TagName and InputType classify a change action's target
	// ("text"|"checkbox"|"radio"|"select").
	TagName(ctx context.Context) (string, error)
	InputType(ctx context.Context) (string, error)

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)

	// Fill sets a text/textarea value and dispatches input+change events.
	Fill(ctx context.Context, value string) error
	Check(ctx context.Context, force bool) error
	SelectByValue(ctx context.Context, value string) error
	SetFiles(ctx context.Context, files []UploadFile) error

	// ClickAt dispatches a trusted left-button click at the given
	// viewport coordinates (normally the element's bounding-box center).
	ClickAt(ctx context.Context, x, y float64) error
	// Hover dispatches a trusted mouseover at the element's center.
	Hover(ctx context.Context) error
	// ScrollTo smooth-scrolls this element (used as a scroll container)
	// to (x, y).
	ScrollTo(ctx context.Context, x, y int) error

	// LabelFor returns the "click the <label for=...>" fallback element
	// used when a checkbox's own Check fails, or nil if none exists.
	LabelFor(ctx context.Context) (Element, error)
}

// RawInput dispatches trusted low-level mouse events, required for
// dragstart/dragend to produce input the page treats as user-originated.
// A driver that cannot provide this must surface a capability error
// instead of faking it.
type RawInput interface {
	MoveMouse(ctx context.Context, x, y float64) error
	MouseDown(ctx context.Context, button MouseButton) error
	MouseUp(ctx context.Context, button MouseButton) error
}

// Frame is the top page or a nested browsing context — the minimal
// capability set the Action Interpreter needs from either.
type Frame interface {
	URL() string
	Title(ctx context.Context) (string, error)

	Navigate(ctx context.Context, url string) error

	// Evaluate runs expr in the frame and returns its JSON-decoded result.
	Evaluate(ctx context.Context, expr string) (any, error)

	// WaitSelector waits up to timeout for a CSS selector to resolve.
	WaitSelector(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// WaitXPath waits up to timeout for an xpath expression to resolve.
	WaitXPath(ctx context.Context, xpath string, timeout time.Duration) (Element, error)

	// ScrollWindow scrolls the frame's window to (x, y) smoothly.
	ScrollWindow(ctx context.Context, x, y int) error
	// InjectNoScrollStyle/RemoveNoScrollStyle toggle the overflow-hidden
	// style dragstart/dragend apply around a drag gesture.
	InjectNoScrollStyle(ctx context.Context) error
	RemoveNoScrollStyle(ctx context.Context) error
	// ViewportSize returns the frame's window inner width/height, used as
	// dragend's drop-point fallback when no DropTarget resolves.
	ViewportSize(ctx context.Context) (width, height float64, err error)
}

// Page owns the browser/context trio's page-level capabilities: frame
// enumeration, keyboard input (always dispatched to the top page, even
// when the targeted element lives in an iframe), cookies, storage,
// screenshots and downloads.
type Page interface {
	MainFrame() Frame
	// Frames returns every live frame, main frame included, for the Frame
	// Locator's origin+path match.
	Frames(ctx context.Context) ([]Frame, error)

	PressKey(ctx context.Context, key string) error

	SetCookie(ctx context.Context, name, value, domain, path string) error
	SetLocalStorageItem(ctx context.Context, key, value string) error
	SetSessionStorageItem(ctx context.Context, key, value string) error
	Hostname() string

	// Screenshot captures a non-full-page PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)

	// WaitDownload blocks until a download event fires or timeout elapses.
	WaitDownload(ctx context.Context, timeout time.Duration) error

	// RawInput returns the low-level mouse dispatcher, or (nil, false) if
	// the driver cannot provide one.
	RawInput() (RawInput, bool)
}

// BrowserSession is one browser/context/page trio, owned exclusively by
// the Session Orchestrator for the request's duration.
type BrowserSession interface {
	Page() Page
	Close() error
}

// BrowserDriver launches engines on demand. A request naming an engine
// the concrete driver cannot speak (e.g. go-rod only drives Chromium over
// CDP) must return a capability error, not attempt a silent fallback.
type BrowserDriver interface {
	Launch(ctx context.Context, engine entity.BrowserEngine, headless bool) (BrowserSession, error)
}
