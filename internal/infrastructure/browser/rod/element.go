package rod

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"browser-agent/internal/domain/ports"
)

const defaultLabelTimeout = 3 * time.Second

// element wraps a *rod.Element, exposing only the capability surface the
// Action Interpreter and Assertion Evaluator need.
type element struct {
	re *rod.Element
}

var _ ports.Element = (*element)(nil)

func newElement(re *rod.Element) *element { return &element{re: re} }

func (e *element) BoundingBox(ctx context.Context) (ports.BoundingBox, error) {
	shape, err := e.re.Context(ctx).Shape()
	if err != nil {
		return ports.BoundingBox{}, fmt.Errorf("rod element: bounding box: %w", err)
	}
	box := shape.Box()
	if box == nil {
		return ports.BoundingBox{}, fmt.Errorf("rod element: no bounding box available")
	}
	return ports.BoundingBox{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	visible, err := e.re.Context(ctx).Visible()
	if err != nil {
		return false, fmt.Errorf("rod element: visible: %w", err)
	}
	return visible, nil
}

// ScrollIntoView centers the element within the viewport via the DOM
// API rather than rod's own ScrollIntoView, matching spec.md §4.1's
// "center-align block and inline" wording exactly.
func (e *element) ScrollIntoView(ctx context.Context) error {
	_, err := e.re.Context(ctx).Eval(
		`() => this.scrollIntoView({block: "center", inline: "center"})`,
	)
	if err != nil {
		return fmt.Errorf("rod element: scroll into view: %w", err)
	}
	return nil
}

func (e *element) TagName(ctx context.Context) (string, error) {
	res, err := e.re.Context(ctx).Eval(`() => this.tagName`)
	if err != nil {
		return "", fmt.Errorf("rod element: tag name: %w", err)
	}
	return res.Value.Str(), nil
}

func (e *element) InputType(ctx context.Context) (string, error) {
	attr, err := e.re.Context(ctx).Attribute("type")
	if err != nil {
		return "", fmt.Errorf("rod element: input type: %w", err)
	}
	if attr == nil {
		return "", nil
	}
	return *attr, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	text, err := e.re.Context(ctx).Text()
	if err != nil {
		return "", fmt.Errorf("rod element: text: %w", err)
	}
	return text, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	attr, err := e.re.Context(ctx).Attribute(name)
	if err != nil {
		return "", fmt.Errorf("rod element: attribute %q: %w", name, err)
	}
	if attr == nil {
		return "", nil
	}
	return *attr, nil
}

// Fill clears the current value and types the new one, then dispatches
// input and change events so frameworks bound to those listeners react.
func (e *element) Fill(ctx context.Context, value string) error {
	el := e.re.Context(ctx)
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("rod element: fill: %w", err)
	}
	_, err := el.Eval(
		`() => {
			this.dispatchEvent(new Event("input", {bubbles: true}));
			this.dispatchEvent(new Event("change", {bubbles: true}));
		}`,
	)
	if err != nil {
		return fmt.Errorf("rod element: dispatch input/change events: %w", err)
	}
	return nil
}

// Check sets a checkbox/radio's checked state to true. force mirrors
// Playwright's checkbox force-click semantics: rod has no native force
// flag, so a plain click is issued regardless.
func (e *element) Check(ctx context.Context, force bool) error {
	el := e.re.Context(ctx)
	res, err := el.Eval(`() => this.checked === true`)
	if err == nil && res.Value.Bool() {
		return nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("rod element: check: %w", err)
	}
	return nil
}

func (e *element) SelectByValue(ctx context.Context, value string) error {
	selector := fmt.Sprintf("option[value=%q]", value)
	if err := e.re.Context(ctx).Select([]string{selector}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("rod element: select by value %q: %w", value, err)
	}
	return nil
}

// SetFiles writes each upload's in-memory payload to a temp file: rod's
// SetFiles (like the underlying CDP DOM.setFileInputFiles call) only
// accepts local file paths, never raw buffers.
func (e *element) SetFiles(ctx context.Context, files []ports.UploadFile) error {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		tmp, err := os.CreateTemp("", "upload-*-"+sanitizeFileName(f.Name))
		if err != nil {
			return fmt.Errorf("rod element: create temp upload file: %w", err)
		}
		if _, err := tmp.Write(f.Data); err != nil {
			tmp.Close()
			return fmt.Errorf("rod element: write temp upload file: %w", err)
		}
		tmp.Close()
		paths = append(paths, tmp.Name())
	}
	if err := e.re.Context(ctx).SetFiles(paths); err != nil {
		return fmt.Errorf("rod element: set files: %w", err)
	}
	return nil
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	return string(out)
}

func (e *element) ClickAt(ctx context.Context, x, y float64) error {
	el := e.re.Context(ctx)
	if err := el.Page().Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("rod element: move mouse: %w", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("rod element: click: %w", err)
	}
	return nil
}

func (e *element) Hover(ctx context.Context) error {
	if err := e.re.Context(ctx).Hover(); err != nil {
		return fmt.Errorf("rod element: hover: %w", err)
	}
	return nil
}

func (e *element) ScrollTo(ctx context.Context, x, y int) error {
	_, err := e.re.Context(ctx).Eval(
		`(x, y) => this.scrollTo({left: x, top: y, behavior: "smooth"})`, x, y,
	)
	if err != nil {
		return fmt.Errorf("rod element: scroll to: %w", err)
	}
	return nil
}

// LabelFor returns the <label for="<id>"> element associated with this
// input, or nil if it has no id or no matching label exists.
func (e *element) LabelFor(ctx context.Context) (ports.Element, error) {
	id, err := e.re.Context(ctx).Attribute("id")
	if err != nil {
		return nil, fmt.Errorf("rod element: read id for label lookup: %w", err)
	}
	if id == nil || *id == "" {
		return nil, nil
	}
	label, err := e.re.Page().Context(ctx).Timeout(defaultLabelTimeout).ElementX(
		fmt.Sprintf(`//label[@for=%q]`, *id),
	)
	if err != nil {
		return nil, nil
	}
	return newElement(label), nil
}
