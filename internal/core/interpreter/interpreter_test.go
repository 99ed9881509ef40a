package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-agent/internal/core/assertion"
	"browser-agent/internal/core/resolver"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

type fakeElement struct {
	visible   bool
	hoverErr  error
	tagName   string
	inputType string
	checkErr  error
	labelEl   *fakeElement
	labelErr  error

	filled       string
	checked      []bool
	selected     string
	files        []ports.UploadFile
	clicked      bool
	scrolledTo   *[2]int
}

func (e *fakeElement) BoundingBox(ctx context.Context) (ports.BoundingBox, error) {
	return ports.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, nil
}
func (e *fakeElement) Visible(ctx context.Context) (bool, error) { return e.visible, nil }
func (e *fakeElement) ScrollIntoView(ctx context.Context) error  { return nil }
func (e *fakeElement) TagName(ctx context.Context) (string, error) {
	if e.tagName != "" {
		return e.tagName, nil
	}
	return "input", nil
}
func (e *fakeElement) InputType(ctx context.Context) (string, error) {
	if e.inputType != "" {
		return e.inputType, nil
	}
	return "text", nil
}
func (e *fakeElement) Text(ctx context.Context) (string, error)                  { return "", nil }
func (e *fakeElement) Attribute(ctx context.Context, name string) (string, error) { return "", nil }
func (e *fakeElement) Fill(ctx context.Context, value string) error              { e.filled = value; return nil }
func (e *fakeElement) Check(ctx context.Context, force bool) error {
	e.checked = append(e.checked, force)
	return e.checkErr
}
func (e *fakeElement) SelectByValue(ctx context.Context, value string) error {
	e.selected = value
	return nil
}
func (e *fakeElement) SetFiles(ctx context.Context, files []ports.UploadFile) error {
	e.files = files
	return nil
}
func (e *fakeElement) ClickAt(ctx context.Context, x, y float64) error { e.clicked = true; return nil }
func (e *fakeElement) Hover(ctx context.Context) error                 { return e.hoverErr }
func (e *fakeElement) ScrollTo(ctx context.Context, x, y int) error {
	e.scrolledTo = &[2]int{x, y}
	return nil
}
func (e *fakeElement) LabelFor(ctx context.Context) (ports.Element, error) {
	if e.labelErr != nil {
		return nil, e.labelErr
	}
	if e.labelEl != nil {
		return e.labelEl, nil
	}
	return nil, nil
}

type fakeFrame struct {
	url        string
	el         *fakeElement
	waitErr    error
	navigateErr error

	navigated        []string
	scrollWindowCall *[2]int
	injectedNoScroll bool
	removedNoScroll  bool
}

func (f *fakeFrame) URL() string                              { return f.url }
func (f *fakeFrame) Title(ctx context.Context) (string, error) { return "", nil }
func (f *fakeFrame) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	if f.navigateErr != nil {
		return f.navigateErr
	}
	f.url = url
	return nil
}
func (f *fakeFrame) Evaluate(ctx context.Context, expr string) (any, error) { return nil, nil }
func (f *fakeFrame) WaitSelector(ctx context.Context, s string, t time.Duration) (ports.Element, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return f.el, nil
}
func (f *fakeFrame) WaitXPath(ctx context.Context, xp string, t time.Duration) (ports.Element, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return f.el, nil
}
func (f *fakeFrame) ScrollWindow(ctx context.Context, x, y int) error {
	f.scrollWindowCall = &[2]int{x, y}
	return nil
}
func (f *fakeFrame) InjectNoScrollStyle(ctx context.Context) error { f.injectedNoScroll = true; return nil }
func (f *fakeFrame) RemoveNoScrollStyle(ctx context.Context) error { f.removedNoScroll = true; return nil }
func (f *fakeFrame) ViewportSize(ctx context.Context) (float64, float64, error) { return 1280, 720, nil }

type fakeRawInput struct {
	moved [][2]float64
	downs []ports.MouseButton
	ups   []ports.MouseButton
}

func (r *fakeRawInput) MoveMouse(ctx context.Context, x, y float64) error {
	r.moved = append(r.moved, [2]float64{x, y})
	return nil
}
func (r *fakeRawInput) MouseDown(ctx context.Context, button ports.MouseButton) error {
	r.downs = append(r.downs, button)
	return nil
}
func (r *fakeRawInput) MouseUp(ctx context.Context, button ports.MouseButton) error {
	r.ups = append(r.ups, button)
	return nil
}

type fakePage struct {
	main     *fakeFrame
	rawInput *fakeRawInput

	keysPressed []string
}

func (p *fakePage) MainFrame() ports.Frame                            { return p.main }
func (p *fakePage) Frames(ctx context.Context) ([]ports.Frame, error) { return []ports.Frame{p.main}, nil }
func (p *fakePage) PressKey(ctx context.Context, key string) error {
	p.keysPressed = append(p.keysPressed, key)
	return nil
}
func (p *fakePage) SetCookie(ctx context.Context, name, value, domain, path string) error {
	return nil
}
func (p *fakePage) SetLocalStorageItem(ctx context.Context, key, value string) error   { return nil }
func (p *fakePage) SetSessionStorageItem(ctx context.Context, key, value string) error { return nil }
func (p *fakePage) Hostname() string                               { return "example.org" }
func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (p *fakePage) WaitDownload(ctx context.Context, timeout time.Duration) error {
	return nil
}
func (p *fakePage) RawInput() (ports.RawInput, bool) {
	if p.rawInput == nil {
		return nil, false
	}
	return p.rawInput, true
}

func newTestInterpreter() *Interpreter {
	return New(resolver.NewElement(), resolver.NewFrame(), resolver.NewVariable(), assertion.NewEvaluator())
}

func TestInterpreter_UnsupportedActionType(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionType("bogus-action")}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusFail, result.Status)
	assert.Contains(t, result.Message, "Unsupported action type")
}

func TestInterpreter_AssertionOverridesSuccessfulAction_Scenario6(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true}
	top := &fakeFrame{url: "https://example.org/", el: el}
	page := &fakePage{main: top}

	action := entity.Action{
		Type:    entity.ActionHover,
		Element: &entity.ElementDescriptor{UniqueSelector: "#target"},
		Assertions: entity.AssertionSet{
			{Kind: entity.AssertionPageHasTitle, Spec: entity.AssertionSpec{Value: "does-not-match"}},
		},
	}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	require.Len(t, result.Assertions, 1)
	assert.False(t, result.Assertions[0].Success)
	assert.Equal(t, entity.StatusFail, result.Status, "P5: a failing assertion fails the step even though the action itself succeeded")
	assert.Equal(t, result.Assertions[0].Message, result.Message)
}

func TestInterpreter_NoFailingAssertionKeepsActionStatus(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true}
	top := &fakeFrame{url: "https://example.org/", el: el, waitErr: assertNotFoundErr}
	page := &fakePage{main: top}

	action := entity.Action{
		Type:    entity.ActionHover,
		Element: &entity.ElementDescriptor{UniqueSelector: "#missing"},
	}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusFail, result.Status, "hover itself fails when the element never resolves")
	assert.Empty(t, result.Assertions)
}

var assertNotFoundErr = fakeNotFound{}

type fakeNotFound struct{}

func (fakeNotFound) Error() string { return "not found" }

func TestInterpreter_HoverSucceeds(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true}
	top := &fakeFrame{url: "https://example.org/", el: el}
	page := &fakePage{main: top}

	action := entity.Action{
		Type:    entity.ActionHover,
		Element: &entity.ElementDescriptor{UniqueSelector: "#target"},
	}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	assert.Equal(t, "Hovered element", result.Message)
}

func TestInterpreter_MouseDownSkippedBeforeFileSelect(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionMouseDown, Element: &entity.ElementDescriptor{XPath: []string{"//button"}}}
	next := &entity.Action{Type: entity.ActionFileSelect}
	result := ip.RunStep(context.Background(), action, 0, next, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	assert.Equal(t, "click avoided before file select", result.Message)
}

func TestInterpreter_FrameNotFoundFailsTheStep(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	notTop := false
	action := entity.Action{
		Type:             entity.ActionHover,
		IsTopFrame:       &notTop,
		IframeIdentifier: &entity.IframeIdentifier{Src: "https://evil.example/embed"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := ip.RunStep(ctx, action, 0, nil, page)
	assert.Equal(t, entity.StatusFail, result.Status)
	assert.Contains(t, result.Message, "frame not found")
}

func TestInterpreter_SystemNavigate(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionSystemNavigate, URL: "https://example.org/next"}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	assert.Equal(t, []string{"https://example.org/next"}, top.navigated)
}

func TestInterpreter_SystemNavigate_FrameErrorFailsTheStep(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/", navigateErr: fakeNotFound{}}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionSystemNavigate, URL: "https://example.org/next"}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusFail, result.Status)
	assert.Contains(t, result.Message, "navigation failed")
}

// TestInterpreter_NavigateAssertNeverFails covers the assertive `navigate`
// action type: it always reports success, win or lose, recording only
// whether the current URL matched in its message (Open Question (b)).
func TestInterpreter_NavigateAssertNeverFails(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/landed"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionNavigate, URL: "https://example.org/landed"}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	assert.Contains(t, result.Message, "matches expected")
}

func TestInterpreter_NavigateAssert_MismatchStillPasses(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/elsewhere"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionNavigate, URL: "https://example.org/landed"}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status, "navigate never fails the step even on a mismatch")
	assert.Contains(t, result.Message, "does not match")
}

func TestInterpreter_Change_SubKinds(t *testing.T) {
	cases := []struct {
		name      string
		tagName   string
		inputType string
		action    entity.Action
		check     func(t *testing.T, el *fakeElement, msg string)
	}{
		{
			name:      "text",
			tagName:   "input",
			inputType: "text",
			action: entity.Action{
				Type:    entity.ActionChange,
				Element: &entity.ElementDescriptor{UniqueSelector: "#name"},
				Value:   "hello",
			},
			check: func(t *testing.T, el *fakeElement, msg string) {
				assert.Equal(t, "hello", el.filled)
				assert.Equal(t, "Text entered", msg)
			},
		},
		{
			name:      "variable resolution overrides literal value",
			tagName:   "textarea",
			inputType: "",
			action: entity.Action{
				Type:    entity.ActionChange,
				Element: &entity.ElementDescriptor{UniqueSelector: "#bio"},
				Value:   "literal",
				Variable: &entity.VariableDescriptor{Name: "unknown-generator", Value: "from-variable"},
			},
			check: func(t *testing.T, el *fakeElement, msg string) {
				assert.Equal(t, "from-variable", el.filled, "an unrecognized generator name falls back to the variable's literal value")
			},
		},
		{
			name:      "checkbox",
			tagName:   "input",
			inputType: "checkbox",
			action: entity.Action{
				Type:    entity.ActionChange,
				Element: &entity.ElementDescriptor{UniqueSelector: "#agree"},
			},
			check: func(t *testing.T, el *fakeElement, msg string) {
				require.Len(t, el.checked, 1)
				assert.True(t, el.checked[0])
				assert.Equal(t, "Checkbox toggled", msg)
			},
		},
		{
			name:      "radio",
			tagName:   "input",
			inputType: "radio",
			action: entity.Action{
				Type:    entity.ActionChange,
				Element: &entity.ElementDescriptor{UniqueSelector: "#opt2"},
			},
			check: func(t *testing.T, el *fakeElement, msg string) {
				require.Len(t, el.checked, 1)
				assert.False(t, el.checked[0])
				assert.Equal(t, "Radio selected", msg)
			},
		},
		{
			name:      "select",
			tagName:   "select",
			inputType: "",
			action: entity.Action{
				Type:    entity.ActionChange,
				Element: &entity.ElementDescriptor{UniqueSelector: "#country"},
				Value:   "US",
			},
			check: func(t *testing.T, el *fakeElement, msg string) {
				assert.Equal(t, "US", el.selected)
				assert.Equal(t, "Option selected", msg)
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			ip := newTestInterpreter()
			el := &fakeElement{visible: true, tagName: tt.tagName, inputType: tt.inputType}
			top := &fakeFrame{url: "https://example.org/", el: el}
			page := &fakePage{main: top}

			result := ip.RunStep(context.Background(), tt.action, 0, nil, page)

			assert.Equal(t, entity.StatusPass, result.Status)
			tt.check(t, el, result.Message)
		})
	}
}

func TestInterpreter_Change_CheckboxFallsBackToLabelClick(t *testing.T) {
	ip := newTestInterpreter()
	label := &fakeElement{visible: true}
	el := &fakeElement{visible: true, tagName: "input", inputType: "checkbox", checkErr: fakeNotFound{}, labelEl: label}
	top := &fakeFrame{url: "https://example.org/", el: el}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionChange, Element: &entity.ElementDescriptor{UniqueSelector: "#agree"}}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	assert.True(t, label.clicked, "checkbox Check failure falls back to clicking its LabelFor element")
}

func TestInterpreter_Change_CheckboxFailsWhenNoLabelFallback(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true, tagName: "input", inputType: "checkbox", checkErr: fakeNotFound{}}
	top := &fakeFrame{url: "https://example.org/", el: el}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionChange, Element: &entity.ElementDescriptor{UniqueSelector: "#agree"}}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusFail, result.Status)
	assert.Contains(t, result.Message, "checkbox check failed")
}

func TestInterpreter_Scroll_Window(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionScroll, ScrollX: 0, ScrollY: 400}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	require.NotNil(t, top.scrollWindowCall)
	assert.Equal(t, [2]int{0, 400}, *top.scrollWindowCall)
}

func TestInterpreter_Scroll_Container(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true}
	top := &fakeFrame{url: "https://example.org/", el: el}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionScroll, ContainerXPath: "//div[@id='list']", ScrollX: 10, ScrollY: 20}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	require.NotNil(t, el.scrolledTo)
	assert.Equal(t, [2]int{10, 20}, *el.scrolledTo)
	assert.Nil(t, top.scrollWindowCall, "a container xpath scrolls the container, not the window")
}

func TestInterpreter_FileSelect_DecodesDataURL(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true}
	top := &fakeFrame{url: "https://example.org/", el: el}
	page := &fakePage{main: top}

	action := entity.Action{
		Type:    entity.ActionFileSelect,
		Element: &entity.ElementDescriptor{UniqueSelector: "#upload"},
		StorageData: &entity.StorageData{
			Name:    "receipt.txt",
			Type:    "text/plain",
			Content: "data:text/plain;base64,aGVsbG8=",
		},
	}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	require.Len(t, el.files, 1)
	assert.Equal(t, "receipt.txt", el.files[0].Name)
	assert.Equal(t, []byte("hello"), el.files[0].Data)
}

func TestInterpreter_FileSelect_RequiresStorageData(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionFileSelect, Element: &entity.ElementDescriptor{UniqueSelector: "#upload"}}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusFail, result.Status)
	assert.Contains(t, result.Message, "requires storageData")
}

func TestInterpreter_DragStartAndEnd(t *testing.T) {
	ip := newTestInterpreter()
	el := &fakeElement{visible: true}
	top := &fakeFrame{url: "https://example.org/", el: el}
	raw := &fakeRawInput{}
	page := &fakePage{main: top, rawInput: raw}

	start := entity.Action{Type: entity.ActionDragStart, Element: &entity.ElementDescriptor{UniqueSelector: "#card"}}
	startResult := ip.RunStep(context.Background(), start, 0, nil, page)
	assert.Equal(t, entity.StatusPass, startResult.Status)
	assert.True(t, top.injectedNoScroll)
	require.Len(t, raw.downs, 1)
	assert.Equal(t, ports.MouseButtonLeft, raw.downs[0])

	end := entity.Action{Type: entity.ActionDragEnd, DropTarget: &entity.ElementDescriptor{UniqueSelector: "#bin"}}
	endResult := ip.RunStep(context.Background(), end, 1, nil, page)
	assert.Equal(t, entity.StatusPass, endResult.Status)
	assert.True(t, top.removedNoScroll)
	require.Len(t, raw.ups, 1)
	assert.Equal(t, ports.MouseButtonLeft, raw.ups[0])
}

func TestInterpreter_Drag_FailsWithoutRawInput(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionDragStart, Element: &entity.ElementDescriptor{UniqueSelector: "#card"}}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusFail, result.Status)
	assert.Contains(t, result.Message, "raw input channel")
}

func TestInterpreter_KeyPress(t *testing.T) {
	ip := newTestInterpreter()
	top := &fakeFrame{url: "https://example.org/"}
	page := &fakePage{main: top}

	action := entity.Action{Type: entity.ActionKeyEnter}
	result := ip.RunStep(context.Background(), action, 0, nil, page)

	assert.Equal(t, entity.StatusPass, result.Status)
	assert.Equal(t, []string{"Enter"}, page.keysPressed)
}
