// Package interpreter implements the Action Interpreter: dispatch on
// action kind, invoke the Frame Locator / Element Resolver / Variable
// Resolver as needed, perform the browser operation, then invoke the
// Assertion Evaluator.
package interpreter

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"browser-agent/internal/core/assertion"
	"browser-agent/internal/core/resolver"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

// navigateAssertPollInterval/navigateAssertTimeout bound the assertive
// `navigate` action's URL polling.
const (
	navigateAssertPollInterval = 1 * time.Second
	navigateAssertTimeout      = 10 * time.Second
)

// stepHandler performs one action kind's browser operation. It never
// panics: failures are reported as (false, message).
type stepHandler func(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (message string, success bool)

// Interpreter dispatches actions to their browser operation and runs the
// Assertion Evaluator after every one.
type Interpreter struct {
	elements   *resolver.Element
	frames     *resolver.Frame
	variables  *resolver.Variable
	assertions *assertion.Evaluator

	handlers map[entity.ActionType]stepHandler
}

// New constructs an Action Interpreter.
func New(elements *resolver.Element, frames *resolver.Frame, variables *resolver.Variable, assertions *assertion.Evaluator) *Interpreter {
	ip := &Interpreter{
		elements:   elements,
		frames:     frames,
		variables:  variables,
		assertions: assertions,
	}
	ip.handlers = map[entity.ActionType]stepHandler{
		entity.ActionSystemNavigate: handleSystemNavigate,
		entity.ActionNavigate:       handleNavigateAssert,
		entity.ActionMouseDown:      handleMouseDown,
		entity.ActionChange:         handleChange,
		entity.ActionHover:          handleHover,
		entity.ActionScroll:         handleScroll,
		entity.ActionFileSelect:     handleFileSelect,
		entity.ActionDragStart:      handleDragStart,
		entity.ActionDragEnd:        handleDragEnd,
	}
	for key := range keyPressActionTypes() {
		ip.handlers[key] = handleKeyPress
	}
	return ip
}

func keyPressActionTypes() map[entity.ActionType]struct{} {
	return map[entity.ActionType]struct{}{
		entity.ActionKeyEnter:      {},
		entity.ActionKeyTab:        {},
		entity.ActionKeyArrowUp:    {},
		entity.ActionKeyArrowDown:  {},
		entity.ActionKeyArrowLeft:  {},
		entity.ActionKeyArrowRight: {},
		entity.ActionKeyEscape:     {},
	}
}

// RunStep executes one action: locate its frame, dispatch the action,
// then run its assertion set whatever the action's outcome, composing the
// final StepResult per the assertion-precedence rule. When the frame
// cannot be located the step fails before dispatch and no assertion runs.
func (ip *Interpreter) RunStep(ctx context.Context, action entity.Action, idx int, next *entity.Action, page ports.Page) entity.StepResult {
	result := entity.StepResult{
		Sequence:    action.EffectiveSequence(idx),
		Description: action.EffectiveDescription(),
	}

	frame, err := ip.frames.Locate(ctx, action, page)
	if err != nil {
		result.Status = entity.StatusFail
		result.Message = fmt.Sprintf("frame not found: %s", err)
		return result
	}

	handler, ok := ip.handlers[action.Type]
	var message string
	var success bool
	if !ok {
		message = fmt.Sprintf("Unsupported action type: %s", action.Type)
		success = false
	} else {
		message, success = handler(ctx, ip, action, next, frame, page)
	}

	result.Assertions = ip.assertions.Run(ctx, action.Assertions, frame, page, action.Element)

	if firstFailure, failed := firstFailedAssertion(result.Assertions); failed {
		result.Status = entity.StatusFail
		result.Message = firstFailure.Message
		return result
	}

	if success {
		result.Status = entity.StatusPass
	} else {
		result.Status = entity.StatusFail
	}
	result.Message = message
	return result
}

func firstFailedAssertion(results []entity.AssertionResult) (entity.AssertionResult, bool) {
	for _, r := range results {
		if !r.Success {
			return r, true
		}
	}
	return entity.AssertionResult{}, false
}

func handleSystemNavigate(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	if err := frame.Navigate(ctx, action.URL); err != nil {
		return fmt.Sprintf("navigation failed: %s", err), false
	}
	return fmt.Sprintf("Navigated to %s", action.URL), true
}

func handleNavigateAssert(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	expected := resolver.NormalizeURL(action.URL)
	deadline := time.Now().Add(navigateAssertTimeout)
	current := resolver.NormalizeURL(frame.URL())

	for current != expected && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			current = resolver.NormalizeURL(frame.URL())
			return navigateAssertMessage(current, expected), true
		case <-time.After(navigateAssertPollInterval):
		}
		current = resolver.NormalizeURL(frame.URL())
	}
	return navigateAssertMessage(current, expected), true
}

func navigateAssertMessage(current, expected string) string {
	if current == expected {
		return fmt.Sprintf("Current URL matches expected %q", expected)
	}
	return fmt.Sprintf("Current URL %q does not match expected %q", current, expected)
}

func handleMouseDown(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	if next != nil && next.Type == entity.ActionFileSelect {
		return "click avoided before file select", true
	}
	if action.Element != nil && action.Element.IsAlert {
		return "click avoided for alert target", true
	}
	if action.Element == nil || len(action.Element.XPath) == 0 {
		return "mousedown requires an xpath", false
	}

	el, err := ip.elements.EnsureClickable(ctx, action.Element.XPath, frame)
	if err != nil {
		return fmt.Sprintf("element not clickable: %s", err), false
	}
	ip.elements.ScrollIntoView(ctx, el)

	box, err := el.BoundingBox(ctx)
	if err != nil {
		return fmt.Sprintf("bounding box unavailable: %s", err), false
	}
	if err := el.ClickAt(ctx, box.CenterX(), box.CenterY()); err != nil {
		return fmt.Sprintf("click failed: %s", err), false
	}
	return "Clicked element", true
}

func handleChange(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	if action.Element != nil && action.Element.IsAlert {
		return "ignored", true
	}

	el, err := ip.elements.Resolve(ctx, action.Element, frame, 0)
	if err != nil {
		return fmt.Sprintf("element not found: %s", err), false
	}
	ip.elements.ScrollIntoView(ctx, el)

	tag, err := el.TagName(ctx)
	if err != nil {
		return fmt.Sprintf("tag name unavailable: %s", err), false
	}
	inputType, _ := el.InputType(ctx)
	kind := classifyChangeKind(tag, inputType)

	value := action.Value
	if action.Variable != nil && action.Variable.Name != "" {
		value = ip.variables.Resolve(action.Variable)
	}

	switch kind {
	case "text":
		if err := el.Fill(ctx, value); err != nil {
			return fmt.Sprintf("fill failed: %s", err), false
		}
		return "Text entered", true

	case "checkbox":
		if err := el.Check(ctx, true); err != nil {
			label, labelErr := el.LabelFor(ctx)
			if labelErr != nil || label == nil {
				return fmt.Sprintf("checkbox check failed: %s", err), false
			}
			box, boxErr := label.BoundingBox(ctx)
			if boxErr != nil {
				return fmt.Sprintf("label bounding box unavailable: %s", boxErr), false
			}
			if clickErr := label.ClickAt(ctx, box.CenterX(), box.CenterY()); clickErr != nil {
				return fmt.Sprintf("label click failed: %s", clickErr), false
			}
		}
		return "Checkbox toggled", true

	case "radio":
		if err := el.Check(ctx, false); err != nil {
			return fmt.Sprintf("radio check failed: %s", err), false
		}
		return "Radio selected", true

	case "select":
		if err := el.SelectByValue(ctx, value); err != nil {
			return fmt.Sprintf("select failed: %s", err), false
		}
		return "Option selected", true

	default:
		return "Unsupported Type", false
	}
}

func classifyChangeKind(tag, inputType string) string {
	tag = strings.ToLower(tag)
	inputType = strings.ToLower(inputType)
	switch tag {
	case "textarea":
		return "text"
	case "select":
		return "select"
	case "input":
		switch inputType {
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		default:
			return "text"
		}
	default:
		return ""
	}
}

func handleHover(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	topFrame := page.MainFrame()
	el, err := ip.elements.Resolve(ctx, action.Element, topFrame, 0)
	if err != nil {
		return fmt.Sprintf("element not found: %s", err), false
	}
	ip.elements.ScrollIntoView(ctx, el)
	if err := el.Hover(ctx); err != nil {
		return fmt.Sprintf("hover failed: %s", err), false
	}
	return "Hovered element", true
}

func handleScroll(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	if action.ContainerXPath != "" {
		el, err := frame.WaitXPath(ctx, action.ContainerXPath, resolver.DefaultResolveTimeout)
		if err != nil {
			return fmt.Sprintf("scroll container not found: %s", err), false
		}
		if err := el.ScrollTo(ctx, action.ScrollX, action.ScrollY); err != nil {
			return fmt.Sprintf("container scroll failed: %s", err), false
		}
	} else {
		if err := frame.ScrollWindow(ctx, action.ScrollX, action.ScrollY); err != nil {
			return fmt.Sprintf("window scroll failed: %s", err), false
		}
	}
	sleep(ctx, 1*time.Second)
	return "Scrolled", true
}

func handleKeyPress(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	if err := page.PressKey(ctx, action.Type.String()); err != nil {
		return fmt.Sprintf("key press failed: %s", err), false
	}
	return fmt.Sprintf("Pressed %s", action.Type), true
}

func handleFileSelect(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	if action.StorageData == nil {
		return "fileSelect requires storageData", false
	}
	el, err := ip.elements.Resolve(ctx, action.Element, frame, 0)
	if err != nil {
		return fmt.Sprintf("element not found: %s", err), false
	}
	ip.elements.ScrollIntoView(ctx, el)

	payload, err := decodeDataURLPayload(action.StorageData.Content)
	if err != nil {
		return fmt.Sprintf("decode storageData failed: %s", err), false
	}

	files := []ports.UploadFile{{
		Name:     action.StorageData.Name,
		MimeType: action.StorageData.Type,
		Data:     payload,
	}}
	if err := el.SetFiles(ctx, files); err != nil {
		return fmt.Sprintf("set files failed: %s", err), false
	}
	return "File selected", true
}

func decodeDataURLPayload(dataURL string) ([]byte, error) {
	idx := strings.Index(dataURL, ",")
	if idx < 0 {
		return nil, fmt.Errorf("storageData.content is not a data URL")
	}
	return base64.StdEncoding.DecodeString(dataURL[idx+1:])
}

func handleDragStart(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	raw, ok := page.RawInput()
	if !ok {
		return "drag requires a raw input channel, which this driver does not provide", false
	}
	el, err := ip.elements.Resolve(ctx, action.Element, frame, 0)
	if err != nil {
		return fmt.Sprintf("element not found: %s", err), false
	}
	box, err := el.BoundingBox(ctx)
	if err != nil {
		return fmt.Sprintf("bounding box unavailable: %s", err), false
	}

	if err := frame.InjectNoScrollStyle(ctx); err != nil {
		return fmt.Sprintf("inject no-scroll style failed: %s", err), false
	}
	if err := raw.MoveMouse(ctx, box.CenterX(), box.CenterY()); err != nil {
		return fmt.Sprintf("move mouse failed: %s", err), false
	}
	if err := raw.MouseDown(ctx, ports.MouseButtonLeft); err != nil {
		return fmt.Sprintf("mouse down failed: %s", err), false
	}
	return "Drag started", true
}

func handleDragEnd(ctx context.Context, ip *Interpreter, action entity.Action, next *entity.Action, frame ports.Frame, page ports.Page) (string, bool) {
	raw, ok := page.RawInput()
	if !ok {
		return "drag requires a raw input channel, which this driver does not provide", false
	}

	x, y, err := dragEndTarget(ctx, ip, action, frame)
	if err != nil {
		return fmt.Sprintf("drop target unavailable: %s", err), false
	}

	if err := raw.MoveMouse(ctx, x, y); err != nil {
		return fmt.Sprintf("move mouse failed: %s", err), false
	}
	if err := raw.MouseUp(ctx, ports.MouseButtonLeft); err != nil {
		return fmt.Sprintf("mouse up failed: %s", err), false
	}
	if err := frame.RemoveNoScrollStyle(ctx); err != nil {
		return fmt.Sprintf("remove no-scroll style failed: %s", err), false
	}
	return "Drag completed", true
}

func dragEndTarget(ctx context.Context, ip *Interpreter, action entity.Action, frame ports.Frame) (float64, float64, error) {
	if action.DropTarget != nil {
		if el, err := ip.elements.Resolve(ctx, action.DropTarget, frame, 0); err == nil {
			box, err := el.BoundingBox(ctx)
			if err == nil {
				return box.CenterX(), box.CenterY(), nil
			}
		}
	}
	width, height, err := frame.ViewportSize(ctx)
	if err != nil {
		return 0, 0, err
	}
	return width / 2, height / 2, nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
