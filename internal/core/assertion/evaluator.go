// Package assertion implements the Assertion Evaluator: a closed, ordered
// set of post-action checks run after every action regardless of the
// action's own outcome.
package assertion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"browser-agent/internal/core/resolver"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

// downloadTimeout bounds the downloadStarted assertion.
const downloadTimeout = 5 * time.Second

var validEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Evaluator runs an action's assertion set in declared order, stopping at
// the first failure.
type Evaluator struct{}

// NewEvaluator constructs an Assertion Evaluator. It holds no state; the
// zero value is ready to use.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Run evaluates assertions in their declared order, stopping at the first
// failure.
func (e *Evaluator) Run(ctx context.Context, assertions entity.AssertionSet, frame ports.Frame, page ports.Page, descriptor *entity.ElementDescriptor) []entity.AssertionResult {
	results := make([]entity.AssertionResult, 0, len(assertions))
	for _, entry := range assertions {
		result := e.evaluateOne(ctx, entry.Kind, entry.Spec, frame, page, descriptor)
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results
}

func (e *Evaluator) evaluateOne(ctx context.Context, kind entity.AssertionKind, spec entity.AssertionSpec, frame ports.Frame, page ports.Page, descriptor *entity.ElementDescriptor) entity.AssertionResult {
	ok, msg, err := e.check(ctx, kind, spec, frame, page, descriptor)
	if err != nil {
		return entity.AssertionResult{Type: kind, Success: false, Message: fail(err.Error())}
	}
	if !ok {
		return entity.AssertionResult{Type: kind, Success: false, Message: fail(msg)}
	}
	return entity.AssertionResult{Type: kind, Success: true, Message: msg}
}

func fail(msg string) string {
	return "Assertion failed: " + msg
}

func (e *Evaluator) check(ctx context.Context, kind entity.AssertionKind, spec entity.AssertionSpec, frame ports.Frame, page ports.Page, descriptor *entity.ElementDescriptor) (bool, string, error) {
	switch kind {
	case entity.AssertionValidEmail:
		value := ""
		if descriptor != nil {
			value = descriptor.Value
		}
		if validEmailPattern.MatchString(value) {
			return true, "Valid email", nil
		}
		return false, fmt.Sprintf("%q is not a valid email", value), nil

	case entity.AssertionFormHasValue:
		value := ""
		if descriptor != nil {
			value = descriptor.Value
		}
		if value == spec.Value {
			return true, "Form has expected value", nil
		}
		return false, fmt.Sprintf("expected form value %q, got %q", spec.Value, value), nil

	case entity.AssertionPageHasTitle:
		title, err := frame.Title(ctx)
		if err != nil {
			return false, "", fmt.Errorf("read page title: %w", err)
		}
		if strings.Contains(strings.ToLower(title), strings.ToLower(spec.Value)) {
			return true, "Page has expected title", nil
		}
		return false, fmt.Sprintf("expected title to contain %q, got %q", spec.Value, title), nil

	case entity.AssertionPageHasText:
		raw, err := frame.Evaluate(ctx, "() => document.body.innerText")
		if err != nil {
			return false, "", fmt.Errorf("read page text: %w", err)
		}
		text, _ := raw.(string)
		if strings.Contains(strings.ToLower(text), strings.ToLower(spec.Value)) {
			return true, "Page has expected text", nil
		}
		return false, fmt.Sprintf("expected page text to contain %q", spec.Value), nil

	case entity.AssertionElementHasText:
		text := ""
		if descriptor != nil {
			text = strings.TrimSpace(descriptor.TextContent)
		}
		if strings.Contains(strings.ToLower(text), strings.ToLower(spec.Value)) {
			return true, "Element has expected text", nil
		}
		return false, fmt.Sprintf("expected element text to contain %q, got %q", spec.Value, text), nil

	case entity.AssertionElementVisible:
		if descriptor == nil || len(descriptor.XPath) == 0 {
			return false, "", fmt.Errorf("elementIsVisible requires an xpath list")
		}
		for _, xp := range descriptor.XPath {
			el, err := frame.WaitXPath(ctx, xp, resolver.DefaultResolveTimeout)
			if err != nil {
				continue
			}
			visible, err := el.Visible(ctx)
			if err != nil {
				continue
			}
			if visible {
				return true, "Element is visible", nil
			}
			return false, "element is present but not visible", nil
		}
		return false, "no xpath candidate resolved", nil

	case entity.AssertionDownloadStarted:
		if err := page.WaitDownload(ctx, downloadTimeout); err != nil {
			return false, "", fmt.Errorf("no download started: %w", err)
		}
		return true, "Download started", nil

	default:
		return false, "", fmt.Errorf("Unsupported assertion")
	}
}
