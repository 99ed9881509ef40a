// Package resolver implements the Element Resolver, Frame Locator, and
// Variable Resolver used by the action interpreter.
package resolver

import (
	"context"
	"fmt"
	"time"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

const (
	// DefaultResolveTimeout is the Element Resolver's default wait for a
	// uniqueSelector or an xpath candidate.
	DefaultResolveTimeout = 3 * time.Second
	// ClickableTimeout bounds EnsureClickable's overall search across all
	// xpath candidates.
	ClickableTimeout = 10 * time.Second
	// clickablePresenceTimeout is the per-candidate presence wait inside
	// EnsureClickable.
	clickablePresenceTimeout = 3 * time.Second
	// scrollSettleDelay is the brief pause ScrollIntoView waits after
	// centering an element.
	scrollSettleDelay = 300 * time.Millisecond
)

// Element resolves a descriptor against a frame, trying UniqueSelector
// first and falling back to the XPath list in order.
type Element struct{}

// NewElement constructs an Element Resolver. It holds no state; the zero
// value is ready to use.
func NewElement() *Element { return &Element{} }

// Resolve tries d.UniqueSelector, then each d.XPath entry in order.
// timeout<=0 selects DefaultResolveTimeout.
func (r *Element) Resolve(ctx context.Context, d *entity.ElementDescriptor, frame ports.Frame, timeout time.Duration) (ports.Element, error) {
	if d == nil {
		return nil, fmt.Errorf("resolver: nil element descriptor")
	}
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	if d.UniqueSelector != "" {
		el, err := frame.WaitSelector(ctx, d.UniqueSelector, timeout)
		if err == nil {
			return el, nil
		}
		// A uniqueSelector miss still tries the xpath list rather than
		// failing outright: both are recorded hints for the same element.
	}

	for _, xp := range d.XPath {
		el, err := frame.WaitXPath(ctx, xp, timeout)
		if err == nil {
			return el, nil
		}
	}

	if d.UniqueSelector == "" && len(d.XPath) == 0 {
		return nil, fmt.Errorf("resolver: element descriptor has no uniqueSelector or xpath")
	}
	return nil, fmt.Errorf("resolver: element not found within %s", timeout)
}

// EnsureClickable iterates the xpath candidates in order; for each it
// waits up to clickablePresenceTimeout for presence, then requires
// visibility, returning the first visible match. The overall search is
// bounded by ClickableTimeout.
func (r *Element) EnsureClickable(ctx context.Context, xpaths []string, frame ports.Frame) (ports.Element, error) {
	if len(xpaths) == 0 {
		return nil, fmt.Errorf("resolver: ensureClickable requires at least one xpath")
	}

	deadline := time.Now().Add(ClickableTimeout)
	var lastErr error
	for _, xp := range xpaths {
		if time.Now().After(deadline) {
			break
		}
		el, err := frame.WaitXPath(ctx, xp, clickablePresenceTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		visible, err := el.Visible(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if visible {
			return el, nil
		}
		lastErr = fmt.Errorf("resolver: element at %q present but not visible", xp)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("resolver: no candidate became clickable")
	}
	return nil, lastErr
}

// ScrollIntoView centers el within the viewport (block and inline) and
// waits a brief settle period. Scroll errors are swallowed: this is a
// best-effort convenience step, not a precondition the interpreter fails on.
func (r *Element) ScrollIntoView(ctx context.Context, el ports.Element) {
	_ = el.ScrollIntoView(ctx)
	select {
	case <-ctx.Done():
	case <-time.After(scrollSettleDelay):
	}
}
