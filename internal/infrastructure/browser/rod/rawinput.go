package rod

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"browser-agent/internal/domain/ports"
)

// rawInput dispatches trusted low-level mouse events via the page's CDP
// Input domain, required for dragstart/dragend to produce input the
// page treats as user-originated.
type rawInput struct {
	rp *rod.Page
}

var _ ports.RawInput = (*rawInput)(nil)

func (r *rawInput) MoveMouse(ctx context.Context, x, y float64) error {
	if err := r.rp.Context(ctx).Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("rod raw input: move mouse: %w", err)
	}
	return nil
}

func (r *rawInput) MouseDown(ctx context.Context, button ports.MouseButton) error {
	if err := r.rp.Context(ctx).Mouse.Down(cdpButton(button), 1); err != nil {
		return fmt.Errorf("rod raw input: mouse down: %w", err)
	}
	return nil
}

func (r *rawInput) MouseUp(ctx context.Context, button ports.MouseButton) error {
	if err := r.rp.Context(ctx).Mouse.Up(cdpButton(button), 1); err != nil {
		return fmt.Errorf("rod raw input: mouse up: %w", err)
	}
	return nil
}

func cdpButton(button ports.MouseButton) proto.InputMouseButton {
	switch button {
	case ports.MouseButtonLeft:
		return proto.InputMouseButtonLeft
	default:
		return proto.InputMouseButtonLeft
	}
}
