package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"browser-agent/internal/domain/ports"
)

const (
	noScrollStyleID = "__automation_no_scroll__"

	// navigateIdleTimeout bounds the post-load network-idle wait
	// System_Navigate's "networkidle" load condition requires.
	navigateIdleTimeout = 5 * time.Second
)

// frame wraps a *rod.Page used either as the top page or as an iframe's
// browsing context — rod represents both the same way, which is exactly
// the "frame-like" abstraction the interpreter needs.
type frame struct {
	rp *rod.Page
}

var _ ports.Frame = (*frame)(nil)

func (f *frame) URL() string {
	info, err := f.rp.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (f *frame) Title(ctx context.Context) (string, error) {
	info, err := f.rp.Info()
	if err != nil {
		return "", fmt.Errorf("rod frame: read title: %w", err)
	}
	return info.Title, nil
}

func (f *frame) Navigate(ctx context.Context, url string) error {
	if err := f.rp.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("rod frame: navigate to %q: %w", url, err)
	}
	if err := f.rp.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("rod frame: wait load for %q: %w", url, err)
	}
	if err := f.rp.Context(ctx).WaitIdle(navigateIdleTimeout); err != nil {
		return fmt.Errorf("rod frame: wait idle for %q: %w", url, err)
	}
	return nil
}

func (f *frame) Evaluate(ctx context.Context, expr string) (any, error) {
	res, err := f.rp.Context(ctx).Eval(expr)
	if err != nil {
		return nil, fmt.Errorf("rod frame: evaluate: %w", err)
	}
	return res.Value.Val(), nil
}

func (f *frame) WaitSelector(ctx context.Context, selector string, timeout time.Duration) (ports.Element, error) {
	el, err := f.rp.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("rod frame: selector %q: %w", selector, err)
	}
	return newElement(el), nil
}

func (f *frame) WaitXPath(ctx context.Context, xpath string, timeout time.Duration) (ports.Element, error) {
	el, err := f.rp.Context(ctx).Timeout(timeout).ElementX(xpath)
	if err != nil {
		return nil, fmt.Errorf("rod frame: xpath %q: %w", xpath, err)
	}
	return newElement(el), nil
}

func (f *frame) ScrollWindow(ctx context.Context, x, y int) error {
	_, err := f.rp.Context(ctx).Eval(
		`(x, y) => window.scrollTo({left: x, top: y, behavior: "smooth"})`, x, y,
	)
	if err != nil {
		return fmt.Errorf("rod frame: scroll window: %w", err)
	}
	return nil
}

func (f *frame) InjectNoScrollStyle(ctx context.Context) error {
	const js = `(id) => {
		if (document.getElementById(id)) return;
		const style = document.createElement("style");
		style.id = id;
		style.textContent = "body { overflow: hidden !important; height: 100% !important; touch-action: none !important; }";
		document.head.appendChild(style);
	}`
	if _, err := f.rp.Context(ctx).Eval(js, noScrollStyleID); err != nil {
		return fmt.Errorf("rod frame: inject no-scroll style: %w", err)
	}
	return nil
}

func (f *frame) RemoveNoScrollStyle(ctx context.Context) error {
	js := `(id) => { const el = document.getElementById(id); if (el) el.remove(); }`
	if _, err := f.rp.Context(ctx).Eval(js, noScrollStyleID); err != nil {
		return fmt.Errorf("rod frame: remove no-scroll style: %w", err)
	}
	return nil
}

func (f *frame) ViewportSize(ctx context.Context) (float64, float64, error) {
	res, err := f.rp.Context(ctx).Eval(`() => ({w: window.innerWidth, h: window.innerHeight})`)
	if err != nil {
		return 0, 0, fmt.Errorf("rod frame: viewport size: %w", err)
	}
	return res.Value.Get("w").Num(), res.Value.Get("h").Num(), nil
}
