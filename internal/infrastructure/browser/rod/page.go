package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"browser-agent/internal/domain/ports"
)

// maxScreenshotWidth bounds failure screenshots the same way the
// teacher bounds its own screenshots, substituting PNG (lossless, small
// at viewport scale) for the teacher's JPEG since spec.md requires a
// "data:image/png;base64,..." URI.
const maxScreenshotWidth = 1024

// page wraps the top-level *rod.Page and implements the Page port:
// frame enumeration, keyboard (always dispatched to the top page),
// cookies/storage, screenshot, downloads, and raw input.
type page struct {
	rp        *rod.Page
	mainFrame *frame
}

var _ ports.Page = (*page)(nil)

func newPage(rp *rod.Page) *page {
	return &page{rp: rp, mainFrame: &frame{rp: rp}}
}

func (p *page) MainFrame() ports.Frame { return p.mainFrame }

// Frames enumerates the main page plus every live iframe's browsing
// context, matching against origin+normalized path in the Frame Locator.
func (p *page) Frames(ctx context.Context) ([]ports.Frame, error) {
	frames := []ports.Frame{p.mainFrame}

	iframeEls, err := p.rp.Context(ctx).Elements("iframe")
	if err != nil {
		return nil, fmt.Errorf("rod page: enumerate iframes: %w", err)
	}
	for _, el := range iframeEls {
		fp, err := el.Frame()
		if err != nil {
			continue
		}
		frames = append(frames, &frame{rp: fp})
	}
	return frames, nil
}

func (p *page) PressKey(ctx context.Context, key string) error {
	k, ok := keyByName(key)
	if !ok {
		return fmt.Errorf("rod page: unknown key %q", key)
	}
	if err := p.rp.Context(ctx).Keyboard.Press(k); err != nil {
		return fmt.Errorf("rod page: press %q: %w", key, err)
	}
	return nil
}

func keyByName(name string) (input.Key, bool) {
	switch name {
	case "Enter":
		return input.Enter, true
	case "Tab":
		return input.Tab, true
	case "ArrowUp":
		return input.ArrowUp, true
	case "ArrowDown":
		return input.ArrowDown, true
	case "ArrowLeft":
		return input.ArrowLeft, true
	case "ArrowRight":
		return input.ArrowRight, true
	case "Escape":
		return input.Escape, true
	default:
		return 0, false
	}
}

func (p *page) SetCookie(ctx context.Context, name, value, domain, path string) error {
	err := p.rp.Context(ctx).SetCookies([]*proto.NetworkCookieParam{
		{Name: name, Value: value, Domain: domain, Path: path},
	})
	if err != nil {
		return fmt.Errorf("rod page: set cookie %q: %w", name, err)
	}
	return nil
}

func (p *page) SetLocalStorageItem(ctx context.Context, key, value string) error {
	_, err := p.rp.Context(ctx).Eval(
		`(k, v) => window.localStorage.setItem(k, v)`, key, value,
	)
	if err != nil {
		return fmt.Errorf("rod page: set localStorage[%s]: %w", key, err)
	}
	return nil
}

func (p *page) SetSessionStorageItem(ctx context.Context, key, value string) error {
	_, err := p.rp.Context(ctx).Eval(
		`(k, v) => window.sessionStorage.setItem(k, v)`, key, value,
	)
	if err != nil {
		return fmt.Errorf("rod page: set sessionStorage[%s]: %w", key, err)
	}
	return nil
}

func (p *page) Hostname() string {
	info, err := p.rp.Info()
	if err != nil {
		return ""
	}
	u, err := url.Parse(info.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Screenshot captures a non-full-page PNG of the current viewport,
// downscaling as the teacher does before handing it to persistence.
func (p *page) Screenshot(ctx context.Context) ([]byte, error) {
	raw, err := p.rp.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatPng,
		Quality: gson.Int(100),
	})
	if err != nil {
		return nil, fmt.Errorf("rod page: screenshot: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("rod page: decode screenshot: %w", err)
	}
	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("rod page: encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// WaitDownload blocks until a download event fires or timeout elapses.
func (p *page) WaitDownload(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wait := p.rp.Context(waitCtx).WaitEvent(&proto.PageDownloadWillBegin{})
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-waitCtx.Done():
		return fmt.Errorf("rod page: no download started within %s", timeout)
	}
}

func (p *page) RawInput() (ports.RawInput, bool) {
	return &rawInput{rp: p.rp}, true
}
