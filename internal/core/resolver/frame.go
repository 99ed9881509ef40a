package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

const (
	// frameLocatePollInterval is how often the Frame Locator re-polls the
	// page's frame set while searching for a match.
	frameLocatePollInterval = 500 * time.Millisecond
	// FrameLocateTimeout bounds the overall frame search.
	FrameLocateTimeout = 30 * time.Second
)

var (
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}$`)
	numericPattern = regexp.MustCompile(`^[0-9]+$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)
)

// Frame locates the top page or a matching iframe for an action.
type Frame struct{}

// NewFrame constructs a Frame Locator. It holds no state; the zero value
// is ready to use.
func NewFrame() *Frame { return &Frame{} }

// Locate returns the top page unless the action explicitly targets a
// named iframe, in which case it polls page.Frames() for the first frame
// whose URL shares origin and normalized path with
// action.IframeIdentifier.Src.
func (f *Frame) Locate(ctx context.Context, action entity.Action, page ports.Page) (ports.Frame, error) {
	if action.TopFrame() || action.IframeIdentifier == nil || action.IframeIdentifier.Src == "" {
		return page.MainFrame(), nil
	}

	want, err := url.Parse(action.IframeIdentifier.Src)
	if err != nil {
		return nil, fmt.Errorf("frame locator: invalid iframe src %q: %w", action.IframeIdentifier.Src, err)
	}
	wantPath := normalizePathSegments(want.Path)

	deadline := time.Now().Add(FrameLocateTimeout)
	for {
		frames, err := page.Frames(ctx)
		if err != nil {
			return nil, fmt.Errorf("frame locator: enumerate frames: %w", err)
		}
		for _, fr := range frames {
			got, err := url.Parse(fr.URL())
			if err != nil {
				continue
			}
			if sameOrigin(want, got) && pathsEqual(wantPath, normalizePathSegments(got.Path)) {
				return fr, nil
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("frame locator: no frame found matching %q within %s", action.IframeIdentifier.Src, FrameLocateTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(frameLocatePollInterval):
		}
	}
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// normalizePathSegments splits a path on "/", drops empty segments, and
// drops any segment matching isIDLikeSegment: a segment is id-like iff it
// is all-digits, a UUID (hyphenated or not), or a 24-character lowercase
// hex string (a Mongo ObjectID, the shape this catalog's URLs actually
// use).
func normalizePathSegments(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			continue
		}
		if isIDLikeSegment(seg) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func isIDLikeSegment(seg string) bool {
	return numericPattern.MatchString(seg) || uuidPattern.MatchString(seg) || objectIDPattern.MatchString(seg)
}

func pathsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NormalizeURL strips a single trailing slash from a non-root path and is
// idempotent. Used by the `navigate` assertive action to compare current
// vs. expected URLs.
func NormalizeURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Path == "" || u.Path == "/" || !strings.HasSuffix(u.Path, "/") {
		return raw
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
