package assertion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

type fakeFrame struct {
	title string
	text  string
	err   error
}

func (f *fakeFrame) URL() string { return "" }
func (f *fakeFrame) Title(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.title, nil
}
func (f *fakeFrame) Navigate(ctx context.Context, url string) error { panic("unused") }
func (f *fakeFrame) Evaluate(ctx context.Context, expr string) (any, error) {
	return f.text, nil
}
func (f *fakeFrame) WaitSelector(ctx context.Context, s string, t time.Duration) (ports.Element, error) {
	panic("unused")
}
func (f *fakeFrame) WaitXPath(ctx context.Context, xp string, t time.Duration) (ports.Element, error) {
	return nil, assertErrNotFound
}
func (f *fakeFrame) ScrollWindow(ctx context.Context, x, y int) error          { panic("unused") }
func (f *fakeFrame) InjectNoScrollStyle(ctx context.Context) error             { panic("unused") }
func (f *fakeFrame) RemoveNoScrollStyle(ctx context.Context) error             { panic("unused") }
func (f *fakeFrame) ViewportSize(ctx context.Context) (float64, float64, error) {
	panic("unused")
}

var assertErrNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

type fakePage struct{ downloadErr error }

func (p *fakePage) MainFrame() ports.Frame                            { panic("unused") }
func (p *fakePage) Frames(ctx context.Context) ([]ports.Frame, error) { panic("unused") }
func (p *fakePage) PressKey(ctx context.Context, key string) error    { panic("unused") }
func (p *fakePage) SetCookie(ctx context.Context, name, value, domain, path string) error {
	panic("unused")
}
func (p *fakePage) SetLocalStorageItem(ctx context.Context, key, value string) error {
	panic("unused")
}
func (p *fakePage) SetSessionStorageItem(ctx context.Context, key, value string) error {
	panic("unused")
}
func (p *fakePage) Hostname() string                               { panic("unused") }
func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) { panic("unused") }
func (p *fakePage) WaitDownload(ctx context.Context, timeout time.Duration) error {
	return p.downloadErr
}
func (p *fakePage) RawInput() (ports.RawInput, bool) { return nil, false }

func assertions(kind entity.AssertionKind, value string) entity.AssertionSet {
	return entity.AssertionSet{{Kind: kind, Spec: entity.AssertionSpec{Value: value}}}
}

func TestEvaluator_ValidEmail(t *testing.T) {
	e := NewEvaluator()
	descriptor := &entity.ElementDescriptor{Value: "a@b.com"}
	results := e.Run(context.Background(), assertions(entity.AssertionValidEmail, ""), &fakeFrame{}, &fakePage{}, descriptor)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestEvaluator_ValidEmail_Fails(t *testing.T) {
	e := NewEvaluator()
	descriptor := &entity.ElementDescriptor{Value: "not-an-email"}
	results := e.Run(context.Background(), assertions(entity.AssertionValidEmail, ""), &fakeFrame{}, &fakePage{}, descriptor)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Message, "Assertion failed:")
}

func TestEvaluator_FormHasValue(t *testing.T) {
	e := NewEvaluator()
	descriptor := &entity.ElementDescriptor{Value: "hello"}
	results := e.Run(context.Background(), assertions(entity.AssertionFormHasValue, "hello"), &fakeFrame{}, &fakePage{}, descriptor)
	assert.True(t, results[0].Success)

	results = e.Run(context.Background(), assertions(entity.AssertionFormHasValue, "other"), &fakeFrame{}, &fakePage{}, descriptor)
	assert.False(t, results[0].Success)
}

func TestEvaluator_PageHasTitle_CaseInsensitive(t *testing.T) {
	e := NewEvaluator()
	frame := &fakeFrame{title: "Welcome to Example"}
	results := e.Run(context.Background(), assertions(entity.AssertionPageHasTitle, "EXAMPLE"), frame, &fakePage{}, nil)
	assert.True(t, results[0].Success)
}

func TestEvaluator_PageHasText(t *testing.T) {
	e := NewEvaluator()
	frame := &fakeFrame{text: "Thanks for signing up"}
	results := e.Run(context.Background(), assertions(entity.AssertionPageHasText, "signing up"), frame, &fakePage{}, nil)
	assert.True(t, results[0].Success)
}

func TestEvaluator_ElementHasText_Trimmed(t *testing.T) {
	e := NewEvaluator()
	descriptor := &entity.ElementDescriptor{TextContent: "  Hello World  "}
	results := e.Run(context.Background(), assertions(entity.AssertionElementHasText, "hello"), &fakeFrame{}, &fakePage{}, descriptor)
	assert.True(t, results[0].Success)
}

func TestEvaluator_DownloadStarted(t *testing.T) {
	e := NewEvaluator()
	results := e.Run(context.Background(), assertions(entity.AssertionDownloadStarted, ""), &fakeFrame{}, &fakePage{}, nil)
	assert.True(t, results[0].Success)
}

func TestEvaluator_UnknownKindFails(t *testing.T) {
	e := NewEvaluator()
	results := e.Run(context.Background(), assertions("bogus", ""), &fakeFrame{}, &fakePage{}, nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Message, "Unsupported assertion")
}

func TestEvaluator_StopsAtFirstFailure(t *testing.T) {
	e := NewEvaluator()
	descriptor := &entity.ElementDescriptor{Value: "not-an-email"}
	set := entity.AssertionSet{
		{Kind: entity.AssertionValidEmail, Spec: entity.AssertionSpec{}},
		{Kind: entity.AssertionFormHasValue, Spec: entity.AssertionSpec{Value: "not-an-email"}},
	}
	results := e.Run(context.Background(), set, &fakeFrame{}, &fakePage{}, descriptor)
	require.Len(t, results, 1, "evaluation stops at the first failure")
	assert.False(t, results[0].Success)
}
