package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL_StripsTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://example.org/path", NormalizeURL("https://example.org/path/"))
}

func TestNormalizeURL_RootUntouched(t *testing.T) {
	assert.Equal(t, "https://example.org/", NormalizeURL("https://example.org/"))
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	once := NormalizeURL("https://example.org/path/")
	twice := NormalizeURL(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeURL_NoTrailingSlashUntouched(t *testing.T) {
	assert.Equal(t, "https://example.org/path", NormalizeURL("https://example.org/path"))
}

func TestIsIDLikeSegment(t *testing.T) {
	cases := map[string]bool{
		"123":                              true,
		"0":                                true,
		"550e8400-e29b-41d4-a716-446655440000": true,
		"550e8400e29b41d4a716446655440000":     true,
		"5f8d0d55b54764421b7156c3":         true, // 24-char hex ObjectID
		"modules":                          false,
		"test-cases":                      false,
		"abc":                              false,
	}
	for seg, want := range cases {
		assert.Equal(t, want, isIDLikeSegment(seg), "segment %q", seg)
	}
}

func TestNormalizePathSegments_DropsIDs(t *testing.T) {
	got := normalizePathSegments("/modules/123/test-cases/550e8400-e29b-41d4-a716-446655440000")
	assert.Equal(t, []string{"modules", "test-cases"}, got)
}
