// Package httpcatalog implements the read-only test-catalog port over
// plain net/http against a configurable base URL — a thin, swappable
// collaborator, not a database.
package httpcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

var _ ports.TestCatalog = (*Client)(nil)

// Client reads test cases from an HTTP catalog service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a catalog Client. baseURL is trimmed of a trailing
// slash; token, if non-empty, is sent as a bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchTestCase returns the test case by id, or (nil, nil) on a 404.
func (c *Client) FetchTestCase(ctx context.Context, id string) (*entity.TestCase, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/test-cases/%s", url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpcatalog: fetch test case %q: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpcatalog: fetch test case %q: unexpected status %d", id, resp.StatusCode)
	}

	var tc entity.TestCase
	if err := json.NewDecoder(resp.Body).Decode(&tc); err != nil {
		return nil, fmt.Errorf("httpcatalog: decode test case %q: %w", id, err)
	}
	return &tc, nil
}

// FetchTestCasesByModuleIDs returns every test case belonging to
// moduleIDs, scoped to userID/projectID, ordered ascending by creation
// time by the remote catalog.
func (c *Client) FetchTestCasesByModuleIDs(ctx context.Context, moduleIDs []string, userID, projectID string) ([]entity.TestCase, error) {
	q := url.Values{}
	for _, id := range moduleIDs {
		q.Add("moduleId", id)
	}
	if userID != "" {
		q.Set("userId", userID)
	}
	if projectID != "" {
		q.Set("projectId", projectID)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/test-cases?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpcatalog: fetch test cases by module: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpcatalog: fetch test cases by module: unexpected status %d", resp.StatusCode)
	}

	var cases []entity.TestCase
	if err := json.NewDecoder(resp.Body).Decode(&cases); err != nil {
		return nil, fmt.Errorf("httpcatalog: decode test cases: %w", err)
	}
	return cases, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpcatalog: build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
