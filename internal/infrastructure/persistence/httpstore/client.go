// Package httpstore implements the write-only persistence port over
// plain net/http: an upsert-latest-result call carrying a run-history
// linkage id, per spec.md §6.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

var _ ports.ResultStore = (*Client)(nil)

// Client persists test results against an HTTP result store.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a persistence Client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// resultPayload mirrors spec.md §6's saveTestResults body.
type resultPayload struct {
	RunID          string           `json:"runId"`
	UserID         string           `json:"user_id"`
	TestCase       string           `json:"test_case"`
	Name           string           `json:"name"`
	ProjectID      string           `json:"project_id"`
	ModuleID       string           `json:"module_id"`
	Status         entity.Status    `json:"status"`
	Result         resultDetail     `json:"result"`
	FailScreenshot string           `json:"fail_screenShot,omitempty"`
}

type resultDetail struct {
	Passed  int                `json:"passed"`
	Failed  int                `json:"failed"`
	Skipped int                `json:"skipped"`
	Total   int                `json:"total"`
	Results []entity.StepResult `json:"results"`
	Status  string             `json:"status"`
	RunBy   string             `json:"run_by"`
}

// SaveTestResult upserts the latest-result row and appends a run-history
// entry linked by in.RunID.
func (c *Client) SaveTestResult(ctx context.Context, in ports.SaveResultInput) error {
	payload := resultPayload{
		RunID:          in.RunID,
		UserID:         in.UserID,
		TestCase:       in.TestCase,
		Name:           in.Name,
		ProjectID:      in.ProjectID,
		ModuleID:       in.ModuleID,
		Status:         in.Status,
		FailScreenshot: in.FailScreenshot,
		Result: resultDetail{
			Passed:  in.Report.Passed,
			Failed:  in.Report.Failed,
			Skipped: in.Report.Skipped,
			Total:   in.Report.Total,
			Results: in.Report.Results,
			Status:  humanStatus(in.Status),
			RunBy:   "cloud",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("httpstore: marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/results", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("httpstore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("httpstore: save test result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("httpstore: save test result: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func humanStatus(s entity.Status) string {
	if s == entity.StatusPass {
		return "Passed"
	}
	return "Failed"
}
