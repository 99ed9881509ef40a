package entity

import "time"

// Status is the pass/fail outcome recorded for a step or a whole test.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// AssertionResult is the outcome of one evaluated assertion.
type AssertionResult struct {
	Type    AssertionKind `json:"type"`
	Message string        `json:"message"`
	Success bool          `json:"success"`
}

// StepResult is the per-action record combining the action's own outcome
// with every assertion evaluated against it up to and including the first
// failure.
type StepResult struct {
	Sequence    int               `json:"sequence"`
	Description string            `json:"description"`
	Status      Status            `json:"status"`
	Message     string            `json:"message"`
	Assertions  []AssertionResult `json:"assertions,omitempty"`
}

// TestReport summarizes one test case's execution.
type TestReport struct {
	TestCaseID   string       `json:"testCaseId"`
	TestCaseName string       `json:"testCaseName"`
	Status       Status       `json:"status"`
	Passed       int          `json:"passed"`
	Failed       int          `json:"failed"`
	Skipped      int          `json:"skipped"`
	Total        int          `json:"total"`
	Results      []StepResult `json:"results"`

	// FailScreenshot is a "data:image/png;base64,..." URI captured when
	// Status is fail. Empty when the test passed.
	FailScreenshot string `json:"failScreenShot,omitempty"`

	// StartedAt/FinishedAt bound this test case's execution, set by the
	// orchestrator around navigate+run, not by Summarize.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// OverallReport aggregates a batch of TestReports run under one request.
type OverallReport struct {
	Status         Status        `json:"status"`
	TotalTestCases int           `json:"totalTestCases"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	TestCases      []TestReport  `json:"testCases"`
}

// Summarize derives the passed/failed/total counters and overall status
// from results (skipped is always zero: the current policy never skips a
// step).
func Summarize(testCaseID, testCaseName string, results []StepResult) TestReport {
	report := TestReport{
		TestCaseID:   testCaseID,
		TestCaseName: testCaseName,
		Results:      results,
		Total:        len(results),
	}
	for _, r := range results {
		if r.Status == StatusPass {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	if report.Failed > 0 {
		report.Status = StatusFail
	} else {
		report.Status = StatusPass
	}
	return report
}

// SummarizeBatch aggregates per-test reports into an OverallReport.
func SummarizeBatch(reports []TestReport) OverallReport {
	overall := OverallReport{
		TotalTestCases: len(reports),
		TestCases:      reports,
	}
	for _, r := range reports {
		if r.Status == StatusPass {
			overall.Passed++
		} else {
			overall.Failed++
		}
	}
	if overall.Failed > 0 {
		overall.Status = StatusFail
	} else {
		overall.Status = StatusPass
	}
	return overall
}
