// Package orchestrator implements the Session Orchestrator: decides session isolation vs. sharing, seeds auth state, drives
// the Step Runner over one or many test cases, and hands reports to the
// persistence collaborator.
package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"browser-agent/internal/core/steprunner"
	"browser-agent/internal/domain/apperr"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

// RunResult is the orchestrator's response: exactly one of Single (a
// single test case request) or Batch (a moduleIds request) is set.
type RunResult struct {
	Single *entity.TestReport
	Batch  *entity.OverallReport
}

// Orchestrator owns a browser/context/page trio per request and drives
// test execution over it.
type Orchestrator struct {
	driver  ports.BrowserDriver
	catalog ports.TestCatalog
	store   ports.ResultStore
	runner  *steprunner.Runner
	logger  ports.Logger

	// defaultSessionMode is used for the "no login" case
	// when the request does not override it.
	defaultSessionMode entity.SessionMode
	// defaultHeadless is used when a request does not set its own
	// Headless override.
	defaultHeadless bool
}

// New constructs a Session Orchestrator. defaultSessionMode governs the
// "no login" case and defaults to SessionShared when empty. defaultHeadless
// governs every Launch call whose request does not set its own Headless
// override.
func New(driver ports.BrowserDriver, catalog ports.TestCatalog, store ports.ResultStore, runner *steprunner.Runner, logger ports.Logger, defaultSessionMode entity.SessionMode, defaultHeadless bool) *Orchestrator {
	if defaultSessionMode == "" {
		defaultSessionMode = entity.SessionShared
	}
	return &Orchestrator{
		driver:             driver,
		catalog:            catalog,
		store:              store,
		runner:             runner,
		logger:             logger,
		defaultSessionMode: defaultSessionMode,
		defaultHeadless:    defaultHeadless,
	}
}

// headlessFor returns req.Headless when the request sets it, falling back
// to the orchestrator's configured default otherwise.
func (o *Orchestrator) headlessFor(req entity.RunRequest) bool {
	if req.Headless == nil {
		return o.defaultHeadless
	}
	return *req.Headless
}

// Run validates req, selects a session strategy, and executes one test
// case or a batch of them.
func (o *Orchestrator) Run(ctx context.Context, req entity.RunRequest) (*RunResult, error) {
	req = normalizeRequest(req)
	if err := validate(req); err != nil {
		return nil, apperr.New(apperr.KindValidation, err)
	}

	sessionMode := o.sessionMode(req)
	if !req.LoginRequired && sessionMode == entity.SessionIsolated {
		return o.runIsolated(ctx, req)
	}
	return o.runShared(ctx, req)
}

func normalizeRequest(req entity.RunRequest) entity.RunRequest {
	// A missing otp payload under otp login defaults to an empty
	// localStorage seed rather than failing validation.
	if req.LoginRequired && req.LoginMode == entity.LoginModeOTP && req.OTP == nil {
		req.OTP = &entity.OTPConfig{StorageType: entity.StorageLocal, Object: "{}"}
	}
	return req
}

func validate(req entity.RunRequest) error {
	if req.TestCaseID == "" && !req.IsBatch() {
		return fmt.Errorf("request must set testCaseId or a non-empty moduleIds")
	}
	if req.LoginRequired && req.LoginMode == entity.LoginModeSocial {
		if req.SocialAuth == nil || req.SocialAuth.AuthTestCaseID == "" {
			return fmt.Errorf("loginMode social requires socialAuth.authTestCaseId")
		}
	}
	return nil
}

func (o *Orchestrator) sessionMode(req entity.RunRequest) entity.SessionMode {
	if req.LoginRequired {
		// social/otp logins always share one session for the request's
		// duration; isolation only applies to the no-login
		// case.
		return entity.SessionShared
	}
	if req.SessionMode != "" {
		return req.SessionMode
	}
	return o.defaultSessionMode
}

// runShared launches one browser/context/page for the whole request,
// seeds auth state, and runs every test case against that single page.
func (o *Orchestrator) runShared(ctx context.Context, req entity.RunRequest) (*RunResult, error) {
	session, err := o.driver.Launch(ctx, req.EngineOrDefault(), o.headlessFor(req))
	if err != nil {
		return nil, apperr.New(apperr.KindDriver, err)
	}
	defer session.Close()
	page := session.Page()

	if err := o.seedAuth(ctx, req, page); err != nil {
		return nil, err
	}

	return o.runAgainst(ctx, req, page)
}

// runIsolated creates and destroys a fresh browser per test case: the
// legacy isolation variant for the no-login case.
func (o *Orchestrator) runIsolated(ctx context.Context, req entity.RunRequest) (*RunResult, error) {
	cases, err := o.resolveTestCases(ctx, req)
	if err != nil {
		return nil, err
	}

	var reports []entity.TestReport
	for _, tc := range cases {
		started := time.Now()
		report, err := o.runIsolatedOne(ctx, req, tc)
		if err != nil {
			report = syntheticFailureReport(tc, err)
		}
		report.StartedAt = started
		report.FinishedAt = time.Now()
		o.persist(ctx, req, tc, report)
		reports = append(reports, report)
	}

	if req.IsBatch() {
		overall := entity.SummarizeBatch(reports)
		return &RunResult{Batch: &overall}, nil
	}
	return &RunResult{Single: &reports[0]}, nil
}

func (o *Orchestrator) runIsolatedOne(ctx context.Context, req entity.RunRequest, tc entity.TestCase) (entity.TestReport, error) {
	session, err := o.driver.Launch(ctx, req.EngineOrDefault(), o.headlessFor(req))
	if err != nil {
		return entity.TestReport{}, apperr.New(apperr.KindDriver, err)
	}
	defer session.Close()
	return o.executeTestCaseSafely(ctx, tc, session.Page()), nil
}

// runAgainst executes req's test case(s) against an already-seeded shared
// page, excluding the social auth test case from a batch run.
func (o *Orchestrator) runAgainst(ctx context.Context, req entity.RunRequest, page ports.Page) (*RunResult, error) {
	cases, err := o.resolveTestCases(ctx, req)
	if err != nil {
		return nil, err
	}

	var reports []entity.TestReport
	for _, tc := range cases {
		report := o.runAndPersistOne(ctx, req, tc, page)
		reports = append(reports, report)
	}

	if req.IsBatch() {
		overall := entity.SummarizeBatch(reports)
		return &RunResult{Batch: &overall}, nil
	}
	return &RunResult{Single: &reports[0]}, nil
}

// resolveTestCases fetches either the single named test case or the
// module-filtered batch, excluding the social auth test case from a
// batch.
func (o *Orchestrator) resolveTestCases(ctx context.Context, req entity.RunRequest) ([]entity.TestCase, error) {
	if req.IsBatch() {
		cases, err := o.catalog.FetchTestCasesByModuleIDs(ctx, req.ModuleIDs, req.UserID, req.ProjectID)
		if err != nil {
			return nil, apperr.New(apperr.KindNotFound, fmt.Errorf("fetch test cases by module: %w", err))
		}
		if req.SocialAuth != nil && req.SocialAuth.AuthTestCaseID != "" {
			cases = excludeTestCase(cases, req.SocialAuth.AuthTestCaseID)
		}
		return cases, nil
	}

	tc, err := o.catalog.FetchTestCase(ctx, req.TestCaseID)
	if err != nil {
		return nil, apperr.New(apperr.KindNotFound, fmt.Errorf("fetch test case %q: %w", req.TestCaseID, err))
	}
	if tc == nil {
		return nil, apperr.New(apperr.KindNotFound, fmt.Errorf("test case %q not found", req.TestCaseID))
	}
	return []entity.TestCase{*tc}, nil
}

func excludeTestCase(cases []entity.TestCase, id string) []entity.TestCase {
	out := make([]entity.TestCase, 0, len(cases))
	for _, tc := range cases {
		if tc.ID == id {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// seedAuth runs the social-login pre-test or writes the OTP payload into
// browser storage before any test case runs.
func (o *Orchestrator) seedAuth(ctx context.Context, req entity.RunRequest, page ports.Page) error {
	if !req.LoginRequired {
		return nil
	}
	switch req.LoginMode {
	case entity.LoginModeSocial:
		authTC, err := o.catalog.FetchTestCase(ctx, req.SocialAuth.AuthTestCaseID)
		if err != nil {
			return apperr.New(apperr.KindNotFound, fmt.Errorf("fetch auth test case: %w", err))
		}
		if authTC == nil {
			return apperr.New(apperr.KindNotFound, fmt.Errorf("auth test case %q not found", req.SocialAuth.AuthTestCaseID))
		}
		// The auth run's own report is never persisted.
		o.executeTestCase(ctx, *authTC, page)
		return nil

	case entity.LoginModeOTP:
		return o.seedOTP(ctx, page, req.OTP)

	default:
		return apperr.New(apperr.KindValidation, fmt.Errorf("unsupported loginMode %q", req.LoginMode))
	}
}

func (o *Orchestrator) seedOTP(ctx context.Context, page ports.Page, otp *entity.OTPConfig) error {
	values, err := decodeOTPObject(otp.Object)
	if err != nil {
		return apperr.New(apperr.KindValidation, fmt.Errorf("decode otp.object: %w", err))
	}

	for key, value := range values {
		strValue := stringifyOTPValue(value)
		switch otp.StorageType {
		case entity.StorageLocal:
			if err := page.SetLocalStorageItem(ctx, key, strValue); err != nil {
				return apperr.New(apperr.KindActionRuntime, fmt.Errorf("seed localStorage[%s]: %w", key, err))
			}
		case entity.StorageSession:
			if err := page.SetSessionStorageItem(ctx, key, strValue); err != nil {
				return apperr.New(apperr.KindActionRuntime, fmt.Errorf("seed sessionStorage[%s]: %w", key, err))
			}
		case entity.StorageCookies:
			if err := page.SetCookie(ctx, key, strValue, page.Hostname(), "/"); err != nil {
				return apperr.New(apperr.KindActionRuntime, fmt.Errorf("seed cookie[%s]: %w", key, err))
			}
		default:
			return apperr.New(apperr.KindValidation, fmt.Errorf("unsupported otp.storageType %q", otp.StorageType))
		}
	}
	return nil
}

func decodeOTPObject(object any) (map[string]any, error) {
	switch v := object.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		if v == "" {
			return map[string]any{}, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, err
		}
		return m, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("otp.object must be a JSON object or a JSON-encoded string of one")
	}
}

func stringifyOTPValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

// runAndPersistOne executes tc, persists the result (logging and
// swallowing any persistence error), and returns its report. Exceptions
// during execution yield a synthetic 1-failure report.
func (o *Orchestrator) runAndPersistOne(ctx context.Context, req entity.RunRequest, tc entity.TestCase, page ports.Page) entity.TestReport {
	report := o.executeTestCaseSafely(ctx, tc, page)
	o.persist(ctx, req, tc, report)
	return report
}

func (o *Orchestrator) executeTestCaseSafely(ctx context.Context, tc entity.TestCase, page ports.Page) (report entity.TestReport) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			report = syntheticFailureReport(tc, fmt.Errorf("panic: %v", rec))
		}
		report.StartedAt = started
		report.FinishedAt = time.Now()
	}()
	return o.executeTestCase(ctx, tc, page)
}

// executeTestCase navigates to the test case's URL (if any), runs the
// Step Runner in stop-on-failure mode, summarizes, and captures a failure
// screenshot.
func (o *Orchestrator) executeTestCase(ctx context.Context, tc entity.TestCase, page ports.Page) entity.TestReport {
	if tc.URL != "" {
		if err := page.MainFrame().Navigate(ctx, tc.URL); err != nil {
			return syntheticFailureReport(tc, fmt.Errorf("navigate to %q: %w", tc.URL, err))
		}
	}

	results := o.runner.RunStopOnFailure(ctx, tc.Actions, page)
	report := entity.Summarize(tc.ID, tc.Name, results)

	if report.Status == entity.StatusFail {
		if shot, err := page.Screenshot(ctx); err == nil {
			report.FailScreenshot = "data:image/png;base64," + base64.StdEncoding.EncodeToString(shot)
		} else if o.logger != nil {
			o.logger.Warn("failure screenshot capture failed", "testCaseId", tc.ID, "error", err.Error())
		}
	}
	return report
}

func syntheticFailureReport(tc entity.TestCase, err error) entity.TestReport {
	return entity.Summarize(tc.ID, tc.Name, []entity.StepResult{{
		Sequence:    1,
		Description: "test case execution",
		Status:      entity.StatusFail,
		Message:     err.Error(),
	}})
}

// persist writes report through the ResultStore, logging and swallowing
// any error: persistence failure never aborts a run.
func (o *Orchestrator) persist(ctx context.Context, req entity.RunRequest, tc entity.TestCase, report entity.TestReport) {
	if o.store == nil {
		return
	}
	in := ports.SaveResultInput{
		RunID:          uuid.New().String(),
		UserID:         req.UserID,
		TestCase:       tc.ID,
		Name:           tc.Name,
		ProjectID:      req.ProjectID,
		ModuleID:       tc.ModuleID,
		Status:         report.Status,
		Report:         report,
		FailScreenshot: report.FailScreenshot,
	}
	if err := o.store.SaveTestResult(ctx, in); err != nil && o.logger != nil {
		o.logger.Error("persist test result failed", "testCaseId", tc.ID, "error", err.Error())
	}
}
