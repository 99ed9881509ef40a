package entity

// LoginMode selects how a request seeds authentication before running
// its test cases.
type LoginMode string

const (
	LoginModeSocial LoginMode = "social"
	LoginModeOTP    LoginMode = "otp"
)

// StorageType names the browser storage an OTP payload is written into.
type StorageType string

const (
	StorageLocal   StorageType = "localStorage"
	StorageSession StorageType = "sessionStorage"
	StorageCookies StorageType = "cookies"
)

// SessionMode selects whether test cases within a request share one
// browser/context/page or each gets its own.
type SessionMode string

const (
	SessionShared   SessionMode = "shared"
	SessionIsolated SessionMode = "isolated"
)

// BrowserEngine names the browser family a request asks the driver to
// launch.
type BrowserEngine string

const (
	EngineChromium BrowserEngine = "chromium"
	EngineFirefox  BrowserEngine = "firefox"
	EngineWebkit   BrowserEngine = "webkit"
)

// SocialAuth names the auth test case run once, ahead of the real test(s),
// to seed a logged-in session.
type SocialAuth struct {
	AuthTestCaseID string `json:"authTestCaseId"`
}

// OTPConfig describes how to seed storage with a pre-obtained OTP/session
// payload before any test case runs.
type OTPConfig struct {
	StorageType StorageType `json:"storageType"`
	// Object is either a JSON object already, or a JSON-encoded string of
	// one; the orchestrator decodes it to a map when it seeds storage.
	Object any `json:"object"`
}

// RunRequest is the validated input to the Session Orchestrator.
type RunRequest struct {
	TestCaseID string   `json:"testCaseId,omitempty"`
	ModuleIDs  []string `json:"moduleIds,omitempty"`

	LoginRequired bool       `json:"loginRequired,omitempty"`
	LoginMode     LoginMode  `json:"loginMode,omitempty"`
	SocialAuth    *SocialAuth `json:"socialAuth,omitempty"`
	OTP           *OTPConfig `json:"otp,omitempty"`

	BrowserName BrowserEngine `json:"browserName,omitempty"`
	Headless    *bool         `json:"headless,omitempty"`

	UserID    string `json:"userId,omitempty"`
	ProjectID string `json:"projectId,omitempty"`

	// SessionMode overrides the orchestrator's default session strategy
	// for the "no login" case. Empty means "use the orchestrator's
	// configured default" (shared, unless configured otherwise).
	SessionMode SessionMode `json:"sessionMode,omitempty"`
}

// IsBatch reports whether the request targets a module filter rather than
// a single test case.
func (r RunRequest) IsBatch() bool {
	return len(r.ModuleIDs) > 0
}

// EngineOrDefault returns BrowserName, defaulting to chromium when unset.
func (r RunRequest) EngineOrDefault() BrowserEngine {
	if r.BrowserName == "" {
		return EngineChromium
	}
	return r.BrowserName
}
