package di

import (
	"context"
	"fmt"

	"browser-agent/internal/core/assertion"
	"browser-agent/internal/core/interpreter"
	"browser-agent/internal/core/orchestrator"
	"browser-agent/internal/core/resolver"
	"browser-agent/internal/core/steprunner"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
	"browser-agent/internal/infrastructure/browser/rod"
	"browser-agent/internal/infrastructure/catalog/httpcatalog"
	"browser-agent/internal/infrastructure/logger"
	"browser-agent/internal/infrastructure/metrics"
	"browser-agent/internal/infrastructure/persistence/httpstore"
	"browser-agent/internal/infrastructure/persistence/noop"
)

// Container wires Logger -> Catalog -> Persistence -> Orchestrator,
// replacing the teacher's Logger -> Browser -> LLM -> ToolRegistry ->
// TaskExecutor chain with the deterministic interpreter/orchestrator
// stack this service runs.
type Container struct {
	Logger       ports.Logger
	Catalog      ports.TestCatalog
	Store        ports.ResultStore
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.Metrics
}

// Config carries the run-time knobs the container needs; values are
// read from the environment by cmd/server/main.go via EnvService.
type Config struct {
	CatalogBaseURL     string
	CatalogToken       string
	PersistenceBaseURL string
	PersistenceToken   string
	BrowserHeadless    bool
	DefaultSessionMode entity.SessionMode
}

// NewContainer constructs every collaborator and wires them into an
// Orchestrator. A PersistenceBaseURL of "" selects the no-op store,
// proving the orchestrator's behavior does not depend on a real one.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLogger("run-automation")
	if err != nil {
		return nil, fmt.Errorf("di: create logger: %w", err)
	}

	driver := rod.New(rod.DefaultLaunchConfig())

	var catalog ports.TestCatalog
	if cfg.CatalogBaseURL != "" {
		catalog = httpcatalog.New(cfg.CatalogBaseURL, cfg.CatalogToken)
	}

	var store ports.ResultStore
	if cfg.PersistenceBaseURL != "" {
		store = httpstore.New(cfg.PersistenceBaseURL, cfg.PersistenceToken)
	} else {
		store = noop.Store{}
	}

	elements := resolver.NewElement()
	frames := resolver.NewFrame()
	variables := resolver.NewVariable()
	assertions := assertion.NewEvaluator()
	ip := interpreter.New(elements, frames, variables, assertions)
	runner := steprunner.New(ip)

	orch := orchestrator.New(driver, catalog, store, runner, log, cfg.DefaultSessionMode, cfg.BrowserHeadless)

	return &Container{
		Logger:       log,
		Catalog:      catalog,
		Store:        store,
		Orchestrator: orch,
		Metrics:      metrics.New(),
	}, nil
}

// Close releases the container's held resources. The browser driver
// itself holds nothing between requests — every Launch call owns its
// own lifecycle — so only the logger needs releasing here.
func (c *Container) Close() {
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
