// Package steprunner iterates a test case's action list under a policy,
// collecting per-step results. The runner never closes the browser;
// lifecycle belongs to the Session Orchestrator.
package steprunner

import (
	"context"
	"fmt"
	"time"

	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
)

// StepInterpreter is the subset of interpreter.Interpreter the runner
// needs, kept narrow so tests can substitute a fake.
type StepInterpreter interface {
	RunStep(ctx context.Context, action entity.Action, idx int, next *entity.Action, page ports.Page) entity.StepResult
}

// Runner iterates a TestCase's actions against a policy.
type Runner struct {
	interpreter StepInterpreter
}

// New constructs a Step Runner.
func New(interpreter StepInterpreter) *Runner {
	return &Runner{interpreter: interpreter}
}

// RunStopOnFailure executes actions in order; on the first failing step
// it appends that result and stops. Between passing steps it sleeps
// action.Wait seconds (default 1) before continuing. Used for all
// persisted runs.
func (r *Runner) RunStopOnFailure(ctx context.Context, actions []entity.Action, page ports.Page) []entity.StepResult {
	results := make([]entity.StepResult, 0, len(actions))
	for i, action := range actions {
		result, fatal := r.safeRunStep(ctx, action, i, nextAction(actions, i), page)
		results = append(results, result)
		if fatal || result.Status == entity.StatusFail {
			break
		}
		sleepWait(ctx, action.WaitSeconds())
	}
	return results
}

// RunBestEffort executes every action regardless of individual step
// failure, stopping only on a fatal (panic-recovered) error. Kept for
// manual/exploratory test harnesses; new callers should use
// RunStopOnFailure.
func (r *Runner) RunBestEffort(ctx context.Context, actions []entity.Action, page ports.Page) []entity.StepResult {
	results := make([]entity.StepResult, 0, len(actions))
	for i, action := range actions {
		result, fatal := r.safeRunStep(ctx, action, i, nextAction(actions, i), page)
		results = append(results, result)
		if fatal {
			break
		}
		sleepWait(ctx, action.WaitSeconds())
	}
	return results
}

// safeRunStep recovers a panicking interpreter call into a synthetic fail
// result so one bad step never takes down the whole run.
func (r *Runner) safeRunStep(ctx context.Context, action entity.Action, idx int, next *entity.Action, page ports.Page) (result entity.StepResult, fatal bool) {
	defer func() {
		if rec := recover(); rec != nil {
			fatal = true
			result = entity.StepResult{
				Sequence:    action.EffectiveSequence(idx),
				Description: action.EffectiveDescription(),
				Status:      entity.StatusFail,
				Message:     fmt.Sprintf("panic: %v", rec),
			}
		}
	}()
	result = r.interpreter.RunStep(ctx, action, idx, next, page)
	return result, false
}

func nextAction(actions []entity.Action, idx int) *entity.Action {
	if idx+1 < len(actions) {
		return &actions[idx+1]
	}
	return nil
}

func sleepWait(ctx context.Context, seconds float64) {
	if seconds <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	}
}
