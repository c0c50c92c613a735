// Package executor runs one plan at a time: primitive steps are performed in
// order through the input driver, and the first control step met ends the
// run and is handed back to the task cycle. Every run terminates in a
// control step even when the plan contains none.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/JamesCampbellJr/Project-Chimera/internal/input"
	"github.com/JamesCampbellJr/Project-Chimera/internal/metrics"
	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

const defaultStepTimeout = 30 * time.Second

// FinishedReason is the synthesized finish reason for fully-primitive plans.
const FinishedReason = "Plan executed successfully"

// ConfirmFunc decides whether a risky plan may run. Only wired on the
// console-facing agent; delegates run unattended.
type ConfirmFunc func(p *plan.Plan) bool

type Executor struct {
	driver      input.Driver
	log         zerolog.Logger
	stepTimeout time.Duration
	confirm     ConfirmFunc

	mu     sync.Mutex
	target *perception.Element
}

type Option func(*Executor)

func WithStepTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

func WithConfirm(fn ConfirmFunc) Option {
	return func(e *Executor) { e.confirm = fn }
}

func New(driver input.Driver, log zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{
		driver:      driver,
		log:         log.With().Str("component", "executor").Logger(),
		stepTimeout: defaultStepTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetTarget records the element a move_to_element control step resolved, so
// the next click is preceded by a pointer move onto it.
func (e *Executor) SetTarget(el perception.Element) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.target = &el
}

func (e *Executor) takeTarget() *perception.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.target
	e.target = nil
	return t
}

// Run consumes steps strictly in order and always returns a control step.
// Primitive failures, panics and cancellation are normalized into an
// execution_error control step; they never propagate as errors.
func (e *Executor) Run(ctx context.Context, p *plan.Plan, im *metrics.IterationMetrics) plan.Step {
	if e.confirm != nil && plan.IsRisky(p) && !e.confirm(p) {
		e.log.Warn().Msg("risky plan rejected by user")
		return plan.ExecError(firstRisky(p), "risky plan rejected by user")
	}

	for _, step := range p.Steps {
		if step.IsControl() {
			e.log.Debug().Str("control", string(step.Kind)).Msg("control step reached")
			return step
		}
		if err := ctx.Err(); err != nil {
			return plan.ExecError(step, fmt.Sprintf("execution cancelled: %v", err))
		}

		sm := metrics.StepMetrics{Action: string(step.Kind), Start: time.Now()}
		err := e.runStep(ctx, step)
		sm.End = time.Now()
		sm.DurationMs = sm.End.Sub(sm.Start).Milliseconds()
		sm.Success = err == nil
		if err != nil {
			sm.Err = err.Error()
		}
		if im != nil {
			im.Steps = append(im.Steps, sm)
		}

		if err != nil {
			e.log.Error().Err(err).Str("action", string(step.Kind)).Msg("step failed")
			return plan.ExecError(step, fmt.Sprintf("error during execution of action '%s': %v", step.Kind, err))
		}
	}

	return plan.Finish(FinishedReason)
}

func (e *Executor) runStep(ctx context.Context, step plan.Step) (err error) {
	// Panic safety: a faulting driver must not take the agent down.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in step %s: %v", step.Kind, rec)
		}
	}()

	if step.Kind == plan.KindWait {
		return e.wait(ctx, step.Seconds)
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	switch step.Kind {
	case plan.KindTypeText:
		return e.driver.TypeText(stepCtx, step.Text)
	case plan.KindPressKey:
		return e.driver.PressKey(stepCtx, step.Key)
	case plan.KindClick:
		if target := e.takeTarget(); target != nil {
			if err := e.driver.MoveToElement(stepCtx, *target); err != nil {
				return err
			}
		}
		button := step.Button
		if button == "" {
			button = "left"
		}
		return e.driver.Click(stepCtx, button)
	case plan.KindDoubleClick:
		return e.driver.DoubleClick(stepCtx)
	case plan.KindScroll:
		return e.driver.Scroll(stepCtx, step.Direction, step.Amount)
	case plan.KindRunCommand:
		return e.driver.RunCommand(stepCtx, step.Command)
	default:
		return fmt.Errorf("unknown primitive action: %s", step.Kind)
	}
}

func (e *Executor) wait(ctx context.Context, seconds float64) error {
	d := time.Duration(seconds * float64(time.Second))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func firstRisky(p *plan.Plan) plan.Step {
	for _, step := range p.Steps {
		if step.Kind == plan.KindRunCommand {
			return step
		}
	}
	return plan.Step{}
}
