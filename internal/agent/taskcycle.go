package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/JamesCampbellJr/Project-Chimera/internal/executor"
	"github.com/JamesCampbellJr/Project-Chimera/internal/metrics"
	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

// DefaultMaxIterations is the safety cap on planning rounds per task.
const DefaultMaxIterations = 10

const (
	reasonPlanningFailed = "planning failed"
	reasonIterationLimit = "iteration limit reached"
)

// TaskCycle drives one task from receipt to a terminal outcome:
// refresh screen state, request a plan, execute it, interpret the returned
// control step, and decide continue/stop/delegate.
type TaskCycle struct {
	role          string
	perc          perception.Perception
	planner       PlanSource
	exec          *executor.Executor
	spawner       Spawner
	log           zerolog.Logger
	maxIterations int

	// Last known analysis; refreshed on start and on every
	// reevaluate_environment control step.
	analysis *perception.Analysis
}

// PlanSource mirrors planner.Planner without importing it, so tests fake it
// locally.
type PlanSource interface {
	GeneratePlan(ctx context.Context, taskText string, analysis *perception.Analysis, role string) (*plan.Plan, error)
}

type CycleOption func(*TaskCycle)

func WithMaxIterations(n int) CycleOption {
	return func(c *TaskCycle) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

func NewTaskCycle(role string, perc perception.Perception, planner PlanSource, exec *executor.Executor, spawner Spawner, log zerolog.Logger, opts ...CycleOption) *TaskCycle {
	c := &TaskCycle{
		role:          role,
		perc:          perc,
		planner:       planner,
		exec:          exec,
		spawner:       spawner,
		log:           log.With().Str("component", "taskcycle").Logger(),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TaskCycle) HandleTask(ctx context.Context, req TaskRequest) Outcome {
	tm := &metrics.TaskMetrics{TaskID: req.ID, Start: time.Now()}
	outcome := c.runTask(ctx, req.Text, tm)
	tm.Outcome = string(outcome.Kind)
	tm.Finalize()
	outcome.Metrics = tm
	return outcome
}

func (c *TaskCycle) runTask(ctx context.Context, taskText string, tm *metrics.TaskMetrics) Outcome {
	c.refreshAnalysis(ctx, taskText)

	for i := 1; i <= c.maxIterations; i++ {
		im := metrics.IterationMetrics{Iteration: i, Start: time.Now()}

		p, err := c.planner.GeneratePlan(ctx, taskText, c.analysis, c.role)
		if err != nil || p.Empty() {
			c.log.Warn().Err(err).Int("iteration", i).Msg("planner produced no usable plan")
			c.closeIteration(tm, &im, "")
			return Aborted(reasonPlanningFailed)
		}

		control := c.exec.Run(ctx, p, &im)
		c.closeIteration(tm, &im, string(control.Kind))

		switch control.Kind {
		case plan.KindFinishTask:
			reason := control.Reason
			if reason == "" {
				reason = "Task completed."
			}
			return Completed(reason)

		case plan.KindExecutionError:
			return Aborted(control.Reason)

		case plan.KindReevaluate:
			c.log.Debug().Int("iteration", i).Msg("re-evaluating environment")
			c.refreshAnalysis(ctx, taskText)

		case plan.KindDelegateTask:
			if _, err := c.spawner.SpawnAgent(ctx, control.Role, control.Task); err != nil {
				// Delegation failure must not be swallowed silently.
				c.log.Error().Err(err).Str("role", control.Role).Msg("delegation failed")
				return Aborted(fmt.Sprintf("delegation failed: %v", err))
			}
			// Fire and forget: the delegating task ends here without waiting
			// for the delegate's result.
			return Delegated(control.Role, control.Task)

		case plan.KindMoveToElement:
			el, ok := c.analysis.FindElement(control.ElementID)
			if !ok {
				// Soft failure: warn and replan against unchanged state.
				c.log.Warn().Int("element_id", control.ElementID).Msg("element not found in current analysis")
				continue
			}
			c.exec.SetTarget(el)

		default:
			return Aborted(fmt.Sprintf("unexpected control step %q", control.Kind))
		}
	}

	c.log.Warn().Str("task", taskText).Msg("task hit the iteration cap")
	return Aborted(reasonIterationLimit)
}

// refreshAnalysis always produces an analysis: a failed capture is analyzed
// as an empty snapshot, which degrades to a description-only result.
func (c *TaskCycle) refreshAnalysis(ctx context.Context, taskText string) {
	snapshot, err := c.perc.Capture(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("screen capture failed")
		snapshot = nil
	}
	c.analysis = c.perc.Analyze(ctx, snapshot, taskText)
	c.log.Debug().Str("description", c.analysis.Description).Int("elements", len(c.analysis.Elements)).Msg("environment analyzed")
}

func (c *TaskCycle) closeIteration(tm *metrics.TaskMetrics, im *metrics.IterationMetrics, control string) {
	im.Control = control
	im.End = time.Now()
	im.Finalize()
	tm.Iterations = append(tm.Iterations, *im)
}
