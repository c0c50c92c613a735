package display

import (
	"fmt"
	"strings"

	"github.com/JamesCampbellJr/Project-Chimera/internal/agent"
	"github.com/JamesCampbellJr/Project-Chimera/internal/metrics"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

const maxFieldLength = 100

func FormatPlan(p *plan.Plan) string {
	var sb strings.Builder
	sb.WriteString("Proposed plan:\n")
	sb.WriteString("--------------------------------------------------\n")
	for i, step := range p.Steps {
		sb.WriteString(fmt.Sprintf("%2d. %s%s\n", i+1, step.Kind, formatStepDetail(step)))
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

func formatStepDetail(s plan.Step) string {
	switch s.Kind {
	case plan.KindTypeText:
		return fmt.Sprintf(" %q", clip(s.Text))
	case plan.KindPressKey:
		return " " + s.Key
	case plan.KindClick:
		if s.Button != "" {
			return " " + s.Button
		}
	case plan.KindScroll:
		return fmt.Sprintf(" %s %d", s.Direction, s.Amount)
	case plan.KindRunCommand:
		return fmt.Sprintf(" %q", clip(s.Command))
	case plan.KindWait:
		return fmt.Sprintf(" %.1fs", s.Seconds)
	case plan.KindDelegateTask:
		return fmt.Sprintf(" role=%s task=%q", s.Role, clip(s.Task))
	case plan.KindMoveToElement:
		return fmt.Sprintf(" element %d", s.ElementID)
	case plan.KindFinishTask, plan.KindExecutionError:
		return fmt.Sprintf(" (%s)", clip(s.Reason))
	}
	return ""
}

// FormatResult renders one finished task for the console.
func FormatResult(res agent.TaskResult) string {
	var status string
	switch res.Outcome.Kind {
	case agent.OutcomeCompleted:
		status = "DONE"
	case agent.OutcomeDelegated:
		status = fmt.Sprintf("DELEGATED to %s", res.Outcome.Role)
	default:
		status = "FAILED"
	}

	line := fmt.Sprintf("[Task %s %s]", res.Request.ID, status)
	if res.Outcome.Reason != "" {
		line += " " + clip(res.Outcome.Reason)
	}
	if res.Outcome.Metrics != nil {
		line += "\n" + FormatTaskMetrics(res.Outcome.Metrics)
	}
	return line
}

func FormatTaskMetrics(tm *metrics.TaskMetrics) string {
	steps := 0
	for _, it := range tm.Iterations {
		steps += len(it.Steps)
	}
	return fmt.Sprintf("  %d iteration(s), %d step(s), %dms", len(tm.Iterations), steps, tm.DurationMs)
}

func clip(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > maxFieldLength {
		return s[:maxFieldLength] + "..."
	}
	return s
}
