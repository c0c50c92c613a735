package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

// Planner maps (task, current screen analysis, agent role) to a fresh plan.
type Planner interface {
	GeneratePlan(ctx context.Context, taskText string, analysis *perception.Analysis, role string) (*plan.Plan, error)
}

// TextModel is the slice of the LLM client the planner needs.
type TextModel interface {
	GenerateJSON(ctx context.Context, prompt string, schema any) (string, error)
}

type LLMPlanner struct {
	model TextModel
	log   zerolog.Logger
}

func NewLLMPlanner(model TextModel, log zerolog.Logger) *LLMPlanner {
	return &LLMPlanner{model: model, log: log.With().Str("component", "planner").Logger()}
}

func (p *LLMPlanner) GeneratePlan(ctx context.Context, taskText string, analysis *perception.Analysis, role string) (*plan.Plan, error) {
	prompt := buildPlanPrompt(taskText, analysis, role)

	raw, err := p.model.GenerateJSON(ctx, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan from LLM: %w", err)
	}

	generated, err := ParsePlan(raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing generated plan: %w\nRaw Response: %s", err, raw)
	}
	if err := plan.Validate(generated); err != nil {
		return nil, fmt.Errorf("generated plan invalid: %w", err)
	}
	p.log.Debug().Int("steps", len(generated.Steps)).Msg("plan generated")
	return generated, nil
}

// ParsePlan accepts either a bare JSON step array or an object wrapping one
// under "plan"; models alternate between the two shapes.
func ParsePlan(raw string) (*plan.Plan, error) {
	raw = strings.TrimSpace(raw)
	var generated plan.Plan
	if err := json.Unmarshal([]byte(raw), &generated); err == nil {
		return &generated, nil
	}
	var wrapped struct {
		Plan plan.Plan `json:"plan"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, fmt.Errorf("response is neither a step array nor a plan object: %w", err)
	}
	return &wrapped.Plan, nil
}

func buildPlanPrompt(taskText string, analysis *perception.Analysis, role string) string {
	var sb strings.Builder

	sb.WriteString("You are an autonomous AI agent controlling a desktop computer to assist a user.\n")
	sb.WriteString(fmt.Sprintf("Your current role is: %q\n\n", role))
	sb.WriteString(fmt.Sprintf("The user's command is: %q\n\n", taskText))

	sb.WriteString("Here is an analysis of the current screen content:\n")
	if b, err := json.Marshal(analysis); err == nil {
		sb.Write(b)
	} else {
		sb.WriteString("{}")
	}
	sb.WriteString("\n\n")

	sb.WriteString("Create a step-by-step plan to fulfill the user's request.\n")
	sb.WriteString("Your response MUST be a JSON array of action objects. Do not add any explanation or other text.\n\n")

	sb.WriteString("AVAILABLE ACTIONS:\n")
	sb.WriteString("- { \"action\": \"type_text\", \"text\": \"text to type\" }\n")
	sb.WriteString("- { \"action\": \"press_key\", \"key\": \"key name (e.g. 'Return', 'ctrl+t', 'F5')\" }\n")
	sb.WriteString("- { \"action\": \"move_to_element\", \"element_id\": <id from the screen analysis> } (PREFERRED before clicking)\n")
	sb.WriteString("- { \"action\": \"click\", \"button\": \"left/right\" } (use after moving to an element)\n")
	sb.WriteString("- { \"action\": \"double_click\" }\n")
	sb.WriteString("- { \"action\": \"scroll\", \"direction\": \"up/down\", \"amount\": <pixels> }\n")
	sb.WriteString("- { \"action\": \"run_command\", \"command\": \"shell command to execute\" } (e.g. \"firefox https://example.com\")\n")
	sb.WriteString("- { \"action\": \"wait\", \"seconds\": <number> }\n")
	sb.WriteString("- { \"action\": \"reevaluate_environment\" } (to re-analyze the screen after an action)\n")
	sb.WriteString("- { \"action\": \"delegate_task\", \"role\": \"<role name>\", \"task\": \"<description>\" } (to hand a complex sub-task to a specialist, e.g. 'Tutor')\n")
	sb.WriteString("- { \"action\": \"finish_task\", \"reason\": \"summary of why the task is complete\" }\n\n")

	sb.WriteString("HARD RULES:\n")
	sb.WriteString("- If the screen analysis provides an element id, use move_to_element before click.\n")
	sb.WriteString("- If the screen state after an action is unknown, use reevaluate_environment to get fresh context.\n")
	sb.WriteString("- If the task requires learning something new first, use delegate_task with the 'Tutor' role.\n")
	sb.WriteString("- Use at most ONE of reevaluate_environment/delegate_task/move_to_element/finish_task per plan; execution stops there, so place it last.\n\n")

	sb.WriteString("Now generate the plan for the user's request.\n")
	return sb.String()
}
