package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

type fakeTextModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeTextModel) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestParsePlan(t *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		wantSteps   int
		expectError bool
	}{
		{
			name:      "bare step array",
			raw:       `[{"action": "type_text", "text": "hi"}, {"action": "finish_task", "reason": "done"}]`,
			wantSteps: 2,
		},
		{
			name:      "object wrapping a plan key",
			raw:       `{"plan": [{"action": "press_key", "key": "Return"}]}`,
			wantSteps: 1,
		},
		{
			name:      "surrounding whitespace",
			raw:       "\n  [{\"action\": \"wait\", \"seconds\": 1}]  \n",
			wantSteps: 1,
		},
		{
			name:        "not json",
			raw:         "I will click the button for you.",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParsePlan(tc.raw)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, p.Steps, tc.wantSteps)
		})
	}
}

func TestGeneratePlan(t *testing.T) {
	model := &fakeTextModel{response: `[
		{"action": "move_to_element", "element_id": 2}
	]`}
	p := NewLLMPlanner(model, zerolog.Nop())

	analysis := &perception.Analysis{
		Description: "a browser window",
		Elements:    []perception.Element{{ID: 2, Kind: "link", Label: "Downloads"}},
	}
	generated, err := p.GeneratePlan(context.Background(), "open downloads", analysis, "assistant")
	require.NoError(t, err)
	require.Len(t, generated.Steps, 1)
	assert.Equal(t, plan.KindMoveToElement, generated.Steps[0].Kind)

	// Task, role and screen analysis all reach the prompt.
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "open downloads")
	assert.Contains(t, model.prompts[0], "assistant")
	assert.Contains(t, model.prompts[0], "Downloads")
}

func TestGeneratePlanModelError(t *testing.T) {
	model := &fakeTextModel{err: errors.New("model offline")}
	p := NewLLMPlanner(model, zerolog.Nop())

	_, err := p.GeneratePlan(context.Background(), "task", nil, "assistant")
	assert.Error(t, err)
}

func TestGeneratePlanRejectsInvalidPlans(t *testing.T) {
	testCases := []struct {
		name     string
		response string
	}{
		{
			name:     "two control steps",
			response: `[{"action": "reevaluate_environment"}, {"action": "finish_task", "reason": "x"}]`,
		},
		{
			name:     "unknown action",
			response: `[{"action": "levitate"}]`,
		},
		{
			name:     "empty array",
			response: `[]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeTextModel{response: tc.response}
			p := NewLLMPlanner(model, zerolog.Nop())
			_, err := p.GeneratePlan(context.Background(), "task", nil, "assistant")
			assert.Error(t, err)
		})
	}
}
