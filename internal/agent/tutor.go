package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
	"github.com/JamesCampbellJr/Project-Chimera/internal/skills"
)

// SkillSynthesizer is the slice of the LLM client the tutor needs.
type SkillSynthesizer interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema any) (string, error)
}

// TopicResearcher gathers source material on a topic.
type TopicResearcher interface {
	Research(ctx context.Context, topic string) (string, error)
}

// TutorDeps wires a tutor agent's collaborators.
type TutorDeps struct {
	Model      SkillSynthesizer
	Researcher TopicResearcher
	Store      *skills.Store
	Reporter   ResultReporter
	Log        zerolog.Logger
}

// NewTutorAgent builds the learning specialist: research the topic online,
// synthesize the findings into a reusable plan, persist it as a skill,
// report it, then stop voluntarily. It runs exactly one task.
func NewTutorAgent(role string, deps TutorDeps, opts ...Option) *Agent {
	t := &tutor{deps: deps}
	a := New(role, t, append([]Option{WithLogger(deps.Log)}, opts...)...)
	t.agentID = a.ID()
	t.stop = a.Stop
	t.log = deps.Log.With().Str("agent", a.ID()).Str("component", "tutor").Logger()
	return a
}

type tutor struct {
	deps    TutorDeps
	agentID string
	stop    func()
	log     zerolog.Logger
}

func (t *tutor) HandleTask(ctx context.Context, req TaskRequest) Outcome {
	// Designed purpose served after one task: stop so the run loop exits.
	defer t.stop()

	topic := strings.TrimSpace(req.Text)
	t.log.Info().Str("topic", topic).Msg("starting to learn")

	notes, err := t.deps.Researcher.Research(ctx, topic)
	if err != nil {
		// Thin research is survivable; the model still knows the domain.
		t.log.Warn().Err(err).Msg("research phase came up empty")
		notes = fmt.Sprintf("No research material could be gathered for %q; rely on prior knowledge.", topic)
	}

	if len(notes) > maxNotesChars {
		if condensed, err := t.deps.Model.Generate(ctx, buildCondensePrompt(topic, notes[:maxNotesChars])); err == nil && strings.TrimSpace(condensed) != "" {
			notes = condensed
		}
	}

	skill, err := t.synthesize(ctx, topic, notes)
	if err != nil {
		return Aborted(fmt.Sprintf("skill synthesis failed: %v", err))
	}

	path, err := t.deps.Store.Save(skill)
	if err != nil {
		return Aborted(fmt.Sprintf("could not persist skill: %v", err))
	}

	t.deps.Reporter.ReportResult("skill_learned", t.agentID, map[string]any{
		"name": skill.Name,
		"path": path,
	})
	t.log.Info().Str("skill", skill.Name).Str("path", path).Msg("finished learning; shutting down")
	return Completed(fmt.Sprintf("learned skill %q, stored at %s", skill.Name, path))
}

func (t *tutor) synthesize(ctx context.Context, topic, notes string) (skills.Skill, error) {
	raw, err := t.deps.Model.GenerateJSON(ctx, buildSynthesisPrompt(topic, notes), nil)
	if err != nil {
		return skills.Skill{}, fmt.Errorf("synthesis generation: %w", err)
	}

	var out struct {
		Description string    `json:"description"`
		Plan        plan.Plan `json:"plan"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return skills.Skill{}, fmt.Errorf("parse synthesized skill: %w", err)
	}
	if err := plan.Validate(&out.Plan); err != nil {
		return skills.Skill{}, fmt.Errorf("synthesized plan invalid: %w", err)
	}
	return skills.Skill{Name: topic, Description: out.Description, Plan: out.Plan}, nil
}

// Notes beyond this are condensed before synthesis to keep the prompt small.
const maxNotesChars = 8000

func buildCondensePrompt(topic, notes string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Condense the following research notes about %q into the essential, actionable steps. ", topic))
	sb.WriteString("Keep concrete commands, key names and orderings; drop navigation chrome and repetition.\n\n")
	sb.WriteString(notes)
	return sb.String()
}

func buildSynthesisPrompt(topic, notes string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following research data, create a generic, reusable JSON action plan ")
	sb.WriteString(fmt.Sprintf("to accomplish the task: %q.\n\n", topic))
	sb.WriteString("The plan should use the desktop automation actions (type_text, press_key, click, double_click, scroll, run_command, wait) ")
	sb.WriteString("and be as general as possible so it can be reused later. Use placeholders like <PARAMETER_1> where the task needs specific input.\n\n")
	sb.WriteString("Research data:\n---\n")
	sb.WriteString(notes)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Your response must be a single JSON object with two keys: \"description\" and \"plan\".\n")
	sb.WriteString("- \"description\": a short explanation of what this skill does.\n")
	sb.WriteString("- \"plan\": the JSON array of action objects.\n")
	return sb.String()
}
