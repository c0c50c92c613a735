package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesCampbellJr/Project-Chimera/internal/skills"
)

type fakeResearcher struct {
	notes string
	err   error
}

func (f *fakeResearcher) Research(ctx context.Context, topic string) (string, error) {
	return f.notes, f.err
}

type fakeSynthesizer struct {
	jsonResponse string
	jsonErr      error
	condensed    string
	prompts      []string
}

func (f *fakeSynthesizer) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.condensed, nil
}

func (f *fakeSynthesizer) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.jsonResponse, f.jsonErr
}

type fakeReporter struct {
	kinds    []string
	agentIDs []string
	payloads []map[string]any
}

func (f *fakeReporter) ReportResult(kind, agentID string, payload map[string]any) {
	f.kinds = append(f.kinds, kind)
	f.agentIDs = append(f.agentIDs, agentID)
	f.payloads = append(f.payloads, payload)
}

const validSkillResponse = `{
	"description": "Transcode a video file with ffmpeg.",
	"plan": [{"action": "run_command", "command": "ffmpeg -i <PARAMETER_1> <PARAMETER_2>"}]
}`

// runTutorTask feeds one topic to a fresh tutor agent and returns the agent
// and the task's outcome once the agent has stopped itself.
func runTutorTask(t *testing.T, deps TutorDeps, topic string) (*Agent, Outcome) {
	t.Helper()

	results := make(chan TaskResult, 1)
	a := NewTutorAgent("Tutor", deps, WithResultFunc(func(res TaskResult) {
		results <- res
	}))

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	require.NoError(t, a.Enqueue(TaskRequest{ID: "t1", Text: topic}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tutor did not stop after its task")
	}

	select {
	case res := <-results:
		return a, res.Outcome
	case <-time.After(time.Second):
		t.Fatal("no task result reported")
		return a, Outcome{}
	}
}

func TestTutorLearnsAndStops(t *testing.T) {
	reporter := &fakeReporter{}
	store := skills.NewStore(t.TempDir())
	deps := TutorDeps{
		Model:      &fakeSynthesizer{jsonResponse: validSkillResponse},
		Researcher: &fakeResearcher{notes: "Source: https://example.com\nInstall ffmpeg."},
		Store:      store,
		Reporter:   reporter,
		Log:        zerolog.Nop(),
	}

	a, outcome := runTutorTask(t, deps, "convert videos with ffmpeg")

	// One task, then a voluntary stop.
	assert.Equal(t, StateTerminated, a.State())
	assert.Equal(t, OutcomeCompleted, outcome.Kind)

	require.Len(t, reporter.kinds, 1)
	assert.Equal(t, "skill_learned", reporter.kinds[0])
	assert.Equal(t, a.ID(), reporter.agentIDs[0])
	assert.Equal(t, "convert videos with ffmpeg", reporter.payloads[0]["name"])

	saved, err := store.Load("convert videos with ffmpeg")
	require.NoError(t, err)
	assert.Equal(t, "Transcode a video file with ffmpeg.", saved.Description)
	require.Len(t, saved.Plan.Steps, 1)
}

func TestTutorSurvivesResearchFailure(t *testing.T) {
	reporter := &fakeReporter{}
	model := &fakeSynthesizer{jsonResponse: validSkillResponse}
	deps := TutorDeps{
		Model:      model,
		Researcher: &fakeResearcher{err: errors.New("network down")},
		Store:      skills.NewStore(t.TempDir()),
		Reporter:   reporter,
		Log:        zerolog.Nop(),
	}

	_, outcome := runTutorTask(t, deps, "some topic")

	// The skill is still synthesized from prior knowledge.
	assert.Equal(t, OutcomeCompleted, outcome.Kind)
	require.Len(t, reporter.kinds, 1)
	require.NotEmpty(t, model.prompts)
	assert.Contains(t, model.prompts[len(model.prompts)-1], "rely on prior knowledge")
}

func TestTutorCondensesLongNotes(t *testing.T) {
	longNotes := strings.Repeat("ffmpeg flag reference line\n", 1000)
	model := &fakeSynthesizer{jsonResponse: validSkillResponse, condensed: "the short version"}
	deps := TutorDeps{
		Model:      model,
		Researcher: &fakeResearcher{notes: longNotes},
		Store:      skills.NewStore(t.TempDir()),
		Reporter:   &fakeReporter{},
		Log:        zerolog.Nop(),
	}

	_, outcome := runTutorTask(t, deps, "convert videos")
	assert.Equal(t, OutcomeCompleted, outcome.Kind)

	// First a condense round, then synthesis over the condensed notes.
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[0], "Condense")
	assert.Contains(t, model.prompts[1], "the short version")
}

func TestTutorRejectsBrokenSynthesis(t *testing.T) {
	reporter := &fakeReporter{}
	deps := TutorDeps{
		Model:      &fakeSynthesizer{jsonResponse: `{"description": "x", "plan": []}`},
		Researcher: &fakeResearcher{notes: "notes"},
		Store:      skills.NewStore(t.TempDir()),
		Reporter:   reporter,
		Log:        zerolog.Nop(),
	}

	_, outcome := runTutorTask(t, deps, "topic")

	// An empty plan never becomes a stored skill or a report.
	assert.Equal(t, OutcomeAborted, outcome.Kind)
	assert.Contains(t, outcome.Reason, "synthesis")
	assert.Empty(t, reporter.kinds)
}
