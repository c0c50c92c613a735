package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesCampbellJr/Project-Chimera/internal/agent"
)

func idleAgent(role string) *agent.Agent {
	return agent.New(role, agent.HandlerFunc(func(ctx context.Context, req agent.TaskRequest) agent.Outcome {
		return agent.Completed("ok")
	}))
}

// startOrchestrator runs Start in the background and returns a wait func.
func startOrchestrator(t *testing.T, o *Orchestrator, primary *agent.Agent) func() error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- o.Start(context.Background(), primary) }()

	// Give the primary a moment to reach its mailbox wait.
	time.Sleep(50 * time.Millisecond)
	return func() error {
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("orchestrator did not shut down")
			return nil
		}
	}
}

func TestStartAndStopAll(t *testing.T) {
	o := New(zerolog.Nop())
	primary := idleAgent("primary")
	wait := startOrchestrator(t, o, primary)

	o.StopAll()
	require.NoError(t, wait())
	assert.Equal(t, agent.StateTerminated, primary.State())
}

func TestStartTwice(t *testing.T) {
	o := New(zerolog.Nop())
	wait := startOrchestrator(t, o, idleAgent("primary"))

	assert.ErrorIs(t, o.Start(context.Background(), idleAgent("second")), ErrAlreadyStarted)

	o.StopAll()
	require.NoError(t, wait())
}

func TestSpawnBeforeStart(t *testing.T) {
	o := New(zerolog.Nop())
	_, err := o.SpawnAgent(context.Background(), "tutor", "learn")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSpawnAgentDeliversTaskFirst(t *testing.T) {
	o := New(zerolog.Nop())

	received := make(chan string, 4)
	o.RegisterRole("tutor", func(role, task string) *agent.Agent {
		return agent.New(role, agent.HandlerFunc(func(ctx context.Context, req agent.TaskRequest) agent.Outcome {
			received <- req.Text
			return agent.Completed("done")
		}))
	})

	primary := idleAgent("primary")
	wait := startOrchestrator(t, o, primary)

	id, err := o.SpawnAgent(context.Background(), "Tutor", "learn ffmpeg")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, primary.ID(), id)

	select {
	case task := <-received:
		assert.Equal(t, "learn ffmpeg", task)
	case <-time.After(2 * time.Second):
		t.Fatal("spawned agent never received its task")
	}

	assert.Len(t, o.AgentIDs(), 2)
	_, ok := o.Agent(id)
	assert.True(t, ok)

	o.StopAll()
	require.NoError(t, wait())
}

func TestSpawnUnknownRoleUsesFallback(t *testing.T) {
	o := New(zerolog.Nop())

	fallbackRoles := make(chan string, 1)
	o.SetFallback(func(role, task string) *agent.Agent {
		fallbackRoles <- role
		return idleAgent(role)
	})

	wait := startOrchestrator(t, o, idleAgent("primary"))

	_, err := o.SpawnAgent(context.Background(), "astrologer", "read the stars")
	require.NoError(t, err)

	select {
	case role := <-fallbackRoles:
		assert.Equal(t, "astrologer", role)
	case <-time.After(time.Second):
		t.Fatal("fallback factory never invoked")
	}

	o.StopAll()
	require.NoError(t, wait())
}

func TestReportResultResolvesWaiters(t *testing.T) {
	o := New(zerolog.Nop())

	ch := o.AwaitResult("agent-1")
	o.ReportResult("skill_learned", "agent-1", map[string]any{
		"name": "convert videos",
		"path": "skills/convert_videos.json",
	})

	select {
	case res := <-ch:
		assert.Equal(t, "skill_learned", res.Kind)
		assert.Equal(t, "agent-1", res.AgentID)
	case <-time.After(time.Second):
		t.Fatal("waiter never resolved")
	}

	skills := o.Skills()
	assert.Equal(t, "skills/convert_videos.json", skills["convert videos"])

	results := o.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "skill_learned", results[0].Kind)
}

func TestReportResultConcurrent(t *testing.T) {
	o := New(zerolog.Nop())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o.ReportResult("progress", fmt.Sprintf("agent-%d", i), nil)
		}(i)
	}
	wg.Wait()

	assert.Len(t, o.Results(), n)
}

func TestBusDelivery(t *testing.T) {
	o := New(zerolog.Nop())
	wait := startOrchestrator(t, o, idleAgent("primary"))

	sub := o.Subscribe("status")
	o.Publish(Message{Topic: "status", Sender: "primary", Payload: map[string]any{"ok": true}})

	select {
	case msg := <-sub:
		assert.Equal(t, "status", msg.Topic)
		assert.Equal(t, "primary", msg.Sender)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the message")
	}

	o.StopAll()
	require.NoError(t, wait())
}

func TestSpawnAfterShutdown(t *testing.T) {
	o := New(zerolog.Nop())
	wait := startOrchestrator(t, o, idleAgent("primary"))
	o.StopAll()
	require.NoError(t, wait())

	_, err := o.SpawnAgent(context.Background(), "tutor", "too late")
	assert.ErrorIs(t, err, ErrShutdown)
}
