package agent

import (
	"context"
	"time"

	"github.com/JamesCampbellJr/Project-Chimera/internal/metrics"
)

// TaskRequest is one pending unit of work in an agent's mailbox. Immutable
// once enqueued.
type TaskRequest struct {
	ID         string
	Text       string
	EnqueuedAt time.Time
}

type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeAborted   OutcomeKind = "aborted"
	OutcomeDelegated OutcomeKind = "delegated"
)

// Outcome is the terminal result of one task cycle. Collaborator failures
// are always resolved into an Outcome; they never escape as faults.
type Outcome struct {
	Kind    OutcomeKind
	Reason  string
	Role    string // delegated: role of the spawned agent
	Task    string // delegated: sub-task handed over
	Metrics *metrics.TaskMetrics
}

func Completed(reason string) Outcome {
	return Outcome{Kind: OutcomeCompleted, Reason: reason}
}

func Aborted(reason string) Outcome {
	return Outcome{Kind: OutcomeAborted, Reason: reason}
}

func Delegated(role, task string) Outcome {
	return Outcome{Kind: OutcomeDelegated, Role: role, Task: task}
}

// TaskResult pairs a finished request with its outcome for reporting.
type TaskResult struct {
	AgentID string
	Request TaskRequest
	Outcome Outcome
}

// TaskHandler resolves one task request to a terminal outcome.
type TaskHandler interface {
	HandleTask(ctx context.Context, req TaskRequest) Outcome
}

type HandlerFunc func(ctx context.Context, req TaskRequest) Outcome

func (f HandlerFunc) HandleTask(ctx context.Context, req TaskRequest) Outcome {
	return f(ctx, req)
}

// Spawner is the slice of the orchestrator a task cycle uses for
// delegation.
type Spawner interface {
	SpawnAgent(ctx context.Context, role, task string) (string, error)
}

// ResultReporter is the orchestrator callback agents invoke when they have
// something durable to report (e.g. a learned skill).
type ResultReporter interface {
	ReportResult(kind, agentID string, payload map[string]any)
}
