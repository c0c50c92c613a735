package metrics

import "time"

type StepMetrics struct {
	Action     string    `json:"action"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Err        string    `json:"err,omitempty"`
}

type IterationMetrics struct {
	Iteration  int           `json:"iteration"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	DurationMs int64         `json:"duration_ms"`
	Control    string        `json:"control,omitempty"`
	Steps      []StepMetrics `json:"steps,omitempty"`
}

type TaskMetrics struct {
	TaskID     string             `json:"task_id"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	DurationMs int64              `json:"duration_ms"`
	Outcome    string             `json:"outcome"`
	Iterations []IterationMetrics `json:"iterations,omitempty"`
}

// Compute derived fields for an iteration.
func (m *IterationMetrics) Finalize() {
	m.DurationMs = m.End.Sub(m.Start).Milliseconds()
}

func (m *TaskMetrics) Finalize() {
	m.End = time.Now()
	m.DurationMs = m.End.Sub(m.Start).Milliseconds()
}
