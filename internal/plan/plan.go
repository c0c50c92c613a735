package plan

import "encoding/json"

type Kind string

const (
	// Primitive steps, executed inside the executor.
	KindTypeText    Kind = "type_text"
	KindPressKey    Kind = "press_key"
	KindClick       Kind = "click"
	KindDoubleClick Kind = "double_click"
	KindScroll      Kind = "scroll"
	KindRunCommand  Kind = "run_command"
	KindWait        Kind = "wait"

	// Control steps, handed back to the task cycle.
	KindReevaluate     Kind = "reevaluate_environment"
	KindDelegateTask   Kind = "delegate_task"
	KindMoveToElement  Kind = "move_to_element"
	KindFinishTask     Kind = "finish_task"
	KindExecutionError Kind = "execution_error"
)

// Step is a single tagged action. Kind decides which fields are meaningful;
// the planner emits the same snake_case shape this struct marshals to.
type Step struct {
	Kind       Kind    `json:"action"`
	Text       string  `json:"text,omitempty"`
	Key        string  `json:"key,omitempty"`
	Button     string  `json:"button,omitempty"`
	Direction  string  `json:"direction,omitempty"`
	Amount     int     `json:"amount,omitempty"`
	Command    string  `json:"command,omitempty"`
	Seconds    float64 `json:"seconds,omitempty"`
	Role       string  `json:"role,omitempty"`
	Task       string  `json:"task,omitempty"`
	ElementID  int     `json:"element_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	FailedStep string  `json:"failed_step,omitempty"`
}

func (s Step) IsControl() bool {
	switch s.Kind {
	case KindReevaluate, KindDelegateTask, KindMoveToElement, KindFinishTask, KindExecutionError:
		return true
	}
	return false
}

// Plan is one planning round's ordered step list. Plans are never mutated,
// only replaced by the next round.
type Plan struct {
	Steps []Step
}

// The planner responds with a bare JSON array of steps.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var steps []Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return err
	}
	p.Steps = steps
	return nil
}

func (p Plan) MarshalJSON() ([]byte, error) {
	if p.Steps == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Steps)
}

func (p *Plan) Empty() bool {
	return p == nil || len(p.Steps) == 0
}

// Finish builds the control step the executor synthesizes when a plan runs
// out of steps without meeting one.
func Finish(reason string) Step {
	return Step{Kind: KindFinishTask, Reason: reason}
}

// ExecError builds the terminal control step for a failed primitive step.
func ExecError(failed Step, reason string) Step {
	return Step{Kind: KindExecutionError, FailedStep: string(failed.Kind), Reason: reason}
}
