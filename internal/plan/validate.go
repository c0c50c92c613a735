package plan

import "fmt"

var knownKinds = map[Kind]struct{}{
	KindTypeText: {}, KindPressKey: {}, KindClick: {}, KindDoubleClick: {},
	KindScroll: {}, KindRunCommand: {}, KindWait: {},
	KindReevaluate: {}, KindDelegateTask: {}, KindMoveToElement: {},
	KindFinishTask: {}, KindExecutionError: {},
}

// Steps whose execution can mutate the machine beyond the focused window.
// The console surface asks for confirmation before running a plan that
// contains one; autonomous delegates never do.
var riskyKinds = map[Kind]struct{}{
	KindRunCommand: {},
}

// Validate checks step shapes and the control-step invariant: a plan carries
// at most one control step. Steps after a control step are legal but dead;
// the executor stops at the first control step it meets.
func Validate(p *Plan) error {
	if p.Empty() {
		return fmt.Errorf("plan has no steps")
	}
	controls := 0
	for i, step := range p.Steps {
		if _, ok := knownKinds[step.Kind]; !ok {
			return fmt.Errorf("step %d: unknown action %q", i, step.Kind)
		}
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Kind, err)
		}
		if step.IsControl() {
			controls++
			if controls > 1 {
				return fmt.Errorf("step %d (%s): plan contains more than one control step", i, step.Kind)
			}
		}
	}
	return nil
}

func validateStep(s Step) error {
	switch s.Kind {
	case KindPressKey:
		if s.Key == "" {
			return fmt.Errorf("missing key")
		}
	case KindScroll:
		if s.Direction != "up" && s.Direction != "down" {
			return fmt.Errorf("direction must be up or down, got %q", s.Direction)
		}
	case KindRunCommand:
		if s.Command == "" {
			return fmt.Errorf("missing command")
		}
	case KindWait:
		if s.Seconds <= 0 {
			return fmt.Errorf("seconds must be positive")
		}
	case KindDelegateTask:
		if s.Role == "" || s.Task == "" {
			return fmt.Errorf("missing role or task")
		}
	case KindMoveToElement:
		if s.ElementID <= 0 {
			return fmt.Errorf("missing element_id")
		}
	}
	return nil
}

// IsRisky reports whether any step in the plan needs user confirmation.
func IsRisky(p *Plan) bool {
	if p == nil {
		return false
	}
	for _, step := range p.Steps {
		if _, risky := riskyKinds[step.Kind]; risky {
			return true
		}
	}
	return false
}
