package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesCampbellJr/Project-Chimera/internal/metrics"
	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

// fakeDriver records every call and can be told to fail or panic on a
// specific action.
type fakeDriver struct {
	calls   []string
	failOn  string
	panicOn string
}

func (d *fakeDriver) do(ctx context.Context, name string) error {
	if d.panicOn == name {
		panic("driver exploded")
	}
	d.calls = append(d.calls, name)
	if d.failOn == name {
		return errors.New("simulated driver failure")
	}
	return nil
}

func (d *fakeDriver) TypeText(ctx context.Context, text string) error { return d.do(ctx, "type_text") }
func (d *fakeDriver) PressKey(ctx context.Context, key string) error  { return d.do(ctx, "press_key") }
func (d *fakeDriver) Click(ctx context.Context, button string) error {
	return d.do(ctx, "click:"+button)
}
func (d *fakeDriver) DoubleClick(ctx context.Context) error { return d.do(ctx, "double_click") }
func (d *fakeDriver) Scroll(ctx context.Context, direction string, amount int) error {
	return d.do(ctx, "scroll")
}
func (d *fakeDriver) RunCommand(ctx context.Context, command string) error {
	return d.do(ctx, "run_command")
}
func (d *fakeDriver) MoveToElement(ctx context.Context, el perception.Element) error {
	return d.do(ctx, fmt.Sprintf("move:%d", el.ID))
}

func TestRunSynthesizesFinishForPrimitivePlans(t *testing.T) {
	driver := &fakeDriver{}
	e := New(driver, zerolog.Nop())

	p := &plan.Plan{Steps: []plan.Step{
		{Kind: plan.KindTypeText, Text: "hello"},
		{Kind: plan.KindPressKey, Key: "Return"},
	}}
	var im metrics.IterationMetrics
	control := e.Run(context.Background(), p, &im)

	assert.Equal(t, plan.KindFinishTask, control.Kind)
	assert.Equal(t, FinishedReason, control.Reason)
	assert.Equal(t, []string{"type_text", "press_key"}, driver.calls)
	require.Len(t, im.Steps, 2)
	assert.True(t, im.Steps[0].Success)
	assert.True(t, im.Steps[1].Success)
}

func TestRunStopsAtFirstControlStep(t *testing.T) {
	driver := &fakeDriver{}
	e := New(driver, zerolog.Nop())

	p := &plan.Plan{Steps: []plan.Step{
		{Kind: plan.KindTypeText, Text: "before"},
		{Kind: plan.KindReevaluate},
		{Kind: plan.KindPressKey, Key: "never"},
	}}
	control := e.Run(context.Background(), p, nil)

	assert.Equal(t, plan.KindReevaluate, control.Kind)
	// The step after the control step must never reach the driver.
	assert.Equal(t, []string{"type_text"}, driver.calls)
}

func TestRunNormalizesStepFailure(t *testing.T) {
	driver := &fakeDriver{failOn: "press_key"}
	e := New(driver, zerolog.Nop())

	p := &plan.Plan{Steps: []plan.Step{
		{Kind: plan.KindTypeText, Text: "ok"},
		{Kind: plan.KindPressKey, Key: "Return"},
		{Kind: plan.KindTypeText, Text: "never"},
	}}
	var im metrics.IterationMetrics
	control := e.Run(context.Background(), p, &im)

	assert.Equal(t, plan.KindExecutionError, control.Kind)
	assert.Equal(t, "press_key", control.FailedStep)
	assert.Contains(t, control.Reason, "press_key")
	assert.Contains(t, control.Reason, "simulated driver failure")
	assert.Equal(t, []string{"type_text", "press_key"}, driver.calls)
	require.Len(t, im.Steps, 2)
	assert.False(t, im.Steps[1].Success)
}

func TestRunRecoversDriverPanic(t *testing.T) {
	driver := &fakeDriver{panicOn: "double_click"}
	e := New(driver, zerolog.Nop())

	p := &plan.Plan{Steps: []plan.Step{{Kind: plan.KindDoubleClick}}}
	control := e.Run(context.Background(), p, nil)

	assert.Equal(t, plan.KindExecutionError, control.Kind)
	assert.Contains(t, control.Reason, "panic")
}

func TestRunConfirmGate(t *testing.T) {
	risky := &plan.Plan{Steps: []plan.Step{
		{Kind: plan.KindRunCommand, Command: "touch /tmp/x"},
	}}

	t.Run("declined", func(t *testing.T) {
		driver := &fakeDriver{}
		e := New(driver, zerolog.Nop(), WithConfirm(func(p *plan.Plan) bool { return false }))
		control := e.Run(context.Background(), risky, nil)
		assert.Equal(t, plan.KindExecutionError, control.Kind)
		assert.Equal(t, "run_command", control.FailedStep)
		assert.Contains(t, control.Reason, "rejected")
		assert.Empty(t, driver.calls)
	})

	t.Run("accepted", func(t *testing.T) {
		driver := &fakeDriver{}
		e := New(driver, zerolog.Nop(), WithConfirm(func(p *plan.Plan) bool { return true }))
		control := e.Run(context.Background(), risky, nil)
		assert.Equal(t, plan.KindFinishTask, control.Kind)
		assert.Equal(t, []string{"run_command"}, driver.calls)
	})

	t.Run("unattended executors skip the gate", func(t *testing.T) {
		driver := &fakeDriver{}
		e := New(driver, zerolog.Nop())
		control := e.Run(context.Background(), risky, nil)
		assert.Equal(t, plan.KindFinishTask, control.Kind)
		assert.Equal(t, []string{"run_command"}, driver.calls)
	})

	t.Run("harmless plans never prompt", func(t *testing.T) {
		driver := &fakeDriver{}
		prompted := false
		e := New(driver, zerolog.Nop(), WithConfirm(func(p *plan.Plan) bool { prompted = true; return false }))
		p := &plan.Plan{Steps: []plan.Step{{Kind: plan.KindClick}}}
		control := e.Run(context.Background(), p, nil)
		assert.Equal(t, plan.KindFinishTask, control.Kind)
		assert.False(t, prompted)
	})
}

func TestPendingTargetConsumedByNextClick(t *testing.T) {
	driver := &fakeDriver{}
	e := New(driver, zerolog.Nop())
	e.SetTarget(perception.Element{ID: 7, Kind: "button", Label: "OK"})

	p := &plan.Plan{Steps: []plan.Step{
		{Kind: plan.KindClick},
		{Kind: plan.KindClick, Button: "right"},
	}}
	control := e.Run(context.Background(), p, nil)

	assert.Equal(t, plan.KindFinishTask, control.Kind)
	// Only the first click is preceded by a pointer move; the target is
	// consumed, not reused.
	assert.Equal(t, []string{"move:7", "click:left", "click:right"}, driver.calls)
}

func TestRunCancelledContext(t *testing.T) {
	driver := &fakeDriver{}
	e := New(driver, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &plan.Plan{Steps: []plan.Step{{Kind: plan.KindTypeText, Text: "x"}}}
	control := e.Run(ctx, p, nil)

	assert.Equal(t, plan.KindExecutionError, control.Kind)
	assert.Contains(t, control.Reason, "cancelled")
	assert.Empty(t, driver.calls)
}
