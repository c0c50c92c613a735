package input

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
)

// XDoDriver synthesizes input through xdotool. Shell commands are started
// detached, mirroring how a user launches an application.
type XDoDriver struct {
	log zerolog.Logger
}

func NewXDoDriver(log zerolog.Logger) *XDoDriver {
	return &XDoDriver{log: log.With().Str("component", "input").Logger()}
}

func (d *XDoDriver) TypeText(ctx context.Context, text string) error {
	d.log.Info().Str("text", text).Msg("typing text")
	return d.xdo(ctx, "type", "--delay", "50", "--", text)
}

func (d *XDoDriver) PressKey(ctx context.Context, key string) error {
	d.log.Info().Str("key", key).Msg("pressing key")
	return d.xdo(ctx, "key", "--", key)
}

func (d *XDoDriver) Click(ctx context.Context, button string) error {
	d.log.Info().Str("button", button).Msg("clicking")
	return d.xdo(ctx, "click", mouseButton(button))
}

func (d *XDoDriver) DoubleClick(ctx context.Context) error {
	d.log.Info().Msg("double clicking")
	return d.xdo(ctx, "click", "--repeat", "2", "--delay", "120", "1")
}

func (d *XDoDriver) Scroll(ctx context.Context, direction string, amount int) error {
	d.log.Info().Str("direction", direction).Int("amount", amount).Msg("scrolling")
	// Wheel events: button 4 scrolls up, 5 scrolls down.
	button := "5"
	if direction == "up" {
		button = "4"
	}
	repeat := amount / 40
	if repeat < 1 {
		repeat = 1
	}
	return d.xdo(ctx, "click", "--repeat", strconv.Itoa(repeat), button)
}

func (d *XDoDriver) RunCommand(ctx context.Context, command string) error {
	d.log.Info().Str("command", command).Msg("running shell command")
	cmd := exec.Command("sh", "-c", command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}
	// Detached on purpose: the agent observes the effect via perception, not
	// via the command's exit status.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (d *XDoDriver) MoveToElement(ctx context.Context, el perception.Element) error {
	// The vision model does not report coordinates yet, so the pointer cannot
	// be positioned precisely. Log the intent so the operator can follow up.
	// TODO: parse element coordinates once the vision backend reports them.
	d.log.Warn().Int("element_id", el.ID).Str("label", el.Label).
		Msg("cannot resolve element coordinates; pointer not moved")
	return nil
}

func (d *XDoDriver) xdo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "xdotool", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("xdotool %s: %w (%s)", args[0], err, string(out))
	}
	return nil
}

func mouseButton(name string) string {
	switch name {
	case "right":
		return "3"
	case "middle":
		return "2"
	default:
		return "1"
	}
}
