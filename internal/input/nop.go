package input

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
)

// NopDriver logs every primitive without touching the machine. Used for dry
// runs and as the safe default when no display is available.
type NopDriver struct {
	log zerolog.Logger
}

func NewNopDriver(log zerolog.Logger) *NopDriver {
	return &NopDriver{log: log.With().Str("component", "input").Bool("dry_run", true).Logger()}
}

func (d *NopDriver) TypeText(ctx context.Context, text string) error {
	d.log.Info().Str("text", text).Msg("would type text")
	return nil
}

func (d *NopDriver) PressKey(ctx context.Context, key string) error {
	d.log.Info().Str("key", key).Msg("would press key")
	return nil
}

func (d *NopDriver) Click(ctx context.Context, button string) error {
	d.log.Info().Str("button", button).Msg("would click")
	return nil
}

func (d *NopDriver) DoubleClick(ctx context.Context) error {
	d.log.Info().Msg("would double click")
	return nil
}

func (d *NopDriver) Scroll(ctx context.Context, direction string, amount int) error {
	d.log.Info().Str("direction", direction).Int("amount", amount).Msg("would scroll")
	return nil
}

func (d *NopDriver) RunCommand(ctx context.Context, command string) error {
	d.log.Info().Str("command", command).Msg("would run shell command")
	return nil
}

func (d *NopDriver) MoveToElement(ctx context.Context, el perception.Element) error {
	d.log.Info().Int("element_id", el.ID).Str("label", el.Label).Msg("would move to element")
	return nil
}
