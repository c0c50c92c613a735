// Package input is the boundary to keyboard/mouse/shell primitives. The
// executor drives it; nothing above the executor touches it directly.
package input

import (
	"context"

	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
)

type Driver interface {
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
	Click(ctx context.Context, button string) error
	DoubleClick(ctx context.Context) error
	Scroll(ctx context.Context, direction string, amount int) error
	RunCommand(ctx context.Context, command string) error
	// MoveToElement positions the pointer over a previously resolved screen
	// element before a click. Drivers without element coordinates may treat
	// this as best-effort.
	MoveToElement(ctx context.Context, el perception.Element) error
}
