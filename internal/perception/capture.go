package perception

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const captureTimeout = 10 * time.Second

// ExecCapturer shells out to a screenshot tool that writes PNG bytes to
// stdout (default: ImageMagick's `import -window root png:-`).
type ExecCapturer struct {
	command string
}

func NewExecCapturer(command string) *ExecCapturer {
	return &ExecCapturer{command: command}
}

func (c *ExecCapturer) Capture(ctx context.Context) ([]byte, error) {
	if strings.TrimSpace(c.command) == "" {
		return nil, fmt.Errorf("no capture command configured")
	}
	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", c.command)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("capture command failed: %w (%s)", err, strings.TrimSpace(errb.String()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("capture command produced no output")
	}
	return out.Bytes(), nil
}
