package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewNoOpAgent is the deliberate placeholder for roles without a
// specialized implementation: it logs each request and completes without
// doing anything useful.
func NewNoOpAgent(role string, log zerolog.Logger) *Agent {
	handler := HandlerFunc(func(ctx context.Context, req TaskRequest) Outcome {
		log.Warn().Str("role", role).Str("task", req.Text).Msg("no specialized agent for role; task has no effect")
		return Completed(fmt.Sprintf("no specialized behavior for role %q", role))
	})
	return New(role, handler, WithLogger(log))
}
