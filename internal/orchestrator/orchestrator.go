// Package orchestrator owns the registry of live agents, spawns new agents
// on delegation requests, supervises their run loops, and routes messages
// between them.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/JamesCampbellJr/Project-Chimera/internal/agent"
)

var (
	ErrShutdown       = errors.New("orchestrator is shut down")
	ErrNotStarted     = errors.New("orchestrator not started")
	ErrAlreadyStarted = errors.New("orchestrator already started")
)

// Factory builds an agent for a role. The task is provided so specialized
// factories can configure one-shot agents around it.
type Factory func(role, task string) *agent.Agent

// Result is one entry in the orchestrator's result log.
type Result struct {
	Kind    string         `json:"kind"`
	AgentID string         `json:"agent_id"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// Message is an opaque bus message. Routing currently logs every message
// and dispatches to topic subscribers.
type Message struct {
	Topic   string         `json:"topic"`
	Sender  string         `json:"sender"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	busCapacity        = 128
	subscriberCapacity = 16
)

type Orchestrator struct {
	log zerolog.Logger

	mu        sync.Mutex
	agents    map[string]*agent.Agent
	factories map[string]Factory
	fallback  Factory
	group     *errgroup.Group
	groupCtx  context.Context
	started   bool
	shutdown  bool

	results []Result
	skills  map[string]string
	waiters map[string][]chan Result

	bus  chan Message
	subs map[string][]chan Message
}

func New(log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		log:       log.With().Str("component", "orchestrator").Logger(),
		agents:    make(map[string]*agent.Agent),
		factories: make(map[string]Factory),
		skills:    make(map[string]string),
		waiters:   make(map[string][]chan Result),
		bus:       make(chan Message, busCapacity),
		subs:      make(map[string][]chan Message),
	}
	o.fallback = func(role, task string) *agent.Agent {
		return agent.NewNoOpAgent(role, o.log)
	}
	return o
}

// RegisterRole maps a role name (case-insensitive) to an agent factory.
// Unknown roles fall back to the no-op agent.
func (o *Orchestrator) RegisterRole(role string, f Factory) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.factories[normalizeRole(role)] = f
}

func (o *Orchestrator) SetFallback(f Factory) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallback = f
}

// Start registers the primary agent, runs it and the message router, and
// blocks until every supervised agent activity has exited.
func (o *Orchestrator) Start(ctx context.Context, primary *agent.Agent) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.started = true
	g, gctx := errgroup.WithContext(ctx)
	o.group = g
	o.groupCtx = gctx
	o.agents[primary.ID()] = primary
	o.mu.Unlock()

	o.log.Info().Str("agent", primary.ID()).Str("role", primary.Role()).Msg("orchestrator starting")

	routerStop := make(chan struct{})
	routerDone := make(chan struct{})
	go o.routeMessages(gctx, routerStop, routerDone)

	g.Go(func() error { return primary.Run(gctx) })
	err := g.Wait()

	o.mu.Lock()
	o.shutdown = true
	o.mu.Unlock()
	close(routerStop)
	<-routerDone

	o.log.Info().Msg("orchestrator has shut down")
	return err
}

// SpawnAgent services a delegation: select an implementation by role,
// register and start it, post the task into its mailbox, and return
// without waiting for the task to finish.
func (o *Orchestrator) SpawnAgent(ctx context.Context, role, task string) (string, error) {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return "", ErrNotStarted
	}
	if o.shutdown {
		o.mu.Unlock()
		return "", ErrShutdown
	}
	f, known := o.factories[normalizeRole(role)]
	if !known {
		o.log.Warn().Str("role", role).Msg("no agent implementation for role; using fallback")
		f = o.fallback
	}
	a := f(role, task)
	o.agents[a.ID()] = a
	group := o.group
	groupCtx := o.groupCtx
	o.mu.Unlock()

	o.log.Info().Str("agent", a.ID()).Str("role", role).Str("task", task).Msg("spawning agent")
	group.Go(func() error { return a.Run(groupCtx) })

	if err := a.Enqueue(agent.TaskRequest{ID: uuid.New().String()[:8], Text: task}); err != nil {
		return "", fmt.Errorf("enqueue task on spawned agent: %w", err)
	}
	return a.ID(), nil
}

// StopAll asks every registered agent to stop; each one exits at its next
// mailbox-wait boundary.
func (o *Orchestrator) StopAll() {
	o.mu.Lock()
	agents := make([]*agent.Agent, 0, len(o.agents))
	for _, a := range o.agents {
		agents = append(agents, a)
	}
	o.mu.Unlock()
	for _, a := range agents {
		a.Stop()
	}
}

// Agent returns a registered agent by id.
func (o *Orchestrator) Agent(id string) (*agent.Agent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.agents[id]
	return a, ok
}

func (o *Orchestrator) AgentIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.agents))
	for id := range o.agents {
		ids = append(ids, id)
	}
	return ids
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
