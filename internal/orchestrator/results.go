package orchestrator

import "time"

// ReportResult is the callback agents invoke on self-completion. Safe for
// concurrent use from any agent's run loop. Learned skills are additionally
// recorded in the skill ledger, and any delegation waiters for the agent
// are resolved.
func (o *Orchestrator) ReportResult(kind, agentID string, payload map[string]any) {
	res := Result{Kind: kind, AgentID: agentID, Payload: payload, At: time.Now()}

	o.mu.Lock()
	o.results = append(o.results, res)
	if kind == "skill_learned" {
		name, _ := payload["name"].(string)
		path, _ := payload["path"].(string)
		if name != "" {
			o.skills[name] = path
		}
	}
	waiters := o.waiters[agentID]
	delete(o.waiters, agentID)
	o.mu.Unlock()

	o.log.Info().Str("kind", kind).Str("agent", agentID).Interface("payload", payload).Msg("result reported")
	for _, ch := range waiters {
		ch <- res
		close(ch)
	}
}

// AwaitResult registers interest in the next result reported by the given
// agent. Delegation stays fire-and-forget unless a caller opts in here.
func (o *Orchestrator) AwaitResult(agentID string) <-chan Result {
	ch := make(chan Result, 1)
	o.mu.Lock()
	o.waiters[agentID] = append(o.waiters[agentID], ch)
	o.mu.Unlock()
	return ch
}

// Results returns a copy of the result log.
func (o *Orchestrator) Results() []Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Result, len(o.results))
	copy(out, o.results)
	return out
}

// Skills returns a copy of the learned-skill ledger (name to storage path).
func (o *Orchestrator) Skills() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.skills))
	for k, v := range o.skills {
		out[k] = v
	}
	return out
}
