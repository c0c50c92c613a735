package orchestrator

import "context"

// Publish puts a message on the shared bus. Non-blocking: when the bus is
// saturated the message is dropped with a warning rather than stalling an
// agent's run loop.
func (o *Orchestrator) Publish(msg Message) {
	select {
	case o.bus <- msg:
	default:
		o.log.Warn().Str("topic", msg.Topic).Str("sender", msg.Sender).Msg("bus full; message dropped")
	}
}

// Subscribe returns a channel receiving every routed message for a topic.
// Slow subscribers miss messages instead of blocking the router.
func (o *Orchestrator) Subscribe(topic string) <-chan Message {
	ch := make(chan Message, subscriberCapacity)
	o.mu.Lock()
	o.subs[topic] = append(o.subs[topic], ch)
	o.mu.Unlock()
	return ch
}

// routeMessages drains the bus until shutdown. Every message is logged;
// subscribers matching the topic get a copy.
func (o *Orchestrator) routeMessages(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case msg := <-o.bus:
			o.dispatch(msg)
		case <-ctx.Done():
			return
		case <-stop:
			// Drain what is already queued before exiting.
			for {
				select {
				case msg := <-o.bus:
					o.dispatch(msg)
				default:
					return
				}
			}
		}
	}
}

func (o *Orchestrator) dispatch(msg Message) {
	o.log.Info().Str("topic", msg.Topic).Str("sender", msg.Sender).Interface("payload", msg.Payload).Msg("message on bus")

	o.mu.Lock()
	subs := make([]chan Message, len(o.subs[msg.Topic]))
	copy(subs, o.subs[msg.Topic])
	o.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			o.log.Warn().Str("topic", msg.Topic).Msg("subscriber lagging; message skipped")
		}
	}
}
