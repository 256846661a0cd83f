package storage

import "github.com/rs/zerolog"

// EventKind is one of the keyspace event kinds a shard publishes (§4.1).
type EventKind int

const (
	EventAdded EventKind = iota
	EventUpdated
	EventDeleted
	EventExpired
	EventExpirationSet
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventExpired:
		return "expired"
	case EventExpirationSet:
		return "expiration-set"
	default:
		return "unknown"
	}
}

// Event is published synchronously by a shard after every mutation.
type Event struct {
	Kind EventKind
	Key  string
}

// Subscriber receives shard events. It is a plain callback, not a channel
// endpoint — the shard-to-subscriber arrow is one-way and subscribers never
// reference the shard back (DESIGN NOTES "cyclic references").
type Subscriber func(Event)

// publisher fans an Event out to every registered Subscriber, isolating a
// panicking subscriber so it cannot prevent the others from observing the
// event (§4.1: "subscriber failures must be isolated").
type publisher struct {
	subs   []Subscriber
	logger zerolog.Logger
}

func newPublisher(logger zerolog.Logger) *publisher {
	return &publisher{logger: logger}
}

func (p *publisher) subscribe(s Subscriber) {
	p.subs = append(p.subs, s)
}

func (p *publisher) publish(evt Event) {
	for _, s := range p.subs {
		p.deliver(s, evt)
	}
}

func (p *publisher) deliver(s Subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn().
				Str("component", "storage.events").
				Interface("panic", r).
				Str("key", evt.Key).
				Str("kind", evt.Kind.String()).
				Msg("keyspace event subscriber panicked, isolating")
		}
	}()
	s(evt)
}
