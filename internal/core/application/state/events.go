package state

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventKind ...
type EventKind string

const (
	EventActiveNetworkChanged EventKind = "activeNetworkChanged"
	EventRootKeysChanged      EventKind = "rootKeysChanged"
	EventAccountsChanged      EventKind = "accountsChanged"
	EventActiveAccountChanged EventKind = "activeAccountChanged"
	EventBackendsChanged      EventKind = "backendsChanged"
	EventActiveBackendChanged EventKind = "activeBackendChanged"
	EventOverridesChanged     EventKind = "overridesChanged"
	EventCallLogsChanged      EventKind = "callLogsChanged"
)

// Event notifies a mutation of the state. ID is the affected record, if any.
type Event struct {
	Kind    EventKind
	Network string
	ID      string
}

type broker struct {
	lock        sync.RWMutex
	nextID      int
	subscribers map[int]chan Event
}

func newBroker() *broker {
	return &broker{subscribers: make(map[int]chan Event)}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	b.lock.Lock()
	defer b.lock.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.lock.Lock()
			defer b.lock.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}
}

// publish never blocks: events are dropped for subscribers whose buffer is
// full.
func (b *broker) publish(event Event) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			log.WithField("subscriber", id).Warnf(
				"state: dropping event %s, subscriber is too slow", event.Kind,
			)
		}
	}
}
