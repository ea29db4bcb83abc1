package changefeed

import (
	"context"
	"sync"
)

// Bus is an in-process Source. Publish fans an event out to every live
// subscription of the owner; slow subscribers drop events rather than block
// the publisher, which is safe because consumers only need a wake-up.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[*busSubscription]struct{}
}

var _ Source = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*busSubscription]struct{})}
}

func (b *Bus) Subscribe(_ context.Context, userID string) (Subscription, error) {
	sub := &busSubscription{bus: b, userID: userID, events: make(chan Event, 64)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*busSubscription]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	return sub, nil
}

// Publish delivers ev to userID's subscribers and reports how many received it.
func (b *Bus) Publish(userID string, ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for sub := range b.subs[userID] {
		select {
		case sub.events <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

type busSubscription struct {
	bus    *Bus
	userID string
	events chan Event
	once   sync.Once
}

func (s *busSubscription) Events() <-chan Event { return s.events }

func (s *busSubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.userID], s)
		if len(s.bus.subs[s.userID]) == 0 {
			delete(s.bus.subs, s.userID)
		}
		s.bus.mu.Unlock()
		close(s.events)
	})
	return nil
}
