package timekeeper

import "sync"

// subscriber queues events without bound and hands them to out in order,
// so emitting never blocks a tick and a slow reader never loses an event.
type subscriber struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	wake   chan struct{}
	out    chan Event
}

func newSubscriber(buffer int) *subscriber {
	sub := &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan Event, buffer),
	}
	go sub.pump()
	return sub
}

func (sub *subscriber) push(event Event) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, event)
	sub.mu.Unlock()
	sub.signal()
}

// close stops accepting events; queued events are still delivered before out is closed.
func (sub *subscriber) close() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber) signal() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) pump() {
	defer close(sub.out)
	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			closed := sub.closed
			sub.mu.Unlock()
			if closed {
				return
			}
			<-sub.wake
			continue
		}
		batch := sub.queue
		sub.queue = nil
		sub.mu.Unlock()

		for _, event := range batch {
			sub.out <- event
		}
	}
}
