package catalog

import "sync"

// Listener receives connection status changes.
type Listener func(StatusEvent)

// notifier fans status events out to listeners. Delivery happens under a read
// lock, so once unsubscribe returns the listener is never called again.
// A listener must not call its own unsubscribe from inside the callback.
type notifier struct {
	mu        sync.RWMutex
	listeners map[uint64]Listener
	next      uint64
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[uint64]Listener)}
}

func (n *notifier) subscribe(l Listener) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = l
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) publish(ev StatusEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.listeners {
		l(ev)
	}
}

func (n *notifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
