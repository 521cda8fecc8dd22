package events

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// Listener processes events
type Listener interface {
	HandleEvent(event *Event) error
	Priority() int
	ID() string
}

// Bus manages event distribution
type Bus struct {
	listeners map[EventType][]Listener
	mu        sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]Listener),
	}
}

// Subscribe adds a listener for a specific event type
func (b *Bus) Subscribe(eventType EventType, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[eventType] = append(b.listeners[eventType], listener)

	// Sort by priority
	sort.Slice(b.listeners[eventType], func(i, j int) bool {
		return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
	})
}

// Unsubscribe removes a listener
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[eventType]
	for i, l := range listeners {
		if l.ID() != listenerID {
			continue
		}
		listeners[i] = listeners[len(listeners)-1]
		b.listeners[eventType] = listeners[:len(listeners)-1]

		sort.Slice(b.listeners[eventType], func(i, j int) bool {
			return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
		})
		return
	}
}

// Emit sends an event to all registered listeners in priority order
func (b *Bus) Emit(event *Event) error {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners[event.Type]))
	copy(listeners, b.listeners[event.Type])
	b.mu.RUnlock()

	for _, listener := range listeners {
		if event.IsCancelled() {
			log.Printf("EventBus: Event %s cancelled, stopping propagation", event.Type)
			break
		}

		if err := listener.HandleEvent(event); err != nil {
			return fmt.Errorf("listener %s failed: %w", listener.ID(), err)
		}
	}

	return nil
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]Listener)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc struct {
	ListenerID       string
	ListenerPriority int
	Handler          func(event *Event) error
}

// HandleEvent invokes the wrapped handler
func (l *ListenerFunc) HandleEvent(event *Event) error {
	if l.Handler == nil {
		return nil
	}
	return l.Handler(event)
}

// Priority returns the listener priority (lower runs first)
func (l *ListenerFunc) Priority() int { return l.ListenerPriority }

// ID returns the listener id
func (l *ListenerFunc) ID() string { return l.ListenerID }
