package core

import "sync"

// System event codes. Application codes should start beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EventCodeApplicationQuit EventCode = 0x01
	// Keyboard key pressed. Data.Key holds the key code.
	EventCodeKeyPressed EventCode = 0x02
	// Keyboard key released. Data.Key holds the key code.
	EventCodeKeyReleased EventCode = 0x03
	// Framebuffer size changed. Data.Width and Data.Height hold the new size.
	EventCodeResized EventCode = 0x08
)

type EventContext struct {
	Code   EventCode
	Key    int
	Width  uint32
	Height uint32
}

// EventHandler returns true when the event has been handled and must not
// reach further listeners.
type EventHandler func(ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback EventHandler
}

// EventBus dispatches events synchronously on the goroutine calling Fire.
type EventBus struct {
	mu         sync.RWMutex
	registered map[EventCode][]registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]registeredEvent),
	}
}

// Register fails when listener is already registered for code.
func (b *EventBus) Register(code EventCode, listener interface{}, onEvent EventHandler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.registered[code] {
		if e.listener == listener {
			return false
		}
	}
	b.registered[code] = append(b.registered[code], registeredEvent{listener: listener, callback: onEvent})
	return true
}

func (b *EventBus) Unregister(code EventCode, listener interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.registered[code]
	for i, e := range events {
		if e.listener == listener {
			b.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire reports whether a listener handled the event.
func (b *EventBus) Fire(ctx EventContext) bool {
	b.mu.RLock()
	events := append([]registeredEvent(nil), b.registered[ctx.Code]...)
	b.mu.RUnlock()
	for _, e := range events {
		if e.callback(ctx) {
			return true
		}
	}
	return false
}
