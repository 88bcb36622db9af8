package directory

import "sync"

// Events fans server account events out to registered handlers. The server
// connection emits; the ban watcher and admin notifications subscribe.
type Events struct {
	mu        sync.RWMutex
	onRemoved []func(username string)
	onCreated []func(username string)
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) OnAccountRemoved(fn func(username string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRemoved = append(e.onRemoved, fn)
}

func (e *Events) OnAccountCreated(fn func(username string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCreated = append(e.onCreated, fn)
}

func (e *Events) EmitAccountRemoved(username string) {
	e.mu.RLock()
	handlers := e.onRemoved
	e.mu.RUnlock()
	for _, fn := range handlers {
		fn(username)
	}
}

func (e *Events) EmitAccountCreated(username string) {
	e.mu.RLock()
	handlers := e.onCreated
	e.mu.RUnlock()
	for _, fn := range handlers {
		fn(username)
	}
}
