package lock

import (
	"context"
	"sync"
)

// Local is an in-process lock keyed by name. Waiting honours ctx.
type Local struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]chan struct{})}
}

// Lock waits for name and returns a context that stays live until unlock is
// called or ctx ends.
func (l *Local) Lock(ctx context.Context, name string) (context.Context, func(), error) {
	slot := l.slot(name)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	held, cancel := context.WithCancel(ctx)
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			<-slot
		})
	}, nil
}

func (l *Local) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.locks[name]
	if ok {
		return slot
	}
	slot = make(chan struct{}, 1)
	l.locks[name] = slot
	return slot
}
