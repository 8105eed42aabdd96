package stack

import (
	"context"
	"sort"
	"sync"
)

// keyedLocks serializes work per key. Callers lock every key they touch in
// sorted order, so overlapping key sets cannot deadlock.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{slots: make(map[string]chan struct{})}
}

func (l *keyedLocks) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// acquire locks every key or none. The returned func releases them.
func (l *keyedLocks) acquire(ctx context.Context, keys []string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	held := make([]chan struct{}, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	var prev string
	for i, key := range sorted {
		if i > 0 && key == prev {
			continue
		}
		prev = key

		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}
