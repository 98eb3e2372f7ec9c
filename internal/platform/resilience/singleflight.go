package resilience

import (
	"strings"
	"sync"
)

// Group collapses concurrent calls for the same key into one. Callers that
// join an in-flight call receive its result with shared=true.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
}

func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	if c, ok := g.calls[key]; ok {
		c.waiters++
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}

// ForgetPrefix detaches in-flight calls whose key starts with prefix. Their
// current waiters still get the result; the next Do for the key starts over.
func (g *Group[T]) ForgetPrefix(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	forgotten := 0
	for key := range g.calls {
		if strings.HasPrefix(key, prefix) {
			delete(g.calls, key)
			forgotten++
		}
	}
	return forgotten
}

// InFlight reports whether a call for key is currently attached.
func (g *Group[T]) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
