package inflight

import "sync"

// Tracker records which keys have an operation outstanding. A second
// operation on a busy key is refused rather than queued.
type Tracker struct {
	mu   sync.Mutex
	busy map[string]string
}

func New() *Tracker {
	return &Tracker{busy: make(map[string]string)}
}

const defaultTag = "busy"

// TryAcquire marks key busy. ok is false when key is already busy; release
// is idempotent and must be called once the operation resolves.
func (t *Tracker) TryAcquire(key string) (release func(), ok bool) {
	return t.TryAcquireTagged(key, defaultTag)
}

// TryAcquireTagged is TryAcquire with a label describing the operation.
func (t *Tracker) TryAcquireTagged(key, tag string) (release func(), ok bool) {
	return t.TryAcquireUnder(key, tag)
}

// TryAcquireUnder is TryAcquireTagged that also refuses while any of the
// enclosing keys is busy. The check and the acquire happen under one lock.
func (t *Tracker) TryAcquireUnder(key, tag string, enclosing ...string) (release func(), ok bool) {
	if tag == "" {
		tag = defaultTag
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, taken := t.busy[key]; taken {
		return func() {}, false
	}
	for _, outer := range enclosing {
		if _, taken := t.busy[outer]; taken {
			return func() {}, false
		}
	}
	t.busy[key] = tag

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.busy, key)
			t.mu.Unlock()
		})
	}, true
}

func (t *Tracker) Busy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, taken := t.busy[key]
	return taken
}

// Tag returns the label of the outstanding operation on key.
func (t *Tracker) Tag(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tag, taken := t.busy[key]
	return tag, taken
}
