package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// Persister receives credential and preference changes as a side effect of
// the corresponding actions.
type Persister interface {
	SaveToken(ctx context.Context, role enums.Role, token string) error
	SaveLanguage(ctx context.Context, language string) error
}

// Scope is a slice of state owned by one role and reset when its token is cleared.
type Scope string

const (
	ScopeCartCount Scope = "cart_count"
	ScopeWishlist  Scope = "wishlist"
)

func (sc Scope) clear(s *State) {
	switch sc {
	case ScopeCartCount:
		s.setCartCount(0)
	case ScopeWishlist:
		s.clearWishlist()
	}
}

// Option configures a Store.
type Option func(*Store)

// WithPersister sets where token and language changes are written.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) { s.logg = logg }
}

// DefaultPersistTimeout bounds each token-store write made by Dispatch.
const DefaultPersistTimeout = 5 * time.Second

// WithPersistTimeout overrides DefaultPersistTimeout. Non-positive values are ignored.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// WithRoleScope replaces the scopes cleared when role's token is cleared.
func WithRoleScope(role enums.Role, scopes ...Scope) Option {
	return func(s *Store) {
		s.scopes[role] = append([]Scope(nil), scopes...)
	}
}

// Store is the single source of truth for session, cart count and wishlist.
type Store struct {
	mu        sync.RWMutex
	state     State
	scopes    map[enums.Role][]Scope
	persister Persister
	logg      *logger.Logger

	// persistMu is taken before mu is released so writes land in dispatch
	// order without holding readers up.
	persistMu      sync.Mutex
	persistTimeout time.Duration

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(State)
}

func New(opts ...Option) *Store {
	s := &Store{
		state: State{wishlist: make(map[int64]WishlistItem)},
		scopes: map[enums.Role][]Scope{
			enums.RoleBuyer:  {ScopeCartCount, ScopeWishlist},
			enums.RoleSeller: nil,
		},
		subs:           make(map[int]func(State)),
		persistTimeout: DefaultPersistTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Token implements httpclient.Credentials.
func (s *Store) Token(role enums.Role) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.token(role)
}

// Language implements httpclient.Credentials.
func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Language
}

// Dispatch applies actions atomically and in order. A cancelled ctx means the
// caller is gone, so nothing is applied. Persistence failures are returned but
// do not roll back the in-memory change.
func (s *Store) Dispatch(ctx context.Context, actions ...Action) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	s.mu.Lock()
	next := s.state.clone()
	var effects []effect
	for _, action := range actions {
		if action.reduce == nil {
			continue
		}
		effects = append(effects, action.reduce(&next, s.scopes)...)
	}
	s.state = next
	snapshot := next.clone()

	var errs error
	if s.persister != nil && len(effects) > 0 {
		s.persistMu.Lock()
		s.mu.Unlock()
		for _, fx := range effects {
			errs = multierr.Append(errs, s.persist(ctx, fx))
		}
		s.persistMu.Unlock()
	} else {
		s.mu.Unlock()
	}

	if errs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", errs.Error()), "state.persist.failed")
	}

	s.notify(snapshot)
	return errs
}

// persist runs one effect detached from the caller's cancellation but bounded
// by the persist timeout.
func (s *Store) persist(ctx context.Context, fx effect) error {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()
	return fx(pctx, s.persister)
}

// Subscribe registers fn to receive a snapshot after every dispatch.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(snapshot State) {
	s.subMu.Lock()
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.clone())
	}
}
