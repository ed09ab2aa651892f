package state

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
)

type recordingPersister struct {
	mu        sync.Mutex
	tokens    []string
	languages []string
	err       error
}

func (r *recordingPersister) SaveToken(_ context.Context, role enums.Role, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, role.String()+"="+token)
	return r.err
}

func (r *recordingPersister) SaveLanguage(_ context.Context, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages = append(r.languages, language)
	return r.err
}

func item(id int64) WishlistItem {
	return WishlistItem{ProductID: id, Name: "product", Price: decimal.NewFromInt(10)}
}

func TestCartCountNeverNegative(t *testing.T) {
	ctx := context.Background()
	store := New()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		var action Action
		switch rng.Intn(4) {
		case 0:
			action = SetCartCount(rng.Intn(10) - 5)
		case 1:
			action = IncrementCartCount()
		case 2:
			action = DecrementCartCount()
		default:
			action = ClearCartCount()
		}
		if err := store.Dispatch(ctx, action); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if got := store.Snapshot().CartCount; got < 0 {
			t.Fatalf("cart count went negative after %s: %d", action.Name(), got)
		}
	}
}

func TestAddWishlistItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Dispatch(ctx, AddWishlistItem(item(42)), AddWishlistItem(item(42))); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	snap := store.Snapshot()
	if WishlistSize(snap) != 1 || !InWishlist(snap, 42) {
		t.Fatalf("expected exactly one entry for 42, got %+v", WishlistItems(snap))
	}
}

func TestSetWishlistKeepsOrderAndDropsDuplicates(t *testing.T) {
	store := New()
	if err := store.Dispatch(context.Background(), SetWishlist([]WishlistItem{item(3), item(1), item(3), item(2)})); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	items := WishlistItems(store.Snapshot())
	if len(items) != 3 || items[0].ProductID != 3 || items[1].ProductID != 1 || items[2].ProductID != 2 {
		t.Fatalf("unexpected wishlist order %+v", items)
	}

	if err := store.Dispatch(context.Background(), RemoveWishlistItem(1), RemoveWishlistItem(99)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	items = WishlistItems(store.Snapshot())
	if len(items) != 2 || items[0].ProductID != 3 || items[1].ProductID != 2 {
		t.Fatalf("unexpected wishlist after remove %+v", items)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := New()
	_ = store.Dispatch(context.Background(), AddWishlistItem(item(1)))

	snap := store.Snapshot()
	snap.wishlist[2] = item(2)
	snap.CartCount = 99

	fresh := store.Snapshot()
	if InWishlist(fresh, 2) || fresh.CartCount != 0 {
		t.Fatalf("snapshot mutation leaked into the store: %+v", fresh)
	}
}

func TestClearingBuyerTokenCascades(t *testing.T) {
	ctx := context.Background()
	store := New()
	_ = store.Dispatch(ctx,
		SetToken(enums.RoleBuyer, "b"),
		SetToken(enums.RoleSeller, "s"),
		SetCartCount(4),
		AddWishlistItem(item(9)),
	)

	if err := store.Dispatch(ctx, SetToken(enums.RoleSeller, "")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	snap := store.Snapshot()
	if snap.CartCount != 4 || WishlistSize(snap) != 1 {
		t.Fatalf("seller sign-out must not touch buyer state: %+v", snap)
	}

	if err := store.Dispatch(ctx, SetToken(enums.RoleBuyer, "")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	snap = store.Snapshot()
	if IsBuyerAuthenticated(snap) || snap.CartCount != 0 || WishlistSize(snap) != 0 {
		t.Fatalf("buyer sign-out should clear cart count and wishlist: %+v", snap)
	}
}

func TestWithRoleScopeOverridesCascade(t *testing.T) {
	ctx := context.Background()
	store := New(WithRoleScope(enums.RoleBuyer, ScopeWishlist))
	_ = store.Dispatch(ctx, SetToken(enums.RoleBuyer, "b"), SetCartCount(2), AddWishlistItem(item(1)))
	_ = store.Dispatch(ctx, SetToken(enums.RoleBuyer, ""))

	snap := store.Snapshot()
	if snap.CartCount != 2 || WishlistSize(snap) != 0 {
		t.Fatalf("unexpected state after scoped clear: %+v", snap)
	}
}

func TestSelectors(t *testing.T) {
	store := New()
	_ = store.Dispatch(context.Background(), SetToken(enums.RoleSeller, "abc"))
	snap := store.Snapshot()

	if IsBuyerAuthenticated(snap) {
		t.Fatal("buyer should not be authenticated")
	}
	if !IsSellerAuthenticated(snap) || !IsAuthenticated(snap, enums.RoleSeller) {
		t.Fatal("seller should be authenticated")
	}
	if store.Token(enums.RoleSeller) != "abc" || store.Token(enums.RoleBuyer) != "" {
		t.Fatal("credentials view out of sync")
	}
}

func TestWhitespaceTokenIsNotAuthenticated(t *testing.T) {
	store := New()
	_ = store.Dispatch(context.Background(), SetToken(enums.RoleBuyer, "   "))
	if IsBuyerAuthenticated(store.Snapshot()) {
		t.Fatal("blank token must not authenticate")
	}
}

func TestTokenChangesArePersisted(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	store := New(WithPersister(p))

	_ = store.Dispatch(ctx, SetToken(enums.RoleBuyer, "tok"), SetLanguage("bn"), SetCartCount(3))
	_ = store.Dispatch(ctx, SetToken(enums.RoleBuyer, ""))

	if len(p.tokens) != 2 || p.tokens[0] != "buyer=tok" || p.tokens[1] != "buyer=" {
		t.Fatalf("unexpected persisted tokens %v", p.tokens)
	}
	if len(p.languages) != 1 || p.languages[0] != "bn" {
		t.Fatalf("unexpected persisted languages %v", p.languages)
	}
}

func TestHydrateDoesNotPersist(t *testing.T) {
	p := &recordingPersister{}
	store := New(WithPersister(p))
	_ = store.Dispatch(context.Background(), Hydrate(Persisted{BuyerToken: "b", Language: "en"}))

	if len(p.tokens) != 0 || len(p.languages) != 0 {
		t.Fatalf("hydrate must not write back: %v %v", p.tokens, p.languages)
	}
	if store.Language() != "en" || store.Token(enums.RoleBuyer) != "b" {
		t.Fatal("hydrate did not load values")
	}
}

func TestPersistFailureKeepsStateAndReportsError(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	store := New(WithPersister(p))

	err := store.Dispatch(context.Background(), SetToken(enums.RoleBuyer, "tok"))
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if store.Token(enums.RoleBuyer) != "tok" {
		t.Fatal("in-memory token should still be set")
	}
}

// stallingPersister blocks each write until released or until ctx expires.
type stallingPersister struct {
	entered chan struct{}
	release chan struct{}
}

func (p *stallingPersister) wait(ctx context.Context) error {
	p.entered <- struct{}{}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *stallingPersister) SaveToken(ctx context.Context, _ enums.Role, _ string) error {
	return p.wait(ctx)
}

func (p *stallingPersister) SaveLanguage(ctx context.Context, _ string) error {
	return p.wait(ctx)
}

func TestSlowPersistDoesNotBlockReaders(t *testing.T) {
	p := &stallingPersister{entered: make(chan struct{}, 1), release: make(chan struct{})}
	store := New(WithPersister(p))

	done := make(chan error, 1)
	go func() { done <- store.Dispatch(context.Background(), SetToken(enums.RoleSeller, "tok")) }()
	<-p.entered

	read := make(chan string, 1)
	go func() { read <- store.Token(enums.RoleSeller) }()
	select {
	case got := <-read:
		if got != "tok" {
			t.Fatalf("expected the new token while it is being written, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader blocked behind a token-store write")
	}

	close(p.release)
	if err := <-done; err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestPersistIsBoundedByTimeout(t *testing.T) {
	p := &stallingPersister{entered: make(chan struct{}, 1), release: make(chan struct{})}
	store := New(WithPersister(p), WithPersistTimeout(20*time.Millisecond))

	err := store.Dispatch(context.Background(), SetLanguage("bn"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if store.Language() != "bn" {
		t.Fatal("in-memory language should still be set")
	}
}

func TestCancelledContextIsRefused(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Dispatch(ctx, SetCartCount(5)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.Snapshot().CartCount != 0 {
		t.Fatal("stale dispatch must not mutate state")
	}
}

func TestSubscribe(t *testing.T) {
	store := New()
	var seen []int
	unsubscribe := store.Subscribe(func(s State) { seen = append(seen, s.CartCount) })

	_ = store.Dispatch(context.Background(), SetCartCount(1))
	_ = store.Dispatch(context.Background(), IncrementCartCount())
	unsubscribe()
	unsubscribe()
	_ = store.Dispatch(context.Background(), IncrementCartCount())

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

func TestConcurrentDispatchIsAtomic(t *testing.T) {
	store := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Dispatch(context.Background(), IncrementCartCount())
		}()
	}
	wg.Wait()
	if got := store.Snapshot().CartCount; got != 50 {
		t.Fatalf("expected 50 increments, got %d", got)
	}
}
