package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-client/internal/inflight"
	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
)

type call struct {
	method string
	path   string
	body   any
}

type fakeAPI struct {
	mu       sync.Mutex
	calls    []call
	count    int
	lines    string
	failPath string
	block    chan struct{}
	entered  chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{lines: `{"data":[]}`}
}

func (f *fakeAPI) record(method, path string, body any) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{method: method, path: path, body: body})
	block, entered := f.block, f.entered
	fail := f.failPath == path
	f.mu.Unlock()

	if method == http.MethodDelete && block != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-block
	}
	if fail {
		return &httpclient.HTTPError{StatusCode: http.StatusBadRequest, Method: method, Path: path, Body: []byte(`{"message":"Out of stock"}`)}
	}
	return nil
}

func (f *fakeAPI) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func ok(body string) *httpclient.Response {
	return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

func (f *fakeAPI) Get(_ context.Context, path string, _ ...httpclient.RequestOption) (*httpclient.Response, error) {
	if err := f.record(http.MethodGet, path, nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == "cart/count" {
		return ok(fmt.Sprintf(`{"data":{"count":%d}}`, f.count)), nil
	}
	return ok(f.lines), nil
}

func (f *fakeAPI) Post(_ context.Context, path string, body any, _ ...httpclient.RequestOption) (*httpclient.Response, error) {
	if err := f.record(http.MethodPost, path, body); err != nil {
		return nil, err
	}
	return ok(`{}`), nil
}

func (f *fakeAPI) Put(_ context.Context, path string, body any, _ ...httpclient.RequestOption) (*httpclient.Response, error) {
	if err := f.record(http.MethodPut, path, body); err != nil {
		return nil, err
	}
	return ok(`{}`), nil
}

func (f *fakeAPI) Delete(_ context.Context, path string, body any, _ ...httpclient.RequestOption) (*httpclient.Response, error) {
	if err := f.record(http.MethodDelete, path, body); err != nil {
		return nil, err
	}
	return ok(`{}`), nil
}

func newService(t *testing.T, api *fakeAPI) (Service, *state.Store) {
	t.Helper()
	store := state.New()
	svc, err := NewService(api, store, inflight.New(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestFetchDecodesLinesAndSetsCount(t *testing.T) {
	api := newFakeAPI()
	api.lines = `{"data":[{"id":1,"seller_id":3,"price":"100.50","quantity":2,"is_living":true},{"id":2,"seller_id":4,"price":20,"quantity":1}]}`
	svc, store := newService(t, api)

	lines, err := svc.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(lines) != 2 || !lines[0].UnitPrice.Equal(d("100.5")) || !lines[0].IsLiving {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if store.Snapshot().CartCount != 2 {
		t.Fatalf("expected count 2, got %d", store.Snapshot().CartCount)
	}
}

func TestAddResyncsCountFromServer(t *testing.T) {
	api := newFakeAPI()
	api.count = 7
	svc, store := newService(t, api)

	if err := svc.Add(context.Background(), AddInput{ProductID: 3, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if store.Snapshot().CartCount != 7 {
		t.Fatalf("expected server count 7, got %d", store.Snapshot().CartCount)
	}
}

func TestAddValidatesLocally(t *testing.T) {
	api := newFakeAPI()
	svc, _ := newService(t, api)

	err := svc.Add(context.Background(), AddInput{ProductID: 0, Quantity: 0})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.mutations()) != 0 {
		t.Fatal("invalid add must not reach the server")
	}
}

func TestUpdateQuantityOutOfBoundsNeverCallsServer(t *testing.T) {
	api := newFakeAPI()
	svc, _ := newService(t, api)
	line := Line{ID: 5, MinOrderQty: 2, CurrentStock: 4}

	for _, qty := range []int{0, 1, 5, 100} {
		started, err := svc.UpdateQuantity(context.Background(), line, qty)
		if started {
			t.Fatalf("qty %d: update should not start", qty)
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("qty %d: expected validation error, got %v", qty, err)
		}
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no requests, got %+v", api.calls)
	}
}

func TestUpdateQuantitySendsAndResyncs(t *testing.T) {
	api := newFakeAPI()
	api.count = 3
	svc, store := newService(t, api)

	started, err := svc.UpdateQuantity(context.Background(), Line{ID: 5, MinOrderQty: 1, CurrentStock: 9}, 3)
	if err != nil || !started {
		t.Fatalf("unexpected result started=%v err=%v", started, err)
	}
	muts := api.mutations()
	if len(muts) != 1 || muts[0].path != "cart/5" || muts[0].method != http.MethodPut {
		t.Fatalf("unexpected mutations %+v", muts)
	}
	if store.Snapshot().CartCount != 3 {
		t.Fatalf("expected resynced count 3, got %d", store.Snapshot().CartCount)
	}
}

func TestRemoveWhileRemovingIsNoop(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	svc, _ := newService(t, api)
	line := Line{ID: 8, SellerID: 2}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Remove(context.Background(), line)
		done <- err
	}()

	select {
	case <-api.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first removal never reached the server")
	}

	if got := svc.LineState(line); got != enums.LineStateRemoving {
		t.Fatalf("expected removing, got %s", got)
	}
	started, err := svc.Remove(context.Background(), line)
	if started || err != nil {
		t.Fatalf("second removal should be a no-op, got started=%v err=%v", started, err)
	}
	if _, err := svc.UpdateQuantity(context.Background(), Line{ID: 8, MinOrderQty: 1, CurrentStock: 5}, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first removal failed: %v", err)
	}
	if n := len(api.mutations()); n != 1 {
		t.Fatalf("expected exactly one mutation, got %d", n)
	}
	if got := svc.LineState(line); got != enums.LineStatePresent {
		t.Fatalf("expected state to settle, got %s", got)
	}
}

func TestRemoveFailureLeavesLinePresent(t *testing.T) {
	api := newFakeAPI()
	api.failPath = "cart/4"
	api.count = 2
	svc, store := newService(t, api)
	_ = store.Dispatch(context.Background(), state.SetCartCount(2))

	started, err := svc.Remove(context.Background(), Line{ID: 4})
	if !started {
		t.Fatal("expected removal to start")
	}
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected server error, got %v", err)
	}
	if svc.LineState(Line{ID: 4}) != enums.LineStatePresent {
		t.Fatal("failed removal must leave the line present")
	}
	if store.Snapshot().CartCount != 2 {
		t.Fatal("count must not change on failure")
	}
}

func TestRemoveSellerGroup(t *testing.T) {
	api := newFakeAPI()
	svc, _ := newService(t, api)

	started, err := svc.RemoveSellerGroup(context.Background(), 12)
	if err != nil || !started {
		t.Fatalf("unexpected result started=%v err=%v", started, err)
	}
	muts := api.mutations()
	if len(muts) != 1 || muts[0].path != "cart/sellers/12" {
		t.Fatalf("unexpected mutations %+v", muts)
	}
	if svc.GroupState(12) != enums.LineStatePresent {
		t.Fatal("group should be released")
	}
}

func TestLineActionsWaitForSellerGroupRemoval(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	svc, _ := newService(t, api)
	line := Line{ID: 7, SellerID: 3, MinOrderQty: 1, CurrentStock: 5}

	done := make(chan error, 1)
	go func() {
		_, err := svc.RemoveSellerGroup(context.Background(), line.SellerID)
		done <- err
	}()

	select {
	case <-api.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("group removal never reached the server")
	}

	if got := svc.LineState(line); got != enums.LineStateRemoving {
		t.Fatalf("expected removing, got %s", got)
	}
	started, err := svc.Remove(context.Background(), line)
	if started || err != nil {
		t.Fatalf("line removal during group removal should be a no-op, got started=%v err=%v", started, err)
	}
	started, err = svc.UpdateQuantity(context.Background(), line, 2)
	if started || err != nil {
		t.Fatalf("quantity change during group removal should be a no-op, got started=%v err=%v", started, err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("group removal failed: %v", err)
	}
	muts := api.mutations()
	if len(muts) != 1 || muts[0].path != "cart/sellers/3" {
		t.Fatalf("expected only the group delete, got %+v", muts)
	}
	if got := svc.LineState(line); got != enums.LineStatePresent {
		t.Fatalf("expected state to settle, got %s", got)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, state.New(), nil, nil); err == nil {
		t.Fatal("expected error without api")
	}
	if _, err := NewService(newFakeAPI(), nil, nil, nil); err == nil {
		t.Fatal("expected error without dispatcher")
	}
}
