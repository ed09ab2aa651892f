package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/marketplace-client/internal/inflight"
	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/validation"
)

// API is the buyer-scoped transport (normally a *smartclient.Client).
type API interface {
	Get(ctx context.Context, path string, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Post(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Put(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Delete(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

// Dispatcher applies state actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, actions ...state.Action) error
}

// AddInput is the payload for adding a product to the cart.
type AddInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

// Service keeps the cart in sync with the server. Mutations resynchronise the
// cart count from the server afterwards; the server is the arbiter.
type Service interface {
	Fetch(ctx context.Context) ([]Line, error)
	SyncCount(ctx context.Context) (int, error)
	Add(ctx context.Context, input AddInput) error
	UpdateQuantity(ctx context.Context, line Line, qty int) (bool, error)
	Remove(ctx context.Context, line Line) (bool, error)
	RemoveSellerGroup(ctx context.Context, sellerID int64) (bool, error)
	LineState(line Line) enums.LineState
	GroupState(sellerID int64) enums.LineState
}

type service struct {
	api     API
	store   Dispatcher
	tracker *inflight.Tracker
	logg    *logger.Logger
}

// NewService builds a cart service. A nil tracker gets a private one.
func NewService(api API, store Dispatcher, tracker *inflight.Tracker, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("cart api required")
	}
	if store == nil {
		return nil, fmt.Errorf("state dispatcher required")
	}
	if tracker == nil {
		tracker = inflight.New()
	}
	return &service{api: api, store: store, tracker: tracker, logg: logg}, nil
}

type countPayload struct {
	Count int `json:"count"`
}

func lineKey(id int64) string    { return fmt.Sprintf("cart:line:%d", id) }
func sellerKey(id int64) string  { return fmt.Sprintf("cart:seller:%d", id) }
func linePath(id int64) string   { return fmt.Sprintf("cart/%d", id) }
func sellerPath(id int64) string { return fmt.Sprintf("cart/sellers/%d", id) }

func (s *service) Fetch(ctx context.Context) ([]Line, error) {
	resp, err := s.api.Get(ctx, "cart")
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := resp.Decode(&lines); err != nil {
		return nil, err
	}
	if err := s.store.Dispatch(ctx, state.SetCartCount(len(lines))); err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.count.dispatch_failed")
	}
	return lines, nil
}

func (s *service) SyncCount(ctx context.Context) (int, error) {
	resp, err := s.api.Get(ctx, "cart/count")
	if err != nil {
		return 0, err
	}
	var payload countPayload
	if err := resp.Decode(&payload); err != nil {
		return 0, err
	}
	if err := s.store.Dispatch(ctx, state.SetCartCount(payload.Count)); err != nil {
		return payload.Count, err
	}
	return payload.Count, nil
}

func (s *service) Add(ctx context.Context, input AddInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if _, err := s.api.Post(ctx, "cart", input); err != nil {
		return err
	}
	s.resync(ctx)
	return nil
}

// acquireLine marks a line busy unless it or its seller group already has an
// operation in flight.
func (s *service) acquireLine(line Line, op enums.LineState) (func(), bool) {
	return s.tracker.TryAcquireUnder(lineKey(line.ID), op.String(), sellerKey(line.SellerID))
}

// UpdateQuantity validates locally before any request. ok is false when the
// line or its seller group already has an operation in flight.
func (s *service) UpdateQuantity(ctx context.Context, line Line, qty int) (bool, error) {
	if err := ValidateQuantity(line, qty); err != nil {
		return false, err
	}
	release, ok := s.acquireLine(line, enums.LineStateUpdating)
	if !ok {
		return false, nil
	}
	defer release()

	if _, err := s.api.Put(ctx, linePath(line.ID), map[string]int{"quantity": qty}); err != nil {
		return true, err
	}
	s.resync(ctx)
	return true, nil
}

// Remove deletes one line. A call while the line or its seller group is
// being changed is a no-op that returns false and sends nothing.
func (s *service) Remove(ctx context.Context, line Line) (bool, error) {
	release, ok := s.acquireLine(line, enums.LineStateRemoving)
	if !ok {
		return false, nil
	}
	defer release()

	if _, err := s.api.Delete(ctx, linePath(line.ID), nil); err != nil {
		return true, err
	}
	s.resync(ctx)
	return true, nil
}

// RemoveSellerGroup deletes every line sold by sellerID in one request.
func (s *service) RemoveSellerGroup(ctx context.Context, sellerID int64) (bool, error) {
	release, ok := s.tracker.TryAcquireTagged(sellerKey(sellerID), enums.LineStateRemoving.String())
	if !ok {
		return false, nil
	}
	defer release()

	if _, err := s.api.Delete(ctx, sellerPath(sellerID), nil); err != nil {
		return true, err
	}
	s.resync(ctx)
	return true, nil
}

// LineState reports the line's own operation, or removing when its whole
// seller group is being removed.
func (s *service) LineState(line Line) enums.LineState {
	if tag, busy := s.tracker.Tag(lineKey(line.ID)); busy {
		return enums.LineState(tag)
	}
	return s.GroupState(line.SellerID)
}

func (s *service) GroupState(sellerID int64) enums.LineState {
	if _, busy := s.tracker.Tag(sellerKey(sellerID)); busy {
		return enums.LineStateRemoving
	}
	return enums.LineStatePresent
}

// resync refreshes the count after a mutation. The mutation already
// succeeded, so a failed refresh is logged rather than returned.
func (s *service) resync(ctx context.Context) {
	if _, err := s.SyncCount(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.count.resync_failed")
	}
}
