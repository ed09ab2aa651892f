package wishlist

import (
	"context"
	"fmt"

	"github.com/angelmondragon/marketplace-client/internal/inflight"
	"github.com/angelmondragon/marketplace-client/internal/state"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// API is the buyer-scoped transport.
type API interface {
	Get(ctx context.Context, path string, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Post(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Delete(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

// Store is the state the wishlist reads and mutates.
type Store interface {
	Dispatch(ctx context.Context, actions ...state.Action) error
	Snapshot() state.State
}

// Service exposes wishlist operations kept in step with the state store.
type Service interface {
	Fetch(ctx context.Context) ([]state.WishlistItem, error)
	Add(ctx context.Context, item state.WishlistItem) error
	Remove(ctx context.Context, productID int64) error
	Toggle(ctx context.Context, item state.WishlistItem) (bool, error)
}

type service struct {
	api     API
	store   Store
	tracker *inflight.Tracker
	logg    *logger.Logger
}

// NewService builds a wishlist service backed by the provided stack.
func NewService(api API, store Store, tracker *inflight.Tracker, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("wishlist api required")
	}
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if tracker == nil {
		tracker = inflight.New()
	}
	return &service{api: api, store: store, tracker: tracker, logg: logg}, nil
}

func productKey(id int64) string { return fmt.Sprintf("wishlist:%d", id) }

func validProduct(id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Choose a product to save.").
			WithDetails(map[string]any{"product_id": id})
	}
	return nil
}

func (s *service) Fetch(ctx context.Context) ([]state.WishlistItem, error) {
	resp, err := s.api.Get(ctx, "wishlist")
	if err != nil {
		return nil, err
	}
	var items []state.WishlistItem
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}
	if err := s.store.Dispatch(ctx, state.SetWishlist(items)); err != nil {
		return nil, err
	}
	return state.WishlistItems(s.store.Snapshot()), nil
}

// Add inserts locally only after the server accepts, or reports the product
// is already there.
func (s *service) Add(ctx context.Context, item state.WishlistItem) error {
	if err := validProduct(item.ProductID); err != nil {
		return err
	}
	_, err := s.api.Post(ctx, "wishlist", map[string]int64{"product_id": item.ProductID})
	if err != nil && !IsAlreadyInWishlist(err) {
		return err
	}
	if err != nil {
		s.logg.Debug(s.logg.WithField(ctx, "product_id", item.ProductID), "wishlist.add.already_present")
	}
	return s.store.Dispatch(ctx, state.AddWishlistItem(item))
}

// Remove deletes locally first and restores the entry if the server refuses.
func (s *service) Remove(ctx context.Context, productID int64) error {
	if err := validProduct(productID); err != nil {
		return err
	}
	previous, existed := state.WishlistEntry(s.store.Snapshot(), productID)
	if err := s.store.Dispatch(ctx, state.RemoveWishlistItem(productID)); err != nil {
		return err
	}

	_, err := s.api.Delete(ctx, fmt.Sprintf("wishlist/%d", productID), nil)
	if err == nil {
		return nil
	}
	if existed {
		if restoreErr := s.store.Dispatch(context.WithoutCancel(ctx), state.AddWishlistItem(previous)); restoreErr != nil {
			s.logg.Error(ctx, "wishlist.remove.restore_failed", restoreErr)
		}
	}
	return err
}

// Toggle adds or removes item and returns whether it ends up liked. A toggle
// on a product with one already in flight is ignored.
func (s *service) Toggle(ctx context.Context, item state.WishlistItem) (bool, error) {
	liked := state.InWishlist(s.store.Snapshot(), item.ProductID)
	release, ok := s.tracker.TryAcquire(productKey(item.ProductID))
	if !ok {
		return liked, nil
	}
	defer release()

	if liked {
		if err := s.Remove(ctx, item.ProductID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Add(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}
