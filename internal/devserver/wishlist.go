package devserver

import (
	"github.com/angelmondragon/marketplace-client/internal/state"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

// AlreadyInWishlistMessage is the text the mobile apps match on.
const AlreadyInWishlistMessage = "Already in your wishlist"

func (b *Backend) Wishlist(buyerID int64) []state.WishlistItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.wishlists[buyerID]
	out := make([]state.WishlistItem, 0, len(ids))
	for _, id := range ids {
		p, ok := b.products[id]
		if !ok {
			continue
		}
		out = append(out, state.WishlistItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Discount:  p.Discount,
			Thumbnail: p.Thumbnail,
			Stock:     p.Stock,
		})
	}
	return out
}

// AddToWishlist answers ALREADY_EXISTS for a product that is already liked.
func (b *Backend) AddToWishlist(buyerID, productID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.products[productID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	for _, id := range b.wishlists[buyerID] {
		if id == productID {
			return pkgerrors.New(pkgerrors.CodeAlreadyExists, AlreadyInWishlistMessage)
		}
	}
	b.wishlists[buyerID] = append(b.wishlists[buyerID], productID)
	return nil
}

func (b *Backend) RemoveFromWishlist(buyerID, productID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.wishlists[buyerID]
	for i, id := range ids {
		if id == productID {
			b.wishlists[buyerID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in your wishlist")
}
