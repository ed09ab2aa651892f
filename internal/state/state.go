package state

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
)

// WishlistItem is the denormalised product snapshot kept per wishlist entry.
type WishlistItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	Thumbnail string          `json:"thumbnail"`
	Stock     int             `json:"current_stock"`
}

// State is an immutable view of the store. Values returned by Store.Snapshot
// are copies; mutating them has no effect on the store.
type State struct {
	BuyerToken  string
	SellerToken string
	Language    string
	CartCount   int

	wishlistOrder []int64
	wishlist      map[int64]WishlistItem
}

// Persisted is the subset of state that survives restarts.
type Persisted struct {
	BuyerToken  string
	SellerToken string
	Language    string
}

func (s State) clone() State {
	out := s
	out.wishlistOrder = append([]int64(nil), s.wishlistOrder...)
	out.wishlist = make(map[int64]WishlistItem, len(s.wishlist))
	for id, item := range s.wishlist {
		out.wishlist[id] = item
	}
	return out
}

func (s State) token(role enums.Role) string {
	switch role {
	case enums.RoleBuyer:
		return s.BuyerToken
	case enums.RoleSeller:
		return s.SellerToken
	}
	return ""
}

func (s *State) setToken(role enums.Role, token string) {
	switch role {
	case enums.RoleBuyer:
		s.BuyerToken = token
	case enums.RoleSeller:
		s.SellerToken = token
	}
}

func (s *State) setCartCount(n int) {
	if n < 0 {
		n = 0
	}
	s.CartCount = n
}

func (s *State) addWishlistItem(item WishlistItem) {
	if s.wishlist == nil {
		s.wishlist = make(map[int64]WishlistItem)
	}
	if _, exists := s.wishlist[item.ProductID]; exists {
		return
	}
	s.wishlist[item.ProductID] = item
	s.wishlistOrder = append(s.wishlistOrder, item.ProductID)
}

func (s *State) removeWishlistItem(productID int64) {
	if _, exists := s.wishlist[productID]; !exists {
		return
	}
	delete(s.wishlist, productID)
	for i, id := range s.wishlistOrder {
		if id == productID {
			s.wishlistOrder = append(s.wishlistOrder[:i], s.wishlistOrder[i+1:]...)
			break
		}
	}
}

func (s *State) clearWishlist() {
	s.wishlistOrder = nil
	s.wishlist = make(map[int64]WishlistItem)
}
