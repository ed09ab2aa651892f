package state

import "github.com/angelmondragon/marketplace-client/pkg/enums"

// IsAuthenticated reports whether role holds a non-empty token.
func IsAuthenticated(s State, role enums.Role) bool {
	return s.token(role) != ""
}

func IsBuyerAuthenticated(s State) bool {
	return IsAuthenticated(s, enums.RoleBuyer)
}

func IsSellerAuthenticated(s State) bool {
	return IsAuthenticated(s, enums.RoleSeller)
}

func InWishlist(s State, productID int64) bool {
	_, ok := s.wishlist[productID]
	return ok
}

func WishlistSize(s State) int {
	return len(s.wishlistOrder)
}

// WishlistItems returns the entries in insertion order.
func WishlistItems(s State) []WishlistItem {
	out := make([]WishlistItem, 0, len(s.wishlistOrder))
	for _, id := range s.wishlistOrder {
		out = append(out, s.wishlist[id])
	}
	return out
}

// WishlistEntry looks up one entry.
func WishlistEntry(s State, productID int64) (WishlistItem, bool) {
	item, ok := s.wishlist[productID]
	return item, ok
}
