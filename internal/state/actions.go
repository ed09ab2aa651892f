package state

import (
	"context"
	"strings"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
)

// Action is a named mutation. Actions are built only by the constructors in
// this file and applied through Store.Dispatch.
type Action struct {
	name   string
	reduce func(s *State, scopes map[enums.Role][]Scope) []effect
}

// Name identifies the action in logs.
func (a Action) Name() string { return a.name }

type effect func(ctx context.Context, p Persister) error

// SetToken sets or clears (empty token) a role's credential. Clearing also
// resets the role-scoped state configured on the store.
func SetToken(role enums.Role, token string) Action {
	token = strings.TrimSpace(token)
	return Action{
		name: "set_token",
		reduce: func(s *State, scopes map[enums.Role][]Scope) []effect {
			if !role.IsValid() {
				return nil
			}
			s.setToken(role, token)
			if token == "" {
				for _, scope := range scopes[role] {
					scope.clear(s)
				}
			}
			return []effect{func(ctx context.Context, p Persister) error {
				return p.SaveToken(ctx, role, token)
			}}
		},
	}
}

func SetLanguage(language string) Action {
	language = strings.TrimSpace(language)
	return Action{
		name: "set_language",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.Language = language
			return []effect{func(ctx context.Context, p Persister) error {
				return p.SaveLanguage(ctx, language)
			}}
		},
	}
}

// Hydrate loads previously persisted values without writing them back.
func Hydrate(persisted Persisted) Action {
	return Action{
		name: "hydrate",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.BuyerToken = strings.TrimSpace(persisted.BuyerToken)
			s.SellerToken = strings.TrimSpace(persisted.SellerToken)
			s.Language = strings.TrimSpace(persisted.Language)
			return nil
		},
	}
}

func SetCartCount(n int) Action {
	return Action{
		name: "set_cart_count",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.setCartCount(n)
			return nil
		},
	}
}

func IncrementCartCount() Action {
	return Action{
		name: "increment_cart_count",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.setCartCount(s.CartCount + 1)
			return nil
		},
	}
}

func DecrementCartCount() Action {
	return Action{
		name: "decrement_cart_count",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.setCartCount(s.CartCount - 1)
			return nil
		},
	}
}

func ClearCartCount() Action {
	return Action{
		name: "clear_cart_count",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.setCartCount(0)
			return nil
		},
	}
}

// SetWishlist replaces the wishlist; duplicate product ids keep the first entry.
func SetWishlist(items []WishlistItem) Action {
	items = append([]WishlistItem(nil), items...)
	return Action{
		name: "set_wishlist",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.clearWishlist()
			for _, item := range items {
				s.addWishlistItem(item)
			}
			return nil
		},
	}
}

// AddWishlistItem is a no-op when the product is already present.
func AddWishlistItem(item WishlistItem) Action {
	return Action{
		name: "add_wishlist_item",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.addWishlistItem(item)
			return nil
		},
	}
}

func RemoveWishlistItem(productID int64) Action {
	return Action{
		name: "remove_wishlist_item",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.removeWishlistItem(productID)
			return nil
		},
	}
}

func ClearWishlist() Action {
	return Action{
		name: "clear_wishlist",
		reduce: func(s *State, _ map[enums.Role][]Scope) []effect {
			s.clearWishlist()
			return nil
		},
	}
}
