package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
)

// Snapshot is what was persisted by a previous run.
type Snapshot struct {
	BuyerToken  string
	SellerToken string
	UserType    enums.Role
	Language    string
}

// Token returns the stored token for role.
func (s Snapshot) Token(role enums.Role) string {
	switch role {
	case enums.RoleBuyer:
		return s.BuyerToken
	case enums.RoleSeller:
		return s.SellerToken
	}
	return ""
}

// Persister writes state-store credential changes through to a Store.
type Persister struct {
	store Store
}

func NewPersister(store Store) *Persister {
	return &Persister{store: store}
}

// TokenKey maps a role onto its persisted key.
func TokenKey(role enums.Role) (string, error) {
	switch role {
	case enums.RoleBuyer:
		return KeyBuyerToken, nil
	case enums.RoleSeller:
		return KeySellerToken, nil
	}
	return "", fmt.Errorf("invalid role %q", role)
}

// SaveToken stores token for role and marks role as the last signed-in type.
// An empty token deletes the key; if role was the active user type it falls
// back to the other role when that one still holds a token.
func (p *Persister) SaveToken(ctx context.Context, role enums.Role, token string) error {
	key, err := TokenKey(role)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token != "" {
		if err := p.store.Set(ctx, key, token); err != nil {
			return err
		}
		return p.store.Set(ctx, KeyUserType, role.String())
	}

	if err := p.store.Delete(ctx, key); err != nil {
		return err
	}
	active, err := p.get(ctx, KeyUserType)
	if err != nil {
		return err
	}
	if active != role.String() {
		return nil
	}
	otherKey, _ := TokenKey(role.Other())
	otherToken, err := p.get(ctx, otherKey)
	if err != nil {
		return err
	}
	if otherToken != "" {
		return p.store.Set(ctx, KeyUserType, role.Other().String())
	}
	return p.store.Delete(ctx, KeyUserType)
}

// SaveLanguage persists the UI language; empty clears it.
func (p *Persister) SaveLanguage(ctx context.Context, language string) error {
	language = strings.TrimSpace(language)
	if language == "" {
		return p.store.Delete(ctx, KeyLanguage)
	}
	return p.store.Set(ctx, KeyLanguage, language)
}

// Load reads every persisted key. Missing keys come back empty; read failures
// are combined so one bad key does not hide another.
func (p *Persister) Load(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		errs error
	)
	read := func(key string, dest *string) {
		value, err := p.get(ctx, key)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		*dest = value
	}

	var userType string
	read(KeyBuyerToken, &snap.BuyerToken)
	read(KeySellerToken, &snap.SellerToken)
	read(KeyUserType, &userType)
	read(KeyLanguage, &snap.Language)

	if role, err := enums.ParseRole(userType); err == nil {
		snap.UserType = role
	}
	return snap, errs
}

func (p *Persister) get(ctx context.Context, key string) (string, error) {
	value, err := p.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return value, err
}
