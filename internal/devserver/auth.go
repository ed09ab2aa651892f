package devserver

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-client/internal/session"
	"github.com/angelmondragon/marketplace-client/pkg/auth"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

const invalidCredentialsMessage = "invalid credentials"

// Principal is the authenticated caller of a role route.
type Principal struct {
	UserID int64
	Role   enums.Role
	JTI    string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// createAccount hashes outside the lock; argon2 is slow on purpose.
func (b *Backend) createAccount(role enums.Role, name, email, phone, password string) (int64, error) {
	hash, err := b.hasher.Hash(password)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	key := normalizeEmail(email)
	if _, taken := b.emails[role][key]; taken {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	acct := &account{id: b.id(), role: role, name: strings.TrimSpace(name), email: key, phone: phone, passwordHash: hash}
	b.accounts[acct.id] = acct
	b.emails[role][key] = acct.id
	return acct.id, nil
}

func (b *Backend) Register(ctx context.Context, role enums.Role, reg session.Registration) (*session.AuthResult, error) {
	id, err := b.createAccount(role, reg.Name, reg.Email, reg.Phone, reg.Password)
	if err != nil {
		return nil, err
	}
	b.logg.Info(b.logg.WithFields(ctx, map[string]any{"user_id": id, "role": role.String()}), "devserver.account.registered")
	return b.issue(role, id)
}

func (b *Backend) Login(ctx context.Context, role enums.Role, creds session.Credentials) (*session.AuthResult, error) {
	b.mu.Lock()
	id, ok := b.emails[role][normalizeEmail(creds.Email)]
	var hash string
	if ok {
		hash = b.accounts[id].passwordHash
	}
	b.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	match, err := b.hasher.Verify(creds.Password, hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return b.issue(role, id)
}

func (b *Backend) issue(role enums.Role, id int64) (*session.AuthResult, error) {
	token, err := auth.MintAccessToken(b.cfg, b.now(), auth.AccessTokenPayload{UserID: id, Role: role, JTI: uuid.NewString()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.accounts[id]
	return &session.AuthResult{
		Token: token,
		User:  session.User{ID: acct.id, Name: acct.name, Email: acct.email},
	}, nil
}

// Authenticate checks that token is a live token of role for an existing account.
func (b *Backend) Authenticate(role enums.Role, token string) (Principal, error) {
	claims, err := auth.ParseAccessToken(b.cfg, token)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.Role != role {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "token was issued for another role")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, gone := b.revoked[claims.ID]; gone {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended")
	}
	acct, ok := b.accounts[claims.UserID]
	if !ok || acct.role != role {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
	}
	return Principal{UserID: claims.UserID, Role: claims.Role, JTI: claims.ID}, nil
}

// Logout revokes the token's id.
func (b *Backend) Logout(p Principal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[p.JTI] = struct{}{}
}

// DeleteAccount drops the account and everything it owns.
func (b *Backend) DeleteAccount(ctx context.Context, p Principal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[p.UserID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	delete(b.emails[acct.role], acct.email)
	delete(b.accounts, acct.id)
	delete(b.carts, acct.id)
	delete(b.wishlists, acct.id)
	delete(b.addresses, acct.id)
	b.revoked[p.JTI] = struct{}{}
	b.logg.Info(b.logg.WithFields(ctx, map[string]any{"user_id": acct.id, "role": acct.role.String()}), "devserver.account.deleted")
	return nil
}
