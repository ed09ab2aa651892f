package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/internal/tokenstore"
	"github.com/angelmondragon/marketplace-client/pkg/auth"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/validation"
)

// API is the subset of a role client used by the auth flows.
type API interface {
	Post(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
	Delete(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

// Dispatcher applies state actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, actions ...state.Action) error
}

// Loader reads what the token store holds at launch and deletes stale tokens.
type Loader interface {
	Load(ctx context.Context) (tokenstore.Snapshot, error)
	SaveToken(ctx context.Context, role enums.Role, token string) error
}

// Service runs sign-in, sign-out and launch rehydration for both roles.
type Service interface {
	Login(ctx context.Context, role enums.Role, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, role enums.Role, reg Registration) (*AuthResult, error)
	Logout(ctx context.Context, role enums.Role) error
	DeleteAccount(ctx context.Context, role enums.Role) error
	Rehydrate(ctx context.Context) (state.Persisted, error)
	SetLanguage(ctx context.Context, language string) error
}

// ServiceParams bundles the dependencies of a session service. Clients are
// the plain role clients (login must work signed out); Gated are the
// auth-gated wrappers used for account operations.
type ServiceParams struct {
	Clients map[enums.Role]API
	Gated   map[enums.Role]API
	Store   Dispatcher
	Loader  Loader
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	clients map[enums.Role]API
	gated   map[enums.Role]API
	store   Dispatcher
	loader  Loader
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	for _, role := range enums.Roles() {
		if params.Clients[role] == nil {
			return nil, fmt.Errorf("%s client is required", role)
		}
		if params.Gated[role] == nil {
			return nil, fmt.Errorf("%s gated client is required", role)
		}
	}
	if params.Store == nil {
		return nil, fmt.Errorf("state dispatcher is required")
	}
	if params.Loader == nil {
		return nil, fmt.Errorf("token loader is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		clients: params.Clients,
		gated:   params.Gated,
		store:   params.Store,
		loader:  params.Loader,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Login(ctx context.Context, role enums.Role, creds Credentials) (*AuthResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, role, "auth/login", creds)
}

func (s *service) Register(ctx context.Context, role enums.Role, reg Registration) (*AuthResult, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, role, "auth/register", reg)
}

func (s *service) authenticate(ctx context.Context, role enums.Role, path string, body any) (*AuthResult, error) {
	client, err := s.client(role)
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	var result AuthResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth response did not include a token")
	}
	if err := s.store.Dispatch(ctx, state.SetToken(role, result.Token)); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithRole(ctx, role.String()), "session.signed_in")
	return &result, nil
}

// Logout tells the server best-effort and always clears the local token.
func (s *service) Logout(ctx context.Context, role enums.Role) error {
	client, err := s.client(role)
	if err != nil {
		return err
	}
	if _, err := client.Post(ctx, "auth/logout", nil); err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"role":  role.String(),
			"error": err.Error(),
		}), "session.logout.server_failed")
	}
	return s.store.Dispatch(context.WithoutCancel(ctx), state.SetToken(role, ""))
}

func (s *service) DeleteAccount(ctx context.Context, role enums.Role) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	if _, err := s.gated[role].Delete(ctx, "account", nil); err != nil {
		return err
	}
	return s.store.Dispatch(context.WithoutCancel(ctx), state.SetToken(role, ""))
}

// Rehydrate loads persisted tokens and language into state. JWTs already past
// their exp are removed from the token store instead of being restored.
func (s *service) Rehydrate(ctx context.Context) (state.Persisted, error) {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return state.Persisted{}, err
	}

	now := s.now()
	var cleanup error
	for _, role := range enums.Roles() {
		token := snap.Token(role)
		if token == "" || !auth.Expired(token, now) {
			continue
		}
		s.logg.Info(s.logg.WithRole(ctx, role.String()), "session.rehydrate.token_expired")
		cleanup = multierr.Append(cleanup, s.loader.SaveToken(ctx, role, ""))
		switch role {
		case enums.RoleBuyer:
			snap.BuyerToken = ""
		case enums.RoleSeller:
			snap.SellerToken = ""
		}
	}
	if cleanup != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", cleanup.Error()), "session.rehydrate.cleanup_failed")
	}

	persisted := state.Persisted{
		BuyerToken:  snap.BuyerToken,
		SellerToken: snap.SellerToken,
		Language:    snap.Language,
	}
	if err := s.store.Dispatch(ctx, state.Hydrate(persisted)); err != nil {
		return state.Persisted{}, err
	}
	return persisted, nil
}

func (s *service) SetLanguage(ctx context.Context, language string) error {
	language = strings.TrimSpace(language)
	if err := validation.Var("language", language, "omitempty,bcp47_language_tag"); err != nil {
		return err
	}
	return s.store.Dispatch(ctx, state.SetLanguage(language))
}

func (s *service) client(role enums.Role) (API, error) {
	client, ok := s.clients[role]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	return client, nil
}
