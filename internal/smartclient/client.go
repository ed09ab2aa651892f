package smartclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/marketplace-client/internal/state"
	"github.com/angelmondragon/marketplace-client/pkg/enums"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/metrics"
)

// Doer is the role-scoped transport the wrapper delegates to.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error)
}

// StateReader is read synchronously before every call.
type StateReader interface {
	Snapshot() state.State
}

// PromptFunc shows the sign-in UI for err (modal, navigation, ...).
type PromptFunc func(ctx context.Context, err *AuthRequiredError)

// Notifier is the toast surface used when no prompt is injected.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

type Option func(*Client)

func WithPrompt(fn PromptFunc) Option {
	return func(c *Client) { c.prompt = fn }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) { c.logg = logg }
}

// Client gates every request on its role being authenticated.
type Client struct {
	role     enums.Role
	delegate Doer
	auth     StateReader
	prompt   PromptFunc
	notifier Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger
}

func New(role enums.Role, delegate Doer, auth StateReader, opts ...Option) (*Client, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if delegate == nil {
		return nil, errors.New("delegate client is required")
	}
	if auth == nil {
		return nil, errors.New("state reader is required")
	}
	c := &Client{role: role, delegate: delegate, auth: auth}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) Role() enums.Role { return c.role }

// Authenticated reports whether a call would pass the gate right now.
func (c *Client) Authenticated() bool {
	return state.IsAuthenticated(c.auth.Snapshot(), c.role)
}

// Check runs the gate without sending anything.
func (c *Client) Check() error {
	snap := c.auth.Snapshot()
	if state.IsAuthenticated(snap, c.role) {
		return nil
	}
	c.metrics.IncGated(c.role.String())
	return newAuthRequired(c.role, state.IsAuthenticated(snap, c.role.Other()), c.showPrompt)
}

func (c *Client) Get(ctx context.Context, path string, opts ...httpclient.RequestOption) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, body, opts...)
}

// Do fails fast with *AuthRequiredError when unauthenticated; otherwise it
// makes exactly one delegated call and returns its result untouched.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...httpclient.RequestOption) (*httpclient.Response, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c.delegate.Do(ctx, method, path, body, opts...)
}

func (c *Client) showPrompt(ctx context.Context, err *AuthRequiredError) {
	if c.prompt != nil {
		c.prompt(ctx, err)
		return
	}
	if c.notifier != nil {
		c.notifier.Notify(ctx, err.Message())
		return
	}
	c.logg.Debug(c.logg.WithRole(ctx, c.role.String()), "auth prompt requested without a prompt or notifier")
}
