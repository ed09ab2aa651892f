package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/metrics"
)

const (
	defaultTimeout        = 20 * time.Second
	defaultLanguageHeader = "lang"
	requestIDHeader       = "X-Request-Id"
	responseBodyLimit     = 4 << 20
)

var errBaseURLRequired = errors.New("base url is required")

// Credentials exposes the values a role-scoped client attaches to every request.
type Credentials interface {
	Token(role enums.Role) string
	Language() string
}

// Options configures a role-scoped client.
type Options struct {
	Role           enums.Role
	BaseURL        string
	HTTPClient     *http.Client
	Credentials    Credentials
	Logger         *logger.Logger
	Metrics        *metrics.ClientMetrics
	UserAgent      string
	LanguageHeader string
}

// Client issues requests against one role's API surface using that role's
// bearer token. Buyer and seller clients are independent; a device can hold
// both tokens at once.
type Client struct {
	role           enums.Role
	baseURL        *url.URL
	httpClient     *http.Client
	credentials    Credentials
	logg           *logger.Logger
	metrics        *metrics.ClientMetrics
	userAgent      string
	languageHeader string
}

// New builds a role-scoped client.
func New(opts Options) (*Client, error) {
	if !opts.Role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", opts.Role)
	}
	trimmed := strings.TrimSpace(opts.BaseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(trimmed, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	client := &Client{
		role:           opts.Role,
		baseURL:        base,
		httpClient:     opts.HTTPClient,
		credentials:    opts.Credentials,
		logg:           opts.Logger,
		metrics:        opts.Metrics,
		userAgent:      opts.UserAgent,
		languageHeader: opts.LanguageHeader,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.languageHeader == "" {
		client.languageHeader = defaultLanguageHeader
	}
	return client, nil
}

// Role returns the role the client is scoped to.
func (c *Client) Role() enums.Role {
	return c.role
}

// RequestOption customises a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	query   url.Values
	headers http.Header
}

// WithQuery appends query parameters to the request URL.
func WithQuery(values url.Values) RequestOption {
	return func(rc *requestConfig) {
		for key, vals := range values {
			for _, v := range vals {
				rc.query.Add(key, v)
			}
		}
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers.Set(key, value)
	}
}

// CollectQuery returns the query values opts would add to a request.
func CollectQuery(opts ...RequestOption) url.Values {
	rc := requestConfig{query: url.Values{}, headers: http.Header{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&rc)
		}
	}
	return rc.query
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, body, opts...)
}

// Do sends one request. Non-2xx answers come back as *HTTPError; the client
// never retries.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "api client not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rc := requestConfig{query: url.Values{}, headers: http.Header{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&rc)
		}
	}

	target, err := c.resolve(path, rc.query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request path")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	c.decorate(req, body != nil, rc.headers)

	reqID := req.Header.Get(requestIDHeader)
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"role":       c.role.String(),
		"method":     method,
		"path":       req.URL.Path,
		"request_id": reqID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(c.role.String(), method, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logg.Warn(logCtx, "api.request.transport_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(c.role.String(), method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response body")
	}

	c.logg.Debug(c.logg.WithFields(logCtx, map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
	}), "api.request.complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       req.URL.Path,
			Body:       raw,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       raw,
	}, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	rel, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	if rel.IsAbs() || rel.Host != "" {
		return "", fmt.Errorf("path %q must be relative to the role base url", path)
	}
	target := c.baseURL.ResolveReference(rel)
	if len(query) > 0 {
		merged := target.Query()
		for key, vals := range query {
			for _, v := range vals {
				merged.Add(key, v)
			}
		}
		target.RawQuery = merged.Encode()
	}
	return target.String(), nil
}

func (c *Client) decorate(req *http.Request, hasBody bool, extra http.Header) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.credentials != nil {
		if token := strings.TrimSpace(c.credentials.Token(c.role)); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if lang := strings.TrimSpace(c.credentials.Language()); lang != "" {
			req.Header.Set(c.languageHeader, lang)
		}
	}
	for key, vals := range extra {
		req.Header.Del(key)
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
}
