package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	defaultLoginPath    = "login/"
	defaultRegisterPath = "register/"
	defaultUserAgent    = "authflow"

	maxResponseBytes = 1 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL is the service root, e.g. "https://chat.example.com/api/".
	// Endpoint paths are resolved relative to it.
	BaseURL      string
	LoginPath    string
	RegisterPath string
	// Timeout bounds a whole request including reading the body. Zero means none.
	Timeout time.Duration
	// RequestsPerSecond throttles outbound requests when > 0.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client calls the identity service. It is safe for concurrent use.
type Client struct {
	loginURL    string
	registerURL string
	http        *http.Client
	limiter     *rate.Limiter
	userAgent   string
	requestID   func() string
	logger      *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient uses hc as transport. When hc has no cookie jar the client installs
// its own on a copy; hc itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		cp := *hc
		if cp.Jar == nil {
			cp.Jar = c.http.Jar
		}
		c.http = &cp
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestIDFunc overrides how request identifiers are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = defaultLoginPath
	}
	registerPath := cfg.RegisterPath
	if registerPath == "" {
		registerPath = defaultRegisterPath
	}
	loginURL, err := resolve(base, loginPath)
	if err != nil {
		return nil, err
	}
	registerURL, err := resolve(base, registerPath)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("%w: RequestsPerSecond must be >= 0", ErrInvalidConfig)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		loginURL:    loginURL,
		registerURL: registerURL,
		http:        &http.Client{Jar: jar, Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		requestID:   newRequestID,
		logger:      slog.Default(),
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: BaseURL: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: BaseURL scheme must be http or https", ErrInvalidConfig)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: BaseURL host is required", ErrInvalidConfig)
	}
	// Treat the base as a directory so "login/" lands beneath it.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

func resolve(base *url.URL, path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: endpoint path %q: %v", ErrInvalidConfig, path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Jar returns the cookie jar holding the service's ambient credentials.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Login submits credentials as JSON to the login endpoint.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	raw, err := c.do(ctx, "login", c.loginURL, "application/json", body)
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeObject(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register submits the registration form as multipart/form-data.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	body, contentType, err := encodeRegistration(req)
	if err != nil {
		return nil, fmt.Errorf("encode register request: %w", err)
	}

	raw, err := c.do(ctx, "register", c.registerURL, contentType, body)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeObject(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, target, contentType string, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = c.requestID()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("identity request failed", "op", op, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	c.logger.Debug("identity request",
		"op", op,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRemoteError(resp.StatusCode, requestID, raw)
	}
	return raw, nil
}

func newRemoteError(status int, requestID string, raw []byte) *RemoteError {
	e := &RemoteError{StatusCode: status, RequestID: requestID}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return e
	}
	e.Code, _ = fields["error"].(string)
	e.Message, _ = fields["message"].(string)
	return e
}

func decodeObject(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrMalformedResponse
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, typeErr.Field, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
