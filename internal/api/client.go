package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/five82/shelf/internal/session"
)

// Session is the part of the session manager the client depends on.
type Session interface {
	Token() string
	Expirer
}

// Options configure a Client.
type Options struct {
	BaseURL           string
	Session           Session
	Logger            *slog.Logger
	Timeout           time.Duration // per request; zero uses 15s
	LookupTimeout     time.Duration // returned-issue lookups; zero uses 10s
	RequestsPerSecond float64       // zero disables limiting
	Burst             int
	UserAgent         string
	HTTPClient        *http.Client
	Now               func() time.Time
}

// Client talks to the library API. Every protected call goes through one
// pipeline that attaches the bearer token and hands authorization failures
// to the Guard.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	userAgent     string
	session       Session
	guard         *Guard
	limiter       *rate.Limiter
	inflight      singleflight.Group
	logger        *slog.Logger
	timeout       time.Duration
	lookupTimeout time.Duration
	now           func() time.Time
}

const (
	defaultAPIURL        = "127.0.0.1:3000"
	defaultUserAgent     = "shelf/0.1"
	defaultTimeout       = 15 * time.Second
	defaultLookupTimeout = 10 * time.Second
	maxBodyBytes         = 64 << 20
)

// NewClient builds a Client for opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	userAgent := opts.UserAgent
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	lookupTimeout := opts.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLookupTimeout
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:       base,
		http:          httpClient,
		userAgent:     userAgent,
		session:       opts.Session,
		guard:         NewGuard(opts.Session, logger),
		limiter:       rate.NewLimiter(limit, burst),
		logger:        logger,
		timeout:       timeout,
		lookupTimeout: lookupTimeout,
		now:           now,
	}, nil
}

// Guard returns the client's authorization guard.
func (c *Client) Guard() *Guard { return c.guard }

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	public      bool
	payload     any
	body        []byte
	contentType string
	timeout     time.Duration
}

type envelope struct {
	Status       *bool           `json:"Status"`
	Error        json.RawMessage `json:"Error"`
	Unauthorized bool            `json:"Unauthorized"`
}

type response struct {
	body        []byte
	contentType string
	env         envelope
}

func (c *Client) execute(ctx context.Context, cl call) (response, error) {
	if c == nil {
		return response{}, fmt.Errorf("client is nil")
	}
	if cl.public {
		return c.roundTrip(ctx, cl, "")
	}

	var token string
	if c.session != nil {
		token = c.session.Token()
	}
	if token == "" {
		return response{}, ErrNotAuthenticated
	}
	if session.Expired(token, c.now()) {
		c.guard.Trip(token)
		return response{}, ErrUnauthorized
	}

	if cl.method != http.MethodGet {
		return c.roundTrip(ctx, cl, token)
	}
	// The shared request outlives any one caller; each caller still stops
	// waiting when its own ctx ends.
	key := token + " " + cl.path
	ch := c.inflight.DoChan(key, func() (any, error) {
		return c.roundTrip(context.WithoutCancel(ctx), cl, token)
	})
	select {
	case <-ctx.Done():
		return response{}, &TransportError{Op: cl.op, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("request coalesced", "path", cl.path)
		}
		if res.Err != nil {
			return response{}, res.Err
		}
		return res.Val.(response), nil
	}
}

func (c *Client) roundTrip(ctx context.Context, cl call, token string) (response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return response{}, &TransportError{Op: cl.op, Err: err}
	}

	timeout := cl.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.body != nil:
		body = bytes.NewReader(cl.body)
	case cl.payload != nil:
		encoded, err := json.Marshal(cl.payload)
		if err != nil {
			return response{}, fmt.Errorf("encode %s request: %w", cl.op, err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	rel, err := url.Parse(cl.path)
	if err != nil {
		return response{}, fmt.Errorf("parse path %q: %w", cl.path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL.String(), body)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", cl.op, "method", cl.method, "path", cl.path, "request_id", requestID, "error", err)
		return response{}, &TransportError{Op: cl.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, &TransportError{Op: cl.op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("request complete",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", c.now().Sub(start),
	)

	out := response{body: raw, contentType: resp.Header.Get("Content-Type")}
	if looksLikeJSON(out.contentType, raw) {
		// Non-envelope bodies simply leave env empty.
		_ = json.Unmarshal(raw, &out.env)
	}

	if token != "" && (resp.StatusCode == http.StatusUnauthorized || out.env.Unauthorized) {
		c.guard.Trip(token)
		return response{}, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return response{}, &StatusError{Path: cl.path, Code: resp.StatusCode, Message: errorText(out.env.Error)}
	}
	return out, nil
}

// doJSON runs cl and decodes the body into dest. A Status:false envelope
// becomes a BusinessError.
func (c *Client) doJSON(ctx context.Context, cl call, dest any) error {
	resp, err := c.execute(ctx, cl)
	if err != nil {
		return err
	}
	if resp.env.Status != nil && !*resp.env.Status {
		return &BusinessError{Op: cl.op, Message: errorText(resp.env.Error)}
	}
	if dest == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := decodeInto(resp.body, dest); err != nil {
		return &TransportError{Op: cl.op, Err: err}
	}
	return nil
}

func decodeInto(body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func looksLikeJSON(contentType string, body []byte) bool {
	if strings.Contains(contentType, "json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func errorText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message    string `json:"message"`
		SQLMessage string `json:"sqlMessage"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.SQLMessage != "" {
			return obj.SQLMessage
		}
	}
	return string(raw)
}

func pathID(prefix, id string) string {
	return prefix + "/" + url.PathEscape(strings.TrimSpace(id))
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
