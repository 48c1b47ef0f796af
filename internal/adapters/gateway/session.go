package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
	"judokit/internal/observability"
)

const (
	LiveEndpoint    = "https://gw1.judopay.com/"
	SandboxEndpoint = "https://gw1.judopay-sandbox.com/"

	DefaultAPIVersion = "5.0.0"
	DefaultTimeout    = 30 * time.Second
	SDKVersion        = "1.0.0"

	maxResponseBytes = 4 << 20
)

// UIClientMode tells the gateway whether the hosted UI or a custom front-end
// collected the card. It only affects a header.
type UIClientMode string

const (
	UIClientModeSDK    UIClientMode = "Judo-SDK"
	UIClientModeCustom UIClientMode = "Custom-UI"
)

var _ ports.Gateway = (*Session)(nil)

// snapshot is the immutable configuration a request is sent with.
type snapshot struct {
	sandboxed  bool
	endpoint   string
	authHeader string
	uiMode     UIClientMode
}

// Session sends requests to the judo REST API. Configuration changes publish
// a new snapshot; requests already in flight keep the one they started with.
type Session struct {
	cfg     atomic.Pointer[snapshot]
	writeMu sync.Mutex

	live       string
	sandbox    string
	apiVersion string
	userAgent  string
	timeout    time.Duration

	hc         *http.Client
	classifier *Classifier
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(hc *http.Client) Option { return func(s *Session) { s.hc = hc } }

// WithTimeout bounds every request. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithEndpoints overrides the live and sandbox base URLs.
func WithEndpoints(live, sandbox string) Option {
	return func(s *Session) {
		s.live = withTrailingSlash(live)
		s.sandbox = withTrailingSlash(sandbox)
	}
}

func WithAPIVersion(v string) Option {
	return func(s *Session) {
		if v != "" {
			s.apiVersion = v
		}
	}
}

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// NewSession returns a live-mode session without credentials.
func NewSession(opts ...Option) *Session {
	s := &Session{
		live:       LiveEndpoint,
		sandbox:    SandboxEndpoint,
		apiVersion: DefaultAPIVersion,
		userAgent:  fmt.Sprintf("JudoKit-Go/%s (%s; %s/%s)", SDKVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH),
		timeout:    DefaultTimeout,
		classifier: NewClassifier(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hc == nil {
		s.hc = &http.Client{Transport: observability.NewTracingTransport(http.DefaultTransport)}
	}
	s.cfg.Store(&snapshot{endpoint: s.live, uiMode: UIClientModeCustom})
	return s
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

func (s *Session) update(fn func(*snapshot)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	next := *s.cfg.Load()
	fn(&next)
	s.cfg.Store(&next)
}

// SetSandboxed switches between the sandbox and the live gateway.
func (s *Session) SetSandboxed(enabled bool) {
	s.update(func(c *snapshot) {
		c.sandboxed = enabled
		if enabled {
			c.endpoint = s.sandbox
		} else {
			c.endpoint = s.live
		}
	})
}

// SetCredentials stores the Basic auth header for token and secret.
func (s *Session) SetCredentials(token, secret string) {
	header := ""
	if token != "" && secret != "" {
		header = "Basic " + base64.StdEncoding.EncodeToString([]byte(token+":"+secret))
	}
	s.update(func(c *snapshot) { c.authHeader = header })
}

func (s *Session) SetUIClientMode(mode UIClientMode) {
	s.update(func(c *snapshot) { c.uiMode = mode })
}

func (s *Session) Sandboxed() bool { return s.cfg.Load().sandboxed }

// HasCredentials reports whether SetCredentials was given a token and secret.
func (s *Session) HasCredentials() bool { return s.cfg.Load().authHeader != "" }

// Endpoint returns the base URL requests are currently sent to.
func (s *Session) Endpoint() string { return s.cfg.Load().endpoint }

func (s *Session) Get(ctx context.Context, path string, query url.Values) (domain.Outcome, error) {
	return s.do(ctx, http.MethodGet, path, query, nil)
}

func (s *Session) Post(ctx context.Context, path string, body map[string]any) (domain.Outcome, error) {
	return s.do(ctx, http.MethodPost, path, nil, body)
}

func (s *Session) Put(ctx context.Context, path string, body map[string]any) (domain.Outcome, error) {
	return s.do(ctx, http.MethodPut, path, nil, body)
}

func (s *Session) do(ctx context.Context, method, path string, query url.Values, body map[string]any) (domain.Outcome, error) {
	snap := s.cfg.Load()
	if snap.authHeader == "" {
		return domain.Outcome{}, &domain.ConfigurationError{Reason: "credentials are not set"}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return domain.Outcome{}, &domain.SerializationError{Err: err}
		}
		reader = bytes.NewReader(b)
	}

	u := snap.endpoint + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return domain.Outcome{}, &domain.ConfigurationError{Reason: fmt.Sprintf("build request: %v", err)}
	}
	s.setHeaders(req, snap)

	route := routeOf(path)
	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		netErr := &domain.NetworkError{Err: err, Timeout: isTimeout(err)}
		observability.ObserveGatewayCall(method, route, outcomeLabel(netErr), time.Since(start))
		s.logger.Warn("gateway request failed", "method", method, "route", route, "timeout", netErr.Timeout, "error", err)
		return domain.Outcome{}, netErr
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	out, err := s.classifier.Classify(resp.StatusCode, raw, readErr)

	elapsed := time.Since(start)
	observability.ObserveGatewayCall(method, route, outcomeLabel(err), elapsed)
	s.logger.Debug("gateway request completed",
		"method", method,
		"route", route,
		"status", resp.StatusCode,
		"sandboxed", snap.sandboxed,
		"duration_ms", elapsed.Milliseconds(),
		"challenge", out.ChallengeRequired(),
	)
	return out, err
}

func (s *Session) setHeaders(req *http.Request, snap *snapshot) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("API-Version", s.apiVersion)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Sdk-Version", SDKVersion)
	req.Header.Set("UI-Client-Mode", string(snap.uiMode))
	req.Header.Set("Authorization", snap.authHeader)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// routeOf replaces the receipt id in a path with a placeholder so metric
// labels stay bounded.
func routeOf(path string) string {
	path = strings.TrimPrefix(path, "/")
	prefix := domain.ReceiptsPath + "/"
	if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" && strings.Trim(rest, "0123456789") == "" {
		return prefix + "{receiptId}"
	}
	return path
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		apiErr   *domain.APIError
		netErr   *domain.NetworkError
		serErr   *domain.SerializationError
		parseErr *domain.ResponseParseError
	)
	switch {
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &netErr):
		if netErr.Timeout {
			return "timeout"
		}
		return "network_error"
	case errors.As(err, &serErr):
		return "serialization_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	}
	return "error"
}
