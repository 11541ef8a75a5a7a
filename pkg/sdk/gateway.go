package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// Call describes one API request relative to the gateway's base URL.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Bearer overrides the session token for this call (verification and reset links).
	Bearer string
}

// GatewayOption customizes the gateway pipeline.
type GatewayOption func(*gatewayConfig)

type gatewayConfig struct {
	tokenSource    oauth2.TokenSource
	extraRequests  []RequestStage
	extraResponses []ResponseStage
	quiet          []string
}

// WithTokenSource replaces the session-backed token source, e.g. with an
// ephemeral oauth2.StaticTokenSource.
func WithTokenSource(source oauth2.TokenSource) GatewayOption {
	return func(c *gatewayConfig) {
		c.tokenSource = source
	}
}

// WithRequestStages appends request stages after the built-in ones.
func WithRequestStages(stages ...RequestStage) GatewayOption {
	return func(c *gatewayConfig) {
		c.extraRequests = append(c.extraRequests, stages...)
	}
}

// WithResponseStages appends response stages after the built-in ones.
func WithResponseStages(stages ...ResponseStage) GatewayOption {
	return func(c *gatewayConfig) {
		c.extraResponses = append(c.extraResponses, stages...)
	}
}

// WithQuietEndpoints replaces the endpoints exempt from notification clearing.
func WithQuietEndpoints(prefixes ...string) GatewayOption {
	return func(c *gatewayConfig) {
		c.quiet = prefixes
	}
}

// Gateway issues API calls through the interception pipeline.
type Gateway struct {
	baseURL *url.URL
	client  *http.Client
	log     *pterm.Logger
}

// NewGateway builds the gateway for baseURL. The pipeline is, in order:
// JSON headers, request id, bearer token; then metrics, logging,
// notification clearing, and the 401 handler.
func NewGateway(
	baseURL string,
	session *SessionStore,
	notifications *NotificationChannel,
	navigator Navigator,
	opts Options,
	gwOpts ...GatewayOption,
) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", baseURL)
	}

	cfg := gatewayConfig{quiet: QuietEndpoints}
	if session != nil {
		cfg.tokenSource = session.TokenSource()
	}
	for _, fn := range gwOpts {
		fn(&cfg)
	}

	requests := []RequestStage{
		JSONHeadersStage(),
		RequestIDStage(),
		BearerStage(cfg.tokenSource),
	}
	requests = append(requests, cfg.extraRequests...)

	responses := []ResponseStage{
		MetricsStage(opts.Metrics),
		LogStage(opts.Logger),
	}
	if notifications != nil {
		responses = append(responses, ClearNotificationsStage(notifications, cfg.quiet))
	}
	if session != nil {
		responses = append(responses, UnauthorizedStage(session, navigator, opts.Metrics, opts.Logger))
	}
	responses = append(responses, cfg.extraResponses...)

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	client := *base
	client.Transport = NewPipeline(base.Transport, u.Path, requests, responses)

	return &Gateway{
		baseURL: u,
		client:  &client,
		log:     opts.Logger,
	}, nil
}

// BaseURL returns the configured API base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL.String()
}

// HTTPClient exposes the intercepted client for callers needing raw access.
func (g *Gateway) HTTPClient() *http.Client {
	return g.client
}

// Do performs call and decodes a JSON response into out when out is non-nil.
// Non-2xx responses are returned as *APIError.
func (g *Gateway) Do(ctx context.Context, call Call, out any) error {
	req, err := g.newRequest(ctx, call)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", call.Method, call.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", call.Method, call.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Path: call.Path}
		if len(bytes.TrimSpace(data)) > 0 {
			// Bodies that are not the structured shape still yield the status.
			_ = json.Unmarshal(data, apiErr)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", call.Method, call.Path, err)
	}
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u := g.baseURL.JoinPath(strings.TrimPrefix(call.Path, "/"))
	if len(call.Query) > 0 {
		u.RawQuery = call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", call.Method, call.Path, err)
	}
	if call.Bearer != "" {
		(&oauth2.Token{AccessToken: call.Bearer, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}
