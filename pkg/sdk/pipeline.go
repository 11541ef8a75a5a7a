package sdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// RequestStage transforms an outbound request before it is sent. Returning
// an error aborts the request.
type RequestStage func(req *http.Request) error

// Exchange is a completed round trip as seen by response stages. Response is
// nil when Err is a transport failure.
type Exchange struct {
	Request  *http.Request
	Endpoint string
	Response *http.Response
	Err      error
	Elapsed  time.Duration
}

// StatusCode returns the response status, or 0 on transport failure.
func (e *Exchange) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// ResponseStage observes an exchange on both success and failure paths.
type ResponseStage func(ex *Exchange)

// Pipeline is an http.RoundTripper running request stages, the base
// transport, then response stages, in the order they were composed.
type Pipeline struct {
	base     http.RoundTripper
	basePath string
	requests []RequestStage
	response []ResponseStage
	clock    Clock
}

var _ http.RoundTripper = (*Pipeline)(nil)

// NewPipeline composes stages around base. basePath is stripped from request
// paths to compute the endpoint handed to response stages.
func NewPipeline(base http.RoundTripper, basePath string, requests []RequestStage, responses []ResponseStage) *Pipeline {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Pipeline{
		base:     base,
		basePath: strings.TrimRight(basePath, "/"),
		requests: requests,
		response: responses,
		clock:    SystemClock(),
	}
}

func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for _, stage := range p.requests {
		if err := stage(out); err != nil {
			return nil, err
		}
	}

	start := p.clock.Now()
	resp, err := p.base.RoundTrip(out)
	ex := &Exchange{
		Request:  out,
		Endpoint: p.endpoint(out),
		Response: resp,
		Err:      err,
		Elapsed:  p.clock.Now().Sub(start),
	}
	for _, stage := range p.response {
		stage(ex)
	}
	return resp, err
}

func (p *Pipeline) endpoint(req *http.Request) string {
	path := strings.TrimPrefix(req.URL.Path, p.basePath)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// BearerStage attaches the token from source unless the request already
// carries an Authorization header. A source without a token leaves the
// request untouched.
func BearerStage(source oauth2.TokenSource) RequestStage {
	return func(req *http.Request) error {
		if source == nil || req.Header.Get("Authorization") != "" {
			return nil
		}
		tok, err := source.Token()
		if err != nil || tok == nil || tok.AccessToken == "" {
			return nil
		}
		tok.SetAuthHeader(req)
		return nil
	}
}

// RequestIDStage tags each request with a fresh X-Request-ID.
func RequestIDStage() RequestStage {
	return func(req *http.Request) error {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		return nil
	}
}

// JSONHeadersStage sets the JSON content negotiation headers.
func JSONHeadersStage() RequestStage {
	return func(req *http.Request) error {
		req.Header.Set("Accept", "application/json")
		if req.Body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		return nil
	}
}

// QuietEndpoints are pre-auth or cosmetic endpoints whose responses must not
// clear in-flight notifications.
var QuietEndpoints = []string{"/logo", "/translations", "/settings", "/entrypoints"}

// ClearNotificationsStage hides the visible notification after every
// exchange whose endpoint is not in quiet.
func ClearNotificationsStage(notifications *NotificationChannel, quiet []string) ResponseStage {
	return func(ex *Exchange) {
		for _, prefix := range quiet {
			if strings.HasPrefix(ex.Endpoint, prefix) {
				return
			}
		}
		notifications.Hide()
	}
}

// UnauthorizedStage terminates the session and navigates to the logout
// route on any 401, whichever endpoint produced it.
func UnauthorizedStage(session *SessionStore, navigator Navigator, metrics *Metrics, log *pterm.Logger) ResponseStage {
	return func(ex *Exchange) {
		if ex.StatusCode() != http.StatusUnauthorized {
			return
		}
		log.Warn("session rejected by server", log.Args("endpoint", ex.Endpoint))
		metrics.unauthorized()
		session.PersistUser(nil)
		if navigator != nil {
			navigator.Navigate(RouteLogout)
		}
	}
}

// MetricsStage records request counts and latency.
func MetricsStage(metrics *Metrics) ResponseStage {
	return func(ex *Exchange) {
		metrics.observeRequest(ex.Request.Method, ex.Endpoint, ex.StatusCode(), ex.Elapsed)
	}
}

// LogStage writes a debug line per exchange.
func LogStage(log *pterm.Logger) ResponseStage {
	return func(ex *Exchange) {
		if ex.Err != nil {
			log.Debug("request failed", log.Args("method", ex.Request.Method, "endpoint", ex.Endpoint, "error", ex.Err))
			return
		}
		log.Debug("request completed", log.Args(
			"method", ex.Request.Method,
			"endpoint", ex.Endpoint,
			"status", ex.StatusCode(),
			"elapsed", ex.Elapsed,
			"request_id", ex.Request.Header.Get("X-Request-ID"),
		))
	}
}
