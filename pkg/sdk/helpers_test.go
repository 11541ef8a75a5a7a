package sdk

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
	"github.com/manolisziCy/sports/pkg/sdk/sdktest/stubtest"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard)
}

// signToken builds an HS256 token; the client never verifies signatures.
func signToken(t testing.TB, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func tokenExpiringAt(t testing.TB, upn string, exp time.Time) string {
	return signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: upn, ExpiresAt: jwt.NewNumericDate(exp)},
		Upn:              upn,
	})
}

type noteRecorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *noteRecorder) record(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// shown returns the show events in order.
func (r *noteRecorder) shown() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.notes {
		if n.Kind == NotificationShow {
			out = append(out, n)
		}
	}
	return out
}

func (r *noteRecorder) lastShown() Notification {
	shown := r.shown()
	if len(shown) == 0 {
		return Notification{}
	}
	return shown[len(shown)-1]
}

type harness struct {
	stub    *sdktest.Server
	client  *Client
	storage *MemoryStorage
	routes  *RouteRecorder
	clock   *fakeClock
	notes   *noteRecorder
}

func newHarness(t *testing.T, optFns ...Option) *harness {
	t.Helper()
	stub := sdktest.NewServer(sdktest.Options{})
	baseURL := stubtest.Start(t, stub)

	clock := newFakeClock()
	storage := NewMemoryStorage()
	routes := &RouteRecorder{}
	opts := append([]Option{WithClock(clock), WithLogger(quietLogger())}, optFns...)

	client, err := NewClient(baseURL, storage, routes, opts)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	notes := &noteRecorder{}
	client.Notifications.Subscribe(notes.record)

	return &harness{stub: stub, client: client, storage: storage, routes: routes, clock: clock, notes: notes}
}

// login signs username in through the stub.
func (h *harness) login(t *testing.T, username, password string) {
	t.Helper()
	require.NoError(t, h.client.Login(t.Context(), LoginRequest{Username: username, Password: password}))
	require.True(t, h.client.Session.IsLoggedIn(), "login failed: %+v", h.notes.shown())
}
