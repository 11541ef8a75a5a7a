package sdk

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
	"github.com/manolisziCy/sports/pkg/sdk/sdktest/stubtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expireSoon rewrites the session so its token expires within the refresh threshold.
func expireSoon(t *testing.T, h *harness, in time.Duration) string {
	t.Helper()
	session := h.client.Session.Snapshot()
	exp := h.clock.Now().Add(in)
	session.Token = h.stub.IssueToken(session.Username, "", exp)
	session.TokenExpirationTime = exp.Unix()
	h.client.Session.PersistUser(&session)
	return session.Token
}

func TestRefreshToken_SkipsWhenLoggedOut(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, RefreshSkippedLoggedOut, h.client.RefreshToken(t.Context()))
	assert.Zero(t, h.stub.CountRequests(http.MethodPost, "/users/refresh"))
}

func TestRefreshToken_SkipsFreshToken(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	expireSoon(t, h, 700*time.Second)

	assert.Equal(t, RefreshSkippedFresh, h.client.RefreshToken(t.Context()))
	assert.Zero(t, h.stub.CountRequests(http.MethodPost, "/users/refresh"))
}

func TestRefreshToken_CommitsNearExpiry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	h := newHarness(t, WithMetrics(metrics))
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	old := expireSoon(t, h, 5*time.Minute)
	generation := h.client.Session.Generation()

	assert.Equal(t, RefreshCommitted, h.client.RefreshToken(t.Context()))

	session := h.client.Session.Snapshot()
	assert.NotEqual(t, old, session.Token)
	assert.Greater(t, session.TokenExpirationTime, h.clock.Now().Add(RefreshThreshold).Unix())
	assert.Equal(t, "a@b.com", session.Username)
	assert.Equal(t, generation, h.client.Session.Generation())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RefreshTotal.WithLabelValues(string(RefreshCommitted))))

	var persisted Session
	data, err := h.storage.Get(SessionKey(DefaultKeyPrefix))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, session, persisted)
}

func TestRefreshToken_DiscardedAfterLogout(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	expireSoon(t, h, 5*time.Minute)

	fresh := h.stub.IssueToken("a@b.com", "", h.clock.Now().Add(time.Hour))
	h.stub.Override(h.stub.BasePath()+"/users/refresh", func(w http.ResponseWriter, _ *http.Request) {
		// The user logs out while the refresh is in flight.
		h.client.Session.PersistUser(nil)
		_ = json.NewEncoder(w).Encode(map[string]any{"username": "a@b.com", "token": fresh})
	})

	assert.Equal(t, RefreshDiscarded, h.client.RefreshToken(t.Context()))
	assert.False(t, h.client.Session.IsLoggedIn())
	_, err := h.storage.Get(SessionKey(DefaultKeyPrefix))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshToken_DiscardedAfterRelogin(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.stub.AddUser("c@d.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	expireSoon(t, h, 5*time.Minute)

	stale := h.stub.IssueToken("a@b.com", "", h.clock.Now().Add(time.Hour))
	var other Session
	h.stub.Override(h.stub.BasePath()+"/users/refresh", func(w http.ResponseWriter, _ *http.Request) {
		exp := h.clock.Now().Add(time.Hour)
		other = Session{Authenticated: true, Username: "c@d.com", Token: h.stub.IssueToken("c@d.com", "", exp), TokenExpirationTime: exp.Unix(), ID: "2"}
		h.client.Session.PersistUser(&other)
		_ = json.NewEncoder(w).Encode(map[string]any{"username": "a@b.com", "token": stale})
	})

	assert.Equal(t, RefreshDiscarded, h.client.RefreshToken(t.Context()))
	assert.Equal(t, other, h.client.Session.Snapshot())
}

func TestRefreshToken_FailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	token := expireSoon(t, h, 5*time.Minute)

	h.stub.Override(h.stub.BasePath()+"/users/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	assert.Equal(t, RefreshFailed, h.client.RefreshToken(t.Context()))
	assert.Equal(t, token, h.client.Session.Token())

	h.stub.Override(h.stub.BasePath()+"/users/refresh", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "garbage"})
	})
	assert.Equal(t, RefreshFailed, h.client.RefreshToken(t.Context()))
	assert.Equal(t, token, h.client.Session.Token())
}

func TestRefreshToken_RejectedRefreshEndsSession(t *testing.T) {
	h := newHarness(t)
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	expireSoon(t, h, 5*time.Minute)

	h.stub.Override(h.stub.BasePath()+"/users/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.Equal(t, RefreshFailed, h.client.RefreshToken(t.Context()))
	assert.False(t, h.client.Session.IsLoggedIn())
	assert.Equal(t, RouteLogout, h.routes.Current())
}

func TestScheduleRefreshToken(t *testing.T) {
	h := newHarness(t, WithRefreshInterval(10*time.Millisecond))
	h.stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	h.login(t, "a@b.com", "x")
	old := expireSoon(t, h, 5*time.Minute)

	schedule := h.client.ScheduleRefreshToken(t.Context())

	require.Eventually(t, func() bool {
		return h.client.Session.Token() != old
	}, 2*time.Second, 5*time.Millisecond, "the first attempt runs without waiting for a tick")
	assert.Equal(t, 1, h.stub.CountRequests(http.MethodPost, "/users/refresh"))

	expireSoon(t, h, 5*time.Minute)
	require.Eventually(t, func() bool {
		return h.stub.CountRequests(http.MethodPost, "/users/refresh") >= 2
	}, 2*time.Second, 5*time.Millisecond)

	h.client.Logout()
	select {
	case <-schedule.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("refresh schedule still running after logout")
	}

	count := h.stub.CountRequests(http.MethodPost, "/users/refresh")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, h.stub.CountRequests(http.MethodPost, "/users/refresh"))
	assert.False(t, h.client.Session.IsLoggedIn())
}

func TestScheduleRefreshToken_ReplacesPrevious(t *testing.T) {
	h := newHarness(t, WithRefreshInterval(time.Hour))

	first := h.client.ScheduleRefreshToken(t.Context())
	second := h.client.ScheduleRefreshToken(t.Context())

	select {
	case <-first.Done():
	default:
		t.Fatal("first schedule should have been stopped")
	}

	h.client.Close()
	select {
	case <-second.Done():
	case <-time.After(time.Second):
		t.Fatal("close did not stop the schedule")
	}
	second.Stop()
}

func TestScheduleRefreshToken_LogoutFromNavigatorOnRejectedRefresh(t *testing.T) {
	stub := sdktest.NewServer(sdktest.Options{})
	stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")

	var c *Client
	navigator := NavigatorFunc(func(route string) {
		if route == RouteLogout {
			c.Logout()
		}
	})
	c, err := NewClient(stubtest.Start(t, stub), NewMemoryStorage(), navigator, []Option{
		WithLogger(quietLogger()),
		WithRefreshInterval(10 * time.Millisecond),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Login(t.Context(), LoginRequest{Username: "a@b.com", Password: "x"}))
	require.True(t, c.Session.IsLoggedIn())

	session := c.Session.Snapshot()
	exp := time.Now().Add(5 * time.Minute)
	session.Token = stub.IssueToken(session.Username, "", exp)
	session.TokenExpirationTime = exp.Unix()
	c.Session.PersistUser(&session)

	stub.Override(stub.BasePath()+"/users/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	started := make(chan *RefreshSchedule, 1)
	go func() { started <- c.ScheduleRefreshToken(t.Context()) }()

	var schedule *RefreshSchedule
	select {
	case schedule = <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("ScheduleRefreshToken blocked")
	}
	select {
	case <-schedule.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("refresh loop did not exit after logout")
	}
	assert.False(t, c.Session.IsLoggedIn())
	assert.Equal(t, 1, stub.CountRequests(http.MethodPost, "/users/refresh"))
}
