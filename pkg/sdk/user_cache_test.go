package sdk

import (
	"net/http"
	"testing"
	"time"

	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminHarness(t *testing.T, optFns ...Option) *harness {
	t.Helper()
	h := newHarness(t, optFns...)
	h.stub.AddUser("admin@example.com", "secret", sdktest.StatusActive, RoleAdmin)
	h.stub.AddUser("player@example.com", "secret", sdktest.StatusActive, "user")
	h.login(t, "admin@example.com", "secret")
	return h
}

func TestUserCache_ServesWithinTTL(t *testing.T) {
	h := adminHarness(t)
	criteria := ListCriteria{Limit: 10, Forward: true}

	first := h.client.GetUsers(t.Context(), criteria)
	second := h.client.GetUsers(t.Context(), criteria)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.stub.CountRequests(http.MethodGet, "/users"))
}

func TestUserCache_RefetchesAfterTTL(t *testing.T) {
	h := adminHarness(t, WithCacheTTL(time.Minute))
	criteria := ListCriteria{Limit: 10, Forward: true}

	h.client.GetUsers(t.Context(), criteria)
	h.clock.Advance(time.Minute)
	h.stub.AddUser("late@example.com", "secret", sdktest.StatusPending, "user")
	users := h.client.GetUsers(t.Context(), criteria)

	assert.Len(t, users, 3)
	assert.Equal(t, 2, h.stub.CountRequests(http.MethodGet, "/users"))
}

func TestUserCache_FailureKeepsPreviousListing(t *testing.T) {
	h := adminHarness(t, WithCacheTTL(time.Minute))
	criteria := ListCriteria{Limit: 10, Forward: true}

	before := h.client.GetUsers(t.Context(), criteria)
	require.Len(t, before, 2)

	h.clock.Advance(2 * time.Minute)
	h.stub.Override(h.stub.BasePath()+"/users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	after := h.client.GetUsers(t.Context(), criteria)
	assert.Equal(t, before, after)
	assert.Equal(t, Notification{Kind: NotificationShow, Type: AlertError, MessageKey: MsgErrorLoadingAllUsers}, h.notes.lastShown())
	assert.True(t, h.client.Session.IsLoggedIn())
}

func TestUserCache_InvalidateAndPersistence(t *testing.T) {
	h := adminHarness(t)
	h.client.GetUsers(t.Context(), ListCriteria{Limit: 10, Forward: true})

	_, err := h.storage.Get(UserListKey(DefaultKeyPrefix))
	require.NoError(t, err)

	restored := NewUserCache(h.client.Gateway, h.storage, h.client.Notifications, h.client.Options)
	assert.Equal(t, h.client.Users.Snapshot(), restored.Snapshot())

	h.client.Users.Invalidate()
	snap := h.client.Users.Snapshot()
	assert.Empty(t, snap.Users)
	assert.NotNil(t, snap.Users)
	assert.Zero(t, snap.ExpirationTime)
	_, err = h.storage.Get(UserListKey(DefaultKeyPrefix))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserCache_SurvivesLogoutUntilInvalidated(t *testing.T) {
	h := adminHarness(t)
	h.client.GetUsers(t.Context(), ListCriteria{Limit: 10, Forward: true})

	// Session storage and the listing are independent records.
	h.client.Session.PersistUser(nil)
	assert.NotEmpty(t, h.client.Users.Snapshot().Users)

	h.client.Logout()
	assert.Empty(t, h.client.Users.Snapshot().Users)
}

func TestUserCache_CorruptRecord(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(UserListKey(DefaultKeyPrefix), []byte("[[[")))

	opts := NewOptions(WithLogger(quietLogger()))
	cache := NewUserCache(nil, storage, NewNotificationChannel(), opts)

	snap := cache.Snapshot()
	assert.Equal(t, []UserRecord{}, snap.Users)
	assert.Zero(t, snap.ExpirationTime)
}
