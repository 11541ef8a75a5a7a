package client

import (
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
	"github.com/manolisziCy/sports/pkg/sdk/sdktest/stubtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Storage(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{name: "file", settings: Settings{Storage: StorageFile, StorageDir: t.TempDir()}},
		{name: "default is file", settings: Settings{StorageDir: t.TempDir()}},
		{name: "memory", settings: Settings{Storage: StorageMemory}},
		{name: "redis", settings: Settings{Storage: StorageRedis, RedisURL: "redis://" + mr.Addr()}},
		{name: "redis without url", settings: Settings{Storage: StorageRedis}, wantErr: true},
		{name: "unknown", settings: Settings{Storage: "cookies"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(tt.settings)
			t.Cleanup(func() { _ = p.Close() })

			store, err := p.Storage(t.Context())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, store.Set("probe", []byte("1")))
		})
	}
}

func TestProvider_SessionSharedThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	stub := sdktest.NewServer(sdktest.Options{})
	stub.AddUser("a@b.com", "x", sdktest.StatusActive, "user")
	apiURL := stubtest.Start(t, stub)

	settings := Settings{APIURL: apiURL, Storage: StorageRedis, RedisURL: "redis://" + mr.Addr()}

	first := NewProvider(settings)
	t.Cleanup(func() { _ = first.Close() })
	c, err := first.SDKClient(t.Context())
	require.NoError(t, err)
	require.NoError(t, c.Login(t.Context(), sdk.LoginRequest{Username: "a@b.com", Password: "x"}))
	require.True(t, c.Session.IsLoggedIn())

	second := NewProvider(settings)
	t.Cleanup(func() { _ = second.Close() })
	other, err := second.SDKClient(t.Context())
	require.NoError(t, err)
	assert.Equal(t, c.Session.Snapshot(), other.Session.Snapshot())
}

func TestProvider_EphemeralToken(t *testing.T) {
	stub := sdktest.NewServer(sdktest.Options{})
	stub.AddUser("admin@b.com", "x", sdktest.StatusActive, sdk.RoleAdmin)
	apiURL := stubtest.Start(t, stub)
	dir := t.TempDir()

	token := stub.IssueToken("admin@b.com", "", time.Now().Add(time.Hour))
	p := NewProvider(Settings{APIURL: apiURL, Storage: StorageFile, StorageDir: dir})
	p.SetBearerToken(token)
	t.Cleanup(func() { _ = p.Close() })

	c, err := p.SDKClient(t.Context())
	require.NoError(t, err)
	assert.True(t, c.Session.IsLoggedIn())
	assert.Equal(t, "admin@b.com", c.Session.Username())
	assert.Equal(t, sdk.RoleAdmin, c.Session.Role())

	users := c.GetUsers(t.Context(), sdk.ListCriteria{Limit: 10, Forward: true})
	assert.Len(t, users, 1)

	reqs := stub.Requests()
	require.NotEmpty(t, reqs)
	assert.Equal(t, "Bearer "+token, reqs[len(reqs)-1].Authorization)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files, "ephemeral sessions never reach the durable store")
}

func TestProvider_EphemeralTokenNotJWT(t *testing.T) {
	p := NewProvider(Settings{APIURL: "http://localhost:8080/api"})
	p.SetBearerToken("opaque")
	c, err := p.SDKClient(t.Context())
	require.NoError(t, err)
	assert.False(t, c.Session.IsLoggedIn())
}

func TestProvider_InvalidAPIURL(t *testing.T) {
	p := NewProvider(Settings{APIURL: "localhost", Storage: StorageMemory})
	_, err := p.SDKClient(t.Context())
	assert.Error(t, err)

	// The error sticks for the lifetime of the provider.
	_, err = p.SDKClient(t.Context())
	assert.Error(t, err)
}
