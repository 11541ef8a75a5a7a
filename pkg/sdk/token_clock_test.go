package sdk

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenClock_HasExpired(t *testing.T) {
	clock := newFakeClock()
	tc := NewTokenClock(clock)
	now := clock.Now().Unix()

	tests := []struct {
		name string
		exp  int64
		want bool
	}{
		{name: "unset", exp: 0, want: true},
		{name: "already past", exp: now - 10, want: true},
		{name: "inside margin", exp: now + 30, want: true},
		{name: "exactly at margin", exp: now + 60, want: true},
		{name: "just past margin", exp: now + 61, want: false},
		{name: "an hour out", exp: now + 3600, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tc.HasExpired(tt.exp))
		})
	}
}

func TestTokenClock_Decode(t *testing.T) {
	clock := newFakeClock()
	tc := NewTokenClock(clock)

	t.Run("malformed", func(t *testing.T) {
		assert.Nil(t, tc.Decode("not-a-jwt"))
		assert.Nil(t, tc.Decode(""))
	})

	t.Run("claims", func(t *testing.T) {
		exp := clock.Now().Add(time.Hour)
		token := signToken(t, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "a@b.com", ExpiresAt: jwt.NewNumericDate(exp)},
			Upn:              "a@b.com",
			UserID:           "7",
			Groups:           []string{"admin", "user"},
		})

		claims := tc.Decode(token)
		require.NotNil(t, claims)
		assert.Equal(t, "a@b.com", claims.Upn)
		assert.Equal(t, "7", claims.UserID)
		assert.Equal(t, exp.Unix(), claims.Expiration())
		assert.Equal(t, "admin", claims.PrimaryRole())
	})

	t.Run("header alg is ignored", func(t *testing.T) {
		exp := clock.Now().Add(time.Hour).Unix()
		for _, header := range []string{`{"typ":"JWT"}`, `{"alg":"XX512","typ":"JWT"}`, `not json`} {
			payload := fmt.Sprintf(`{"upn":"a@b.com","exp":%d}`, exp)
			token := segment(header) + "." + segment(payload) + ".sig"

			claims := tc.Decode(token)
			require.NotNil(t, claims, header)
			assert.Equal(t, "a@b.com", claims.Upn)
			assert.Equal(t, exp, claims.Expiration())
		}
	})

	t.Run("payload must be a json object", func(t *testing.T) {
		assert.Nil(t, tc.Decode(segment(`{}`)+"."+segment(`[1]`)+".sig"))
		assert.Nil(t, tc.Decode(segment(`{}`)+".%%%.sig"))
		assert.Nil(t, tc.Decode(segment(`{}`)+"."+segment(`{}`)))
	})

	t.Run("signature is not verified", func(t *testing.T) {
		token := tokenExpiringAt(t, "a@b.com", clock.Now().Add(time.Hour))
		_, ok := tc.Valid(token)
		assert.True(t, ok)
	})
}

func TestTokenClock_Valid(t *testing.T) {
	clock := newFakeClock()
	tc := NewTokenClock(clock)
	token := tokenExpiringAt(t, "a@b.com", clock.Now().Add(2*time.Minute))

	_, ok := tc.Valid(token)
	assert.True(t, ok)

	clock.Advance(time.Minute)
	claims, ok := tc.Valid(token)
	assert.False(t, ok, "token within the safety margin must be rejected")
	assert.NotNil(t, claims)
}

func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
