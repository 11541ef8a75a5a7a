package sdk

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpirySafetyMargin is subtracted from a token's exp claim before it is
// considered usable. It absorbs clock skew and in-flight request latency.
const ExpirySafetyMargin = 60 * time.Second

// Claims is the decoded payload of a bearer credential issued by the accounts API.
type Claims struct {
	jwt.RegisteredClaims
	// Upn is the subject identity (the account's email).
	Upn    string   `json:"upn,omitempty"`
	UserID string   `json:"userId,omitempty"`
	Action string   `json:"action,omitempty"`
	Role   string   `json:"role,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// Expiration returns the exp claim in unix seconds, or 0 when absent.
func (c *Claims) Expiration() int64 {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// PrimaryRole returns the role claim, falling back to the first group.
func (c *Claims) PrimaryRole() string {
	if c == nil {
		return ""
	}
	if c.Role != "" {
		return c.Role
	}
	if len(c.Groups) > 0 {
		return c.Groups[0]
	}
	return ""
}

// TokenClock decodes bearer credentials and evaluates their expiry against a Clock.
// It never verifies signatures: the server remains the authority, the client
// only needs to know when a token is no longer worth sending.
type TokenClock struct {
	clock  Clock
	margin time.Duration
	parser *jwt.Parser
}

// NewTokenClock builds a TokenClock using the given clock. A nil clock means SystemClock.
func NewTokenClock(clock Clock) *TokenClock {
	if clock == nil {
		clock = SystemClock()
	}
	return &TokenClock{
		clock:  clock,
		margin: ExpirySafetyMargin,
		parser: jwt.NewParser(),
	}
}

// Now returns the current time of the underlying clock.
func (tc *TokenClock) Now() time.Time {
	return tc.clock.Now()
}

// Decode splits the token into its three segments and parses the claim set
// carried in the middle one. Malformed input yields nil.
func (tc *TokenClock) Decode(token string) *Claims {
	if token == "" {
		return nil
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	// The header is not consulted, so tokens with an unknown alg still decode.
	payload, err := tc.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil
	}
	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil
	}
	return claims
}

// HasExpired reports whether an exp claim (unix seconds) is absent or falls
// within the safety margin of now.
func (tc *TokenClock) HasExpired(exp int64) bool {
	if exp == 0 {
		return true
	}
	return exp <= tc.clock.Now().Add(tc.margin).Unix()
}

// Valid decodes the token and reports whether it is well formed and unexpired.
func (tc *TokenClock) Valid(token string) (*Claims, bool) {
	claims := tc.Decode(token)
	if claims == nil || tc.HasExpired(claims.Expiration()) {
		return claims, false
	}
	return claims, true
}
