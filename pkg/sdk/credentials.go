package sdk

// Session represents the authenticated principal tracked by the client.
// It is persisted as JSON under the session storage key.
type Session struct {
	Authenticated       bool   `json:"authenticated"`
	Username            string `json:"username"`
	Token               string `json:"token"`
	TokenExpirationTime int64  `json:"tokenExpirationTime"` // unix seconds
	ID                  string `json:"id"`
	Amka                string `json:"amka,omitempty"` // secondary profile attribute (social security number)
	Role                string `json:"role,omitempty"`
}

// LoggedOutSession returns the default logged-out Session.
func LoggedOutSession() Session {
	return Session{}
}

// ProfilePatch carries the identity fields that may change without a new login.
type ProfilePatch struct {
	ID       string `json:"id"`
	Amka     string `json:"amka,omitempty"`
	Username string `json:"username"`
}
