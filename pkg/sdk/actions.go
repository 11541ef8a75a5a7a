package sdk

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pterm/pterm"
)

// Actions orchestrates the account flows over the gateway and the stores.
//
// Each flow announces progress, calls the API, commits state, notifies and
// navigates. Transport and business failures are converted into
// notifications and logged; only local validation failures (a malformed or
// expired link token, invalid input) are returned as errors, before any
// network call is made.
type Actions struct {
	gateway       *Gateway
	session       *SessionStore
	users         *UserCache
	notifications *NotificationChannel
	navigator     Navigator
	tokens        *TokenClock
	validate      *validator.Validate
	metrics       *Metrics
	log           *pterm.Logger
	lang          string
	interval      time.Duration

	mu       sync.Mutex
	schedule *RefreshSchedule
}

// NewActions wires the flows. navigator may be nil when navigation is not observed.
func NewActions(
	gateway *Gateway,
	session *SessionStore,
	users *UserCache,
	notifications *NotificationChannel,
	navigator Navigator,
	opts Options,
) *Actions {
	if navigator == nil {
		navigator = NavigatorFunc(func(string) {})
	}
	return &Actions{
		gateway:       gateway,
		session:       session,
		users:         users,
		notifications: notifications,
		navigator:     navigator,
		tokens:        NewTokenClock(opts.Clock),
		validate:      newValidator(),
		metrics:       opts.Metrics,
		log:           opts.Logger,
		lang:          opts.Lang,
		interval:      opts.RefreshInterval,
	}
}

// Login authenticates and, on a usable token, commits the session and
// navigates home.
func (a *Actions) Login(ctx context.Context, credentials LoginRequest) error {
	a.notifications.Info(MsgPleaseWait)
	if err := a.validateInput(credentials); err != nil {
		a.notifications.Error(MsgLoginError)
		return err
	}

	var resp LoginResponse
	if err := a.gateway.Do(ctx, Call{Method: http.MethodPost, Path: "/users/login", Body: credentials}, &resp); err != nil {
		a.log.Error("error logging in", a.log.Args("username", credentials.Username, "error", err))
		if IsPendingAccount(err) {
			a.notifications.Error(MsgPendingAccountError)
		} else {
			a.notifications.Error(MsgLoginError)
		}
		return nil
	}

	if resp.Token == "" {
		a.notifications.Error(MsgLoginError)
		return nil
	}
	claims, ok := a.tokens.Valid(resp.Token)
	if !ok {
		a.log.Warn("login returned an unusable token", a.log.Args("username", credentials.Username))
		a.notifications.Error(MsgLoginError)
		return nil
	}

	username := resp.Username
	if username == "" {
		username = claims.Upn
	}
	id := string(resp.ID)
	if id == "" {
		id = claims.UserID
	}
	a.session.PersistUser(&Session{
		Authenticated:       true,
		Username:            username,
		Token:               resp.Token,
		TokenExpirationTime: claims.Expiration(),
		ID:                  id,
		Role:                claims.PrimaryRole(),
	})
	a.navigator.Navigate(RouteHome)
	return nil
}

// Register creates a pending account and sends the user to the login route.
func (a *Actions) Register(ctx context.Context, profile Registration) error {
	a.notifications.Info(MsgPleaseWait)
	if err := a.validateInput(profile); err != nil {
		a.notifications.Error(MsgRegisterError)
		return err
	}
	if profile.Lang == "" {
		profile.Lang = a.lang
	}

	var created UserRecord
	if err := a.gateway.Do(ctx, Call{Method: http.MethodPost, Path: "/users", Body: profile}, &created); err != nil {
		a.log.Error("error registering", a.log.Args("username", profile.Username, "error", err))
		a.notifications.Error(MsgRegisterError)
		return nil
	}
	a.log.Debug("registered account", a.log.Args("id", created.ID, "username", created.Username))

	a.session.PersistUser(nil)
	a.navigator.Navigate(RouteLogin)
	a.notifications.Success(MsgRegisterSuccess)
	return nil
}

// VerifyEmail activates an account with the emailed link token. A token
// that is malformed or expired locally is rejected with ErrTokenExpired
// without navigating; server failures navigate to the resend route.
func (a *Actions) VerifyEmail(ctx context.Context, jwt string) error {
	a.notifications.Info(MsgPleaseWait)
	if _, ok := a.tokens.Valid(jwt); !ok {
		a.notifications.Error(MsgExpiredEmailVerificationURLError)
		return ErrTokenExpired
	}

	var user UserRecord
	err := a.gateway.Do(ctx, Call{Method: http.MethodPut, Path: "/users/verify-email", Body: struct{}{}, Bearer: jwt}, &user)
	if err != nil {
		a.log.Error("error verifying email", a.log.Args("error", err))
		a.navigator.Navigate(RouteSendVerificationEmail)
		if IsPendingAccount(err) {
			a.notifications.Error(MsgActiveAccountError)
		} else {
			a.notifications.Error(MsgVerifyEmailError)
		}
		return nil
	}
	a.log.Debug("verified email", a.log.Args("username", user.Username))

	a.session.PersistUser(nil)
	a.navigator.Navigate(RouteLogin)
	a.notifications.Success(MsgVerifyEmailSuccess)
	return nil
}

// SendVerificationEmail asks for a new verification link.
func (a *Actions) SendVerificationEmail(ctx context.Context, req EmailRequest) error {
	a.notifications.Info(MsgPleaseWait)
	if err := a.validateInput(req); err != nil {
		a.notifications.Error(MsgResendVerificationEmailError)
		return err
	}
	if req.Lang == "" {
		req.Lang = a.lang
	}

	if err := a.gateway.Do(ctx, Call{Method: http.MethodPut, Path: "/users/resend-verification-email", Body: req}, nil); err != nil {
		a.log.Error("error resending verification email", a.log.Args("email", req.Email, "error", err))
		if IsPendingAccount(err) {
			a.notifications.Error(MsgActiveAccountError)
		} else {
			a.notifications.Error(MsgResendVerificationEmailError)
		}
		return nil
	}

	a.session.PersistUser(nil)
	a.navigator.Navigate(RouteLogin)
	a.notifications.Success(MsgResendVerificationEmailSuccess)
	return nil
}

// SendResetPasswordEmail asks for a password reset link.
func (a *Actions) SendResetPasswordEmail(ctx context.Context, req EmailRequest) error {
	a.notifications.Info(MsgPleaseWait)
	if err := a.validateInput(req); err != nil {
		a.notifications.Error(MsgResetPasswordEmailError)
		return err
	}
	if req.Lang == "" {
		req.Lang = a.lang
	}

	if err := a.gateway.Do(ctx, Call{Method: http.MethodPost, Path: "/users/reset-password", Body: req}, nil); err != nil {
		a.log.Error("error sending reset password email", a.log.Args("email", req.Email, "error", err))
		if IsPendingAccount(err) {
			a.notifications.Error(MsgPendingAccountError)
		} else {
			a.notifications.Error(MsgResetPasswordEmailError)
		}
		return nil
	}

	a.session.PersistUser(nil)
	a.notifications.Success(MsgResetPasswordEmailSuccess)
	return nil
}

// CheckTokenExpiration validates a reset link token locally, before a reset form is shown.
func (a *Actions) CheckTokenExpiration(jwt string) error {
	if _, ok := a.tokens.Valid(jwt); !ok {
		a.notifications.Error(MsgExpiredResetPasswordURLError)
		return ErrTokenExpired
	}
	return nil
}

// ResetPassword sets a new password for the subject of the reset link
// token, authorizing the call with that token rather than the session.
func (a *Actions) ResetPassword(ctx context.Context, jwt, password, lang string) error {
	a.notifications.Info(MsgPleaseWait)
	claims, ok := a.tokens.Valid(jwt)
	if !ok {
		a.notifications.Error(MsgExpiredResetPasswordURLError)
		return ErrTokenExpired
	}
	if lang == "" {
		lang = a.lang
	}

	body := ResetPasswordRequest{Username: claims.Upn, Password: password, Lang: lang}
	if err := a.validateInput(body); err != nil {
		a.notifications.Error(MsgResetPasswordError)
		return err
	}

	if err := a.gateway.Do(ctx, Call{Method: http.MethodPut, Path: "/users/reset-password", Body: body, Bearer: jwt}, nil); err != nil {
		a.log.Error("error resetting password", a.log.Args("username", claims.Upn, "error", err))
		a.notifications.Error(MsgResetPasswordError)
		return nil
	}

	a.navigator.Navigate(RouteLogin)
	a.notifications.Success(MsgResetPasswordSuccess)
	return nil
}

// Logout cancels the refresh schedule, clears the session and the user
// listing, and navigates to login. It is safe to call repeatedly and from a
// Navigator reacting to RouteLogout, including during a refresh. A refresh
// still in flight is discarded by the session generation guard.
func (a *Actions) Logout() {
	a.cancelRefresh()
	a.session.PersistUser(nil)
	a.users.Invalidate()
	a.navigator.Navigate(RouteLogin)
}

// Close releases background work; the session is left as is.
func (a *Actions) Close() {
	a.StopRefresh()
}
