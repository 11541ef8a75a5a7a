package sdk

import (
	"slices"
	"sync"
)

// Routes of the front-end.
const (
	RouteHome                  = "/home"
	RouteLogin                 = "/user/login"
	RouteLogout                = "/user/logout"
	RouteRegister              = "/user/register"
	RouteSendVerificationEmail = "/user/send-verify-email"
	RouteResetPassword         = "/user/reset-password"
	RoleAdmin                  = "admin"
)

// Navigator moves the view layer to a route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// RouteRecorder is a Navigator that remembers every navigation.
type RouteRecorder struct {
	mu      sync.Mutex
	history []string
}

func (r *RouteRecorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, route)
}

// Current returns the latest route, or "" when nothing navigated.
func (r *RouteRecorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return ""
	}
	return r.history[len(r.history)-1]
}

// History returns a copy of every route navigated to.
func (r *RouteRecorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history)
}

// RouteMeta is the guard-relevant metadata of a route.
type RouteMeta struct {
	Path         string
	AuthRequired bool
	Authorize    []string
}

// RouteTable maps route paths to their metadata.
type RouteTable map[string]RouteMeta

// Lookup returns the metadata registered for path. Unknown paths resolve to
// the logout route.
func (t RouteTable) Lookup(path string) RouteMeta {
	if meta, ok := t[path]; ok {
		return meta
	}
	return RouteMeta{Path: RouteLogout}
}

// SessionView is the read side of SessionStore consumed by the guard.
type SessionView interface {
	IsLoggedIn() bool
	Role() string
}

// Guard decides where a navigation to route should land. It returns
// route.Path when access is allowed.
func Guard(route RouteMeta, session SessionView) string {
	if route.AuthRequired && !session.IsLoggedIn() {
		return RouteLogout
	}
	if len(route.Authorize) > 0 {
		role := session.Role()
		if role != RoleAdmin && !slices.Contains(route.Authorize, role) {
			return RouteLogin
		}
	}
	return route.Path
}

// Router applies Guard before every navigation, clearing visible
// notifications first.
type Router struct {
	session       SessionView
	notifications *NotificationChannel
	next          Navigator
}

// NewRouter wraps next with the guard.
func NewRouter(session SessionView, notifications *NotificationChannel, next Navigator) *Router {
	return &Router{session: session, notifications: notifications, next: next}
}

// Resolve clears notifications and returns the guarded destination without navigating.
func (r *Router) Resolve(route RouteMeta) string {
	if r.notifications != nil {
		r.notifications.Hide()
	}
	return Guard(route, r.session)
}

// Go resolves route and navigates to the result.
func (r *Router) Go(route RouteMeta) string {
	dest := r.Resolve(route)
	r.next.Navigate(dest)
	return dest
}
