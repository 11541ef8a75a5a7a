package sdk_test

import (
	"testing"

	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/stretchr/testify/assert"
)

type sessionView struct {
	loggedIn bool
	role     string
}

func (s sessionView) IsLoggedIn() bool { return s.loggedIn }
func (s sessionView) Role() string     { return s.role }

func TestGuard(t *testing.T) {
	admin := sdk.RouteMeta{Path: "/users", AuthRequired: true, Authorize: []string{"manager"}}
	profile := sdk.RouteMeta{Path: "/profile", AuthRequired: true}
	public := sdk.RouteMeta{Path: sdk.RouteLogin}

	tests := []struct {
		name    string
		route   sdk.RouteMeta
		session sessionView
		want    string
	}{
		{name: "public route while logged out", route: public, want: sdk.RouteLogin},
		{name: "protected route while logged out", route: profile, want: sdk.RouteLogout},
		{name: "protected route while logged in", route: profile, session: sessionView{loggedIn: true, role: "user"}, want: "/profile"},
		{name: "authorized role", route: admin, session: sessionView{loggedIn: true, role: "manager"}, want: "/users"},
		{name: "admin bypasses authorize list", route: admin, session: sessionView{loggedIn: true, role: sdk.RoleAdmin}, want: "/users"},
		{name: "unauthorized role", route: admin, session: sessionView{loggedIn: true, role: "user"}, want: sdk.RouteLogin},
		{name: "authorize list while logged out", route: admin, want: sdk.RouteLogout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sdk.Guard(tt.route, tt.session))
		})
	}
}

func TestRouter_GoHidesNotificationsAndNavigates(t *testing.T) {
	ch := sdk.NewNotificationChannel()
	var kinds []sdk.NotificationKind
	ch.Subscribe(func(n sdk.Notification) { kinds = append(kinds, n.Kind) })

	rec := &sdk.RouteRecorder{}
	router := sdk.NewRouter(sessionView{}, ch, rec)

	dest := router.Go(sdk.RouteMeta{Path: "/profile", AuthRequired: true})

	assert.Equal(t, sdk.RouteLogout, dest)
	assert.Equal(t, sdk.RouteLogout, rec.Current())
	assert.Equal(t, []sdk.NotificationKind{sdk.NotificationHide}, kinds)
}

func TestRouteRecorder(t *testing.T) {
	rec := &sdk.RouteRecorder{}
	assert.Empty(t, rec.Current())

	rec.Navigate(sdk.RouteLogin)
	rec.Navigate(sdk.RouteHome)

	assert.Equal(t, sdk.RouteHome, rec.Current())
	assert.Equal(t, []string{sdk.RouteLogin, sdk.RouteHome}, rec.History())
}

func TestRouteTable_Lookup(t *testing.T) {
	table := sdk.RouteTable{
		sdk.RouteHome: {Path: sdk.RouteHome, AuthRequired: true},
	}

	assert.Equal(t, sdk.RouteMeta{Path: sdk.RouteHome, AuthRequired: true}, table.Lookup(sdk.RouteHome))
	assert.Equal(t, sdk.RouteMeta{Path: sdk.RouteLogout}, table.Lookup("/nowhere"))
}
