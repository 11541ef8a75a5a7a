package sdk

import (
	"fmt"
)

// Client composes the session subsystem for one API base URL. It embeds
// *Actions, so the account flows are called directly on the client.
type Client struct {
	*Actions

	Session       *SessionStore
	Users         *UserCache
	Notifications *NotificationChannel
	Gateway       *Gateway
	Router        *Router
	Options       Options
}

// NewClient builds the stores over storage, the gateway for baseURL and the
// flows. navigator receives every navigation, including the one forced by a
// 401; a nil navigator discards them.
func NewClient(baseURL string, storage Storage, navigator Navigator, optFns []Option, gwOpts ...GatewayOption) (*Client, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	opts := NewOptions(optFns...)
	if navigator == nil {
		navigator = NavigatorFunc(func(string) {})
	}

	notifications := NewNotificationChannel()
	session := NewSessionStore(storage, optFns...)

	gateway, err := NewGateway(baseURL, session, notifications, navigator, opts, gwOpts...)
	if err != nil {
		return nil, err
	}
	users := NewUserCache(gateway, storage, notifications, opts)

	return &Client{
		Actions:       NewActions(gateway, session, users, notifications, navigator, opts),
		Session:       session,
		Users:         users,
		Notifications: notifications,
		Gateway:       gateway,
		Router:        NewRouter(session, notifications, navigator),
		Options:       opts,
	}, nil
}
