package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// UserListCache is the persisted page-one listing. ExpirationTime is unix
// milliseconds; a value at or before now marks the listing stale.
type UserListCache struct {
	Users          []UserRecord `json:"users"`
	ExpirationTime int64        `json:"expirationTime"`
}

// UserCache memoizes the user listing for a TTL, independently of the session.
type UserCache struct {
	gateway       *Gateway
	storage       Storage
	key           string
	notifications *NotificationChannel
	clock         Clock
	ttl           time.Duration
	metrics       *Metrics
	log           *pterm.Logger

	mu    sync.RWMutex
	state UserListCache
}

// NewUserCache restores any persisted listing from storage.
func NewUserCache(gateway *Gateway, storage Storage, notifications *NotificationChannel, opts Options) *UserCache {
	c := &UserCache{
		gateway:       gateway,
		storage:       storage,
		key:           UserListKey(opts.KeyPrefix),
		notifications: notifications,
		clock:         opts.Clock,
		ttl:           opts.CacheTTL,
		metrics:       opts.Metrics,
		log:           opts.Logger,
	}
	c.state = c.restore()
	return c
}

func (c *UserCache) restore() UserListCache {
	data, err := c.storage.Get(c.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("failed to read persisted user list", c.log.Args("key", c.key, "error", err))
		}
		return UserListCache{Users: []UserRecord{}}
	}
	var persisted UserListCache
	if err := json.Unmarshal(data, &persisted); err != nil {
		c.log.Warn("discarding corrupt persisted user list", c.log.Args("key", c.key, "error", err))
		return UserListCache{Users: []UserRecord{}}
	}
	if persisted.Users == nil {
		persisted.Users = []UserRecord{}
	}
	return persisted
}

// Get returns the cached listing while fresh, otherwise fetches it. A failed
// fetch is notified and the previous listing is returned unchanged.
func (c *UserCache) Get(ctx context.Context, criteria ListCriteria) []UserRecord {
	nowMillis := c.clock.Now().UnixMilli()

	c.mu.RLock()
	if c.state.ExpirationTime > nowMillis {
		users := slices.Clone(c.state.Users)
		c.mu.RUnlock()
		c.metrics.cacheLookup("hit")
		return users
	}
	c.mu.RUnlock()
	c.metrics.cacheLookup("miss")

	var users []UserRecord
	err := c.gateway.Do(ctx, Call{Method: http.MethodGet, Path: "/users", Query: criteria.Query()}, &users)
	if err != nil {
		c.log.Error("error getting all users", c.log.Args("error", err))
		c.notifications.Error(MsgErrorLoadingAllUsers)
		c.mu.RLock()
		defer c.mu.RUnlock()
		return slices.Clone(c.state.Users)
	}
	if users == nil {
		users = []UserRecord{}
	}
	c.Persist(users)
	return slices.Clone(users)
}

// Persist commits a listing with a fresh TTL. A nil listing invalidates the cache.
func (c *UserCache) Persist(users []UserRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if users == nil {
		c.state = UserListCache{Users: []UserRecord{}}
		if err := c.storage.Remove(c.key); err != nil {
			c.log.Warn("failed to remove persisted user list", c.log.Args("key", c.key, "error", err))
		}
		return
	}

	c.state = UserListCache{
		Users:          slices.Clone(users),
		ExpirationTime: c.clock.Now().Add(c.ttl).UnixMilli(),
	}
	data, err := json.Marshal(c.state)
	if err != nil {
		c.log.Error("failed to encode user list", c.log.Args("error", err))
		return
	}
	if err := c.storage.Set(c.key, data); err != nil {
		c.log.Warn("failed to persist user list", c.log.Args("key", c.key, "error", err))
	}
}

// Invalidate empties the listing and marks it stale.
func (c *UserCache) Invalidate() {
	c.Persist(nil)
}

// Snapshot returns a copy of the cache state.
func (c *UserCache) Snapshot() UserListCache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return UserListCache{Users: slices.Clone(c.state.Users), ExpirationTime: c.state.ExpirationTime}
}
