package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// ID is an identifier the API may encode as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// UserRecord is an administrable account as returned by the API.
type UserRecord struct {
	ID        ID         `json:"id"`
	Username  string     `json:"username"`
	Status    string     `json:"status,omitempty"`
	Role      string     `json:"role,omitempty"`
	Amka      string     `json:"amka,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// UserInput is the payload of create and update calls.
type UserInput struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password,omitempty"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=pending active suspended"`
	Role     string `json:"role,omitempty"`
	Amka     string `json:"amka,omitempty"`
}

// DefaultPageSize is the page size of the first-page listing.
const DefaultPageSize = 10

// FirstPage returns the criteria of the cached first-page listing.
func FirstPage() ListCriteria {
	return ListCriteria{Limit: DefaultPageSize, Forward: true}
}

// ListCriteria selects a page of users.
type ListCriteria struct {
	LastID   string
	Limit    int
	Forward  bool
	SortDesc bool
	// Filters are sent as filter_<field>=<value>; empty values are skipped.
	Filters map[string]string
}

// Query serializes the criteria as the list endpoint expects.
func (c ListCriteria) Query() url.Values {
	q := url.Values{}
	q.Set("lastId", c.LastID)
	q.Set("limit", strconv.Itoa(c.Limit))
	q.Set("forward", strconv.FormatBool(c.Forward))
	q.Set("sortDesc", strconv.FormatBool(c.SortDesc))

	fields := make([]string, 0, len(c.Filters))
	for field := range c.Filters {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		if v := c.Filters[field]; v != "" {
			q.Set("filter_"+field, v)
		}
	}
	return q
}

// GetUsers returns the first-page listing, served from the UserCache while fresh.
func (a *Actions) GetUsers(ctx context.Context, criteria ListCriteria) []UserRecord {
	return a.users.Get(ctx, criteria)
}

// IsFirstPage reports whether c selects the unfiltered first page.
func (c ListCriteria) IsFirstPage() bool {
	if c.LastID != "" {
		return false
	}
	for _, v := range c.Filters {
		if v != "" {
			return false
		}
	}
	return true
}

// ListUsers fetches any page, bypassing the cache. Errors are returned to
// the caller.
func (a *Actions) ListUsers(ctx context.Context, criteria ListCriteria) ([]UserRecord, error) {
	var users []UserRecord
	if err := a.gateway.Do(ctx, Call{Method: http.MethodGet, Path: "/users", Query: criteria.Query()}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one account. Failures are notified and yield nil.
func (a *Actions) GetUser(ctx context.Context, id string) *UserRecord {
	var user UserRecord
	if err := a.gateway.Do(ctx, Call{Method: http.MethodGet, Path: "/users/" + url.PathEscape(id)}, &user); err != nil {
		a.log.Error("error getting user", a.log.Args("id", id, "error", err))
		a.notifications.Error(MsgErrorLoadingUserProfile)
		return nil
	}
	return &user
}

// CreateUser creates an account. Errors are returned to the caller.
func (a *Actions) CreateUser(ctx context.Context, input UserInput) (*UserRecord, error) {
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	var user UserRecord
	if err := a.gateway.Do(ctx, Call{Method: http.MethodPost, Path: "/users", Body: input}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces the account id. Errors are returned to the caller.
func (a *Actions) UpdateUser(ctx context.Context, id string, input UserInput) (*UserRecord, error) {
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	var user UserRecord
	if err := a.gateway.Do(ctx, Call{Method: http.MethodPut, Path: "/users/" + url.PathEscape(id), Body: input}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the account id. Errors are returned to the caller.
func (a *Actions) DeleteUser(ctx context.Context, id string) error {
	return a.gateway.Do(ctx, Call{Method: http.MethodDelete, Path: "/users/" + url.PathEscape(id)}, nil)
}
