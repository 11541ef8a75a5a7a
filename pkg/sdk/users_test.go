package sdk

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/manolisziCy/sports/pkg/sdk/sdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCriteria_Query(t *testing.T) {
	criteria := ListCriteria{
		LastID:   "12",
		Limit:    25,
		Forward:  true,
		SortDesc: false,
		Filters:  map[string]string{"username": "ann", "status": "", "role": "admin"},
	}

	want := url.Values{
		"lastId":          {"12"},
		"limit":           {"25"},
		"forward":         {"true"},
		"sortDesc":        {"false"},
		"filter_username": {"ann"},
		"filter_role":     {"admin"},
	}
	assert.Equal(t, want, criteria.Query())
}

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{in: `{"id":"abc"}`, want: "abc"},
		{in: `{"id":42}`, want: "42"},
		{in: `{"id":null}`, want: ""},
	}
	for _, tt := range tests {
		var rec UserRecord
		require.NoError(t, json.Unmarshal([]byte(tt.in), &rec), tt.in)
		assert.Equal(t, tt.want, rec.ID, tt.in)
	}

	var rec UserRecord
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &rec))
}

func TestUsers_CRUD(t *testing.T) {
	h := adminHarness(t)
	ctx := t.Context()

	created, err := h.client.CreateUser(ctx, UserInput{Username: "coach@example.com", Password: "secret", Status: "active", Role: "coach"})
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", created.Username)
	assert.Equal(t, "active", created.Status)
	require.NotNil(t, created.CreatedAt)

	got := h.client.GetUser(ctx, string(created.ID))
	require.NotNil(t, got)
	assert.Equal(t, *created, *got)

	updated, err := h.client.UpdateUser(ctx, string(created.ID), UserInput{Username: "coach@example.com", Status: "suspended"})
	require.NoError(t, err)
	assert.Equal(t, "suspended", updated.Status)

	require.NoError(t, h.client.DeleteUser(ctx, string(created.ID)))
	assert.Nil(t, h.client.GetUser(ctx, string(created.ID)))
	assert.Equal(t, MsgErrorLoadingUserProfile, h.notes.lastShown().MessageKey)

	err = h.client.DeleteUser(ctx, string(created.ID))
	assert.Equal(t, 404, StatusCode(err))
	assert.True(t, h.client.Session.IsLoggedIn(), "a 404 must not end the session")
}

func TestUsers_CreateValidation(t *testing.T) {
	h := adminHarness(t)

	_, err := h.client.CreateUser(t.Context(), UserInput{Username: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.client.CreateUser(t.Context(), UserInput{Username: "x@example.com", Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUsers_DuplicateIsReported(t *testing.T) {
	h := adminHarness(t)

	_, err := h.client.CreateUser(t.Context(), UserInput{Username: "player@example.com", Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidField, ErrorCode(err))
	assert.Equal(t, sdktest.StatusActive, h.stub.UserStatus("player@example.com"))
}

func TestUsers_ListBypassesCache(t *testing.T) {
	h := adminHarness(t)
	ctx := t.Context()

	require.Len(t, h.client.GetUsers(ctx, FirstPage()), 2)

	criteria := ListCriteria{Limit: DefaultPageSize, Forward: true, Filters: map[string]string{"role": "admin"}}
	assert.False(t, criteria.IsFirstPage())
	users, err := h.client.ListUsers(ctx, criteria)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Username)

	assert.Len(t, h.client.Users.Snapshot().Users, 2, "filtered pages must not replace the cached first page")
	assert.Equal(t, 2, h.stub.CountRequests("GET", "/users"))
}

func TestListCriteria_IsFirstPage(t *testing.T) {
	assert.True(t, FirstPage().IsFirstPage())
	assert.True(t, ListCriteria{Filters: map[string]string{"role": ""}}.IsFirstPage())
	assert.False(t, ListCriteria{LastID: "3"}.IsFirstPage())
}
