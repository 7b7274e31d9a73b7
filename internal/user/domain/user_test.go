package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PublicOmitsPasswordHash(t *testing.T) {
	u := User{
		ID:           "u-1",
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "$2a$10$secret",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	body, err := json.Marshal(u.Public())
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"u-1","username":"alice","email":"alice@x.com"}`, string(body))
	assert.NotContains(t, string(body), "secret")
}

func TestUpdate_Apply(t *testing.T) {
	email := "new@x.com"
	u := User{ID: "u-1", Username: "alice", Email: "alice@x.com", PasswordHash: "h"}

	got := Update{Email: &email}.Apply(u)

	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "new@x.com", got.Email)
	assert.Equal(t, "h", got.PasswordHash)
	assert.Equal(t, "alice@x.com", u.Email)
}

func TestUpdate_IsEmpty(t *testing.T) {
	hash := "h"
	assert.True(t, Update{}.IsEmpty())
	assert.False(t, Update{PasswordHash: &hash}.IsEmpty())
}
