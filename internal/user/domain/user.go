package domain

import "time"

type ID string

type User struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Public is the projection of a User that may leave the service.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Public() Public {
	return Public{
		ID:       string(u.ID),
		Username: u.Username,
		Email:    u.Email,
	}
}

// Update lists the fields to overwrite; nil fields are left untouched.
type Update struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

func (u Update) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}

// Apply returns a copy of user with the update applied.
func (u Update) Apply(user User) User {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	return user
}
