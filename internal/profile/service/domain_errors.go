package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
)

// ErrUserNotFound is shared with the authorization guard path so that a token
// for a vanished user reads the same as any other missing user.
var ErrUserNotFound = commonerrors.ErrUserNotFound

var (
	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"Email already taken",
	)

	ErrUsernameTaken = commonerrors.NewDomainError(
		"USERNAME_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"Username already taken",
	)

	ErrNoChanges = commonerrors.NewDomainError(
		"NO_CHANGES",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"No changes detected",
	)

	ErrIncorrectCurrentPassword = commonerrors.NewDomainError(
		"INVALID_CURRENT_PASSWORD",
		commonerrors.CategoryAuth,
		http.StatusBadRequest,
		"Incorrect current password",
	)
)
