package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
)

var (
	ErrUserAlreadyExists = commonerrors.NewDomainError(
		"USER_ALREADY_EXISTS",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"A user with this email or username already exists",
	)

	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid email or password",
	)
)
