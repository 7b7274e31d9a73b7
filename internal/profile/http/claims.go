package http

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
	"github.com/AlibekovAA/authify/backend/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
)

// errMissingClaims means a route was mounted without the token guard.
var errMissingClaims = commonerrors.ErrInvalidToken

func userID(r *http.Request) (userdomain.ID, bool) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok || claims.Subject == "" {
		return "", false
	}
	return userdomain.ID(claims.Subject), true
}
