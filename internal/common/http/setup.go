package http

import (
	"net/http"

	"github.com/AlibekovAA/authify/backend/internal/common/constants"
	"github.com/AlibekovAA/authify/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware chain every route shares.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	csp := ContentSecurityPolicyMiddleware("")

	return SecurityHeadersMiddleware(csp(TraceIDMiddleware(recovery(maxRequestSize(httpmetrics.Wrap(handler))))))
}
