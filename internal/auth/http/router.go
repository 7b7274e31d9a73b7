package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/authify/backend/internal/auth/service"
	"github.com/AlibekovAA/authify/backend/internal/common/constants"
	commonhttp "github.com/AlibekovAA/authify/backend/internal/common/http"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
)

type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (userdomain.Public, error)
	Login(ctx context.Context, input service.LoginInput) (service.LoginResult, error)
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// Login only requires a password; a short one simply fails authentication.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type Config struct {
	TokenTTL       time.Duration
	RequestTimeout time.Duration
}

type Handler struct {
	auth   AuthService
	errors *commonhttp.ErrorHandler
	log    *logger.Logger
	cfg    Config
}

func NewHandler(auth AuthService, cfg Config, log *logger.Logger) *Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = constants.DefaultAccessTokenTTL
	}
	return &Handler{
		auth:   auth,
		errors: commonhttp.NewErrorHandler(log),
		log:    log,
		cfg:    cfg,
	}
}

// Routes mounts the /auth endpoints on mux. The credential endpoints go
// through limiter when one is given.
func (h *Handler) Routes(mux *http.ServeMux, limiter *commonhttp.StrictRateLimiter) {
	timeout := commonhttp.WithTimeout(h.cfg.RequestTimeout)

	mux.Handle("/auth/register", limited(limiter, "/auth/register",
		commonhttp.RequireMethod(http.MethodPost)(timeout(h.register))))
	mux.Handle("/auth/login", limited(limiter, "/auth/login",
		commonhttp.RequireMethod(http.MethodPost)(timeout(h.login))))
	mux.Handle("/auth/logout", commonhttp.RequireMethod(http.MethodPost)(h.logout))
}

func limited(limiter *commonhttp.StrictRateLimiter, path string, next http.HandlerFunc) http.Handler {
	if limiter == nil {
		return next
	}
	return limiter.MiddlewareForPath(path)(next)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "register_invalid_request",
		}).Warnf("register rejected: %v", err)
		h.errors.HandleError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteMessage(w, http.StatusCreated, commonhttp.MessageResponse{
		Message: "Registration successful",
		User:    user,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "login_invalid_request",
		}).Warnf("login rejected: %v", err)
		h.errors.HandleError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	setAccessTokenCookie(w, result.AccessToken, h.cfg.TokenTTL)
	commonhttp.WriteMessage(w, http.StatusCreated, commonhttp.MessageResponse{
		Message:     "Login successful",
		AccessToken: result.AccessToken,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	clearAccessTokenCookie(w)
	commonhttp.WriteMessage(w, http.StatusOK, commonhttp.MessageResponse{
		Message: "Logout successful",
	})
}

func setAccessTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
