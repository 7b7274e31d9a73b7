package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/authify/backend/internal/auth/token"
	commonhttp "github.com/AlibekovAA/authify/backend/internal/common/http"
	"github.com/AlibekovAA/authify/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	"github.com/AlibekovAA/authify/backend/internal/profile/service"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
)

type ProfileService interface {
	GetProfile(ctx context.Context, id userdomain.ID) (userdomain.Public, error)
	UpdateProfile(ctx context.Context, id userdomain.ID, input service.UpdateProfileInput) (userdomain.Public, error)
	ChangePassword(ctx context.Context, id userdomain.ID, currentPassword, newPassword string) (userdomain.Public, error)
}

type updateProfileRequest struct {
	Username *string `json:"username" validate:"omitnil,max=50"`
	Email    *string `json:"email" validate:"omitnil,email"`
}

// Normalize drops empty strings so they count as not supplied.
func (r *updateProfileRequest) Normalize() {
	if r.Username != nil && *r.Username == "" {
		r.Username = nil
	}
	if r.Email != nil && *r.Email == "" {
		r.Email = nil
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,min=8,maxbytes=72"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,maxbytes=72"`
}

type Handler struct {
	profiles       ProfileService
	verifier       token.Verifier
	errors         *commonhttp.ErrorHandler
	log            *logger.Logger
	requestTimeout time.Duration
}

func NewHandler(profiles ProfileService, verifier token.Verifier, requestTimeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		profiles:       profiles,
		verifier:       verifier,
		errors:         commonhttp.NewErrorHandler(log),
		log:            log,
		requestTimeout: requestTimeout,
	}
}

// Routes mounts the /users endpoints behind the token guard.
func (h *Handler) Routes(mux *http.ServeMux) {
	guard := jwtverify.Middleware(h.verifier, h.log)
	timeout := commonhttp.WithTimeout(h.requestTimeout)

	mux.Handle("/users/profile", guard(timeout(h.profile)))
	mux.Handle("/users/change-password", guard(commonhttp.RequireMethod(http.MethodPut)(timeout(h.changePassword))))
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT")
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, commonhttp.TraceIDFromContext(r.Context()))
	}
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.errors.HandleError(w, r, errMissingClaims)
		return
	}

	user, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteMessage(w, http.StatusOK, commonhttp.MessageResponse{
		Message: "User fetched successfully",
		User:    user,
	})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.errors.HandleError(w, r, errMissingClaims)
		return
	}

	var req updateProfileRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"user_id": string(id),
			"action":  "profile_update_invalid_request",
		}).Warnf("profile update rejected: %v", err)
		h.errors.HandleError(w, r, err)
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), id, service.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteMessage(w, http.StatusOK, commonhttp.MessageResponse{
		Message: "Profile updated successfully",
		User:    user,
	})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.errors.HandleError(w, r, errMissingClaims)
		return
	}

	var req changePasswordRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"user_id": string(id),
			"action":  "password_change_invalid_request",
		}).Warnf("password change rejected: %v", err)
		h.errors.HandleError(w, r, err)
		return
	}

	user, err := h.profiles.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteMessage(w, http.StatusOK, commonhttp.MessageResponse{
		Message: "Password changed successfully",
		User:    user,
	})
}
