package service

import (
	"context"
	"errors"
	"fmt"

	commoncrypto "github.com/AlibekovAA/authify/backend/internal/common/crypto"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	"github.com/AlibekovAA/authify/backend/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/authify/backend/internal/user/repository"
)

type ProfileService struct {
	repo   userrepo.Repository
	hasher commoncrypto.PasswordHasher
	log    *logger.Logger
}

func NewProfileService(repo userrepo.Repository, hasher commoncrypto.PasswordHasher, log *logger.Logger) *ProfileService {
	return &ProfileService{
		repo:   repo,
		hasher: hasher,
		log:    log,
	}
}

// UpdateProfileInput carries the optional fields of a profile update; nil or
// empty means the field was not supplied.
type UpdateProfileInput struct {
	Username *string
	Email    *string
}

func (s *ProfileService) GetProfile(ctx context.Context, id userdomain.ID) (userdomain.Public, error) {
	user, err := s.loadUser(ctx, id, "get_profile")
	if err != nil {
		return userdomain.Public{}, err
	}
	return user.Public(), nil
}

// UpdateProfile checks email before username; the first conflict wins. Only
// fields that differ from the stored record are written.
func (s *ProfileService) UpdateProfile(ctx context.Context, id userdomain.ID, input UpdateProfileInput) (userdomain.Public, error) {
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"action":  "profile_update_attempt",
	}).Info("profile update attempt")

	current, err := s.loadUser(ctx, id, "profile_update")
	if err != nil {
		recordProfileUpdate(err)
		return userdomain.Public{}, err
	}

	var update userdomain.Update

	if supplied(input.Email) && *input.Email != current.Email {
		if err := s.ensureFree(ctx, id, "email", s.repo.FindByEmail, *input.Email, ErrEmailTaken); err != nil {
			recordProfileUpdate(err)
			return userdomain.Public{}, err
		}
		update.Email = input.Email
	}

	if supplied(input.Username) && *input.Username != current.Username {
		if err := s.ensureFree(ctx, id, "username", s.repo.FindByUsername, *input.Username, ErrUsernameTaken); err != nil {
			recordProfileUpdate(err)
			return userdomain.Public{}, err
		}
		update.Username = input.Username
	}

	if update.IsEmpty() {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"action":  "profile_update_no_changes",
		}).Warn("profile update rejected: no changes")
		recordProfileUpdate(ErrNoChanges)
		return userdomain.Public{}, ErrNoChanges
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		err = s.translateUpdateError(ctx, id, "profile_update", err)
		recordProfileUpdate(err)
		return userdomain.Public{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"action":  "profile_update_success",
	}).Info("profile updated")
	recordProfileUpdate(nil)

	return updated.Public(), nil
}

// ChangePassword re-verifies the current password before storing a hash of
// the new one.
func (s *ProfileService) ChangePassword(ctx context.Context, id userdomain.ID, currentPassword, newPassword string) (userdomain.Public, error) {
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"action":  "password_change_attempt",
	}).Info("password change attempt")

	user, err := s.loadUser(ctx, id, "password_change")
	if err != nil {
		recordPasswordChange(err)
		return userdomain.Public{}, err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"action":  "password_change_invalid_current",
		}).Warn("password change rejected: incorrect current password")
		recordPasswordChange(ErrIncorrectCurrentPassword)
		return userdomain.Public{}, ErrIncorrectCurrentPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"action":  "password_change_hash_failed",
		}).Errorf("password change failed: password hash error: %v", err)
		recordPasswordChange(err)
		return userdomain.Public{}, fmt.Errorf("hash password: %w", err)
	}

	updated, err := s.repo.Update(ctx, id, userdomain.Update{PasswordHash: &hash})
	if err != nil {
		err = s.translateUpdateError(ctx, id, "password_change", err)
		recordPasswordChange(err)
		return userdomain.Public{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"action":  "password_change_success",
	}).Info("password changed")
	recordPasswordChange(nil)

	return updated.Public(), nil
}

func (s *ProfileService) loadUser(ctx context.Context, id userdomain.ID, action string) (userdomain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, userrepo.ErrUserNotFound) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"action":  action + "_not_found",
		}).Warn("user not found")
		return userdomain.User{}, ErrUserNotFound
	}
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"action":  action + "_fetch_failed",
	}).Errorf("failed to load user: %v", err)
	return userdomain.User{}, fmt.Errorf("find user by id: %w", err)
}

func (s *ProfileService) ensureFree(
	ctx context.Context,
	id userdomain.ID,
	field string,
	find func(context.Context, string) (userdomain.User, error),
	value string,
	conflict error,
) error {
	owner, err := find(ctx, value)
	switch {
	case errors.Is(err, userrepo.ErrUserNotFound):
		return nil
	case err != nil:
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"field":   field,
			"action":  "profile_update_lookup_failed",
		}).Errorf("profile update failed: %v", err)
		return fmt.Errorf("find user by %s: %w", field, err)
	case owner.ID == id:
		return nil
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"field":   field,
		"action":  "profile_update_conflict",
	}).Warn("profile update rejected: value already taken")
	return conflict
}

// translateUpdateError maps store errors raised by Update. A uniqueness
// violation here means another request claimed the value after our check.
func (s *ProfileService) translateUpdateError(ctx context.Context, id userdomain.ID, action string, err error) error {
	switch {
	case errors.Is(err, userrepo.ErrEmailAlreadyExists):
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"field":   "email",
			"action":  action + "_conflict",
		}).Warn("update lost a uniqueness race")
		return ErrEmailTaken.WithCause(err)
	case errors.Is(err, userrepo.ErrUsernameAlreadyExists):
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(id),
			"field":   "username",
			"action":  action + "_conflict",
		}).Warn("update lost a uniqueness race")
		return ErrUsernameTaken.WithCause(err)
	case errors.Is(err, userrepo.ErrUserNotFound):
		return ErrUserNotFound
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(id),
		"action":  action + "_store_failed",
	}).Errorf("update failed: %v", err)
	return fmt.Errorf("update user: %w", err)
}

func recordProfileUpdate(err error) {
	metrics.ProfileUpdatesTotal.WithLabelValues(resultLabel(err)).Inc()
}

func recordPasswordChange(err error) {
	metrics.PasswordChangesTotal.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		return "conflict"
	case errors.Is(err, ErrNoChanges):
		return "no_changes"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrIncorrectCurrentPassword):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func supplied(v *string) bool {
	return v != nil && *v != ""
}
