package auth

import (
	"context"
	"errors"
	"time"

	"github.com/billfold/billfold/internal/adapter"
	"github.com/billfold/billfold/pkg/logger"
	"github.com/google/uuid"
)

// ErrInvalidVerification reports an unknown or expired verification value.
var ErrInvalidVerification = errors.New("invalid or expired verification")

const verificationTTL = time.Hour

// IssueVerification creates a verification challenge for an email address.
// There is no mailer in this system; the value is logged so the link can be
// delivered out of band.
func (s *Service) IssueVerification(ctx context.Context, email string) (Verification, error) {
	email = normalizeEmail(email)
	record, err := s.db.Create(ctx, ModelVerification, map[string]any{
		"identifier": email,
		"value":      uuid.NewString(),
		"expiresAt":  time.Now().Add(verificationTTL).UTC().Format(time.RFC3339),
	}, false)
	if err != nil {
		return Verification{}, err
	}

	verification := verificationFromRecord(record)
	logger.Info("Issued verification token", "identifier", email, "value", verification.Value)
	return verification, nil
}

// VerifyEmail consumes a verification value: it marks the identified user's
// email verified and deletes the challenge record. Expired challenges are
// deleted and rejected.
func (s *Service) VerifyEmail(ctx context.Context, value string) (User, error) {
	records, err := s.db.FindMany(ctx, ModelVerification, adapter.FindManyOptions{
		Where: []adapter.Where{adapter.Eq("value", value)},
		Limit: 1,
	})
	if err != nil {
		return User{}, err
	}
	if len(records) == 0 {
		return User{}, ErrInvalidVerification
	}
	verification := verificationFromRecord(records[0])

	if time.Now().After(verification.ExpiresAt) {
		if err := s.db.Delete(ctx, ModelVerification, adapter.ByID(verification.ID)); err != nil && !errors.Is(err, adapter.ErrNotFound) {
			logger.Warn("Failed to remove expired verification", "id", verification.ID, "error", err)
		}
		return User{}, ErrInvalidVerification
	}

	user, err := s.findUserByEmail(ctx, verification.Identifier)
	if errors.Is(err, adapter.ErrNotFound) {
		return User{}, ErrInvalidVerification
	}
	if err != nil {
		return User{}, err
	}

	updated, err := s.db.Update(ctx, ModelUser, adapter.ByID(user.ID), map[string]any{
		"emailVerified": true,
	})
	if err != nil {
		return User{}, err
	}

	if err := s.db.Delete(ctx, ModelVerification, adapter.ByID(verification.ID)); err != nil && !errors.Is(err, adapter.ErrNotFound) {
		logger.Warn("Failed to remove consumed verification", "id", verification.ID, "error", err)
	}

	return userFromRecord(updated), nil
}
