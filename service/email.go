// file: service/email.go

package service

import (
	"context"
	"manga-auth-api/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EmailSender is the boundary to the mail delivery subsystem. The auth core
// only decides when a mail is due and what secret it carries; composing and
// delivering the message happens elsewhere.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email, username, rawToken string, userID uuid.UUID) error
	SendPasswordResetEmail(ctx context.Context, email, username, rawToken string, userID uuid.UUID) error
}

// LogEmailSender is the default EmailSender used until a real mail provider
// is wired in. It records that a mail was due without the secret itself.
type LogEmailSender struct{}

func (LogEmailSender) SendVerificationEmail(ctx context.Context, email, username, rawToken string, userID uuid.UUID) error {
	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"email":   email,
	}).Info("Verification email due")
	return nil
}

func (LogEmailSender) SendPasswordResetEmail(ctx context.Context, email, username, rawToken string, userID uuid.UUID) error {
	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"email":   email,
	}).Info("Password reset email due")
	return nil
}
