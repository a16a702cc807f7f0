// file: repository/verification_repository.go

package repository

import (
	"database/sql"
	"manga-auth-api/logger"
	"manga-auth-api/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IVerificationTokenRepository defines the contract for single-use
// verification token operations (email verification, password reset).
type IVerificationTokenRepository interface {
	Create(token *model.VerificationToken) error
	GetByTokenHash(tokenHash string, userID uuid.UUID, purpose model.VerificationPurpose) (*model.VerificationToken, error)
	MarkUsed(id uuid.UUID) error
}

// VerificationTokenRepository implements IVerificationTokenRepository.
type VerificationTokenRepository struct {
	DB *sql.DB
}

func NewVerificationTokenRepository(db *sql.DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{DB: db}
}

// Create inserts a new verification token record.
func (r *VerificationTokenRepository) Create(token *model.VerificationToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": token.UserID,
		"purpose": token.Purpose,
	})
	log.Info("Executing query to create a new verification token")

	query := `INSERT INTO verification_tokens (id, user_id, token_hash, purpose, expires_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.DB.QueryRow(query, token.ID, token.UserID, token.TokenHash, token.Purpose, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create verification token query")
		return err
	}
	return nil
}

// GetByTokenHash retrieves a verification token scoped to a user and purpose,
// so a password-reset secret can never be consumed as an email verification.
func (r *VerificationTokenRepository) GetByTokenHash(tokenHash string, userID uuid.UUID, purpose model.VerificationPurpose) (*model.VerificationToken, error) {
	token := &model.VerificationToken{}
	query := `SELECT id, user_id, token_hash, purpose, expires_at, used_at, created_at
		FROM verification_tokens WHERE token_hash = $1 AND user_id = $2 AND purpose = $3`
	err := r.DB.QueryRow(query, tokenHash, userID, purpose).Scan(&token.ID, &token.UserID,
		&token.TokenHash, &token.Purpose, &token.ExpiresAt, &token.UsedAt, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get verification token query")
		}
		return nil, err
	}
	return token, nil
}

// MarkUsed consumes the token. Rows are kept after use for auditing.
func (r *VerificationTokenRepository) MarkUsed(id uuid.UUID) error {
	_, err := r.DB.Exec(`UPDATE verification_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`, id)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to mark verification token used")
	}
	return err
}
