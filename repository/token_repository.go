// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"manga-auth-api/logger"
	"manga-auth-api/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database
// operations. The tx-taking methods form the rotation write path and must all
// run inside the same transaction; rows are never hard-deleted (audit trail).
type ITokenRepository interface {
	Create(token *model.RefreshToken) error
	GetByTokenHashForUpdate(tx *sql.Tx, tokenHash string) (*model.RefreshToken, error)
	MarkRevoked(tx *sql.Tx, id uuid.UUID) (bool, error)
	CreateInTx(tx *sql.Tx, token *model.RefreshToken) error
	SetReplacedBy(tx *sql.Tx, id, replacedByID uuid.UUID) error
	RevokeFamily(tx *sql.Tx, family uuid.UUID) (int64, error)
	RevokeByTokenHash(tokenHash string) error
	RevokeAllForUser(userID uuid.UUID) error
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record outside of any rotation
// transaction (initial issue at login).
func (r *TokenRepository) Create(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"family":     token.Family,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, family, expires_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.DB.QueryRow(query, token.ID, token.UserID, token.TokenHash, token.Family, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByTokenHashForUpdate retrieves a refresh token by its hashed value and
// locks the row for the duration of the rotation transaction.
func (r *TokenRepository) GetByTokenHashForUpdate(tx *sql.Tx, tokenHash string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	query := `SELECT id, user_id, token_hash, family, expires_at, revoked_at, replaced_by_id, created_at
		FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`
	err := tx.QueryRow(query, tokenHash).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.Family,
		&token.ExpiresAt, &token.RevokedAt, &token.ReplacedByID, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get refresh token by hash query")
		}
		return nil, err // sql.ErrNoRows if not found
	}
	return token, nil
}

// MarkRevoked revokes exactly one still-unrevoked row and reports whether
// this call performed the revocation. A false return means another writer got
// there first.
func (r *TokenRepository) MarkRevoked(tx *sql.Tx, id uuid.UUID) (bool, error) {
	res, err := tx.Exec(`UPDATE refresh_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to mark refresh token revoked")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateInTx inserts the replacement token inside the rotation transaction.
func (r *TokenRepository) CreateInTx(tx *sql.Tx, token *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, family, expires_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := tx.QueryRow(query, token.ID, token.UserID, token.TokenHash, token.Family, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		logger.Log.WithError(err).WithField("family", token.Family).Error("Failed to insert replacement refresh token")
		return err
	}
	return nil
}

// SetReplacedBy links a rotated-out token to its replacement.
func (r *TokenRepository) SetReplacedBy(tx *sql.Tx, id, replacedByID uuid.UUID) error {
	_, err := tx.Exec(`UPDATE refresh_tokens SET replaced_by_id = $1 WHERE id = $2`, replacedByID, id)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to set replacement pointer")
	}
	return err
}

// RevokeFamily revokes every still-unrevoked token in a rotation family.
// Used by the reuse-detection cascade.
func (r *TokenRepository) RevokeFamily(tx *sql.Tx, family uuid.UUID) (int64, error) {
	log := logger.Log.WithField("family", family)
	log.Info("Executing query to revoke an entire refresh token family")

	res, err := tx.Exec(`UPDATE refresh_tokens SET revoked_at = NOW() WHERE family = $1 AND revoked_at IS NULL`, family)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke family query")
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeByTokenHash revokes exactly the matching row (single-session logout),
// independent of its family.
func (r *TokenRepository) RevokeByTokenHash(tokenHash string) error {
	_, err := r.DB.Exec(`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to revoke refresh token by hash")
	}
	return err
}

// RevokeAllForUser revokes every still-unrevoked token owned by a user
// (logout-all, password reset, deactivation). Idempotent.
func (r *TokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all refresh tokens for a user")

	_, err := r.DB.Exec(`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke all refresh tokens query")
		return err
	}
	return nil
}
