// file: repository/user_repository.go

package repository

import (
	"database/sql"
	"manga-auth-api/logger"
	"manga-auth-api/model"

	"github.com/google/uuid"
)

// IUserRepository defines the contract for user database operations. The auth
// core reads role assignments and the active flag; profile CRUD lives in the
// catalog service.
type IUserRepository interface {
	Create(user *model.User, role model.Role) error
	GetByID(id uuid.UUID) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetRoles(userID uuid.UUID) ([]model.Role, error)
	ReplaceRoles(userID uuid.UUID, roles []model.Role) error
	UpdatePassword(userID uuid.UUID, passwordHash string) error
	SetEmailVerified(userID uuid.UUID) error
	SetActive(userID uuid.UUID, active bool) error
	UpdateLastLogin(userID uuid.UUID) error
	UsernameExists(username string) (bool, error)
	EmailExists(email string) (bool, error)
}

// UserRepository implements IUserRepository on top of database/sql.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserts a new user together with its initial role in one transaction.
func (r *UserRepository) Create(user *model.User, role model.Role) error {
	log := logger.Log.WithField("username", user.Username)
	log.Info("Executing query to create a new user")

	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO users (id, username, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err = tx.QueryRow(query, user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName).
		Scan(&user.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}

	if _, err := tx.Exec(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, user.ID, role); err != nil {
		log.WithError(err).Error("Failed to insert initial user role")
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	user.Roles = []model.Role{role}
	return nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password_hash, display_name, email_verified, is_active, last_login_at, created_at
		FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.EmailVerified, &user.IsActive, &user.LastLoginAt, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if user.Roles, err = r.GetRoles(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password_hash, display_name, email_verified, is_active, last_login_at, created_at
		FROM users WHERE email = $1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.EmailVerified, &user.IsActive, &user.LastLoginAt, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if user.Roles, err = r.GetRoles(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetRoles returns the current role assignments for a user. Called per
// request by the authorization gate so that role changes take effect without
// waiting for access-token expiry.
func (r *UserRepository) GetRoles(userID uuid.UUID) ([]model.Role, error) {
	rows, err := r.DB.Query(`SELECT role FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to query user roles")
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ReplaceRoles swaps a user's role set atomically.
func (r *UserRepository) ReplaceRoles(userID uuid.UUID, roles []model.Role) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to replace user roles")

	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		log.WithError(err).Error("Failed to clear user roles")
		return err
	}
	for _, role := range roles {
		if _, err := tx.Exec(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, role); err != nil {
			log.WithError(err).Error("Failed to insert user role")
			return err
		}
	}
	return tx.Commit()
}

func (r *UserRepository) UpdatePassword(userID uuid.UUID, passwordHash string) error {
	_, err := r.DB.Exec(`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to update password hash")
	}
	return err
}

func (r *UserRepository) SetEmailVerified(userID uuid.UUID) error {
	_, err := r.DB.Exec(`UPDATE users SET email_verified = TRUE WHERE id = $1`, userID)
	return err
}

func (r *UserRepository) SetActive(userID uuid.UUID, active bool) error {
	_, err := r.DB.Exec(`UPDATE users SET is_active = $1 WHERE id = $2`, active, userID)
	return err
}

func (r *UserRepository) UpdateLastLogin(userID uuid.UUID) error {
	_, err := r.DB.Exec(`UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	return err
}

func (r *UserRepository) UsernameExists(username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}
