package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = fmt.Errorf("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
var ErrDuplicate = fmt.Errorf("already exists")

// isUniqueViolation reports whether err is a Postgres unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const userColumns = `
	id, phone, email, name, password_hash,
	is_admin, is_captain, is_user, captain_code, admin_verified,
	is_active, created_at, updated_at`

// UserRepository handles database operations for the users table
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Phone, &user.Email, &user.Name, &user.PasswordHash,
		&user.IsAdmin, &user.IsCaptain, &user.IsUser, &user.CaptainCode, &user.AdminVerified,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new account. Accounts start inactive; activation
// happens through a verified registration payment.
func (r *UserRepository) CreateUser(user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, phone, email, name, password_hash,
			is_admin, is_captain, is_user, captain_code, admin_verified, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING` + userColumns

	row := r.db.QueryRow(query,
		user.ID, user.Phone, user.Email, user.Name, user.PasswordHash,
		user.IsAdmin, user.IsCaptain, user.IsUser, user.CaptainCode, user.AdminVerified,
		user.IsActive,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(query, id))
}

// GetByPhone retrieves a user by phone number
func (r *UserRepository) GetByPhone(phone string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(r.db.QueryRow(query, phone))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(query, email))
}

// GetByCaptainCode retrieves a captain account by its code
func (r *UserRepository) GetByCaptainCode(code string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE captain_code = $1`
	return scanUser(r.db.QueryRow(query, code))
}

// PhoneExists reports whether a phone number is already registered
func (r *UserRepository) PhoneExists(phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`, phone).Scan(&exists)
	return exists, err
}

// EmailExists reports whether an email is already registered
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// CaptainCodeExists reports whether a captain code is already taken
func (r *UserRepository) CaptainCodeExists(code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE captain_code = $1)`, code).Scan(&exists)
	return exists, err
}

// Activate flips is_active to true. Returns the number of rows changed so
// callers can tell a fresh activation from an idempotent retry.
func (r *UserRepository) Activate(id uuid.UUID) (int64, error) {
	res, err := r.db.Exec(`UPDATE users SET is_active = true, updated_at = NOW() WHERE id = $1 AND is_active = false`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetAdminVerified updates the captain admin-verification flag
func (r *UserRepository) SetAdminVerified(id uuid.UUID, verified bool) error {
	_, err := r.db.Exec(`UPDATE users SET admin_verified = $2, updated_at = NOW() WHERE id = $1`, id, verified)
	return err
}
