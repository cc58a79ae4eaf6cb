package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// UserRepository handles data access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername returns an account by username (the phone number).
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	const q = `SELECT * FROM users WHERE username = $1 LIMIT 1`

	var u models.User
	if err := r.db.Get(&u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns an account by id.
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	const q = `SELECT * FROM users WHERE id = $1 LIMIT 1`

	var u models.User
	if err := r.db.Get(&u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account. A duplicate username surfaces as
// ErrPhoneTaken.
func (r *UserRepository) Create(u *models.User) error {
	const q = `
        INSERT INTO users (username, phone_number, password_hash, first_name, last_name, payment_status, token_version, is_staff, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(q,
		u.Username, u.PhoneNumber, u.PasswordHash, u.FirstName, u.LastName,
		u.PaymentStatus, u.TokenVersion, u.IsStaff, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return utils.ErrPhoneTaken
	}
	return err
}

// BindDevice claims deviceID for the account. The partial unique index on
// device_id rejects a device already bound elsewhere, which surfaces as
// ErrDeviceTaken — this is how the concurrent first-login race resolves.
func (r *UserRepository) BindDevice(userID int64, deviceID string) error {
	const q = `UPDATE users SET device_id = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(q, userID, deviceID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return utils.ErrDeviceTaken
	}
	return err
}

// BumpTokenVersion increments the account's token version and returns the
// new value, revoking every previously issued token.
func (r *UserRepository) BumpTokenVersion(userID int64) (int64, error) {
	const q = `
        UPDATE users SET token_version = token_version + 1, updated_at = NOW()
        WHERE id = $1
        RETURNING token_version`

	var version int64
	if err := r.db.Get(&version, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, utils.ErrUserNotFound
		}
		return 0, err
	}
	return version, nil
}

// ResetDevice clears the bound device and bumps the token version so the
// account can rebind on its next login. Used by the operator reset action.
func (r *UserRepository) ResetDevice(userID int64) error {
	const q = `
        UPDATE users SET device_id = NULL, token_version = token_version + 1, updated_at = NOW()
        WHERE id = $1`

	res, err := r.db.Exec(q, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}

// SetPaymentStatus updates the account's payment status.
func (r *UserRepository) SetPaymentStatus(userID int64, status models.PaymentStatus) error {
	const q = `UPDATE users SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.Exec(q, userID, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}
