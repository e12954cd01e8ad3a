package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/backoffice/internal/model"
)

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrAccountMissing = errors.New("account not found")
)

// AccountRepo is the credential store.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id, username, email, password_hash, first_name, last_name, created_at, updated_at"

func scanAccount(row scanner) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrAccountMissing
	}
	return a, err
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts an account whose PasswordHash is already computed and
// sets its ID. Unique violations map to ErrEmailExists / ErrUsernameExists.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	a.Email = NormalizeEmail(a.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (username, email, password_hash, first_name, last_name) VALUES (?,?,?,?,?)",
		a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName)
	if err != nil {
		if key, ok := duplicateKey(err); ok {
			if strings.Contains(key, "username") {
				return ErrUsernameExists
			}
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", NormalizeEmail(email)))
}

// GetByUsername fetches an account by exact username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE username=? LIMIT 1", strings.TrimSpace(username)))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id))
}

// UpdatePassword replaces the hash only if it still equals oldHash, so two
// racing resets with the same token cannot both succeed.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id uint64, oldHash, newHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND password_hash=?",
		newHash, id, oldHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountMissing
	}
	return nil
}
