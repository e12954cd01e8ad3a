package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/backoffice/internal/authz"
	"github.com/iliyamo/backoffice/internal/database"
	"github.com/iliyamo/backoffice/internal/model"
)

// ErrCategoryNameTaken is returned when a rename collides with another category.
var ErrCategoryNameTaken = errors.New("category name already exists")

// CategoryRepo reads the shared taxonomy through the caller's products and
// guards mutations that would affect other accounts.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// CategoryPatch carries the fields of an update; nil keeps the stored value.
type CategoryPatch struct {
	Name        *string
	Description *string
}

const categoryCols = "t0.id, t0.name, t0.description"

func scanCategory(row scanner) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return c, authz.NotFound(authz.Category)
	}
	return c, err
}

// List returns the categories referenced by at least one of the caller's products.
func (r *CategoryRepo) List(ctx context.Context, accountID uint64) ([]model.Category, error) {
	q, args := authz.FilterFor(accountID, authz.Category, authz.OrderBy("t0.name")).Select(categoryCols)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCategory)
}

// Get returns one visible category.
func (r *CategoryRepo) Get(ctx context.Context, accountID, id uint64) (model.Category, error) {
	return getCategory(ctx, r.db, accountID, id)
}

func getCategory(ctx context.Context, q dbtx, accountID, id uint64, preds ...authz.Predicate) (model.Category, error) {
	query, args := authz.FilterFor(accountID, authz.Category, authz.ID(id)).With(preds...).Select(categoryCols)
	return scanCategory(q.QueryRowContext(ctx, query, args...))
}

// GetOrCreate returns the category named name, inserting it when absent.
// created is false when the name already existed.
func (r *CategoryRepo) GetOrCreate(ctx context.Context, name, description string) (model.Category, bool, error) {
	return getOrCreateCategory(ctx, r.db, name, description)
}

func getOrCreateCategory(ctx context.Context, q dbtx, name, description string) (model.Category, bool, error) {
	name = strings.TrimSpace(name)
	res, err := q.ExecContext(ctx,
		"INSERT INTO categories (name, description) VALUES (?, ?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)",
		name, description)
	if err != nil {
		return model.Category{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, false, err
	}
	n, _ := res.RowsAffected()
	c, err := categoryByID(ctx, q, uint64(id))
	return c, n == 1, err
}

// categoryByID is an unscoped lookup; categories carry no owner.
func categoryByID(ctx context.Context, q dbtx, id uint64) (model.Category, error) {
	return scanCategory(q.QueryRowContext(ctx, "SELECT t0.id, t0.name, t0.description FROM categories t0 WHERE t0.id = ?", id))
}

// sharedWithOthers reports whether a product of another account references the category.
func sharedWithOthers(ctx context.Context, q dbtx, accountID, categoryID uint64) (bool, error) {
	p := authz.PathOf(authz.Product, "p")
	query := "SELECT 1 FROM " + p.From + " WHERE " + p.Aliases[authz.Product] + ".category_id = ? AND " + p.Owner + " <> ? LIMIT 1"
	var one int
	err := q.QueryRowContext(ctx, query, categoryID, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// guard locks a visible category and rejects it when other accounts use it.
func guard(ctx context.Context, tx *sql.Tx, accountID, id uint64) error {
	if _, err := getCategory(ctx, tx, accountID, id, authz.Locked); err != nil {
		return err
	}
	shared, err := sharedWithOthers(ctx, tx, accountID, id)
	if err != nil {
		return err
	}
	if shared {
		return ErrConflict
	}
	return nil
}

// Update renames or re-describes a category used only by the caller.
func (r *CategoryRepo) Update(ctx context.Context, accountID, id uint64, p CategoryPatch) (model.Category, error) {
	var out model.Category
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := guard(ctx, tx, accountID, id); err != nil {
			return err
		}
		if p.Name != nil {
			n := strings.TrimSpace(*p.Name)
			p.Name = &n
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE categories SET name = COALESCE(?, name), description = COALESCE(?, description) WHERE id = ?",
			p.Name, p.Description, id)
		if err != nil {
			if _, dup := duplicateKey(err); dup {
				return ErrCategoryNameTaken
			}
			return err
		}
		out, err = categoryByID(ctx, tx, id)
		return err
	})
	return out, err
}

// Delete removes a category used only by the caller, together with the
// caller's products filed under it.
func (r *CategoryRepo) Delete(ctx context.Context, accountID, id uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := guard(ctx, tx, accountID, id); err != nil {
			return err
		}
		q, args := authz.FilterFor(accountID, authz.Product, authz.Eq("category_id", id)).Delete()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
			if referenced(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
}
