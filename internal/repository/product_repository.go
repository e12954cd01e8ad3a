package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/backoffice/internal/authz"
	"github.com/iliyamo/backoffice/internal/database"
	"github.com/iliyamo/backoffice/internal/model"
)

// ErrUnknownCategory is returned when a product references a category id
// that does not exist.
var ErrUnknownCategory = errors.New("category does not exist")

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductFilter narrows List. Nil fields are ignored.
type ProductFilter struct {
	BusinessID  *uint64
	CategoryID  *uint64
	IsAvailable *bool
	Date        *time.Time
}

// ProductInput is the body of a create. Either CategoryID or CategoryName
// selects the category; a name that does not exist yet is created.
type ProductInput struct {
	BusinessID   *uint64
	CategoryID   *uint64
	CategoryName *string
	Name         string
	Description  string
	Price        decimal.Decimal
	Image        string
	IsAvailable  *bool
	Stock        *int
}

// ProductPatch is the body of an update; nil keeps the stored value.
type ProductPatch struct {
	BusinessID   *uint64
	CategoryID   *uint64
	CategoryName *string
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	Image        *string
	IsAvailable  *bool
	Stock        *int
}

const productCols = "t0.id, t0.business_id, t0.category_id, c.name, t0.name, t0.description, t0.price, t0.image, t0.is_available, t0.stock, t0.created_at"

var withCategory = authz.Join("JOIN categories c ON c.id = t0.category_id")

func scanProduct(row scanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Description, &p.Price, &p.Image, &p.IsAvailable, &p.Stock, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, authz.NotFound(authz.Product)
	}
	return p, err
}

func (r *ProductRepo) List(ctx context.Context, accountID uint64, f ProductFilter) ([]model.Product, error) {
	preds := []authz.Predicate{withCategory, authz.OrderBy("t0.created_at DESC, t0.id DESC")}
	if f.BusinessID != nil {
		preds = append(preds, authz.Ancestor(authz.Business, *f.BusinessID))
	}
	if f.CategoryID != nil {
		preds = append(preds, authz.Eq("category_id", *f.CategoryID))
	}
	if f.IsAvailable != nil {
		preds = append(preds, authz.Eq("is_available", *f.IsAvailable))
	}
	if f.Date != nil {
		preds = append(preds, authz.OnDate("created_at", *f.Date))
	}
	q, args := authz.FilterFor(accountID, authz.Product, preds...).Select(productCols)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

func (r *ProductRepo) Get(ctx context.Context, accountID, id uint64) (model.Product, error) {
	return getProduct(ctx, r.db, accountID, id)
}

func getProduct(ctx context.Context, q dbtx, accountID, id uint64, preds ...authz.Predicate) (model.Product, error) {
	s := authz.FilterFor(accountID, authz.Product, authz.ID(id), withCategory).With(preds...)
	query, args := s.Select(productCols)
	return scanProduct(q.QueryRowContext(ctx, query, args...))
}

// resolveCategory returns the category id selected by id or name.
func resolveCategory(ctx context.Context, q dbtx, id *uint64, name *string) (uint64, error) {
	switch {
	case id != nil && *id != 0:
		if _, err := categoryByID(ctx, q, *id); err != nil {
			if errors.Is(err, authz.ErrNotFound) {
				return 0, ErrUnknownCategory
			}
			return 0, err
		}
		return *id, nil
	case name != nil && *name != "":
		c, _, err := getOrCreateCategory(ctx, q, *name, "")
		return c.ID, err
	}
	return 0, &authz.MissingParameterError{Param: authz.SelectorParam(authz.Category)}
}

// Create authorizes the parent business and inserts the product under it.
func (r *ProductRepo) Create(ctx context.Context, accountID uint64, in ProductInput) (model.Product, error) {
	var out model.Product
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		businessID, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, in.BusinessID, authz.Locked)
		if err != nil {
			return err
		}
		categoryID, err := resolveCategory(ctx, tx, in.CategoryID, in.CategoryName)
		if err != nil {
			return err
		}
		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		stock := 0
		if in.Stock != nil {
			stock = *in.Stock
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO products (business_id, category_id, name, description, price, image, is_available, stock) VALUES (?,?,?,?,?,?,?,?)",
			businessID, categoryID, in.Name, in.Description, in.Price, in.Image, available, stock)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out, err = getProduct(ctx, tx, accountID, uint64(id))
		return err
	})
	return out, err
}

// Update applies p. Moving the product to another business re-authorizes
// the destination.
func (r *ProductRepo) Update(ctx context.Context, accountID, id uint64, p ProductPatch) (model.Product, error) {
	var out model.Product
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := getProduct(ctx, tx, accountID, id, authz.Locked)
		if err != nil {
			return err
		}
		var businessID, categoryID *uint64
		if p.BusinessID != nil && *p.BusinessID != cur.BusinessID {
			b, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, p.BusinessID, authz.Locked)
			if err != nil {
				return err
			}
			businessID = &b
		}
		if p.CategoryID != nil || p.CategoryName != nil {
			c, err := resolveCategory(ctx, tx, p.CategoryID, p.CategoryName)
			if err != nil {
				return err
			}
			categoryID = &c
		}
		q, args := authz.FilterFor(accountID, authz.Product, authz.ID(id)).Update(
			"t0.business_id = COALESCE(?, t0.business_id), t0.category_id = COALESCE(?, t0.category_id), "+
				"t0.name = COALESCE(?, t0.name), t0.description = COALESCE(?, t0.description), "+
				"t0.price = COALESCE(?, t0.price), t0.image = COALESCE(?, t0.image), "+
				"t0.is_available = COALESCE(?, t0.is_available), t0.stock = COALESCE(?, t0.stock)",
			businessID, categoryID, p.Name, p.Description, p.Price, p.Image, p.IsAvailable, p.Stock)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		out, err = getProduct(ctx, tx, accountID, id)
		return err
	})
	return out, err
}

// Delete removes an owned product; its orders cascade.
func (r *ProductRepo) Delete(ctx context.Context, accountID, id uint64) error {
	return deleteScoped(ctx, r.db, authz.FilterFor(accountID, authz.Product, authz.ID(id)))
}
