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

// MaxOrderTotal is the largest value total_price DECIMAL(10,2) holds.
var MaxOrderTotal = decimal.RequireFromString("99999999.99")

func orderTotal(price decimal.Decimal, quantity int) (decimal.Decimal, error) {
	t := price.Mul(decimal.NewFromInt(int64(quantity)))
	if t.GreaterThan(MaxOrderTotal) {
		return decimal.Zero, ErrTotalTooLarge
	}
	return t, nil
}

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

type OrderFilter struct {
	BusinessID *uint64
	ProductID  *uint64
	Status     *string
	Date       *time.Time
}

// OrderInput is the body of a create. The total is always derived from the
// locked product row.
type OrderInput struct {
	ProductID     *uint64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Quantity      int
	Status        string
	Notes         string
}

type OrderPatch struct {
	ProductID     *uint64
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	Quantity      *int
	Status        *string
	Notes         *string
}

func orderCols(s authz.Scope) string {
	return "t0.id, t0.product_id, " + s.AliasOf(authz.Product) + ".name, t0.customer_name, t0.customer_email, " +
		"t0.customer_phone, t0.quantity, t0.total_price, t0.status, t0.notes, t0.created_at"
}

func scanOrder(row scanner) (model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.CustomerName, &o.CustomerEmail,
		&o.CustomerPhone, &o.Quantity, &o.TotalPrice, &o.Status, &o.Notes, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, authz.NotFound(authz.Order)
	}
	return o, err
}

func (r *OrderRepo) List(ctx context.Context, accountID uint64, f OrderFilter) ([]model.Order, error) {
	preds := []authz.Predicate{authz.OrderBy("t0.created_at DESC, t0.id DESC")}
	if f.BusinessID != nil {
		preds = append(preds, authz.Ancestor(authz.Business, *f.BusinessID))
	}
	if f.ProductID != nil {
		preds = append(preds, authz.Ancestor(authz.Product, *f.ProductID))
	}
	if f.Status != nil {
		preds = append(preds, authz.Eq("status", *f.Status))
	}
	if f.Date != nil {
		preds = append(preds, authz.OnDate("created_at", *f.Date))
	}
	s := authz.FilterFor(accountID, authz.Order, preds...)
	q, args := s.Select(orderCols(s))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrder)
}

func (r *OrderRepo) Get(ctx context.Context, accountID, id uint64) (model.Order, error) {
	return getOrder(ctx, r.db, accountID, id)
}

func getOrder(ctx context.Context, q dbtx, accountID, id uint64, preds ...authz.Predicate) (model.Order, error) {
	s := authz.FilterFor(accountID, authz.Order, authz.ID(id)).With(preds...)
	query, args := s.Select(orderCols(s))
	return scanOrder(q.QueryRowContext(ctx, query, args...))
}

// lockedPrice authorizes the product an order references and returns its
// price, holding the row until commit.
func lockedPrice(ctx context.Context, tx *sql.Tx, accountID uint64, productID *uint64) (uint64, decimal.Decimal, error) {
	if productID == nil || *productID == 0 {
		return 0, decimal.Zero, &authz.MissingParameterError{Param: authz.SelectorParam(authz.Product)}
	}
	q, args := authz.FilterFor(accountID, authz.Product, authz.ID(*productID), authz.Locked).Select("t0.price")
	var price decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, price, authz.NotFound(authz.Product)
		}
		return 0, price, err
	}
	return *productID, price, nil
}

// Create inserts an order for an owned product. The total price is the
// product price times the quantity; a missing status becomes pending.
func (r *OrderRepo) Create(ctx context.Context, accountID uint64, in OrderInput) (model.Order, error) {
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	if in.Status == "" {
		in.Status = model.OrderPending
	}
	var out model.Order
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		productID, price, err := lockedPrice(ctx, tx, accountID, in.ProductID)
		if err != nil {
			return err
		}
		total, err := orderTotal(price, in.Quantity)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO orders (product_id, customer_name, customer_email, customer_phone, quantity, total_price, status, notes) VALUES (?,?,?,?,?,?,?,?)",
			productID, in.CustomerName, in.CustomerEmail, in.CustomerPhone, in.Quantity, total, in.Status, in.Notes)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out, err = getOrder(ctx, tx, accountID, uint64(id))
		return err
	})
	return out, err
}

// Update applies p. A new product or quantity recomputes the total.
func (r *OrderRepo) Update(ctx context.Context, accountID, id uint64, p OrderPatch) (model.Order, error) {
	var out model.Order
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := getOrder(ctx, tx, accountID, id, authz.Locked)
		if err != nil {
			return err
		}
		productID, quantity := cur.ProductID, cur.Quantity
		if p.ProductID != nil {
			productID = *p.ProductID
		}
		if p.Quantity != nil {
			quantity = *p.Quantity
		}
		var total *decimal.Decimal
		if productID != cur.ProductID || quantity != cur.Quantity {
			_, price, err := lockedPrice(ctx, tx, accountID, &productID)
			if err != nil {
				return err
			}
			t, err := orderTotal(price, quantity)
			if err != nil {
				return err
			}
			total = &t
		}
		q, args := authz.FilterFor(accountID, authz.Order, authz.ID(id)).Update(
			"t0.product_id = ?, t0.quantity = ?, t0.total_price = COALESCE(?, t0.total_price), "+
				"t0.customer_name = COALESCE(?, t0.customer_name), t0.customer_email = COALESCE(?, t0.customer_email), "+
				"t0.customer_phone = COALESCE(?, t0.customer_phone), t0.status = COALESCE(?, t0.status), t0.notes = COALESCE(?, t0.notes)",
			productID, quantity, total, p.CustomerName, p.CustomerEmail, p.CustomerPhone, p.Status, p.Notes)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		out, err = getOrder(ctx, tx, accountID, id)
		return err
	})
	return out, err
}

func (r *OrderRepo) Delete(ctx context.Context, accountID, id uint64) error {
	return deleteScoped(ctx, r.db, authz.FilterFor(accountID, authz.Order, authz.ID(id)))
}
