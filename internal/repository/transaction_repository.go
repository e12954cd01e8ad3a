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

// TransactionRepo stores the bookkeeping lines of owned businesses.
type TransactionRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db, now: time.Now}
}

type TransactionFilter struct {
	BusinessID *uint64
	Type       *string
	Status     *string
	Date       *time.Time
}

type TransactionInput struct {
	BusinessID  *uint64
	Description string
	Amount      decimal.Decimal
	Type        string
	Category    string
	Date        model.Date
	Status      string
}

type TransactionPatch struct {
	BusinessID  *uint64
	Description *string
	Amount      *decimal.Decimal
	Type        *string
	Category    *string
	Date        *model.Date
	Status      *string
}

const transactionCols = "t0.id, t0.business_id, t0.description, t0.amount, t0.type, t0.category, t0.date, t0.status, t0.created_at"

func scanTransaction(row scanner) (model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(&t.ID, &t.BusinessID, &t.Description, &t.Amount, &t.Type, &t.Category, &t.Date, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, authz.NotFound(authz.Transaction)
	}
	return t, err
}

func (r *TransactionRepo) List(ctx context.Context, accountID uint64, f TransactionFilter) ([]model.Transaction, error) {
	preds := []authz.Predicate{authz.OrderBy("t0.date DESC, t0.id DESC")}
	if f.BusinessID != nil {
		preds = append(preds, authz.Ancestor(authz.Business, *f.BusinessID))
	}
	if f.Type != nil {
		preds = append(preds, authz.Eq("type", *f.Type))
	}
	if f.Status != nil {
		preds = append(preds, authz.Eq("status", *f.Status))
	}
	if f.Date != nil {
		preds = append(preds, authz.OnDate("date", *f.Date))
	}
	q, args := authz.FilterFor(accountID, authz.Transaction, preds...).Select(transactionCols)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTransaction)
}

func (r *TransactionRepo) Get(ctx context.Context, accountID, id uint64) (model.Transaction, error) {
	return getTransaction(ctx, r.db, accountID, id)
}

func getTransaction(ctx context.Context, q dbtx, accountID, id uint64) (model.Transaction, error) {
	query, args := authz.FilterFor(accountID, authz.Transaction, authz.ID(id)).Select(transactionCols)
	return scanTransaction(q.QueryRowContext(ctx, query, args...))
}

// Create records a line under an owned business. Missing status becomes
// completed and a zero date becomes today.
func (r *TransactionRepo) Create(ctx context.Context, accountID uint64, in TransactionInput) (model.Transaction, error) {
	if in.Status == "" {
		in.Status = model.TxCompleted
	}
	if in.Date.IsZero() {
		in.Date = model.DayOf(r.now())
	}
	var out model.Transaction
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		businessID, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, in.BusinessID, authz.Locked)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO transactions (business_id, description, amount, type, category, date, status) VALUES (?,?,?,?,?,?,?)",
			businessID, in.Description, in.Amount, in.Type, in.Category, in.Date, in.Status)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out, err = getTransaction(ctx, tx, accountID, uint64(id))
		return err
	})
	return out, err
}

func (r *TransactionRepo) Update(ctx context.Context, accountID, id uint64, p TransactionPatch) (model.Transaction, error) {
	var out model.Transaction
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := getTransaction(ctx, tx, accountID, id)
		if err != nil {
			return err
		}
		if p.BusinessID != nil && *p.BusinessID != cur.BusinessID {
			if _, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, p.BusinessID, authz.Locked); err != nil {
				return err
			}
		}
		q, args := authz.FilterFor(accountID, authz.Transaction, authz.ID(id)).Update(
			"t0.business_id = COALESCE(?, t0.business_id), t0.description = COALESCE(?, t0.description), "+
				"t0.amount = COALESCE(?, t0.amount), t0.type = COALESCE(?, t0.type), t0.category = COALESCE(?, t0.category), "+
				"t0.date = COALESCE(?, t0.date), t0.status = COALESCE(?, t0.status)",
			p.BusinessID, p.Description, p.Amount, p.Type, p.Category, p.Date, p.Status)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		out, err = getTransaction(ctx, tx, accountID, id)
		return err
	})
	return out, err
}

func (r *TransactionRepo) Delete(ctx context.Context, accountID, id uint64) error {
	return deleteScoped(ctx, r.db, authz.FilterFor(accountID, authz.Transaction, authz.ID(id)))
}
