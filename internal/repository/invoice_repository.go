package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/backoffice/internal/authz"
	"github.com/iliyamo/backoffice/internal/database"
	"github.com/iliyamo/backoffice/internal/model"
)

// ErrInvoiceNumberTaken is returned when a client-chosen number already exists.
var ErrInvoiceNumberTaken = errors.New("invoice number already exists")

// InvoiceRepo stores invoices and assigns their numbers.
type InvoiceRepo struct {
	db      *sql.DB
	now     func() time.Time
	numbers func(time.Time) (string, error)
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db, now: time.Now, numbers: NewInvoiceNumber}
}

type InvoiceFilter struct {
	BusinessID *uint64
	Status     *string
}

type InvoiceInput struct {
	BusinessID    *uint64
	InvoiceNumber string
	ClientName    string
	DueDate       model.Date
	Amount        decimal.Decimal
	Status        string
}

// InvoicePatch has no number field: a number is never rewritten.
type InvoicePatch struct {
	BusinessID *uint64
	ClientName *string
	DueDate    *model.Date
	Amount     *decimal.Decimal
	Status     *string
}

const invoiceCols = "t0.id, t0.business_id, t0.invoice_number, t0.client_name, t0.due_date, t0.amount, t0.status, t0.created_at"

func scanInvoice(row scanner) (model.Invoice, error) {
	var i model.Invoice
	err := row.Scan(&i.ID, &i.BusinessID, &i.InvoiceNumber, &i.ClientName, &i.DueDate, &i.Amount, &i.Status, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return i, authz.NotFound(authz.Invoice)
	}
	return i, err
}

func (r *InvoiceRepo) List(ctx context.Context, accountID uint64, f InvoiceFilter) ([]model.Invoice, error) {
	preds := []authz.Predicate{authz.OrderBy("t0.created_at DESC, t0.id DESC")}
	if f.BusinessID != nil {
		preds = append(preds, authz.Ancestor(authz.Business, *f.BusinessID))
	}
	if f.Status != nil {
		preds = append(preds, authz.Eq("status", *f.Status))
	}
	q, args := authz.FilterFor(accountID, authz.Invoice, preds...).Select(invoiceCols)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvoice)
}

func (r *InvoiceRepo) Get(ctx context.Context, accountID, id uint64) (model.Invoice, error) {
	return getInvoice(ctx, r.db, accountID, id)
}

func getInvoice(ctx context.Context, q dbtx, accountID, id uint64) (model.Invoice, error) {
	query, args := authz.FilterFor(accountID, authz.Invoice, authz.ID(id)).Select(invoiceCols)
	return scanInvoice(q.QueryRowContext(ctx, query, args...))
}

// Create inserts an invoice under an owned business. Without a number one
// is generated and regenerated on collision, up to five times, after which
// ErrTransient is returned. A supplied number that collides is
// ErrInvoiceNumberTaken.
func (r *InvoiceRepo) Create(ctx context.Context, accountID uint64, in InvoiceInput) (model.Invoice, error) {
	if in.Status == "" {
		in.Status = model.InvoiceUnpaid
	}
	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	var out model.Invoice
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		businessID, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, in.BusinessID)
		if err != nil {
			return err
		}
		id, err := r.insertNumbered(ctx, tx, businessID, in)
		if err != nil {
			return err
		}
		out, err = getInvoice(ctx, tx, accountID, id)
		return err
	})
	return out, err
}

func (r *InvoiceRepo) insertNumbered(ctx context.Context, tx *sql.Tx, businessID uint64, in InvoiceInput) (uint64, error) {
	const q = "INSERT INTO invoices (business_id, invoice_number, client_name, due_date, amount, status) VALUES (?,?,?,?,?,?)"
	supplied := in.InvoiceNumber != ""
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := in.InvoiceNumber
		if !supplied {
			var err error
			if number, err = r.numbers(r.now()); err != nil {
				return 0, err
			}
		}
		// A failed statement inside an InnoDB transaction rolls back only itself.
		res, err := tx.ExecContext(ctx, q, businessID, number, in.ClientName, in.DueDate, in.Amount, in.Status)
		if err == nil {
			id, err := res.LastInsertId()
			return uint64(id), err
		}
		if key, dup := duplicateKey(err); !dup || key != invoiceNumberKey {
			return 0, err
		}
		if supplied {
			return 0, ErrInvoiceNumberTaken
		}
	}
	return 0, ErrTransient
}

func (r *InvoiceRepo) Update(ctx context.Context, accountID, id uint64, p InvoicePatch) (model.Invoice, error) {
	var out model.Invoice
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := getInvoice(ctx, tx, accountID, id)
		if err != nil {
			return err
		}
		if p.BusinessID != nil && *p.BusinessID != cur.BusinessID {
			if _, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, p.BusinessID, authz.Locked); err != nil {
				return err
			}
		}
		q, args := authz.FilterFor(accountID, authz.Invoice, authz.ID(id)).Update(
			"t0.business_id = COALESCE(?, t0.business_id), t0.client_name = COALESCE(?, t0.client_name), "+
				"t0.due_date = COALESCE(?, t0.due_date), t0.amount = COALESCE(?, t0.amount), t0.status = COALESCE(?, t0.status)",
			p.BusinessID, p.ClientName, p.DueDate, p.Amount, p.Status)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		out, err = getInvoice(ctx, tx, accountID, id)
		return err
	})
	return out, err
}

func (r *InvoiceRepo) Delete(ctx context.Context, accountID, id uint64) error {
	return deleteScoped(ctx, r.db, authz.FilterFor(accountID, authz.Invoice, authz.ID(id)))
}

// Document gathers what the invoice renderer needs: the invoice, its
// business and the business contact card.
func (r *InvoiceRepo) Document(ctx context.Context, accountID, id uint64) (model.InvoiceDocument, error) {
	inv, err := getInvoice(ctx, r.db, accountID, id)
	if err != nil {
		return model.InvoiceDocument{}, err
	}
	b, err := getBusiness(ctx, r.db, accountID, inv.BusinessID)
	if err != nil {
		return model.InvoiceDocument{}, err
	}
	c, err := contactOf(ctx, r.db, accountID, inv.BusinessID)
	if err != nil {
		return model.InvoiceDocument{}, err
	}
	return model.InvoiceDocument{Invoice: inv, Business: b, Contact: c}, nil
}
