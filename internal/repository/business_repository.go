package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/backoffice/internal/authz"
	"github.com/iliyamo/backoffice/internal/database"
	"github.com/iliyamo/backoffice/internal/model"
)

// BusinessRepo persists businesses and their contact card.
type BusinessRepo struct {
	db *sql.DB
}

func NewBusinessRepo(db *sql.DB) *BusinessRepo { return &BusinessRepo{db: db} }

// BusinessPatch carries the fields a client may change; nil means keep.
type BusinessPatch struct {
	Name        *string
	Description *string
	Tagline     *string
	Industry    *string
	Logo        *string
}

// ContactPatch carries contact fields to overwrite; nil keeps the stored value.
type ContactPatch struct {
	Email      *string
	Phone      *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
}

const businessCols = "t0.id, t0.account_id, t0.name, t0.description, t0.tagline, t0.industry, t0.logo, t0.created_at, t0.updated_at"

func scanBusiness(row scanner) (model.Business, error) {
	var b model.Business
	err := row.Scan(&b.ID, &b.AccountID, &b.Name, &b.Description, &b.Tagline, &b.Industry, &b.Logo, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, authz.NotFound(authz.Business)
	}
	return b, err
}

// List returns every business owned by the account.
func (r *BusinessRepo) List(ctx context.Context, accountID uint64) ([]model.Business, error) {
	q, args := authz.FilterFor(accountID, authz.Business, authz.OrderBy("t0.id")).Select(businessCols)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBusiness)
}

// Get returns one owned business or a NotFoundError.
func (r *BusinessRepo) Get(ctx context.Context, accountID, id uint64) (model.Business, error) {
	return getBusiness(ctx, r.db, accountID, id)
}

func getBusiness(ctx context.Context, q dbtx, accountID, id uint64, preds ...authz.Predicate) (model.Business, error) {
	query, args := authz.FilterFor(accountID, authz.Business, authz.ID(id)).With(preds...).Select(businessCols)
	return scanBusiness(q.QueryRowContext(ctx, query, args...))
}

// Create inserts b. b.AccountID must already hold the caller's identity.
func (r *BusinessRepo) Create(ctx context.Context, b *model.Business) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO businesses (account_id, name, description, tagline, industry, logo) VALUES (?,?,?,?,?,?)",
		b.AccountID, b.Name, b.Description, b.Tagline, b.Industry, b.Logo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := getBusiness(ctx, r.db, b.AccountID, uint64(id))
	if err != nil {
		return err
	}
	*b = created
	return nil
}

// Update applies p to an owned business. The owner column is never written.
func (r *BusinessRepo) Update(ctx context.Context, accountID, id uint64, p BusinessPatch) (model.Business, error) {
	var out model.Business
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := getBusiness(ctx, tx, accountID, id, authz.Locked); err != nil {
			return err
		}
		s := authz.FilterFor(accountID, authz.Business, authz.ID(id))
		q, args := s.Update(
			"t0.name = COALESCE(?, t0.name), t0.description = COALESCE(?, t0.description), "+
				"t0.tagline = COALESCE(?, t0.tagline), t0.industry = COALESCE(?, t0.industry), t0.logo = COALESCE(?, t0.logo)",
			p.Name, p.Description, p.Tagline, p.Industry, p.Logo)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		var err error
		out, err = getBusiness(ctx, tx, accountID, id)
		return err
	})
	return out, err
}

// Delete removes an owned business; its records cascade.
func (r *BusinessRepo) Delete(ctx context.Context, accountID, id uint64) error {
	return deleteScoped(ctx, r.db, authz.FilterFor(accountID, authz.Business, authz.ID(id)))
}

func deleteScoped(ctx context.Context, q dbtx, s authz.Scope) error {
	query, args := s.Delete()
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return authz.NotFound(s.Entity())
	}
	return nil
}

const contactCols = "t0.id, t0.business_id, t0.email, t0.phone, t0.address, t0.city, t0.state, t0.postal_code, t0.country, t0.updated_at"

// Contact returns the contact card of an owned business. A business that
// has never had one yields an empty card, not an error.
func (r *BusinessRepo) Contact(ctx context.Context, accountID, businessID uint64) (model.ContactInfo, error) {
	if _, err := authz.AuthorizeParent(ctx, r.db, accountID, authz.Business, &businessID); err != nil {
		return model.ContactInfo{}, err
	}
	return contactOf(ctx, r.db, accountID, businessID)
}

func contactOf(ctx context.Context, q dbtx, accountID, businessID uint64) (model.ContactInfo, error) {
	query, args := authz.FilterFor(accountID, authz.ContactInfo, authz.Ancestor(authz.Business, businessID)).Select(contactCols)
	var c model.ContactInfo
	err := q.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.BusinessID, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.PostalCode, &c.Country, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContactInfo{BusinessID: businessID}, nil
	}
	return c, err
}

// UpsertContact creates the card on first write and otherwise overwrites
// only the fields present in p, in one transaction.
func (r *BusinessRepo) UpsertContact(ctx context.Context, accountID, businessID uint64, p ContactPatch) (model.ContactInfo, error) {
	var out model.ContactInfo
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := authz.AuthorizeParent(ctx, tx, accountID, authz.Business, &businessID, authz.Locked); err != nil {
			return err
		}
		const q = `INSERT INTO contact_infos (business_id, email, phone, address, city, state, postal_code, country)
		           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		           ON DUPLICATE KEY UPDATE
		             email = COALESCE(VALUES(email), email),
		             phone = COALESCE(VALUES(phone), phone),
		             address = COALESCE(VALUES(address), address),
		             city = COALESCE(VALUES(city), city),
		             state = COALESCE(VALUES(state), state),
		             postal_code = COALESCE(VALUES(postal_code), postal_code),
		             country = COALESCE(VALUES(country), country)`
		if _, err := tx.ExecContext(ctx, q, businessID, p.Email, p.Phone, p.Address, p.City, p.State, p.PostalCode, p.Country); err != nil {
			return err
		}
		var err error
		out, err = contactOf(ctx, tx, accountID, businessID)
		return err
	})
	return out, err
}
