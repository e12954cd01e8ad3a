package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AuthorizeParent validates the parent a new record will hang under. A nil
// id yields *MissingParameterError naming the selector; a parent that does
// not exist or belongs to someone else yields a NotFoundError. Pass Locked
// inside a transaction to hold the parent row until commit.
func AuthorizeParent(ctx context.Context, q Querier, accountID uint64, parent Entity, id *uint64, preds ...Predicate) (uint64, error) {
	if id == nil || *id == 0 {
		return 0, &MissingParameterError{Param: SelectorParam(parent)}
	}
	s := FilterFor(accountID, parent, ID(*id)).With(preds...)
	query, args := s.Exists()
	var one int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, NotFound(parent)
		}
		return 0, err
	}
	return *id, nil
}

// ErrNoOwner is returned by ResolveOwner for Derived entities, which are
// shared and have no single owner.
var ErrNoOwner = errors.New("entity has no owner path")

// ResolveOwner returns the account owning a Direct or Chained record.
func ResolveOwner(ctx context.Context, q Querier, e Entity, id uint64) (uint64, error) {
	if RuleOf(e).Kind == Derived {
		return 0, fmt.Errorf("%s: %w", e, ErrNoOwner)
	}
	p := PathOf(e, "t")
	var owner uint64
	err := q.QueryRowContext(ctx, "SELECT "+p.Owner+" FROM "+p.From+" WHERE "+p.Aliases[e]+".id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NotFound(e)
	}
	return owner, err
}
