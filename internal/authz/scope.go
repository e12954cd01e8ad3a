package authz

import (
	"fmt"
	"strings"
	"time"
)

// Root is the alias of the scoped entity's own table in every query.
const Root = "t0"

// Scope is the ownership-closure predicate of one account over one entity
// type, plus any caller-supplied filters. It renders MySQL statements; the
// FROM clause carries one JOIN per ownership hop.
type Scope struct {
	entity  Entity
	from    string
	joins   []string
	aliases map[Entity]string
	where   []string
	args    []any
	orderBy string
	limit   int
	lock    bool
}

// Predicate narrows a Scope.
type Predicate func(*Scope)

// FilterFor returns the scope restricting e to records reachable from
// accountID, narrowed by preds.
func FilterFor(accountID uint64, e Entity, preds ...Predicate) Scope {
	r := RuleOf(e)
	var s Scope
	if r.Kind == Derived {
		child := PathOf(r.Parent, "c")
		s = Scope{
			entity:  e,
			from:    r.Table + " " + Root,
			aliases: map[Entity]string{e: Root},
		}
		s.where = append(s.where, fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s.%s = %s.id AND %s = ?)",
			child.From, child.Aliases[r.Parent], r.Field, Root, child.Owner))
	} else {
		p := PathOf(e, "t")
		s = Scope{entity: e, from: p.From, aliases: p.Aliases}
		s.where = append(s.where, p.Owner+" = ?")
	}
	s.args = append(s.args, accountID)
	return s.With(preds...)
}

// With returns a copy of s narrowed by preds.
func (s Scope) With(preds ...Predicate) Scope {
	s.where = append([]string(nil), s.where...)
	s.args = append([]any(nil), s.args...)
	s.joins = append([]string(nil), s.joins...)
	for _, p := range preds {
		p(&s)
	}
	return s
}

// Entity returns the scoped entity type.
func (s Scope) Entity() Entity { return s.entity }

// AliasOf returns the alias of an entity on the ownership path, so callers
// can select columns of joined parents (e.g. the product name of an order).
func (s Scope) AliasOf(e Entity) string {
	a, ok := s.aliases[e]
	if !ok {
		panic(fmt.Sprintf("authz: %q is not on the ownership path of %q", e, s.entity))
	}
	return a
}

// Col qualifies a column of the scoped entity.
func (s Scope) Col(name string) string { return Root + "." + name }

// ID narrows the scope to one record.
func ID(id uint64) Predicate { return Eq("id", id) }

// Eq matches a column of the scoped entity.
func Eq(column string, v any) Predicate {
	return func(s *Scope) {
		s.where = append(s.where, s.Col(column)+" = ?")
		s.args = append(s.args, v)
	}
}

// OnDate matches a DATE or DATETIME column of the scoped entity to a day.
func OnDate(column string, day time.Time) Predicate {
	return func(s *Scope) {
		s.where = append(s.where, "DATE("+s.Col(column)+") = ?")
		s.args = append(s.args, day.Format("2006-01-02"))
	}
}

// Ancestor restricts records to those under one ancestor record, e.g.
// products of one business or orders of one business. The ancestor must be
// on the scoped entity's ownership path.
func Ancestor(e Entity, id uint64) Predicate {
	return func(s *Scope) {
		s.where = append(s.where, s.AliasOf(e)+".id = ?")
		s.args = append(s.args, id)
	}
}

// Join adds a non-ownership join such as a lookup table.
func Join(clause string) Predicate {
	return func(s *Scope) { s.joins = append(s.joins, clause) }
}

// OrderBy sets the ORDER BY clause of Select.
func OrderBy(clause string) Predicate {
	return func(s *Scope) { s.orderBy = clause }
}

// Limit caps Select results.
func Limit(n int) Predicate {
	return func(s *Scope) { s.limit = n }
}

// Locked appends FOR UPDATE to reads; use inside a transaction.
func Locked(s *Scope) { s.lock = true }

func (s Scope) fromClause() string {
	if len(s.joins) == 0 {
		return s.from
	}
	return s.from + " " + strings.Join(s.joins, " ")
}

func (s Scope) whereClause() string { return strings.Join(s.where, " AND ") }

// Select renders a SELECT of cols over the scope.
func (s Scope) Select(cols ...string) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", strings.Join(cols, ", "), s.fromClause(), s.whereClause())
	if s.orderBy != "" {
		b.WriteString(" ORDER BY " + s.orderBy)
	}
	if s.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.limit)
	}
	if s.lock {
		b.WriteString(" FOR UPDATE")
	}
	return b.String(), s.args
}

// Exists renders a probe returning one row when any record is in scope.
func (s Scope) Exists() (string, []any) {
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", s.fromClause(), s.whereClause())
	if s.lock {
		q += " FOR UPDATE"
	}
	return q, s.args
}

// Update renders a multi-table UPDATE touching only in-scope rows of the
// scoped entity. assignments reference columns through Col.
func (s Scope) Update(assignments string, setArgs ...any) (string, []any) {
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", s.fromClause(), assignments, s.whereClause())
	args := append(append([]any(nil), setArgs...), s.args...)
	return q, args
}

// Delete renders a multi-table DELETE removing only in-scope rows of the
// scoped entity.
func (s Scope) Delete() (string, []any) {
	return fmt.Sprintf("DELETE %s FROM %s WHERE %s", Root, s.fromClause(), s.whereClause()), s.args
}
