// Package authz holds the ownership graph and the scoping authorizer.
//
// Every protected entity declares how it reaches its owning account: a
// direct owner column, a chain through another owned entity, or (for shared
// entities) a join against an owned child set. Queries for any entity are
// scoped by walking that table, so controllers never hand-write ownership
// filters.
package authz

import "fmt"

// Entity names a protected record type.
type Entity string

const (
	Business    Entity = "business"
	ContactInfo Entity = "contact_info"
	Category    Entity = "category"
	Product     Entity = "product"
	Order       Entity = "order"
	Transaction Entity = "transaction"
	Invoice     Entity = "invoice"
)

// Kind is the owner-resolution rule of an entity.
type Kind int

const (
	// Direct entities carry the owner column themselves.
	Direct Kind = iota
	// Chained entities reference a parent entity that is owned.
	Chained
	// Derived entities have no owner and are visible through an owned
	// child that references them.
	Derived
)

// Rule declares how one entity resolves to its owner.
//
// Field is the owner column for Direct, the foreign key to Parent for
// Chained, and the foreign key on the Parent (child) table pointing back at
// this entity for Derived.
type Rule struct {
	Kind   Kind
	Table  string
	Field  string
	Parent Entity
}

var graph = map[Entity]Rule{
	Business:    {Kind: Direct, Table: "businesses", Field: "account_id"},
	ContactInfo: {Kind: Chained, Table: "contact_infos", Field: "business_id", Parent: Business},
	Product:     {Kind: Chained, Table: "products", Field: "business_id", Parent: Business},
	Order:       {Kind: Chained, Table: "orders", Field: "product_id", Parent: Product},
	Transaction: {Kind: Chained, Table: "transactions", Field: "business_id", Parent: Business},
	Invoice:     {Kind: Chained, Table: "invoices", Field: "business_id", Parent: Business},
	Category:    {Kind: Derived, Table: "categories", Field: "category_id", Parent: Product},
}

func init() {
	for e := range graph {
		if _, err := chain(e); err != nil {
			panic(err)
		}
	}
}

// RuleOf returns the declared rule for e. It panics for undeclared
// entities, which is a programming error.
func RuleOf(e Entity) Rule {
	r, ok := graph[e]
	if !ok {
		panic(fmt.Sprintf("authz: entity %q is not in the ownership graph", e))
	}
	return r
}

// Chain lists the entities from e up to the directly owned root, e first.
// Derived entities return only themselves; their visibility goes through
// Chain(RuleOf(e).Parent).
func Chain(e Entity) []Entity {
	c, err := chain(e)
	if err != nil {
		panic(err)
	}
	return c
}

func chain(e Entity) ([]Entity, error) {
	var out []Entity
	seen := map[Entity]bool{}
	for cur := e; ; {
		r, ok := graph[cur]
		if !ok {
			return nil, fmt.Errorf("authz: entity %q is not in the ownership graph", cur)
		}
		if seen[cur] {
			return nil, fmt.Errorf("authz: ownership cycle at %q", cur)
		}
		seen[cur] = true
		out = append(out, cur)
		switch r.Kind {
		case Direct:
			return out, nil
		case Derived:
			if cur != e {
				return nil, fmt.Errorf("authz: %q chains through derived %q", e, cur)
			}
			if _, err := chain(r.Parent); err != nil {
				return nil, err
			}
			return out, nil
		}
		cur = r.Parent
	}
}

// SelectorParam is the request parameter naming a parent of type e,
// e.g. "business_id".
func SelectorParam(e Entity) string { return string(e) + "_id" }

// Path is the join path from an entity's table to its owner column.
type Path struct {
	From    string            // FROM clause with one JOIN per hop
	Owner   string            // qualified owner column, e.g. "t2.account_id"
	Aliases map[Entity]string // alias of every entity on the path
}

// PathOf builds the join path of a Direct or Chained entity using aliases
// prefix0, prefix1, ... in chain order.
func PathOf(e Entity, prefix string) Path {
	if RuleOf(e).Kind == Derived {
		panic(fmt.Sprintf("authz: derived entity %q has no owner path", e))
	}
	p := Path{Aliases: map[Entity]string{}}
	hops := Chain(e)
	for i, ent := range hops {
		r := graph[ent]
		alias := fmt.Sprintf("%s%d", prefix, i)
		p.Aliases[ent] = alias
		if i == 0 {
			p.From = r.Table + " " + alias
		} else {
			child := graph[hops[i-1]]
			p.From += fmt.Sprintf(" JOIN %s %s ON %s.id = %s%d.%s", r.Table, alias, alias, prefix, i-1, child.Field)
		}
		if r.Kind == Direct {
			p.Owner = alias + "." + r.Field
		}
	}
	return p
}
