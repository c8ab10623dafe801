// Package filter is a small composable query language that services build
// instead of SQL text. The storage package compiles it into parameterized SQL.
//
// Query and Predicate are sealed: only types in this package implement them,
// so the compiler's type switches are exhaustive.
package filter

// Query is a read against one table.
type Query interface {
	queryNode()
}

// Select returns rows of Columns from From.
type Select struct {
	From    string
	Columns []string
	Where   Predicate
	OrderBy []Order
	Limit   int // 0 means unlimited
}

// Count returns the number of rows matching Where, as column "count".
type Count struct {
	From  string
	Where Predicate
}

// GroupCount returns one row per distinct GroupBy tuple with a "count"
// column, largest group first.
type GroupCount struct {
	From    string
	GroupBy []string
	Where   Predicate
	Limit   int
}

func (Select) queryNode()     {}
func (Count) queryNode()      {}
func (GroupCount) queryNode() {}

// Order is one ORDER BY key. When Ranks is set the column is ordered by the
// position of its value in Ranks (lowest first) instead of lexically.
type Order struct {
	Column string
	Desc   bool
	Ranks  []string
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Predicate is a boolean condition over one row.
type Predicate interface {
	predicateNode()
}

// Eq matches Column = Value.
type Eq struct {
	Column string
	Value  any
}

// NotEq matches Column <> Value.
type NotEq struct {
	Column string
	Value  any
}

// Contains matches rows whose Column contains Substring (LIKE %s%).
type Contains struct {
	Column    string
	Substring string
}

// HasPrefix matches rows whose Column starts with Prefix (LIKE p%).
type HasPrefix struct {
	Column string
	Prefix string
}

// Gt matches Column > Value.
type Gt struct {
	Column string
	Value  any
}

// Gte matches Column >= Value.
type Gte struct {
	Column string
	Value  any
}

// Lte matches Column <= Value.
type Lte struct {
	Column string
	Value  any
}

// In matches Column IN (Values...). An empty list matches nothing.
type In struct {
	Column string
	Values []any
}

// IsNull matches Column IS NULL.
type IsNull struct {
	Column string
}

// NotNull matches Column IS NOT NULL.
type NotNull struct {
	Column string
}

// AtLeast is an ordinal comparison: the rank of Column's value within Ranks
// (lowest first) must be at least the rank of Min. Values outside Ranks rank
// below everything.
type AtLeast struct {
	Column string
	Ranks  []string
	Min    string
}

// And matches when every predicate matches. An empty And matches everything.
type And []Predicate

// Or matches when any predicate matches. An empty Or matches nothing.
type Or []Predicate

func (Eq) predicateNode()        {}
func (NotEq) predicateNode()     {}
func (Contains) predicateNode()  {}
func (HasPrefix) predicateNode() {}
func (Gt) predicateNode()        {}
func (Gte) predicateNode()       {}
func (Lte) predicateNode()       {}
func (In) predicateNode()        {}
func (IsNull) predicateNode()    {}
func (NotNull) predicateNode()   {}
func (AtLeast) predicateNode()   {}
func (And) predicateNode()       {}
func (Or) predicateNode()        {}

// All joins the non-nil predicates with And. It returns nil when none remain.
func All(preds ...Predicate) Predicate {
	var out And
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Any joins the non-nil predicates with Or. It returns nil when none remain.
func Any(preds ...Predicate) Predicate {
	var out Or
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}
