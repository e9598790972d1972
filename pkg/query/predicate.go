package query

// Predicate is a filter over the rows of a descriptor's table.
// The set of predicates is closed; storage backends switch over the concrete types.
type Predicate interface {
	predicate()
}

// Eq matches rows whose column equals Value. A NULL column never matches.
type Eq struct {
	Column string
	Value  any
}

// Ne matches rows whose column differs from Value. A NULL column never matches.
type Ne struct {
	Column string
	Value  any
}

// Gt matches rows whose column is strictly greater than Value
type Gt struct {
	Column string
	Value  any
}

// IsNull matches rows whose column is NULL
type IsNull struct {
	Column string
}

// And matches when every operand matches. An empty And matches everything.
type And []Predicate

// Or matches when any operand matches. An empty Or matches nothing.
type Or []Predicate

// Not negates its operand
type Not struct {
	Predicate Predicate
}

// CmpOp compares an inner column against an outer column in a correlated subquery
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
)

// Correlation ties a column of an Exists table to a column of the enclosing row
type Correlation struct {
	Inner string
	Outer string
	Op    CmpOp
}

// Exists is a correlated semi-join: it matches when Table holds at least one row
// satisfying every correlation and Where. Where is evaluated against the inner row,
// so a nested Exists correlates with this inner row.
type Exists struct {
	Table string
	On    []Correlation
	Where Predicate
}

func (Eq) predicate()     {}
func (Ne) predicate()     {}
func (Gt) predicate()     {}
func (IsNull) predicate() {}
func (And) predicate()    {}
func (Or) predicate()     {}
func (Not) predicate()    {}
func (Exists) predicate() {}

// On builds an equality correlation
func On(inner, outer string) Correlation {
	return Correlation{Inner: inner, Outer: outer, Op: OpEq}
}
