package docstore

import (
	"fmt"
	"regexp"
)

// Op is a clause operator.
type Op string

const (
	OpEq  Op = "$eq"
	OpGte Op = "$gte"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Clause is a single predicate on one top-level document field.
type Clause struct {
	Field string
	Op    Op

	// Value is the operand for Eq, Gte and Lte.
	Value any

	// Values is the operand set for In.
	Values []any
}

// Selector is a conjunction of clauses. The zero value and nil both match
// every document.
type Selector struct {
	clauses []Clause
}

// Where starts an empty selector.
func Where() *Selector {
	return &Selector{}
}

// Eq requires field == v.
func (s *Selector) Eq(field string, v any) *Selector {
	s.clauses = append(s.clauses, Clause{Field: field, Op: OpEq, Value: v})
	return s
}

// Gte requires field >= v.
func (s *Selector) Gte(field string, v any) *Selector {
	s.clauses = append(s.clauses, Clause{Field: field, Op: OpGte, Value: v})
	return s
}

// Lte requires field <= v.
func (s *Selector) Lte(field string, v any) *Selector {
	s.clauses = append(s.clauses, Clause{Field: field, Op: OpLte, Value: v})
	return s
}

// In requires field to equal one of values. An empty set matches nothing.
func (s *Selector) In(field string, values ...any) *Selector {
	s.clauses = append(s.clauses, Clause{Field: field, Op: OpIn, Values: values})
	return s
}

// InStrings is In for a string slice.
func (s *Selector) InStrings(field string, values []string) *Selector {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return s.In(field, vs...)
}

// Clauses returns a copy of the accumulated clauses in insertion order.
func (s *Selector) Clauses() []Clause {
	if s == nil {
		return nil
	}
	out := make([]Clause, len(s.clauses))
	copy(out, s.clauses)
	return out
}

// Empty reports whether the selector has no clauses.
func (s *Selector) Empty() bool {
	return s == nil || len(s.clauses) == 0
}

// Unsatisfiable reports whether some In clause has an empty operand set.
func (s *Selector) Unsatisfiable() bool {
	if s == nil {
		return false
	}
	for _, c := range s.clauses {
		if c.Op == OpIn && len(c.Values) == 0 {
			return true
		}
	}
	return false
}

// Validate checks every field name.
func (s *Selector) Validate() error {
	if s == nil {
		return nil
	}
	for _, c := range s.clauses {
		if !fieldPattern.MatchString(c.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidField, c.Field)
		}
		switch c.Op {
		case OpEq, OpGte, OpLte, OpIn:
		default:
			return fmt.Errorf("%w: unknown operator %q on %q", ErrInvalidField, c.Op, c.Field)
		}
	}
	return nil
}

// Matches evaluates the selector against doc in memory.
func (s *Selector) Matches(doc Document) bool {
	if s == nil {
		return true
	}
	for _, c := range s.clauses {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}

// Matches evaluates a single clause against doc.
func (c Clause) Matches(doc Document) bool {
	v, ok := doc[c.Field]
	switch c.Op {
	case OpEq:
		if !ok {
			return c.Value == nil
		}
		return Equal(v, c.Value)
	case OpGte:
		cmp, comparable := Compare(v, c.Value)
		return ok && comparable && cmp >= 0
	case OpLte:
		cmp, comparable := Compare(v, c.Value)
		return ok && comparable && cmp <= 0
	case OpIn:
		if !ok {
			return false
		}
		for _, want := range c.Values {
			if Equal(v, want) {
				return true
			}
		}
	}
	return false
}

// Equal compares two JSON-shaped scalars, treating all numeric types alike.
func Equal(a, b any) bool {
	if fa, ok := AsFloat64(a); ok {
		fb, ok := AsFloat64(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

// Compare orders two scalars of the same kind (numbers or strings).
// The second result is false when the values are not comparable.
func Compare(a, b any) (int, bool) {
	if fa, ok := AsFloat64(a); ok {
		fb, ok := AsFloat64(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	as, ok := a.(string)
	if !ok {
		return 0, false
	}
	bs, ok := b.(string)
	if !ok {
		return 0, false
	}
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	}
	return 0, true
}
