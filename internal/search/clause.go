package search

import (
	"fmt"
	"reflect"
	"strings"
)

// ClauseKind tags the variant carried by a Clause.
type ClauseKind int

const (
	ClauseBasic ClauseKind = iota
	ClauseBetween
	ClauseNotBetween
	ClauseIn
	ClauseNotIn
	ClauseRaw
)

func (k ClauseKind) String() string {
	switch k {
	case ClauseBasic:
		return "basic"
	case ClauseBetween:
		return "between"
	case ClauseNotBetween:
		return "not_between"
	case ClauseIn:
		return "in"
	case ClauseNotIn:
		return "not_in"
	case ClauseRaw:
		return "raw"
	default:
		return fmt.Sprintf("clause(%d)", int(k))
	}
}

// Boolean is the combinator recorded on a clause. OR is stored but every clause
// is emitted into the same bool groups regardless.
type Boolean string

const (
	And Boolean = "and"
	Or  Boolean = "or"
)

// Operators accepted by Where. Matching is case-insensitive.
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpLike         = "like"

	// opExists is reachable only through WhereNull and WhereNotNull.
	opExists = "exists"
)

var validOperators = map[string]struct{}{
	OpEqual:        {},
	OpNotEqual:     {},
	OpGreater:      {},
	OpGreaterEqual: {},
	OpLess:         {},
	OpLessEqual:    {},
	OpLike:         {},
}

var rangeBounds = map[string]string{
	OpGreater:      "gt",
	OpGreaterEqual: "gte",
	OpLess:         "lt",
	OpLessEqual:    "lte",
}

// Clause is a single filter recorded on a Query.
type Clause struct {
	Kind       ClauseKind
	Column     string
	Operator   string
	Value      interface{}
	Values     []interface{}
	Low        interface{}
	High       interface{}
	Expression string
	Boolean    Boolean
}

// IsOperator reports whether op is one of the comparison operators Where accepts.
func IsOperator(op string) bool {
	_, ok := validOperators[strings.ToLower(strings.TrimSpace(op))]
	return ok
}

func normalizeOperator(op string) string {
	return strings.ToLower(strings.TrimSpace(op))
}

func basicClause(column, operator string, value interface{}, boolean Boolean) Clause {
	if !IsOperator(operator) {
		return Clause{Kind: ClauseBasic, Column: column, Operator: OpEqual, Value: operator, Boolean: boolean}
	}
	return Clause{Kind: ClauseBasic, Column: column, Operator: normalizeOperator(operator), Value: value, Boolean: boolean}
}

// looseClause resolves the one or two argument form of where: a single argument
// is an equality value, and an unknown operator is itself treated as the value.
func looseClause(column string, args []interface{}, boolean Boolean) Clause {
	switch len(args) {
	case 0:
		return Clause{Kind: ClauseBasic, Column: column, Operator: OpEqual, Boolean: boolean}
	case 1:
		return Clause{Kind: ClauseBasic, Column: column, Operator: OpEqual, Value: args[0], Boolean: boolean}
	}

	op, ok := args[0].(string)
	if !ok || !IsOperator(op) {
		return Clause{Kind: ClauseBasic, Column: column, Operator: OpEqual, Value: args[0], Boolean: boolean}
	}
	return Clause{Kind: ClauseBasic, Column: column, Operator: normalizeOperator(op), Value: args[1], Boolean: boolean}
}

// emit appends the query DSL for c to the bool groups.
func (c Clause) emit(groups *boolGroups) error {
	switch c.Kind {
	case ClauseBasic:
		return c.emitBasic(groups)
	case ClauseIn:
		groups.filter = append(groups.filter, termsQuery(c.Column, c.Values))
	case ClauseNotIn:
		groups.mustNot = append(groups.mustNot, termsQuery(c.Column, c.Values))
	case ClauseBetween:
		groups.filter = append(groups.filter, rangeQuery(c.Column, map[string]interface{}{
			"gte": c.Low,
			"lte": c.High,
		}))
	default:
		return fmt.Errorf("%w: %s on %q", ErrUnsupportedClause, c.Kind, c.Column)
	}
	return nil
}

func (c Clause) emitBasic(groups *boolGroups) error {
	switch c.Operator {
	case OpEqual:
		groups.filter = append(groups.filter, termQuery(c.Column, c.Value))
	case OpNotEqual:
		groups.mustNot = append(groups.mustNot, termQuery(c.Column, c.Value))
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		groups.filter = append(groups.filter, rangeQuery(c.Column, map[string]interface{}{
			rangeBounds[c.Operator]: c.Value,
		}))
	case OpLike:
		groups.must = append(groups.must, map[string]interface{}{
			"match": map[string]interface{}{c.Column: c.Value},
		})
	case opExists:
		exists := map[string]interface{}{
			"exists": map[string]interface{}{"field": c.Column},
		}
		if truthy(c.Value) {
			groups.mustNot = append(groups.mustNot, exists)
		} else {
			groups.must = append(groups.must, exists)
		}
	default:
		return fmt.Errorf("%w: operator %q on %q", ErrUnsupportedClause, c.Operator, c.Column)
	}
	return nil
}

func termQuery(column string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{column: value},
	}
}

func termsQuery(column string, values []interface{}) map[string]interface{} {
	if values == nil {
		values = []interface{}{}
	}
	return map[string]interface{}{
		"terms": map[string]interface{}{column: values},
	}
}

func rangeQuery(column string, bounds map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{column: bounds},
	}
}

// truthy reports whether v is set: nil, false, zero numbers of any width and
// the strings "" and "0" are not.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		s := rv.String()
		return s != "" && s != "0"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	default:
		return true
	}
}
