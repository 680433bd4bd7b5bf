package search

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 15
	defaultPage  = 1
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc or desc in any case. An empty string is Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// Sort is one entry of the sort list.
type Sort struct {
	Field     string
	Direction Direction
}

// Query is an immutable description of a search against one index. Every
// mutator returns a new Query and leaves the receiver untouched, so a base
// query can be shared and refined independently.
type Query struct {
	client *Client

	index      string
	idField    string
	limit      int
	page       int
	text       string
	fuzzy      bool
	sorts      []Sort
	fields     []string
	highlights []string
	facets     []string
	clauses    []Clause
}

func newQuery(c *Client) Query {
	return Query{
		client:  c,
		index:   c.index,
		idField: c.idField,
		limit:   defaultLimit,
		page:    defaultPage,
	}
}

// IndexName returns the index the query targets.
func (q Query) IndexName() string { return q.index }

// IDField returns the document field used as the engine document id.
func (q Query) IDField() string { return q.idField }

// LimitValue returns the page size.
func (q Query) LimitValue() int { return q.limit }

// Clauses returns a copy of the recorded filter clauses in insertion order.
func (q Query) Clauses() []Clause {
	return append([]Clause(nil), q.clauses...)
}

// Sorts returns a copy of the recorded sort list in insertion order.
func (q Query) Sorts() []Sort {
	return append([]Sort(nil), q.sorts...)
}

// Index targets another index.
func (q Query) Index(name string) Query {
	q.index = name
	return q
}

// Fuzzy toggles AUTO fuzziness on the free-text query.
func (q Query) Fuzzy(enabled bool) Query {
	q.fuzzy = enabled
	return q
}

// QueryString sets the free-text query matched with a query_string clause.
func (q Query) QueryString(text string) Query {
	q.text = text
	return q
}

// Select restricts the returned source fields, replacing any earlier selection.
func (q Query) Select(fields ...string) Query {
	q.fields = cleanStrings(fields)
	return q
}

// OrderBy appends a sort entry. An empty direction sorts ascending.
func (q Query) OrderBy(column string, direction Direction) Query {
	if direction == "" {
		direction = Asc
	}
	q.sorts = append(q.sorts[:len(q.sorts):len(q.sorts)], Sort{Field: column, Direction: direction})
	return q
}

// Limit sets the page size. Non-positive values are ignored.
func (q Query) Limit(n int) Query {
	if n > 0 {
		q.limit = n
	}
	return q
}

// Highlight requests highlighted fragments for fields.
func (q Query) Highlight(fields ...string) Query {
	q.highlights = cleanStrings(fields)
	return q
}

// Facets requests a terms aggregation per field.
func (q Query) Facets(fields ...string) Query {
	q.facets = cleanStrings(fields)
	return q
}

// Where adds a comparison clause. An operator that is not one of
// =, !=, >, >=, <, <= or like is taken as the value of an equality test.
func (q Query) Where(column, operator string, value interface{}) Query {
	return q.withClause(basicClause(column, operator, value, And))
}

// OrWhere is Where recorded with the OR combinator.
func (q Query) OrWhere(column, operator string, value interface{}) Query {
	return q.withClause(basicClause(column, operator, value, Or))
}

// WhereEq adds an equality clause.
func (q Query) WhereEq(column string, value interface{}) Query {
	return q.withClause(Clause{Kind: ClauseBasic, Column: column, Operator: OpEqual, Value: value, Boolean: And})
}

// OrWhereEq is WhereEq recorded with the OR combinator.
func (q Query) OrWhereEq(column string, value interface{}) Query {
	return q.withClause(Clause{Kind: ClauseBasic, Column: column, Operator: OpEqual, Value: value, Boolean: Or})
}

// WhereLoose accepts either (value) or (operator, value), so
// WhereLoose("status", 1) equals Where("status", "=", 1).
func (q Query) WhereLoose(column string, args ...interface{}) Query {
	return q.withClause(looseClause(column, args, And))
}

// OrWhereLoose is WhereLoose recorded with the OR combinator.
func (q Query) OrWhereLoose(column string, args ...interface{}) Query {
	return q.withClause(looseClause(column, args, Or))
}

// WhereBetween adds an inclusive range clause.
func (q Query) WhereBetween(column string, low, high interface{}) Query {
	return q.withClause(Clause{Kind: ClauseBetween, Column: column, Low: low, High: high, Boolean: And})
}

// OrWhereBetween is WhereBetween recorded with the OR combinator.
func (q Query) OrWhereBetween(column string, low, high interface{}) Query {
	return q.withClause(Clause{Kind: ClauseBetween, Column: column, Low: low, High: high, Boolean: Or})
}

// WhereIn matches documents whose column holds any of values.
func (q Query) WhereIn(column string, values ...interface{}) Query {
	return q.withClause(Clause{Kind: ClauseIn, Column: column, Values: cloneValues(values), Boolean: And})
}

// OrWhereIn is WhereIn recorded with the OR combinator.
func (q Query) OrWhereIn(column string, values ...interface{}) Query {
	return q.withClause(Clause{Kind: ClauseIn, Column: column, Values: cloneValues(values), Boolean: Or})
}

// WhereNotIn excludes documents whose column holds any of values.
func (q Query) WhereNotIn(column string, values ...interface{}) Query {
	return q.withClause(Clause{Kind: ClauseNotIn, Column: column, Values: cloneValues(values), Boolean: And})
}

// OrWhereNotIn is WhereNotIn recorded with the OR combinator.
func (q Query) OrWhereNotIn(column string, values ...interface{}) Query {
	return q.withClause(Clause{Kind: ClauseNotIn, Column: column, Values: cloneValues(values), Boolean: Or})
}

// WhereRaw records a raw expression. Raw clauses have no query DSL mapping and
// make Body fail with ErrUnsupportedClause.
func (q Query) WhereRaw(expression string) Query {
	return q.withClause(Clause{Kind: ClauseRaw, Expression: expression, Boolean: And})
}

// WhereNull matches documents where column is missing.
func (q Query) WhereNull(column string) Query {
	return q.withClause(Clause{Kind: ClauseBasic, Column: column, Operator: opExists, Value: true, Boolean: And})
}

// WhereNotNull matches documents where column is present.
func (q Query) WhereNotNull(column string) Query {
	return q.withClause(Clause{Kind: ClauseBasic, Column: column, Operator: opExists, Value: false, Boolean: And})
}

func (q Query) withClause(c Clause) Query {
	q.clauses = append(q.clauses[:len(q.clauses):len(q.clauses)], c)
	return q
}

func cleanStrings(src []string) []string {
	out := make([]string, 0, len(src))
	for _, s := range src {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cloneValues(values []interface{}) []interface{} {
	return append([]interface{}{}, values...)
}
