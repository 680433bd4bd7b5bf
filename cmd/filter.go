package cmd

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ca-srg/fluentsearch/internal/search"
)

// comparisons is ordered so two-character operators match before their prefixes.
var comparisons = []string{
	search.OpGreaterEqual,
	search.OpLessEqual,
	search.OpNotEqual,
	search.OpEqual,
	search.OpGreater,
	search.OpLess,
}

// filterExpr is a parsed --where argument.
type filterExpr struct {
	Column   string
	Operator string
	Value    interface{}
}

// parseFilter reads "column<op>value" or "column like value".
func parseFilter(expr string) (filterExpr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return filterExpr{}, fmt.Errorf("empty filter expression")
	}

	if column, value, ok := cutFold(expr, " like "); ok {
		return newFilterExpr(expr, column, search.OpLike, value)
	}

	for _, op := range comparisons {
		if column, value, ok := strings.Cut(expr, op); ok {
			return newFilterExpr(expr, column, op, value)
		}
	}
	return filterExpr{}, fmt.Errorf("filter %q has no operator", expr)
}

func newFilterExpr(expr, column, op, value string) (filterExpr, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		return filterExpr{}, fmt.Errorf("filter %q has no column", expr)
	}
	return filterExpr{Column: column, Operator: op, Value: parseScalar(value)}, nil
}

func cutFold(s, sep string) (string, string, bool) {
	i := strings.Index(strings.ToLower(s), sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// parseScalar types a command line value the way YAML would: numbers and
// booleans become typed, quoted text stays a string. Numbers are only typed
// when they print back as the same text, so zip codes such as 01234 and
// prefixed forms such as 0x1F stay strings.
func parseScalar(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if hasNumericPrefix(raw) {
		return raw
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil || len(node.Content) == 0 {
		return raw
	}
	scalar := node.Content[0]
	if scalar.Kind != yaml.ScalarNode {
		return raw
	}
	if scalar.Tag == "!!null" {
		return raw
	}

	var value interface{}
	if err := scalar.Decode(&value); err != nil {
		return raw
	}
	switch v := value.(type) {
	case int, int64, uint64:
		if fmt.Sprint(v) != raw {
			return raw
		}
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return raw
		}
	}
	return value
}

// hasNumericPrefix reports whether raw starts with a zero followed by a digit
// or by a base prefix, after an optional sign.
func hasNumericPrefix(raw string) bool {
	s := strings.TrimLeft(raw, "+-")
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	switch c := s[1]; {
	case c >= '0' && c <= '9':
		return true
	case strings.ContainsRune("xXoObB", rune(c)):
		return true
	}
	return false
}

// parseList reads "column=a,b,c".
func parseList(arg string) (string, []interface{}, error) {
	column, raw, ok := strings.Cut(arg, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return "", nil, fmt.Errorf("expected column=v1,v2 but got %q", arg)
	}

	var values []interface{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, parseScalar(part))
		}
	}
	return column, values, nil
}

// parseRange reads "column=low,high".
func parseRange(arg string) (string, interface{}, interface{}, error) {
	column, values, err := parseList(arg)
	if err != nil {
		return "", nil, nil, err
	}
	if len(values) != 2 {
		return "", nil, nil, fmt.Errorf("expected column=low,high but got %q", arg)
	}
	return column, values[0], values[1], nil
}

// parseSort reads "field" or "field:direction".
func parseSort(arg string) (search.Sort, error) {
	field, dir, _ := strings.Cut(arg, ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return search.Sort{}, fmt.Errorf("sort %q has no field", arg)
	}
	direction, err := search.ParseDirection(dir)
	if err != nil {
		return search.Sort{}, err
	}
	return search.Sort{Field: field, Direction: direction}, nil
}

func splitFields(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
