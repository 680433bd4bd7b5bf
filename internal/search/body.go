package search

type boolGroups struct {
	filter  []interface{}
	must    []interface{}
	mustNot []interface{}
}

func (g *boolGroups) empty() bool {
	return len(g.filter) == 0 && len(g.must) == 0 && len(g.mustNot) == 0
}

func (g *boolGroups) toMap() map[string]interface{} {
	out := make(map[string]interface{})
	if len(g.filter) > 0 {
		out["filter"] = g.filter
	}
	if len(g.must) > 0 {
		out["must"] = g.must
	}
	if len(g.mustNot) > 0 {
		out["must_not"] = g.mustNot
	}
	return out
}

// Body renders the search request body. Clauses are emitted in insertion order,
// followed by the free-text query. The query key is omitted when nothing
// narrows the search, which the engine treats as match_all.
func (q Query) Body() (map[string]interface{}, error) {
	groups := &boolGroups{}
	for _, clause := range q.clauses {
		if err := clause.emit(groups); err != nil {
			return nil, err
		}
	}

	if q.text != "" {
		queryString := map[string]interface{}{"query": q.text}
		if q.fuzzy {
			queryString["fuzziness"] = "AUTO"
		}
		groups.must = append(groups.must, map[string]interface{}{"query_string": queryString})
	}

	body := make(map[string]interface{})
	if !groups.empty() {
		body["query"] = map[string]interface{}{"bool": groups.toMap()}
	}

	if len(q.fields) > 0 {
		body["_source"] = append([]string(nil), q.fields...)
	}

	if sorts := q.sortBody(); len(sorts) > 0 {
		body["sort"] = sorts
	}

	if len(q.highlights) > 0 {
		fields := make(map[string]interface{}, len(q.highlights))
		for _, field := range q.highlights {
			fields[field] = map[string]interface{}{}
		}
		body["highlight"] = map[string]interface{}{"fields": fields}
	}

	if len(q.facets) > 0 {
		aggs := make(map[string]interface{}, len(q.facets))
		for _, field := range q.facets {
			aggs[field] = map[string]interface{}{
				"terms": map[string]interface{}{"field": field},
			}
		}
		body["aggs"] = aggs
	}

	return body, nil
}

// sortBody renders the sort list, dropping repeated (field, direction) pairs.
func (q Query) sortBody() []interface{} {
	if len(q.sorts) == 0 {
		return nil
	}
	seen := make(map[Sort]struct{}, len(q.sorts))
	out := make([]interface{}, 0, len(q.sorts))
	for _, s := range q.sorts {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, map[string]interface{}{s.Field: string(s.Direction)})
	}
	return out
}

func suggestBody(text, field string) map[string]interface{} {
	return map[string]interface{}{
		"size": 0,
		"suggest": map[string]interface{}{
			"text": text,
			suggestionName: map[string]interface{}{
				"term": map[string]interface{}{
					"field":        field,
					"suggest_mode": "always",
					"size":         defaultSuggestSize,
				},
			},
		},
	}
}
