package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/fluentsearch/internal/search"
)

var (
	queryText      string
	whereExprs     []string
	orWhereExprs   []string
	inExprs        []string
	notInExprs     []string
	betweenExprs   []string
	nullFields     []string
	notNullFields  []string
	sortExprs      []string
	selectFields   []string
	highlightField []string
	facetFields    []string
	fuzzy          bool
	limit          int
	page           int
	outputJSON     bool
	showBody       bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a filtered search against the index",
	Long: `
Build a bool query from filters and run it. Equality, range and IN filters go
to the filter context, like and -q text go to must, != and NOT IN go to must_not.

Examples:
  fluentsearch search --where "brand=acme" --where "price>=10" --sort price:desc
  fluentsearch search -q "running shoes" --in "size=40,41,42" --facet brand
  fluentsearch search --between "price=10,50" --null discontinued_at --page 2 --limit 20
`,
	RunE: runSearch,
}

var getCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Fetch one document by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Run the term suggester on the configured suggest field",
	RunE:  runSuggest,
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&queryText, "query", "q", "", "Free text query_string")
	f.StringArrayVar(&whereExprs, "where", nil, `Filter "column<op>value" where op is =, !=, >, >=, <, <= or like (repeatable)`)
	f.StringArrayVar(&orWhereExprs, "or-where", nil, "Filter recorded with OR (repeatable)")
	f.StringArrayVar(&inExprs, "in", nil, `Membership filter "column=v1,v2" (repeatable)`)
	f.StringArrayVar(&notInExprs, "not-in", nil, `Exclusion filter "column=v1,v2" (repeatable)`)
	f.StringArrayVar(&betweenExprs, "between", nil, `Inclusive range "column=low,high" (repeatable)`)
	f.StringArrayVar(&nullFields, "null", nil, "Require the field to be missing (repeatable)")
	f.StringArrayVar(&notNullFields, "not-null", nil, "Require the field to exist (repeatable)")
	f.StringArrayVar(&sortExprs, "sort", nil, `Sort "field[:asc|desc]" (repeatable)`)
	f.StringSliceVar(&selectFields, "select", nil, "Source fields to return")
	f.StringSliceVar(&highlightField, "highlight", nil, "Fields to highlight")
	f.StringSliceVar(&facetFields, "facet", nil, "Fields to aggregate as terms facets")
	f.BoolVar(&fuzzy, "fuzzy", false, "Apply AUTO fuzziness to the query string")
	f.IntVarP(&limit, "limit", "l", 15, "Page size")
	f.IntVarP(&page, "page", "p", 1, "Page number starting at 1")
	addJSONFlag(f, "Output results in JSON format")
	f.BoolVar(&showBody, "show-body", false, "Print the request body instead of running it")

	addJSONFlag(getCmd.Flags(), "Output the document in JSON format")

	suggestCmd.Flags().StringVarP(&queryText, "query", "q", "", "Text to suggest corrections for (required)")
	addJSONFlag(suggestCmd.Flags(), "Output suggestions in JSON format")
	_ = suggestCmd.MarkFlagRequired("query")
}

// buildSearchQuery applies the search flags to base.
func buildSearchQuery(base search.Query) (search.Query, error) {
	q := base.QueryString(queryText).Fuzzy(fuzzy).Limit(limit)

	for _, expr := range whereExprs {
		f, err := parseFilter(expr)
		if err != nil {
			return q, err
		}
		q = q.Where(f.Column, f.Operator, f.Value)
	}
	for _, expr := range orWhereExprs {
		f, err := parseFilter(expr)
		if err != nil {
			return q, err
		}
		q = q.OrWhere(f.Column, f.Operator, f.Value)
	}
	for _, expr := range inExprs {
		column, values, err := parseList(expr)
		if err != nil {
			return q, err
		}
		q = q.WhereIn(column, values...)
	}
	for _, expr := range notInExprs {
		column, values, err := parseList(expr)
		if err != nil {
			return q, err
		}
		q = q.WhereNotIn(column, values...)
	}
	for _, expr := range betweenExprs {
		column, low, high, err := parseRange(expr)
		if err != nil {
			return q, err
		}
		q = q.WhereBetween(column, low, high)
	}
	for _, field := range nullFields {
		q = q.WhereNull(field)
	}
	for _, field := range notNullFields {
		q = q.WhereNotNull(field)
	}
	for _, expr := range sortExprs {
		s, err := parseSort(expr)
		if err != nil {
			return q, err
		}
		q = q.OrderBy(s.Field, s.Direction)
	}

	if fields := splitFields(selectFields); len(fields) > 0 {
		q = q.Select(fields...)
	}
	if fields := splitFields(highlightField); len(fields) > 0 {
		q = q.Highlight(fields...)
	}
	if fields := splitFields(facetFields); len(fields) > 0 {
		q = q.Facets(fields...)
	}
	return q, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := buildSearchQuery(current.client.Query())
	if err != nil {
		return fmt.Errorf("invalid search flags: %w", err)
	}

	if showBody {
		body, err := q.Body()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), body)
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	result, err := q.Paginate(ctx, page)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printPage(cmd.OutOrStdout(), result)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	doc, err := current.client.Query().First(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document %s not found in %s", args[0], current.client.Query().IndexName())
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), doc)
	}
	printDocument(cmd.OutOrStdout(), doc)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	suggestions, err := current.client.Query().QueryString(queryText).Suggest(ctx)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), suggestions)
	}
	printSuggestions(cmd.OutOrStdout(), suggestions)
	return nil
}
