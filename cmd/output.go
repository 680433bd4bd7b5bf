package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ca-srg/fluentsearch/internal/search"
)

func addJSONFlag(fs *pflag.FlagSet, usage string) {
	fs.BoolVarP(&outputJSON, "json", "j", false, usage)
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printPage(w io.Writer, page *search.Page) {
	fmt.Fprintf(w, "Found %d results (page %d, took %dms)\n", page.Total, page.Page, page.Took)
	if page.TimedOut {
		fmt.Fprintln(w, "Warning: search timed out, results may be partial")
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(w, "  (no results found)")
	}
	for i, doc := range page.Items {
		fmt.Fprintf(w, "\n  %d. %s", i+1, doc.ID)
		if doc.Score != nil {
			fmt.Fprintf(w, " (score %.4f)", *doc.Score)
		}
		fmt.Fprintln(w)
		printFields(w, "     ", doc.Source)
		for _, field := range sortedKeys(doc.Highlight) {
			fmt.Fprintf(w, "     ~%s: %s\n", field, strings.Join(doc.Highlight[field], " ... "))
		}
	}

	for _, name := range sortedKeys(page.Facets) {
		fmt.Fprintf(w, "\nFacet %s:\n", name)
		for _, bucket := range page.Facets[name] {
			fmt.Fprintf(w, "  %v (%d)\n", bucket.Key, bucket.DocCount)
		}
	}
}

func printDocument(w io.Writer, doc *search.Document) {
	fmt.Fprintf(w, "%s/%s\n", doc.Index, doc.ID)
	printFields(w, "  ", doc.Source)
}

func printSuggestions(w io.Writer, suggestions []search.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "(no suggestions)")
		return
	}
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s:\n", s.Text)
		if len(s.Options) == 0 {
			fmt.Fprintln(w, "  (no options)")
		}
		for _, opt := range s.Options {
			fmt.Fprintf(w, "  %s (score %.3f, freq %d)\n", opt.Text, opt.Score, opt.Freq)
		}
	}
}

func printBatch(w io.Writer, op string, results search.BatchResults) {
	failed := results.Failed()
	fmt.Fprintf(w, "%s: %d succeeded, %d failed\n", op, len(results)-len(failed), len(failed))
	for _, item := range failed {
		fmt.Fprintf(w, "  #%d id=%s: %v\n", item.Position, item.ID, item.Err)
	}
}

func printFields(w io.Writer, indent string, fields map[string]interface{}) {
	for _, key := range sortedKeys(fields) {
		fmt.Fprintf(w, "%s%s: %v\n", indent, key, fields[key])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
