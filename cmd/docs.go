package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ca-srg/fluentsearch/internal/search"
)

var (
	docsFile  string
	assignIDs bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Create, update or delete documents",
}

var docsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Index documents from a JSON or YAML file",
	Long: `
Index one document or a list of documents. Every document must carry the id
field unless --assign-ids is given, in which case missing ids are generated.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := readDocuments(docsFile)
		if err != nil {
			return err
		}

		q := current.client.Query()
		if assignIDs {
			if n := assignMissingIDs(docs, q.IDField()); n > 0 {
				current.logger.Info("assigned document ids", zap.Int("count", n), zap.String("field", q.IDField()))
			}
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		results, err := q.CreateMany(ctx, docs)
		if err != nil {
			return err
		}
		return reportBatch(cmd, "create", results)
	},
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Partially update documents from a JSON or YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := readDocuments(docsFile)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		results, err := current.client.Query().UpdateMany(ctx, docs)
		if err != nil {
			return err
		}
		return reportBatch(cmd, "update", results)
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Delete documents by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		results, err := current.client.Query().DestroyMany(ctx, args)
		if err != nil {
			return err
		}
		return reportBatch(cmd, "delete", results)
	},
}

func reportBatch(cmd *cobra.Command, op string, results search.BatchResults) error {
	if outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), batchView(results)); err != nil {
			return err
		}
	} else {
		printBatch(cmd.OutOrStdout(), op, results)
	}
	if failed := results.Failed(); len(failed) > 0 {
		return fmt.Errorf("%s: %d of %d documents failed", op, len(failed), len(results))
	}
	return nil
}

type batchItem struct {
	Position int                    `json:"position"`
	ID       string                 `json:"id"`
	Response map[string]interface{} `json:"response,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func batchView(results search.BatchResults) []batchItem {
	out := make([]batchItem, 0, len(results))
	for _, r := range results {
		item := batchItem{Position: r.Position, ID: r.ID, Response: r.Response}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	return out
}

func init() {
	for _, c := range []*cobra.Command{docsCreateCmd, docsUpdateCmd} {
		c.Flags().StringVarP(&docsFile, "file", "f", "", `JSON or YAML document or list of documents, "-" for stdin (required)`)
		_ = c.MarkFlagRequired("file")
	}
	docsCreateCmd.Flags().BoolVar(&assignIDs, "assign-ids", false, "Generate UUIDs for documents missing the id field")
	for _, c := range []*cobra.Command{docsCreateCmd, docsUpdateCmd, docsDeleteCmd} {
		addJSONFlag(c.Flags(), "Output per-document results in JSON format")
	}

	docsCmd.AddCommand(docsCreateCmd)
	docsCmd.AddCommand(docsUpdateCmd)
	docsCmd.AddCommand(docsDeleteCmd)
}
