package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	indexBodyFile string
	putFile       string
	healthCheck   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the index, its settings and mapping",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the index from a body holding settings and optional mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readObject(indexBodyFile)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		resp, err := current.client.Query().CreateIndex(ctx, body)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

var indexSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show index settings, or update them with --put",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		q := current.client.Query()
		if putFile == "" {
			resp, err := q.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to get settings: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		}

		body, err := readObject(putFile)
		if err != nil {
			return err
		}
		resp, err := q.UpdateSettings(ctx, body)
		if err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

var indexMappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Show the index mapping, or put field properties with --put",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		q := current.client.Query()
		if putFile == "" {
			resp, err := q.GetMapping(ctx)
			if err != nil {
				return fmt.Errorf("failed to get mapping: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		}

		properties, err := readObject(putFile)
		if err != nil {
			return err
		}
		// Accept either bare properties or a {"properties": {...}} wrapper.
		if inner, ok := properties["properties"].(map[string]interface{}); ok && len(properties) == 1 {
			properties = inner
		}
		resp, err := q.PutMapping(ctx, properties)
		if err != nil {
			return fmt.Errorf("failed to put mapping: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		q := current.client.Query()
		resp, err := q.Clear(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete index %s: %w", q.IndexName(), err)
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

type clusterHealther interface {
	ClusterHealth(ctx context.Context) (map[string]interface{}, error)
	HealthCheck(ctx context.Context) error
}

var indexHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show cluster health",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, ok := current.client.Engine().(clusterHealther)
		if !ok {
			return fmt.Errorf("engine does not report cluster health")
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if healthCheck {
			if err := h.HealthCheck(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		resp, err := h.ClusterHealth(ctx)
		if err != nil {
			return fmt.Errorf("failed to get cluster health: %w", err)
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	indexCreateCmd.Flags().StringVarP(&indexBodyFile, "file", "f", "", "JSON or YAML index body (required)")
	_ = indexCreateCmd.MarkFlagRequired("file")
	indexSettingsCmd.Flags().StringVar(&putFile, "put", "", "JSON or YAML settings body to apply")
	indexMappingCmd.Flags().StringVar(&putFile, "put", "", "JSON or YAML field properties to apply")
	indexHealthCmd.Flags().BoolVar(&healthCheck, "check", false, "Only check reachability and fail when the cluster is red")

	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(indexSettingsCmd)
	indexCmd.AddCommand(indexMappingCmd)
	indexCmd.AddCommand(indexClearCmd)
	indexCmd.AddCommand(indexHealthCmd)
}
