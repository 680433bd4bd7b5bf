package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appconfig "github.com/ca-srg/fluentsearch/internal/config"
	"github.com/ca-srg/fluentsearch/internal/logging"
	"github.com/ca-srg/fluentsearch/internal/metrics"
	"github.com/ca-srg/fluentsearch/internal/observability"
	"github.com/ca-srg/fluentsearch/internal/search"
	"github.com/ca-srg/fluentsearch/internal/types"
)

var (
	indexOverride   string
	idFieldOverride string
	envFile         string
	timeout         int
)

// session holds what every subcommand needs once the persistent pre-run has
// loaded configuration.
type session struct {
	client   *search.Client
	logger   *zap.Logger
	recorder *metrics.Recorder
	shutdown observability.ShutdownFunc
}

var current *session

var rootCmd = &cobra.Command{
	Use:   "fluentsearch",
	Short: "Fluent query builder and document tool for OpenSearch",
	Long: `fluentsearch builds bool queries from simple where/in/between filters,
runs them against an OpenSearch cluster and manages documents and index settings.

Connection settings come from OPENSEARCH_* environment variables, optionally
loaded from a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI, records the invoked command and releases the session.
func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if current != nil {
		if tracked, ok := trackedCommand(cmd); ok {
			current.recorder.Record(tracked, current.client.Query().IndexName(), err)
		}
		if closeErr := current.close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&indexOverride, "index", "", "Index name (defaults to OPENSEARCH_INDEX)")
	rootCmd.PersistentFlags().StringVar(&idFieldOverride, "id-field", "", "Document id field (defaults to OPENSEARCH_ID_FIELD)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30, "Request timeout in seconds")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(statsCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		// A missing file is fine; the environment may already be populated.
		_ = godotenv.Load(envFile)
	}

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(logging.OptionsFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	shutdown, err := observability.Setup(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	builder := search.FromConfig(cfg)
	if indexOverride != "" {
		builder.SetIndex(indexOverride)
	}
	if idFieldOverride != "" {
		builder.SetID(idFieldOverride)
	}

	client, err := builder.Build()
	if err != nil {
		_ = shutdown(context.Background())
		return fmt.Errorf("failed to create search client: %w", err)
	}

	recorder := openRecorder(cfg, logger)
	if err := recorder.RegisterGauge(); err != nil {
		logger.Warn("failed to register usage gauge", zap.Error(err))
	}

	current = &session{client: client, logger: logger, recorder: recorder, shutdown: shutdown}
	return nil
}

// openRecorder returns a recorder backed by the stats database, or a no-op one
// when stats are disabled or the database cannot be opened.
func openRecorder(cfg *types.Config, logger *zap.Logger) *metrics.Recorder {
	if !cfg.StatsEnabled {
		return metrics.NewRecorder(nil, logger)
	}

	path := cfg.StatsPath
	if path == "" {
		var err error
		if path, err = metrics.DefaultPath(); err != nil {
			logger.Warn("usage stats disabled", zap.Error(err))
			return metrics.NewRecorder(nil, logger)
		}
	}

	store, err := metrics.OpenStore(path)
	if err != nil {
		logger.Warn("usage stats disabled", zap.String("path", path), zap.Error(err))
		return metrics.NewRecorder(nil, logger)
	}
	return metrics.NewRecorder(store, logger)
}

func (s *session) close() error {
	defer func() { _ = s.logger.Sync() }()
	if err := s.recorder.Close(); err != nil {
		s.logger.Warn("failed to close usage stats", zap.Error(err))
	}
	return s.shutdown(context.Background())
}

// trackedCommand maps an invoked command to its top level usage bucket.
func trackedCommand(cmd *cobra.Command) (metrics.Command, bool) {
	for cmd != nil && cmd.HasParent() && cmd.Parent() != rootCmd {
		cmd = cmd.Parent()
	}
	if cmd == nil {
		return "", false
	}
	for _, known := range metrics.Commands {
		if cmd.Name() == string(known) {
			return known, true
		}
	}
	return "", false
}

// requestContext bounds a single command by --timeout.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, time.Duration(timeout)*time.Second)
}
