package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/travel-assistant/app/logger"
	"github.com/FACorreiaa/travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/travel-assistant/app/tracer"
	"github.com/FACorreiaa/travel-assistant/config"
	"github.com/FACorreiaa/travel-assistant/internal/api/rag"
	"github.com/FACorreiaa/travel-assistant/internal/console"
	"github.com/FACorreiaa/travel-assistant/internal/container"
)

// app carries what the commands share once the root pre-run has finished.
type app struct {
	cfgFile   string
	logger    *slog.Logger
	container *container.Container
	shutdown  func(context.Context) error
}

// NewRootCommand builds the travel-assistant command tree. Prompts are read
// from in and written to out; logs go to stderr.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "travel-assistant",
		Short:         "Plan a trip or ask travel questions",
		Long:          `Interactive travel assistant: filter points of interest by city, activity and budget, or ask free-text questions answered from the travel knowledge base.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bootstrap(cmd.Context())
		},
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !a.container.WaitForDB(ctx) {
				return errors.New("database not ready")
			}
			c := a.container
			ask := NewAskRunner(func(ctx context.Context) (rag.Asker, error) {
				service, err := c.RAGService(ctx)
				if err != nil {
					return nil, err
				}
				return service.NewChain(ctx)
			}, a.logger)

			menu := NewMenu(c.Planner, ask, a.logger)
			return menu.Run(ctx, console.NewPrompter(in, out))
		}),
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yml, then the built-in defaults)")
	root.SetIn(in)
	root.SetOut(out)

	root.AddCommand(newIngestCommand(a), newMigrateCommand(a), newReindexCommand(a))
	return root
}

func newIngestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Embed and insert catalog records from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.container.WaitForDB(ctx) {
				return errors.New("database not ready")
			}
			service, err := a.container.IngestService(ctx)
			if err != nil {
				return err
			}
			_, err = service.IngestFile(ctx, args[0], cmd.OutOrStdout())
			return err
		}),
	}
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: a.run(func(*cobra.Command, []string) error {
			return a.container.RunMigrations()
		}),
	}
}

func newReindexCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Embed the whole Q&A corpus and store the vectors",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !a.container.WaitForDB(ctx) {
				return errors.New("database not ready")
			}
			service, err := a.container.RAGService(ctx)
			if err != nil {
				return err
			}
			chain, err := service.NewChain(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents.\n", chain.Documents)
			return nil
		}),
	}
}

func (a *app) bootstrap(ctx context.Context) error {
	cfg, err := config.InitConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing config: %w", err)
	}
	a.logger = appLogger.New(cfg.Mode, os.Stderr)
	slog.SetDefault(a.logger)

	a.shutdown, err = tracer.InitTracingAndMetrics(ctx, tracer.Options{
		ServeMetrics: cfg.Observability.Metrics.Enabled,
		MetricsPort:  cfg.Observability.Metrics.Port,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	if err := metrics.InitAppMetrics(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	a.container, err = container.NewContainer(ctx, &cfg, a.logger)
	if err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "Application initialised", slog.String("mode", cfg.Mode))
	return nil
}

// run wraps a command body so resources opened by bootstrap are released
// whether or not the body fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.close(cmd.Context()))
		}()
		return fn(cmd, args)
	}
}

func (a *app) close(ctx context.Context) error {
	if a.container != nil {
		a.container.Close()
	}
	if a.shutdown != nil {
		return a.shutdown(context.WithoutCancel(ctx))
	}
	return nil
}
