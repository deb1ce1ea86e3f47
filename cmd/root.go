package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/osmpoi/internal/config"
	"github.com/wegman-software/osmpoi/internal/logger"
	"github.com/wegman-software/osmpoi/internal/pipeline"
	"github.com/wegman-software/osmpoi/internal/store"
)

var configFile string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "osmpoi <input.osm.pbf>",
		Short: "Load OSM amenities and shops into PostgreSQL/PostGIS",
		Long: `osmpoi streams an OpenStreetMap PBF or XML extract and writes every node
tagged amenity=* or shop=* to the points table, with the remaining tags in
the tags table.

Connection settings come from --database-url, DATABASE_URL or the
database_url key of a --config YAML file. Any setting can also be given as
an OSMPOI_* environment variable, e.g. OSMPOI_WRITE_TIMEOUT=5s.

Rows are committed one by one: a failed run keeps everything written before
the failure unless --single-transaction is set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLoad,
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML config file")
	f.StringP("database-url", "d", "", "PostgreSQL connection URL (env DATABASE_URL)")
	f.StringP("projection", "E", def.Projection, "Target projection SRID (4326 or 3857)")
	f.Duration("write-timeout", def.WriteTimeout, "Timeout for each insert, 0 for none")
	f.Bool("create-schema", false, "Create the PostGIS extension, point_type enum and tables if missing")
	f.Bool("single-transaction", false, "Load in one transaction; a failure leaves the database untouched")
	f.BoolP("verbose", "v", false, "Enable verbose output")
	f.String("log-file", "", "Path to log file for persistent logging (JSON format)")
	f.Duration("metrics-interval", def.MetricsInterval, "Interval for system metrics logging, 0 to disable")
	f.Duration("progress-interval", def.ProgressInterval, "Interval for progress logging")

	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg.InputFile = args[0]

	logger.Init(logger.Options{Debug: cfg.Verbose, File: cfg.LogFile})
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := load(ctx, cfg); err != nil {
		if store.IsConstraintViolation(err) {
			logger.Get().Error("A constraint was violated; the target tables probably already hold rows from an earlier run")
		}
		exitWithError("load failed", err)
	}
	return nil
}

func load(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	start := time.Now()

	log.Info("Starting osmpoi load",
		zap.String("input", cfg.InputFile),
		zap.String("projection", cfg.Projection),
		zap.Bool("single_transaction", cfg.SingleTransaction),
		zap.Bool("create_schema", cfg.CreateSchema))

	coordinator, err := pipeline.NewCoordinator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := coordinator.Close(); err != nil {
			log.Warn("Failed to close resources", zap.Error(err))
		}
	}()

	if _, err := coordinator.Run(ctx); err != nil {
		return err
	}

	log.Info("Done", zap.Duration("total_time", time.Since(start).Round(time.Second)))
	return nil
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
