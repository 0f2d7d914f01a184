package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/config"
	"github.com/gantrylabs/gantry/internal/driver"
)

var (
	cfgPath string
	verbose bool

	flagURI      string
	flagUsername string
	flagPassword string
	flagDatabase string

	cfg   *config.Config
	runID string
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Gantry - batch loading and transfer for codebase graphs",
	Long: `Gantry loads analyzer-produced codebase trees into a property-graph
store in batches, verifies the result against expected counts, and moves
graphs between stores through label-filtered export and GUID-keyed
idempotent import.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// setup resolves configuration before any command runs: defaults, then the
// TOML file, then .env / environment, then connection flags.
func setup(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}

	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	if flagURI != "" {
		cfg.Graph.URI = flagURI
	}
	if flagUsername != "" {
		cfg.Graph.Username = flagUsername
	}
	if flagPassword != "" {
		cfg.Graph.Password = flagPassword
	}
	if flagDatabase != "" {
		cfg.Graph.Database = flagDatabase
	}

	runID = uuid.NewString()[:8]
	logrus.WithFields(logrus.Fields{
		"run_id":  runID,
		"command": cmd.Name(),
	}).Debug("starting run")

	return nil
}

// connect validates credentials and opens the store client. Callers own the
// handle and must close it when the run ends.
func connect() (*driver.Neo4jDriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return driver.NewNeo4jDriver(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
}

func printJSON(cmd *cobra.Command, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.WithError(err).Warn("failed to render summary")
		return
	}
	cmd.Println(string(data))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagURI, "uri", "", "bolt URI of the store (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagUsername, "username", "", "store username (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "store password (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "logical database (overrides config)")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
}
