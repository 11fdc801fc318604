// Command ecoleta runs the Ecoleta collection point API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecoleta/ecoleta/internal/config"
)

var (
	envFile  string
	logPath  string
	logLevel string
	cfg      *config.Config
	// closeLog is set by setupLogger when a log file is open.
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:   "ecoleta",
	Short: "Waste collection point marketplace API",
	Long: `Ecoleta connects people with places that collect recyclable waste.

Settings are read from the environment, optionally from a .env file. Flags
override the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		if err := config.LoadEnvFiles(files...); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}

		cfg = config.Load()
		if cmd.Flags().Changed("log") {
			cfg.LogPath = logPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		applyServeFlags(cmd)

		if err := cfg.Validate(); err != nil {
			return err
		}

		level, err := config.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		cleanup, err := setupLogger(cfg.LogPath, level)
		if err != nil {
			return err
		}
		closeLog = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "env file to load (default: .env if present)")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default: $LOG_LEVEL or info)")

	addServeFlags(rootCmd)
	addServeFlags(serveCmd)

	geoCmd.AddCommand(geoStatesCmd, geoCitiesCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, geoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
