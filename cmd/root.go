package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/config"
	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/internal/telemetry"
)

var (
	verbose bool
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"

	cfg               config.Config
	shutdownTelemetry func(context.Context) error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deskcorder",
	Short: "Inspect, convert, export and replay deskcorder sessions",
	Long: `deskcorder works with recorded whiteboard sessions: pen strokes, slides
and the audio captured alongside them.

Quick Start:
  deskcorder info lecture.dcb                 # Summarize a session
  deskcorder convert lecture.dcx lecture.dcb  # Upgrade a legacy file
  deskcorder export lecture.dcb -f pdf        # One page per slide
  deskcorder play lecture.dcb                 # Headless replay
  deskcorder index ~/lectures/*.dcb           # Add to the catalog
  deskcorder list                             # Show the catalog`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		level, err := internal.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		internal.SetLogLevel(level)
		if verbose {
			internal.SetVerbose(true)
		}

		shutdownTelemetry, err = telemetry.Setup(cmd.Context(), "deskcorder", cfg.OTelEndpoint, cfg.OTelEnabled)
		if err != nil {
			internal.LogWarn("Tracing disabled: %v", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry == nil {
			return nil
		}
		return shutdownTelemetry(context.WithoutCancel(cmd.Context()))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// fileOptions returns codec options for loading and saving. An empty
// version falls back to the configured default.
func fileOptions(versionFlag string) (fileio.Options, error) {
	name := versionFlag
	if name == "" {
		name = cfg.SaveVersion
	}
	v, err := fileio.ParseVersion(name)
	if err != nil {
		return fileio.Options{}, err
	}
	return fileio.Options{Version: v, SampleRate: cfg.SampleRate}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
