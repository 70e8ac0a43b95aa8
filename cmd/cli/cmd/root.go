// Package cmd provides the CLI commands for green-roi.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"green-roi/core/catalog"
	"green-roi/core/engine"
	"green-roi/core/output"
	"green-roi/internal/config"
	"green-roi/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile     string
	catalogFile string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "green-roi",
	Short: "Estimate savings and ROI for green home investments",
	Long: `green-roi converts utility bills to usage, estimates monthly savings for
solar, water, waste management, energy efficiency and other investments, and
projects cumulative savings, ROI and payback over a 1-10 year horizon.

Examples:
  green-roi bill --usage 250
  green-roi usage --bill 300
  green-roi recommend --bill 300 --house terrace
  green-roi project --investment 5000 --savings 300 --years 5
  green-roi calculate --category solar --bill 300 --state Selangor --format json`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, YAML or JSON (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "HCL reference tables (default: built-in tables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(billCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(logging.WithService(cfg.Logging, "green-roi")); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			logging.Warn("config file not found, using defaults", zap.String("path", cfgFile))
		}
	}
}

// newEngine loads the catalog and builds an engine from the global configuration
func newEngine() (*engine.Engine, error) {
	cfg := config.Get()
	path := cfg.Catalog.Path
	if catalogFile != "" {
		path = catalogFile
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("catalog loaded")
	return engine.NewEngine(cat, engine.ConfigFrom(cfg), logging.Named("engine"))
}

// formatFlag reads --format, falling back to the configured default
func formatFlag(cmd *cobra.Command) output.Format {
	f, _ := cmd.Flags().GetString("format")
	if f == "" {
		f = config.Get().Output.DefaultFormat
	}
	return output.Format(f)
}

// openOutput returns stdout or the --output file
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "green-roi version %s\n", Version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Write the default configuration to a file.
The format follows the extension: .yaml/.yml for YAML, anything else for JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "green-roi.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
