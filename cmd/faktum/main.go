package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cuemby/faktum/pkg/config"
	"github.com/cuemby/faktum/pkg/log"
	"github.com/cuemby/faktum/pkg/transact"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

var cfgFile string
var cfg config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "faktum",
	Short:   "faktum - an embedded transactional triple-store query engine",
	Long:    `faktum stores facts as (entity, attribute, value, validity) triples and answers recursive Datalog queries over them.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
			cfg.DataDir = v
		}
		if v, _ := cmd.Flags().GetString("scratch-dir"); v != "" {
			cfg.ScratchDir = v
		}
		if v, _ := cmd.Flags().GetString("log-level"); v != "" {
			cfg.LogLevel = v
		}
		if v, _ := cmd.Flags().GetBool("log-json"); v {
			cfg.LogJSON = v
		}
		log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("faktum version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().String("scratch-dir", "", "Scratch directory (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(serveCmd)
}

// openDatabase opens the database at the configured data/scratch
// directories. Callers are responsible for calling Close.
func openDatabase() (*transact.Database, error) {
	return transact.Open(cfg.DataDir, cfg.ScratchDir)
}

// readInput reads path, or stdin when path is "-" or empty.
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
