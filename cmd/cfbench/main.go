// cfbench: constraint-following benchmark document validator.
//
// Validates tagged conversation documents (system prompt, turns, turn
// metadata, golden response, candidate model passes and validator cells)
// and reports a verdict. Runs as a CLI or as an MCP server.
//
// Usage:
//
//	cfbench serve                 # Start MCP server (stdio transport)
//	cfbench validate doc.md ...   # Validate documents
//	cfbench parse doc.md          # Show how a document was segmented
//	cfbench history [query]       # Search past runs
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/config"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/server"
)

// errNotPassing makes the process exit non-zero without printing an error;
// the report already says what is wrong.
var errNotPassing = errors.New("one or more documents did not pass")

// app holds state shared by every command.
type app struct {
	cfgPath string
	envFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errNotPassing) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "cfbench",
		Short: "Validate constraint-following benchmark documents",
		Long: `cfbench checks tagged conversation documents used to benchmark instruction
following: structure, golden response quality, turn metadata, and whether the
candidate model passes break the declared rules.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(a.cfgPath, a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg

			log, err := newLogger(cfg.Log.Level, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", config.DefaultPath(), "Config file (YAML)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newValidateCmd(a),
		newParseCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)
	return root
}

// newLogger builds a production logger on stderr; stdout belongs to the
// report or to the MCP stdio transport.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "%s v%s\n", server.Name, server.Version)
		},
	}
}
