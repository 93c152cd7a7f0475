// Package cli implements the ctcbench command-line tool.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/ctc/ctc"
	"github.com/born-ml/ctc/internal/backend/cpu"
	"github.com/born-ml/ctc/internal/backend/webgpu"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "ctcbench",
		Short:         "Benchmark and cross-check CTC loss kernels",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newBenchCommand())
	c.rootCmd.AddCommand(c.newCheckCommand())
	c.rootCmd.AddCommand(c.newAlignCommand())
	c.rootCmd.AddCommand(c.newVersionCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	err := c.rootCmd.Execute()
	if err != nil {
		slog.Error("Command failed", "error", err)
	}
	return err
}

// SetArgs overrides os.Args, for tests.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// initApp initializes logging.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func (c *CLI) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ctcbench %s\n", c.version)
		},
	}
}

// openBackend returns the named backend and a release function.
func openBackend(name string) (ctc.Backend, func(), error) {
	switch name {
	case "", "cpu":
		return cpu.New(), func() {}, nil
	case "webgpu", "gpu":
		gpu, err := webgpu.New()
		if err != nil {
			return nil, nil, err
		}
		return gpu, gpu.Release, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}
