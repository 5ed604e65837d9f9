// Package cli implements the textgraph command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/textgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/textgraph/internal/config"

	"github.com/spf13/cobra"
)

// generateError marks failures of the pipeline itself, as opposed to
// usage or configuration errors.
type generateError struct {
	err error
}

func (e *generateError) Error() string {
	return e.err.Error()
}

func (e *generateError) Unwrap() error {
	return e.err
}

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	closeLog func()
}

// loadConfig resolves the configuration with the flags of cmd and installs
// the logger.
func (e *env) loadConfig(cmd *cobra.Command, prefix string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Options{
		Flags:      cmd.Flags(),
		ConfigFile: configFile,
	})
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.closeLog = bootstrap.InitLogger(cfg, prefix)
	return nil
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "textgraph",
		Short:         "Build knowledge graphs from text with a language model",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(e.stdin)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	root.PersistentFlags().String("config", "", "config file (default ./textgraph.yaml or $TEXTGRAPH_CONFIG)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")

	root.AddCommand(
		newGenerateCmd(e),
		newRenderCmd(e),
		newServeCmd(e),
		newWorkerCmd(e),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(e)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if e.closeLog != nil {
		e.closeLog()
	}
	if err == nil {
		return 0
	}

	var genErr *generateError
	if errors.As(err, &genErr) {
		fmt.Fprintf(stderr, "Error generating knowledge graph: %v\n", genErr.err)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}
