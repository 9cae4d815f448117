package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pio "github.com/kahojyun/pulsegen/pkg/io"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
)

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		output string
		flags  compileFlags
	)

	cmd := &cobra.Command{
		Use:   "compile [document...]",
		Short: "Compile schedule documents to instruction JSON",
		Long: `Compile schedule documents to instruction JSON.

Each document (YAML, JSON or HCL, chosen by extension) is laid out, flattened
and phase-tracked. The result lists every play with its output time on the
channel grid and its resolved carrier frequency and phase.

With one document, -o names the output file (default: <input>.result.json).
With several, they are compiled concurrently using the command-line and
configured options, and each result is written next to its input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				if output != "" {
					return fmt.Errorf("-o cannot be used with several documents")
				}
				return c.runCompileAll(cmd.Context(), args, flags)
			}
			return c.runCompile(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.result.json)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runCompile(ctx context.Context, input, output string, flags compileFlags) error {
	spinner := newSpinnerWithContext(ctx, "Compiling "+input+"...")
	spinner.Start()

	res, err := c.compileFile(ctx, input, flags)
	if err != nil {
		spinner.StopWithError("Compilation failed")
		return err
	}
	spinner.Stop()

	path := outputPath(input, output, ".result.json")
	if err := pio.ExportResult(res, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Compiled %s", input)
	printFile(path)
	printStats(res.Stats)
	if res.Stats.ClippedPlays > 0 {
		printWarning("%d plays run past the end of their channel record", res.Stats.ClippedPlays)
	}
	printNewline()
	printNextStep("Browse", appName+" inspect "+input)
	return nil
}

// runCompileAll compiles several documents concurrently. Per-document options
// are ignored in favour of the shared command-line options.
func (c *CLI) runCompileAll(ctx context.Context, inputs []string, flags compileFlags) error {
	prog := newProgress(c.Logger)

	reqs := make([]pipeline.Request, len(inputs))
	for i, in := range inputs {
		doc, err := c.loadDocument(in, flags)
		if err != nil {
			return err
		}
		if doc.Options != (pio.DocumentOptions{}) {
			c.Logger.Warn("ignoring document options in batch mode", "file", in)
		}
		if reqs[i], err = doc.Request(); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
	}

	opts := flags.overlay(c.config().PipelineOptions())
	opts.Logger = c.Logger
	results, err := pipeline.NewRunner(c.Logger).CompileAll(ctx, reqs, opts)
	if err != nil {
		return err
	}

	for i, res := range results {
		path := outputPath(inputs[i], "", ".result.json")
		if err := pio.ExportResult(res, path); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	prog.done(fmt.Sprintf("Compiled %d schedules", len(results)))
	return nil
}
