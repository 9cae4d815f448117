package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/render/timeline"
	"github.com/kahojyun/pulsegen/pkg/render/tree"
)

const pngScale = 2.0 // PNG exports are rendered at 2x

// renderOpts holds the flags shared by the diagram commands.
type renderOpts struct {
	output   string   // output file (single format) or base path (multiple)
	formats  []string // output formats
	unit     string   // time unit for labels
	detailed bool     // tree: show path, desired size, slot and channels
	width    float64  // timeline: image width in pixels
	title    string   // timeline: heading
	compile  compileFlags
}

// treeCommand renders the arranged element tree with Graphviz.
func (c *CLI) treeCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "tree [document]",
		Short: "Render the element tree of a document",
		Long: `Render the arranged element tree of a document as a Graphviz diagram.

Each node shows the element kind, its channels, its absolute start time and
its duration. Hidden subtrees are drawn dashed. With --detailed, nodes also
show their path, desired duration, slot and channel set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, "svg")
			if err := validateFormats(opts.formats, treeFormats); err != nil {
				return err
			}
			return c.runDiagram(cmd.Context(), args[0], &opts, renderTree)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "time unit: s, ms, us, ns (default from config)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show detailed node information")
	opts.compile.register(cmd)

	return cmd
}

// timelineCommand renders compiled instructions on per-channel lanes.
func (c *CLI) timelineCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "timeline [document]",
		Short: "Render the compiled instructions as a timeline",
		Long: `Render the compiled instructions of a document as a timeline.

Every channel gets a lane; each play is drawn at its output time with a
height proportional to its amplitude. Plays that run past the channel record
are highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, "svg")
			if err := validateFormats(opts.formats, timelineFormats); err != nil {
				return err
			}
			return c.runDiagram(cmd.Context(), args[0], &opts, renderTimeline)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png (comma-separated)")
	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "time unit: s, ms, us, ns (default from config)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "image width in pixels (default from config)")
	cmd.Flags().StringVar(&opts.title, "title", "", "timeline heading (default: input file name)")
	opts.compile.register(cmd)

	return cmd
}

var (
	treeFormats     = map[string]bool{"svg": true, "dot": true, "pdf": true, "png": true}
	timelineFormats = map[string]bool{"svg": true, "pdf": true, "png": true}
)

// validateFormats checks that all requested formats are in valid.
func validateFormats(formats []string, valid map[string]bool) error {
	for _, f := range formats {
		if !valid[f] {
			return fmt.Errorf("invalid format: %s (must be one of %s)", f, strings.Join(slices.Sorted(maps.Keys(valid)), ", "))
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output ends in a
// known format extension, that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if treeFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// diagramFunc renders one format of a compiled document.
type diagramFunc func(ctx context.Context, res *pipeline.Result, format string, unit render.TimeUnit, opts *renderOpts) ([]byte, error)

// runDiagram compiles input and writes every requested format.
func (c *CLI) runDiagram(ctx context.Context, input string, opts *renderOpts, fn diagramFunc) error {
	logger := loggerFromContext(ctx)

	unit, err := c.timeUnit(opts.unit)
	if err != nil {
		return err
	}
	if opts.width == 0 {
		opts.width = c.config().Render.Width
	}
	if opts.title == "" {
		opts.title = filepath.Base(input)
	}

	spinner := newSpinnerWithContext(ctx, "Compiling "+input+"...")
	spinner.Start()
	res, err := c.compileFile(ctx, input, opts.compile)
	if err != nil {
		spinner.StopWithError("Compilation failed")
		return err
	}

	base := basePath(opts.output, input)
	outputs := make(map[string][]byte, len(opts.formats))
	for _, format := range opts.formats {
		spinner.Message("Rendering " + format + "...")
		data, err := fn(ctx, res, format, unit, opts)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return fmt.Errorf("%s: %w", format, err)
		}
		outputs[format] = data
	}
	spinner.Stop()

	for _, format := range opts.formats {
		data := outputs[format]
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		logger.Debugf("Generated %s: %d bytes", format, len(data))
		printFile(path)
	}
	return nil
}

func renderTree(ctx context.Context, res *pipeline.Result, format string, unit render.TimeUnit, opts *renderOpts) ([]byte, error) {
	dot := tree.ToDOT(res.Layout, tree.Options{Detailed: opts.detailed, Channels: res.Channels, Unit: unit})
	switch format {
	case "dot":
		return []byte(dot), nil
	case "svg":
		return tree.RenderSVG(ctx, dot)
	case "pdf":
		return tree.RenderPDF(ctx, dot)
	case "png":
		return tree.RenderPNG(ctx, dot, pngScale)
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

func renderTimeline(ctx context.Context, res *pipeline.Result, format string, unit render.TimeUnit, opts *renderOpts) ([]byte, error) {
	svg := timeline.RenderSVG(res,
		timeline.WithUnit(unit),
		timeline.WithWidth(opts.width),
		timeline.WithTitle(opts.title))
	switch format {
	case "svg":
		return svg, nil
	case "pdf":
		return render.ToPDF(ctx, svg)
	case "png":
		return render.ToPNG(ctx, svg, pngScale)
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}
