package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kahojyun/pulsegen/internal/config"
	"github.com/kahojyun/pulsegen/pkg/buildinfo"
	pio "github.com/kahojyun/pulsegen/pkg/io"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pulsegen"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	logOut     io.Writer
	logFile    io.Closer
	cfg        *config.Config
	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		logOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pulsegen compiles pulse schedules into timed instructions",
		Long: `pulsegen compiles hierarchical pulse schedules (stacks, grids, repeats and
absolute placements of plays and phase/frequency updates) into a flat list of
timed pulse instructions with fully resolved phases.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./pulsegen.{toml,yaml,json})")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.timelineCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and configures logging before any command runs.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level, _ := log.ParseLevel(cfg.Log.Level)
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)

	if cfg.Log.File != "" && c.logFile == nil {
		f := newLogFile(cfg.Log)
		c.logFile = f
		c.Logger.SetOutput(io.MultiWriter(c.logOut, f))
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// config returns the loaded configuration, or the defaults when the command
// is run without the root's setup (as in tests).
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.NewDefaultConfig()
	}
	return c.cfg
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// =============================================================================
// Compile Helpers
// =============================================================================

// compileFlags are the flags shared by every command that compiles a document.
type compileFlags struct {
	channels     string
	rootDuration float64
	quantize     string
}

func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.channels, "channels", "", "TOML channel table (overrides the document's channels)")
	cmd.Flags().Float64Var(&f.rootDuration, "root-duration", 0, "fix the total schedule duration in seconds")
	cmd.Flags().StringVar(&f.quantize, "quantize", "", "time quantization: round (default), floor")
}

// overlay applies non-zero flags on top of opts.
func (f *compileFlags) overlay(opts pipeline.Options) pipeline.Options {
	if f.rootDuration != 0 {
		opts.RootDuration = f.rootDuration
	}
	if f.quantize != "" {
		opts.Quantize = f.quantize
	}
	return opts
}

// loadDocument reads a schedule document and substitutes the channel table
// named by the flag or the configuration.
func (c *CLI) loadDocument(path string, f compileFlags) (*pio.Document, error) {
	doc, err := pio.Load(path)
	if err != nil {
		return nil, err
	}
	table := f.channels
	if table == "" && len(doc.Channels) == 0 {
		table = c.config().Compile.Channels
	}
	if table != "" {
		chs, err := pio.LoadChannels(table)
		if err != nil {
			return nil, fmt.Errorf("load channels %s: %w", table, err)
		}
		c.Logger.Debug("using channel table", "path", table, "channels", len(chs))
		doc.Channels = chs
	}
	return doc, nil
}

// compileFile loads and compiles a single document.
func (c *CLI) compileFile(ctx context.Context, path string, f compileFlags) (*pipeline.Result, error) {
	doc, err := c.loadDocument(path, f)
	if err != nil {
		return nil, err
	}
	req, err := doc.Request()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	opts := f.overlay(doc.Options.Apply(c.config().PipelineOptions()))
	opts.Logger = c.Logger
	res, err := pipeline.NewRunner(c.Logger).Compile(ctx, req, opts)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return res, nil
}

// =============================================================================
// Paths
// =============================================================================

// outputPath returns output if set, else input with its extension replaced by ext.
func outputPath(input, output, ext string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, def string) []string {
	if s == "" {
		return []string{def}
	}
	return strings.Split(s, ",")
}
