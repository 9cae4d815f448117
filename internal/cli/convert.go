package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pio "github.com/kahojyun/pulsegen/pkg/io"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// convertCommand rewrites a document in canonical YAML or JSON.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output   string
		format   string
		channels string
	)

	cmd := &cobra.Command{
		Use:   "convert [document]",
		Short: "Convert a document to canonical YAML or JSON",
		Long: `Convert a document to canonical YAML or JSON.

The document is fully resolved and validated before it is written, so convert
doubles as a linter. Default values are omitted from the output. With
--channels, the channel table is embedded in the converted document.

The output format is taken from --format, else from the -o extension, else
YAML. HCL can be read but not written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(args[0], output, format, channels)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: yaml, json")
	cmd.Flags().StringVar(&channels, "channels", "", "TOML channel table to embed")

	return cmd
}

func (c *CLI) runConvert(input, output, formatFlag, channels string) error {
	format, err := convertFormat(output, formatFlag)
	if err != nil {
		return err
	}

	doc, err := c.loadDocument(input, compileFlags{channels: channels})
	if err != nil {
		return err
	}
	req, err := doc.Request()
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	out, err := pio.FromRequest(req)
	if err != nil {
		return err
	}
	out.Options = doc.Options
	n := 0
	schedule.Walk(req.Schedule, func(schedule.Element, string) bool { n++; return true })
	c.Logger.Debug("converted document", "elements", n, "format", format)

	if output == "" {
		return pio.Write(out, os.Stdout, format)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := pio.Write(out, f, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Converted %s", input)
	printFile(output)
	return nil
}

func convertFormat(output, flag string) (pio.Format, error) {
	if flag != "" {
		return pio.ParseFormat(flag)
	}
	if output != "" {
		return pio.FormatFromPath(output)
	}
	return pio.FormatYAML, nil
}
