package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kahojyun/pulsegen/internal/server"
	"github.com/kahojyun/pulsegen/pkg/channel"
	pio "github.com/kahojyun/pulsegen/pkg/io"
)

// serveCommand runs the HTTP compile API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		channels string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile API over HTTP",
		Long: `Serve the compile API over HTTP.

POST a schedule document (JSON, YAML or HCL by Content-Type) to /v1/compile
for instruction JSON, /v1/timeline for an SVG timeline or /v1/tree for the
element tree. Documents without channels are compiled against the channel
table given by --channels or compile.channels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context(), addr, channels)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&channels, "channels", "", "default TOML channel table")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, channels string) error {
	cfg := *c.config()
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if channels == "" {
		channels = cfg.Compile.Channels
	}

	var table []channel.Info
	if channels != "" {
		var err error
		if table, err = pio.LoadChannels(channels); err != nil {
			return fmt.Errorf("load channels %s: %w", channels, err)
		}
	}

	srv, err := server.New(&cfg, table, c.Logger)
	if err != nil {
		return err
	}
	printInfo("Serving compile API on %s", StyleHighlight.Render("http://"+cfg.Server.Addr))
	if len(table) > 0 {
		printDetail("%d default channels from %s", len(table), channels)
	}
	return srv.Run(ctx)
}
