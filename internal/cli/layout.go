package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/layout"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// layoutCommand creates the layout command for printing the arranged tree.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		unit       string
		showHidden bool
		flags      compileFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [document]",
		Short: "Print the arranged element tree of a document",
		Long: `Print the arranged element tree of a document.

Every element is listed with its absolute start time, its duration and the
slot its parent allotted to it. Hidden subtrees are omitted unless --hidden
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.timeUnit(unit)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], u, showHidden, flags)
		},
	}

	cmd.Flags().StringVarP(&unit, "unit", "u", "", "time unit: s, ms, us, ns (default from config)")
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden elements")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, w io.Writer, input string, unit render.TimeUnit, showHidden bool, flags compileFlags) error {
	res, err := c.compileFile(ctx, input, flags)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, layoutTable(res.Layout, res.Channels, unit, showHidden))
	if w == os.Stdout {
		printKeyValue("duration", unit.Format(res.Duration))
		printKeyValue("elements", fmt.Sprint(res.Stats.NodeCount))
	}
	return nil
}

// layoutTable renders the arranged tree, one row per element in pre-order.
func layoutTable(l *layout.Layout, channels []channel.Info, unit render.TimeUnit, showHidden bool) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	hiddenStyle := lipgloss.NewStyle().Foreground(colorDim)

	var (
		rows   [][]string
		hidden []bool
	)
	var walk func(id layout.NodeID, depth int, parentHidden bool)
	walk = func(id layout.NodeID, depth int, parentHidden bool) {
		e := l.Element(id)
		h := parentHidden || e.Attrs().Hidden
		if h && !showHidden {
			return
		}
		name := strings.Repeat("  ", depth) + schedule.Kind(e)
		rows = append(rows, []string{
			name,
			channelNames(schedule.OwnChannels(e), channels),
			unit.Format(l.AbsoluteStart(id)),
			unit.Format(l.Duration(id)),
			unit.Format(l.Slot(id)),
		})
		hidden = append(hidden, h)
		for _, ch := range l.Children(id) {
			walk(ch, depth+1, h)
		}
	}
	walk(l.Root(), 0, false)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Element", "Channels", "Start", "Duration", "Slot").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			base := lipgloss.NewStyle().PaddingRight(1)
			if row < len(hidden) && hidden[row] {
				return base.Inherit(hiddenStyle)
			}
			if col == 0 {
				return base.Foreground(colorCyan)
			}
			return base
		})
	return t.Render()
}

func channelNames(chs []int, infos []channel.Info) string {
	if len(chs) == 0 {
		return "—"
	}
	names := make([]string, len(chs))
	for i, ch := range chs {
		if ch >= 0 && ch < len(infos) {
			names[i] = infos[ch].Name
		} else {
			names[i] = fmt.Sprint(ch)
		}
	}
	return strings.Join(names, ", ")
}

// timeUnit parses a --unit flag, falling back to the configured unit.
func (c *CLI) timeUnit(flag string) (render.TimeUnit, error) {
	if flag == "" {
		flag = c.config().Render.Unit
	}
	return render.ParseTimeUnit(flag)
}
