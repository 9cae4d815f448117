package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// inspectCommand opens an interactive browser over a document's instructions.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		unit  string
		flags compileFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect [document]",
		Short: "Browse the compiled instructions of a document",
		Long: `Compile a document and browse its instructions interactively.

Use the arrow keys to move, tab to cycle the channel filter and enter to show
the selected play's resolved frequency and phase.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], unit, flags)
		},
	}

	cmd.Flags().StringVarP(&unit, "unit", "u", "", "time unit: s, ms, us, ns (default from config)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input, unitFlag string, flags compileFlags) error {
	unit, err := c.timeUnit(unitFlag)
	if err != nil {
		return err
	}
	res, err := c.compileFile(ctx, input, flags)
	if err != nil {
		return err
	}
	if len(res.Instructions) == 0 {
		printWarning("%s produced no instructions", input)
		return nil
	}

	p := tea.NewProgram(NewInstructionListModel(res, unit), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return nil
}
