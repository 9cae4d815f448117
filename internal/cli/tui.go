package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kahojyun/pulsegen/pkg/phase"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InstructionListModel - Interactive instruction browser
// =============================================================================

// InstructionListModel is the bubbletea model for browsing compiled plays.
// The optional channel filter cycles with tab; enter toggles the detail pane.
type InstructionListModel struct {
	Result  *pipeline.Result
	Unit    render.TimeUnit
	Cursor  int
	Height  int
	Offset  int
	Channel int // -1 shows every channel
	Detail  bool

	rows []int // indices into Result.Instructions after filtering
}

// NewInstructionListModel creates a browser over res.
func NewInstructionListModel(res *pipeline.Result, unit render.TimeUnit) InstructionListModel {
	m := InstructionListModel{Result: res, Unit: unit, Height: 15, Channel: -1}
	m.filter()
	return m
}

func (m *InstructionListModel) filter() {
	m.rows = m.rows[:0]
	for i, p := range m.Result.Instructions {
		if m.Channel < 0 || p.Channel == m.Channel {
			m.rows = append(m.rows, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

// Selected returns the play under the cursor.
func (m InstructionListModel) Selected() (phase.ResolvedPlay, bool) {
	if m.Cursor >= len(m.rows) {
		return phase.ResolvedPlay{}, false
	}
	return m.Result.Instructions[m.rows[m.Cursor]], true
}

func (m InstructionListModel) Init() tea.Cmd {
	return nil
}

func (m InstructionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n := len(m.rows); n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		case "tab":
			m.Channel++
			if m.Channel >= len(m.Result.Channels) {
				m.Channel = -1
			}
			m.filter()
		case "enter":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m InstructionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Instructions"))
	scope := "all channels"
	if m.Channel >= 0 {
		scope = m.Result.Channels[m.Channel].Name
	}
	b.WriteString("  " + StyleHighlight.Render(scope))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab channel  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Result.Instructions[m.rows[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			p.ChannelName,
			m.Unit.Format(p.Time),
			shapeName(p.Shape, m.Result.Shapes),
			m.Unit.Format(p.Duration()),
			fmt.Sprintf("%.4g", p.Amplitude),
			fmt.Sprintf("%+.4f", p.Phase),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Channel", "Time", "Shape", "Duration", "Amp", "Phase").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			p := m.Result.Instructions[m.rows[idx]]
			style := listNormalStyle
			if idx == m.Cursor {
				style = listSelectedStyle
			}
			if p.Clipped {
				style = style.Foreground(colorYellow)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.rows)), len(m.rows))))

	if p, ok := m.Selected(); ok && m.Detail {
		b.WriteString("\n\n")
		b.WriteString(m.detail(p))
	}
	return b.String()
}

func (m InstructionListModel) detail(p phase.ResolvedPlay) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	line := func(k, v string) string { return keyStyle.Render(k) + " " + StyleValue.Render(v) + "\n" }

	var b strings.Builder
	b.WriteString(line("logical time", m.Unit.Format(p.LogicalTime)))
	b.WriteString(line("delay", m.Unit.Format(p.Delay)))
	b.WriteString(line("width", m.Unit.Format(p.Width)))
	b.WriteString(line("plateau", m.Unit.Format(p.Plateau)))
	if p.DragCoef != 0 {
		b.WriteString(line("drag", fmt.Sprintf("%g", p.DragCoef)))
	}
	b.WriteString(line("frequency", fmt.Sprintf("%g Hz", p.Frequency)))
	b.WriteString(line("carrier", fmt.Sprintf("%g Hz", p.CarrierFrequency)))
	b.WriteString(line("phase offset", fmt.Sprintf("%.6f rad", p.PhaseOffset)))
	if p.Clipped {
		b.WriteString(StyleWarning.Render("clipped at the end of the channel record") + "\n")
	}
	return b.String()
}

func shapeName(id schedule.ShapeID, shapes []schedule.Shape) string {
	if id < 0 || int(id) >= len(shapes) {
		return "rect"
	}
	return shapes[id].Name
}
