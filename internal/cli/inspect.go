package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	pkgio "github.com/matzehuels/blockout/pkg/io"
	"github.com/matzehuels/blockout/pkg/pipeline"
	"github.com/matzehuels/blockout/pkg/plan"
)

// Tree styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeRoomStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	treeNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		noCache bool
		shell   shellFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect [scene.json]",
		Short: "Browse the resolved hierarchy of a scene interactively",
		Long: `Browse the resolved hierarchy of a scene interactively.

Rooms are listed with the objects anchored in them, children indented
under their parents in creation order. The selected entry shows its
type, parent, local and world position.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := pkgio.ImportDocument(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg, err = shell.apply(cfg); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			p, _, _, err := runner.ResolveWithCacheInfo(ctx, doc, pipeline.Options{Config: cfg, Logger: c.Logger})
			if err != nil {
				return err
			}

			_, err = tea.NewProgram(newTreeModel(p), tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	shell.register(cmd)
	return cmd
}

// =============================================================================
// TreeModel - Interactive hierarchy browser
// =============================================================================

// treeRow is one line of the hierarchy view.
type treeRow struct {
	target hierarchy.Target
	depth  int
}

// TreeModel is the bubbletea model for browsing a resolved plan.
type TreeModel struct {
	Plan   *plan.Plan
	Rows   []treeRow
	Cursor int
	Height int
	Offset int
}

// newTreeModel flattens p into rows: each room followed by its subtree,
// then the objects attached to the scene root.
func newTreeModel(p *plan.Plan) TreeModel {
	children := make(map[hierarchy.Target][]string)
	for _, pl := range p.InOrder() {
		parent := pl.Target()
		children[parent] = append(children[parent], pl.ObjectID)
	}

	var rows []treeRow
	var walk func(t hierarchy.Target, depth int)
	walk = func(t hierarchy.Target, depth int) {
		rows = append(rows, treeRow{target: t, depth: depth})
		for _, id := range children[t] {
			walk(hierarchy.Target{Kind: hierarchy.Object, ID: id}, depth+1)
		}
	}
	for _, r := range p.Rooms {
		walk(hierarchy.Target{Kind: hierarchy.Room, ID: r.RoomID}, 0)
	}
	for _, id := range children[hierarchy.Target{Kind: hierarchy.Root}] {
		walk(hierarchy.Target{Kind: hierarchy.Object, ID: id}, 0)
	}

	return TreeModel{Plan: p, Rows: rows, Height: 15}
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Rows)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Scene Hierarchy"))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(treeDimStyle.Render("  (empty scene)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	for i := m.Offset; i < end; i++ {
		row := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := cursor + strings.Repeat("  ", row.depth) + m.label(row.target)

		switch {
		case i == m.Cursor:
			b.WriteString(treeSelectedStyle.Render(line))
		case row.target.Kind == hierarchy.Room:
			b.WriteString(treeRoomStyle.Render(line))
		default:
			b.WriteString(treeNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(detailBoxStyle.Render(m.detail(m.Rows[m.Cursor].target)))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

func (m TreeModel) label(t hierarchy.Target) string {
	if t.Kind == hierarchy.Room {
		return "□ " + t.ID
	}
	pl, _ := m.Plan.Placement(t.ID)
	return t.ID + " " + treeDimStyle.Render("("+pl.Type+")")
}

func (m TreeModel) detail(t hierarchy.Target) string {
	if t.Kind == hierarchy.Room {
		r, _ := m.Plan.Room(t.ID)
		return strings.Join([]string{
			detailLine("room", r.RoomID),
			detailLine("size", fmt.Sprintf("%s × %s × %s", fmtNum(r.Width), fmtNum(r.Length), fmtNum(r.Height))),
			detailLine("panels", fmt.Sprint(len(r.Panels))),
		}, "\n")
	}

	pl, _ := m.Plan.Placement(t.ID)
	parent := "scene root"
	if pl.Parent != nil {
		parent = *pl.Parent + " (" + pl.ParentKind + ")"
	}
	return strings.Join([]string{
		detailLine("object", pl.ObjectID),
		detailLine("type", pl.Type),
		detailLine("parent", parent),
		detailLine("local", fmtVec(pl.LocalPosition)),
		detailLine("world", fmtVec(pl.WorldPosition)),
		detailLine("depth", fmt.Sprint(pl.Depth)),
	}, "\n")
}

func detailLine(key, value string) string {
	return lipgloss.NewStyle().Foreground(colorGray).Width(8).Render(key) + " " + StyleValue.Render(value)
}

func fmtVec(v geom.Vec3) string {
	return fmt.Sprintf("(%s, %s, %s)", fmtNum(v.X), fmtNum(v.Y), fmtNum(v.Z))
}
