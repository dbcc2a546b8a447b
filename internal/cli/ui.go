package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/plan"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// PrintError writes err to w as a styled error line, followed by the
// entities it names.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+errors.UserMessage(err))
	if subjects := errors.Subjects(err); len(subjects) > 0 {
		fmt.Fprintln(w, "  "+StyleDim.Render("involves: "+strings.Join(subjects, ", ")))
	}
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints plan statistics on a single line.
func printStats(st plan.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d rooms", st.Rooms),
		fmt.Sprintf("%d panels", st.Panels),
		fmt.Sprintf("%d objects", st.Objects),
	}
	if st.MaxDepth > 0 {
		parts = append(parts, fmt.Sprintf("depth %d", st.MaxDepth))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line + StyleDim.Render(" · ") + statusStyle.Render(status))
}

// printPlanTable prints one row per room: its size, panel count and the
// number of objects anchored in it.
func printPlanTable(p *plan.Plan) {
	if len(p.Rooms) == 0 {
		return
	}
	anchored := roomObjectCounts(p)

	rows := make([][]string, 0, len(p.Rooms)+1)
	for _, r := range p.Rooms {
		rows = append(rows, []string{
			r.RoomID,
			fmt.Sprintf("%s × %s × %s", fmtNum(r.Width), fmtNum(r.Length), fmtNum(r.Height)),
			strconv.Itoa(len(r.Panels)),
			strconv.Itoa(anchored[r.RoomID]),
		})
	}
	if n := anchored[""]; n > 0 {
		rows = append(rows, []string{"(scene root)", "", "", strconv.Itoa(n)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Room", "Size", "Panels", "Objects").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return cellStyle.Foreground(colorCyan)
			case col >= 2:
				return cellStyle.Foreground(colorWhite).Align(lipgloss.Right)
			}
			return cellStyle.Foreground(colorGray)
		})
	fmt.Println(t.Render())
}

// roomObjectCounts counts objects per anchoring room. Objects whose chain
// ends at the scene root are counted under "".
func roomObjectCounts(p *plan.Plan) map[string]int {
	anchor := make(map[string]string, len(p.Placements))
	for _, pl := range p.InOrder() {
		switch {
		case pl.Parent == nil:
			anchor[pl.ObjectID] = ""
		case pl.ParentKind == hierarchy.Room.String():
			anchor[pl.ObjectID] = *pl.Parent
		default:
			anchor[pl.ObjectID] = anchor[*pl.Parent]
		}
	}
	counts := make(map[string]int)
	for _, room := range anchor {
		counts[room]++
	}
	return counts
}

func fmtNum(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Utilities
// =============================================================================

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
