package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// NetworkRow is one supported network.
type NetworkRow struct {
	ChainID uint64
	Name    string
	Symbol  string
	Testnet bool
	Current bool
}

// NetworksComponent is a scrollable network picker.
type NetworksComponent struct {
	rows    []NetworkRow
	cursor  int
	visible int
}

// NewNetworksComponent shows at most visible rows at a time.
func NewNetworksComponent(rows []NetworkRow, visible int) *NetworksComponent {
	return &NetworksComponent{rows: rows, visible: visible}
}

// SetCurrent marks chainID as the connected network.
func (n *NetworksComponent) SetCurrent(chainID uint64) {
	for i := range n.rows {
		n.rows[i].Current = n.rows[i].ChainID == chainID
	}
}

func (n *NetworksComponent) ScrollUp() {
	if n.cursor > 0 {
		n.cursor--
	}
}

func (n *NetworksComponent) ScrollDown() {
	if n.cursor < len(n.rows)-1 {
		n.cursor++
	}
}

// Selected returns the row under the cursor.
func (n *NetworksComponent) Selected() (NetworkRow, bool) {
	if len(n.rows) == 0 {
		return NetworkRow{}, false
	}
	return n.rows[n.cursor], true
}

// View renders the visible window around the cursor.
func (n *NetworksComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	cursor := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	current := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var b strings.Builder
	b.WriteString(header.Render("NETWORKS"))
	b.WriteString("\n\n")

	start := 0
	if n.visible > 0 && n.cursor >= n.visible {
		start = n.cursor - n.visible + 1
	}
	end := len(n.rows)
	if n.visible > 0 && start+n.visible < end {
		end = start + n.visible
	}

	for i := start; i < end; i++ {
		row := n.rows[i]
		marker := "  "
		if i == n.cursor {
			marker = "▸ "
		}
		tag := ""
		if row.Testnet {
			tag = " testnet"
		}
		line := fmt.Sprintf("%s%-24s %-6s %8d%s", marker, row.Name, row.Symbol, row.ChainID, tag)

		switch {
		case row.Current:
			line = current.Render(line + " ●")
		case i == n.cursor:
			line = cursor.Render(line)
		default:
			line = muted.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if end < len(n.rows) || start > 0 {
		b.WriteString(muted.Render(fmt.Sprintf("  %d/%d", n.cursor+1, len(n.rows))))
	}
	return strings.TrimRight(b.String(), "\n")
}
