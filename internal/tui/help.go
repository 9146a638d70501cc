package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Zone distribution"},
		{"2 or s", "Sync screen"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	}))

	sections = append(sections, m.renderSection("Zones Screen", []keyHelp{
		{"m", "This month"},
		{"y", "This year"},
		{"a", "All time"},
		{"r", "Refresh"},
	}))

	sections = append(sections, m.renderSection("Sync Screen", []keyHelp{
		{"s / enter", "Start sync"},
	}))

	sections = append(sections, m.renderZonesHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderZonesHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("Zones Explained"))
	lines = append(lines, "")

	zones := []struct {
		name string
		desc string
	}{
		{"Power zones (cycling)", "Seven bands as a percentage of your FTP. Z2 Endurance ends at 75%, Z4 Threshold at 105%."},
		{"Pace zones (running)", "Seven speed bands from Recovery (<4 mph) to Max (12+ mph)."},
		{"Target line", "The class plan's zone midpoints, using the FTP you had on the workout's date."},
	}

	for _, z := range zones {
		lines = append(lines, "  "+helpKeyStyle.Render(z.name))
		lines = append(lines, "  "+helpDescStyle.Render(z.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
