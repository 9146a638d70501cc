package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"pelosync/internal/store"
	"pelosync/internal/zones"
)

// ZonesModel is the zone distribution screen model
type ZonesModel struct {
	engine *zones.Engine
	store  *store.Store
	connID int64
	period zones.Period

	power   *zones.Distribution
	pace    *zones.Distribution
	target  []zones.TargetPoint
	loading bool
	err     error
}

// NewZonesModel creates a new zones model
func NewZonesModel(e *zones.Engine, s *store.Store, connID int64) ZonesModel {
	return ZonesModel{
		engine:  e,
		store:   s,
		connID:  connID,
		period:  zones.PeriodMonth,
		loading: true,
	}
}

// zonesLoadedMsg carries the computed distributions.
type zonesLoadedMsg struct {
	power  *zones.Distribution
	pace   *zones.Distribution
	target []zones.TargetPoint
	err    error
}

// Init starts loading the distributions
func (m ZonesModel) Init() tea.Cmd {
	return m.load
}

func (m ZonesModel) load() tea.Msg {
	now := time.Now()

	power, err := m.engine.PowerDistribution(m.connID, m.period, now)
	if err != nil {
		return zonesLoadedMsg{err: err}
	}
	pace, err := m.engine.PaceDistribution(m.connID, m.period, now)
	if err != nil {
		return zonesLoadedMsg{err: err}
	}

	// Target line from the newest power zone ride, when there is one.
	target, err := m.latestTargetLine()
	if err != nil {
		return zonesLoadedMsg{err: err}
	}
	return zonesLoadedMsg{power: power, pace: pace, target: target}
}

func (m ZonesModel) latestTargetLine() ([]zones.TargetPoint, error) {
	workouts, err := m.store.ListWorkouts(m.connID, "", "")
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		w := &workouts[i]
		if w.Discipline != "cycling" || !w.SamplesSynced {
			continue
		}
		tmpl, err := m.store.GetClassTemplate(w.ClassRemoteID)
		if err != nil {
			continue
		}
		if tmpl.ClassType != "power_zone" {
			continue
		}
		return m.engine.TargetLine(w.RemoteID)
	}
	return nil, nil
}

// Update handles messages
func (m ZonesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case zonesLoadedMsg:
		m.loading = false
		m.power = msg.power
		m.pace = msg.pace
		m.target = msg.target
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "m":
			m.period = zones.PeriodMonth
			m.loading = true
			return m, m.load
		case "y":
			m.period = zones.PeriodYear
			m.loading = true
			return m, m.load
		case "a":
			m.period = zones.PeriodAll
			m.loading = true
			return m, m.load
		case "r":
			m.loading = true
			return m, m.load
		}
	}
	return m, nil
}

// View renders the zones screen
func (m ZonesModel) View() string {
	var sections []string

	title := fmt.Sprintf("Zone Distribution (%s)", m.periodLabel())
	sections = append(sections, cardTitleStyle.Render(title))

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}
	if m.loading {
		sections = append(sections, statusStyle.Render("  Computing..."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.renderDistribution("Power Zones (cycling)", m.power))
	sections = append(sections, m.renderDistribution("Pace Zones (running/walking)", m.pace))

	if chart := m.renderTargetChart(); chart != "" {
		sections = append(sections, chart)
	}

	sections = append(sections, statusStyle.Render("  [m] this month  [y] this year  [a] all time  [r] refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ZonesModel) periodLabel() string {
	switch m.period {
	case zones.PeriodMonth:
		return "this month"
	case zones.PeriodYear:
		return "this year"
	default:
		return "all time"
	}
}

func (m ZonesModel) renderDistribution(title string, dist *zones.Distribution) string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("  "+title))

	if dist == nil || dist.TotalSeconds == 0 {
		lines = append(lines, statusStyle.Render("  No workouts in this period"))
		return strings.Join(lines, "\n")
	}

	for _, band := range dist.Bands {
		label := fmt.Sprintf("Z%d %s", band.Level, band.Name)
		row := lipgloss.JoinHorizontal(
			lipgloss.Left,
			"  ",
			zoneLabelStyle.Render(label),
			RenderBar(band.Percent, 30),
			zoneValueStyle.Render(fmt.Sprintf("  %s (%.0f%%)", band.Duration, band.Percent)),
		)
		lines = append(lines, row)
	}
	lines = append(lines, statusStyle.Render(fmt.Sprintf("  %d workouts, %s total",
		dist.Workouts, zones.FormatSeconds(dist.TotalSeconds))))

	return strings.Join(lines, "\n")
}

func (m ZonesModel) renderTargetChart() string {
	if len(m.target) < 3 {
		return ""
	}

	data := make([]float64, len(m.target))
	for i, p := range m.target {
		data[i] = p.Target
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render("  Latest Power Zone Ride: Target Watts"))
	lines = append(lines, asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(50),
	))
	return strings.Join(lines, "\n")
}
