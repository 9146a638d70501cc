package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pelosync/internal/store"
	"pelosync/internal/syncer"
)

// SyncModel is the sync screen model
type SyncModel struct {
	orchestrator *syncer.Orchestrator
	localUser    string
	syncing      bool
	result       *syncer.Result
	err          error
	done         bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(o *syncer.Orchestrator, localUser string) SyncModel {
	return SyncModel{
		orchestrator: o,
		localUser:    localUser,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *syncer.Result
	Err    error
}

// SyncCompleteMsg tells the app a sync finished so views can refresh.
type SyncCompleteMsg struct{}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case tea.KeyMsg:
		if !m.syncing {
			switch msg.String() {
			case "enter", "s":
				m.syncing = true
				m.done = false
				m.err = nil
				m.result = nil
				return m, m.runSync
			}
		}
	}
	return m, nil
}

func (m SyncModel) runSync() tea.Msg {
	result, err := m.orchestrator.Run(context.Background(), m.localUser)
	return SyncDoneMsg{Result: result, Err: err}
}

// View renders the sync screen
func (m SyncModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Peloton Sync"))

	if m.err != nil {
		if errors.Is(m.err, store.ErrSyncInProgress) {
			sections = append(sections, warningStyle.Render("\n  Another sync is already running for this account."))
		} else {
			sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		}
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.done && !m.syncing {
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to view zones"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.syncing {
		sections = append(sections, m.renderProgress())
	} else {
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  This will sync your Peloton workouts:")
	lines = append(lines, "")
	lines = append(lines, "  1. Fetch new workouts and their classes")
	lines = append(lines, "  2. Download per-second performance samples")
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  Syncing with Peloton...")
	lines = append(lines, "")
	lines = append(lines, "  1. Fetching new workouts")
	lines = append(lines, "  2. Downloading performance samples")
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  This may take a moment..."))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	var lines []string
	r := m.result
	lines = append(lines, "")

	if r.Created > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d new workouts", r.Created)))
	} else {
		lines = append(lines, statusStyle.Render("  No new workouts"))
	}
	if r.Classes > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d classes fetched", r.Classes)))
	}
	if r.SampleSets > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d sample series stored", r.SampleSets)))
	}
	if r.Skipped > 0 {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  %d records skipped", r.Skipped)))
	}
	if r.Failed > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d records failed", r.Failed)))
	}

	return strings.Join(lines, "\n")
}
