// Package tui implements the Bubble Tea interface for reviewing
// auto-accepted messages.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/review"
)

// Model is the top-level Bubble Tea model for a review session.
type Model struct {
	items     []review.PendingMessage
	decisions map[int]model.ReviewStatus
	history   []undoStep

	width  int
	height int

	cursor   int
	showHelp bool
}

// New creates a model over the pending messages.
func New(items []review.PendingMessage) Model {
	return Model{
		items:     items,
		decisions: make(map[int]model.ReviewStatus),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, keys.Approve):
			m.decide(model.ReviewApproved)

		case key.Matches(msg, keys.Reject):
			m.decide(model.ReviewRejected)

		case key.Matches(msg, keys.Defer):
			m.decide(model.ReviewDeferred)

		case key.Matches(msg, keys.Undo):
			m.undo()
		}
	}
	return m, nil
}

// undoStep restores one message to its state before a decision.
type undoStep struct {
	index   int
	prev    model.ReviewStatus
	decided bool
}

// decide records status for the selected message and moves to the next one.
// The map is copied so earlier Model values keep their own decisions.
func (m *Model) decide(status model.ReviewStatus) {
	if len(m.items) == 0 {
		return
	}
	prev, decided := m.decisions[m.cursor]
	m.history = append(append([]undoStep(nil), m.history...), undoStep{index: m.cursor, prev: prev, decided: decided})
	m.setDecision(m.cursor, status, true)

	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m *Model) undo() {
	if len(m.history) == 0 {
		return
	}
	step := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.setDecision(step.index, step.prev, step.decided)
	m.cursor = step.index
}

func (m *Model) setDecision(i int, status model.ReviewStatus, decided bool) {
	next := make(map[int]model.ReviewStatus, len(m.decisions)+1)
	for k, v := range m.decisions {
		next[k] = v
	}
	if decided {
		next[i] = status
	} else {
		delete(next, i)
	}
	m.decisions = next
}

// Result returns the session outcome.
func (m Model) Result() *ReviewResult {
	return &ReviewResult{Items: m.items, Decisions: m.decisions}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if len(m.items) == 0 {
		return "No messages pending review. Press q to quit."
	}

	listWidth := m.listWidth()
	detailWidth := m.width - listWidth - 1

	list := m.renderList(listWidth, m.height-2)
	it := m.items[m.cursor]
	status, decided := m.decisions[m.cursor]
	detail := detailStyle.
		Width(detailWidth).
		Height(m.height - 4).
		Render(renderDetail(it, status, decided, detailWidth-4))

	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) listWidth() int {
	maxLen := 20
	for _, it := range m.items {
		if n := len(it.MessageID) + 8; n > maxLen {
			maxLen = n
		}
	}
	if maxLen > m.width/3 {
		maxLen = m.width / 3
	}
	if maxLen < 20 {
		maxLen = 20
	}
	return maxLen
}

func (m Model) renderList(width, height int) string {
	var b strings.Builder
	device := ""
	for i, it := range m.items {
		if it.DeviceType != device {
			device = it.DeviceType
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(deviceHeaderStyle.Render(truncate(device, width-4)))
			b.WriteByte('\n')
		}
		status, decided := m.decisions[i]
		line := marker(status, decided) + " " + truncate(it.MessageID, width-8)

		style := itemStyle
		if i == m.cursor {
			style = itemSelectedStyle
		}
		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(m.items)-1 {
			b.WriteByte('\n')
		}
	}
	return listStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderStatusBar() string {
	a, r, d, p := m.Result().Counts()
	left := fmt.Sprintf(" Message %d/%d", m.cursor+1, len(m.items))
	right := fmt.Sprintf("✓%d ✗%d ~%d pending %d  ? help ", a, r, d, p)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(detailHeaderStyle.Render("specgate review - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, k := range []key.Binding{keys.Up, keys.Down, keys.Approve, keys.Reject, keys.Defer, keys.Undo, keys.Help, keys.Quit} {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Decisions are saved when you quit. Press ? to close help"))
	return b.String()
}

// Run starts the review session and returns its outcome once the user quits.
func Run(items []review.PendingMessage) (*ReviewResult, error) {
	p := tea.NewProgram(New(items), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model %T", final)
	}
	return m.Result(), nil
}
