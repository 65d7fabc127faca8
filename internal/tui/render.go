package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/review"
)

// marker returns the list prefix for a decision.
func marker(status model.ReviewStatus, decided bool) string {
	if !decided {
		return pendingStyle.Render("[ ]")
	}
	switch status {
	case model.ReviewApproved:
		return approvedStyle.Render("[✓]")
	case model.ReviewRejected:
		return rejectedStyle.Render("[✗]")
	default:
		return deferredStyle.Render("[~]")
	}
}

func statusLabel(status model.ReviewStatus, decided bool) string {
	if !decided {
		return pendingStyle.Render("pending")
	}
	switch status {
	case model.ReviewApproved:
		return approvedStyle.Render(string(status))
	case model.ReviewRejected:
		return rejectedStyle.Render(string(status))
	default:
		return deferredStyle.Render(string(status))
	}
}

// renderDetail describes one pending message: where it was found and why it
// was queued.
func renderDetail(item review.PendingMessage, status model.ReviewStatus, decided bool, width int) string {
	var b strings.Builder
	b.WriteString(detailHeaderStyle.Render(item.MessageID))
	b.WriteByte('\n')

	row := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	row("Device", item.DeviceType)
	row("Decision", statusLabel(status, decided))
	if e := item.Entry; e != nil {
		row("Category", string(e.Category))
		if !e.Timestamp.IsZero() {
			row("Queued", e.Timestamp.Format("2006-01-02 15:04"))
		}
		if e.Notes != "" {
			b.WriteByte('\n')
			b.WriteString(lipgloss.NewStyle().Width(width).Render(e.Notes))
			b.WriteByte('\n')
		}
		if len(e.Citations) > 0 {
			b.WriteString(fmt.Sprintf("\nFound %d time(s):\n", len(e.Citations)))
			for _, c := range e.Citations {
				b.WriteString("  ")
				b.WriteString(citationStyle.Render(c.String()))
				b.WriteByte('\n')
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if n <= 0 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
