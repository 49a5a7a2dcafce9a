package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nhatlinh9898/novelvip/internal/tui/styles"
)

// ToastLevel sets a toast's icon and color.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

const toastDuration = 4 * time.Second

// Toast is a short-lived notification shown in the header.
type Toast struct {
	Message string
	Level   ToastLevel
	Visible bool

	// seq ties a clear tick to the toast that scheduled it, so an older tick
	// cannot hide a newer toast.
	seq int
}

type clearToastMsg struct {
	seq int
}

var toastBase = lipgloss.NewStyle().Padding(0, 1)

func (t Toast) icon() string {
	switch t.Level {
	case ToastSuccess:
		return "✓"
	case ToastError:
		return "✗"
	case ToastWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func (t Toast) style() lipgloss.Style {
	switch t.Level {
	case ToastSuccess:
		return toastBase.Foreground(styles.Secondary)
	case ToastError:
		return toastBase.Foreground(styles.Error)
	case ToastWarning:
		return toastBase.Foreground(styles.Accent)
	default:
		return toastBase.Foreground(styles.Info)
	}
}

// Show replaces the toast and schedules its removal.
func (t *Toast) Show(msg string, level ToastLevel) tea.Cmd {
	t.seq++
	t.Message = msg
	t.Level = level
	t.Visible = true

	seq := t.seq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

// Update hides the toast when its clear tick arrives.
func (t *Toast) Update(msg tea.Msg) {
	if m, ok := msg.(clearToastMsg); ok && m.seq == t.seq {
		t.Visible = false
		t.Message = ""
	}
}

// View renders the toast within maxWidth cells, or "" when hidden.
func (t Toast) View(maxWidth int) string {
	if !t.Visible || t.Message == "" {
		return ""
	}
	content := t.icon() + " " + t.Message
	if maxWidth > 4 && lipgloss.Width(content) > maxWidth-2 {
		content = truncateWidth(content, maxWidth-3) + "…"
	}
	return t.style().Render(content)
}

// truncateWidth cuts s to at most width display cells.
func truncateWidth(s string, width int) string {
	w := 0
	for i, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			return s[:i]
		}
		w += rw
	}
	return s
}
