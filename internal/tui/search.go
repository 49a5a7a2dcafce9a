package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nhatlinh9898/novelvip/internal/search"
	"github.com/Nhatlinh9898/novelvip/internal/tui/styles"
)

const searchLimit = 9

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "chuong, ten nhan vat..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.InputPrompt
	ti.TextStyle = styles.InputText
	ti.CharLimit = 120
	return ti
}

// startSearch indexes the current outline and opens the search view.
func (m *Model) startSearch() tea.Cmd {
	if !m.state.HasTree() {
		return m.toast.Show("Generate an outline first", ToastWarning)
	}
	m.index.Reindex(*m.state.Tree)
	m.query.SetValue("")
	m.results = nil
	m.resIndex = 0
	m.view = ViewSearch
	m.refresh()
	return m.query.Focus()
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeSearch()
		return m, nil
	case tea.KeyUp:
		if m.resIndex > 0 {
			m.resIndex--
		}
		m.refresh()
		return m, nil
	case tea.KeyDown:
		if m.resIndex < len(m.results)-1 {
			m.resIndex++
		}
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		if len(m.results) == 0 {
			return m, m.toast.Show("No matches", ToastWarning)
		}
		doc := m.results[m.resIndex].Document
		m.state = m.state.Reveal(doc.ID)
		m.closeSearch()
		return m, nil
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != before {
		m.runSearch()
	}
	m.refresh()
	return m, cmd
}

func (m *Model) closeSearch() {
	m.query.Blur()
	m.view = ViewOutline
	m.refresh()
}

func (m *Model) runSearch() {
	m.resIndex = 0
	results, err := m.index.Search(m.query.Value(), search.DefaultOptions().WithLimit(searchLimit))
	if err != nil {
		if !errors.Is(err, search.ErrEmptyQuery) {
			m.deps.Logger.Warn("search failed", slog.String("query", m.query.Value()), slog.Any("error", err))
		}
		m.results = nil
		return
	}
	m.results = results
}

func (m *Model) renderSearch() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Search the outline"))
	sb.WriteString("\n\n")
	sb.WriteString(m.query.View())
	sb.WriteString("\n\n")

	if strings.TrimSpace(m.query.Value()) == "" {
		sb.WriteString(styles.MutedText.Render("Matches titles, summaries and content, with or without diacritics."))
		return sb.String()
	}
	if len(m.results) == 0 {
		sb.WriteString(styles.MutedText.Render("No matches"))
		return sb.String()
	}

	width, _ := m.contentSize()
	for i, r := range m.results {
		style := styles.ListItem
		if i == m.resIndex {
			style = styles.SelectedItem
		}
		line := fmt.Sprintf("%s · %s", r.Document.Level.Label(), r.Document.Breadcrumb())
		if r.Snippet != "" {
			line += "\n" + r.Snippet
		}
		sb.WriteString(style.Width(width - 2).Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}
