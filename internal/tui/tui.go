// Package tui provides the terminal user interface using Bubble Tea: an
// outline tree on the left and the selected node's content on the right.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nhatlinh9898/novelvip/internal/generate"
	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/internal/search"
	"github.com/Nhatlinh9898/novelvip/internal/session"
	"github.com/Nhatlinh9898/novelvip/internal/tui/styles"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

// Generator produces outline drafts and text.
type Generator interface {
	Structure(ctx context.Context, cfg types.NovelConfig) (outline.Draft, error)
	Continue(ctx context.Context, node generate.NodeRef, storyContext string) (string, error)
	Summarize(ctx context.Context, content string) (string, error)
	Ending(ctx context.Context, node generate.NodeRef) (generate.Ending, error)
	IntroOptions(ctx context.Context, style string) ([]string, error)
}

// Speaker reads text aloud.
type Speaker interface {
	Toggle(ctx context.Context, text string) bool
	Playing() bool
	Stop()
}

// Exporter writes a node's content to a file.
type Exporter interface {
	Node(n outline.Node) (string, error)
}

// Deps are the collaborators the workspace calls. Speaker and Exporter may
// be nil; their actions then report that they are unavailable.
type Deps struct {
	Generator Generator
	Speaker   Speaker
	Exporter  Exporter
	IDs       outline.IDGenerator
	Logger    *slog.Logger
}

// ViewState represents the current view mode.
type ViewState int

const (
	ViewOutline ViewState = iota
	ViewEdit
	ViewOptions
	ViewHelp
	ViewSearch
)

const treeWidthRatio = 3 // tree pane takes 1/3 of the width

// Model is the main TUI model.
type Model struct {
	ctx  context.Context
	deps Deps

	state session.State

	// View state
	view     ViewState
	width    int
	height   int
	ready    bool
	optIndex int
	op       string

	// epoch counts restarts. Replies from an earlier epoch are dropped.
	epoch int

	// Components
	viewport viewport.Model
	editor   textarea.Model
	spinner  spinner.Model
	toast    Toast

	// Search
	index    *search.Index
	query    textinput.Model
	results  []search.Result
	resIndex int
}

// New creates a workspace for the premise.
func New(ctx context.Context, cfg types.NovelConfig, deps Deps) *Model {
	if deps.IDs == nil {
		deps.IDs = outline.NewUUIDGenerator()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	ed := textarea.New()
	ed.Placeholder = "Write the content of this entry..."
	ed.ShowLineNumbers = false
	ed.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		ctx:     ctx,
		deps:    deps,
		state:   session.New(cfg),
		view:    ViewOutline,
		editor:  ed,
		spinner: sp,
		index:   search.NewIndex(),
		query:   newSearchInput(),
	}
}

// State returns the current session state.
func (m *Model) State() session.State {
	return m.state
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth, bodyHeight := m.contentSize()

		if !m.ready {
			m.viewport = viewport.New(contentWidth, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = bodyHeight
		}
		m.editor.SetWidth(contentWidth)
		m.editor.SetHeight(max(bodyHeight-2, 3))
		m.query.Width = max(contentWidth-4, 10)
		m.refresh()

	case spinner.TickMsg:
		if m.state.Pending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case clearToastMsg:
		m.toast.Update(msg)

	case structureMsg:
		return m, m.handleStructure(msg)
	case continueMsg:
		return m, m.handleContinue(msg)
	case summaryMsg:
		return m, m.handleSummary(msg)
	case endingMsg:
		return m, m.handleEnding(msg)
	case introMsg:
		return m, m.handleIntro(msg)

	case SpeechDoneMsg:
		if msg.Err != nil {
			return m, m.toast.Show("Playback failed: "+msg.Err.Error(), ToastError)
		}
	}

	switch m.view {
	case ViewEdit:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
	case ViewSearch:
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		cmds = append(cmds, cmd)
		m.refresh()
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.stopSpeech()
		return m, tea.Quit
	}

	switch m.view {
	case ViewEdit:
		return m.handleEditKey(msg)
	case ViewOptions:
		return m.handleOptionsKey(msg)
	case ViewSearch:
		return m.handleSearchKey(msg)
	case ViewHelp:
		if msg.Type == tea.KeyEsc || msg.String() == "?" || msg.String() == "q" {
			m.view = ViewOutline
			m.refresh()
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.stopSpeech()
		return m, tea.Quit
	case "?":
		m.view = ViewHelp
		m.refresh()
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case " ", "tab":
		if id := m.state.SelectedID(); id != "" {
			m.state = m.state.ToggleExpanded(id)
			m.refresh()
		}
	case "pgup":
		m.viewport.HalfViewUp()
	case "pgdown":
		m.viewport.HalfViewDown()
	case "g":
		return m, m.generateStructure()
	case "c":
		return m, m.continueSelected()
	case "s":
		return m, m.summarizeSelected()
	case "n":
		return m, m.endSelected()
	case "i":
		return m, m.requestIntro()
	case "e":
		return m, m.startEdit()
	case "p":
		return m, m.toggleSpeech()
	case "x":
		return m, m.exportSelected()
	case "r":
		return m, m.restart()
	case "/":
		return m, m.startSearch()
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editor.Blur()
		m.view = ViewOutline
		m.refresh()
		return m, nil
	case tea.KeyCtrlS:
		m.state = m.state.EditContent(m.editor.Value())
		m.editor.Blur()
		m.view = ViewOutline
		m.refresh()
		return m, m.toast.Show("Content saved", ToastSuccess)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) handleOptionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case msg.Type == tea.KeyEsc:
		m.state = m.state.SetOptions(nil)
		m.view = ViewOutline
		m.refresh()
		return m, nil
	case key == "up" || key == "k":
		if m.optIndex > 0 {
			m.optIndex--
		}
	case key == "down" || key == "j":
		if m.optIndex < len(m.state.Options)-1 {
			m.optIndex++
		}
	case msg.Type == tea.KeyEnter:
		return m, m.pickOption(m.optIndex)
	case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
		return m, m.pickOption(int(key[0] - '1'))
	}
	m.refresh()
	return m, nil
}

func (m *Model) pickOption(i int) tea.Cmd {
	if i < 0 || i >= len(m.state.Options) {
		return nil
	}
	if m.state.Selected == nil {
		return m.toast.Show("Select an entry to add the intro to", ToastWarning)
	}
	m.state = m.state.ApplyOption(i)
	m.view = ViewOutline
	m.refresh()
	return m.toast.Show("Intro added", ToastSuccess)
}

// =============================================================================
// Actions
// =============================================================================

// begin marks a request as in flight. It reports false, with a toast, when
// one is already running.
func (m *Model) begin(op string) (bool, tea.Cmd) {
	if m.state.Pending {
		return false, m.toast.Show("Still working on "+m.op+"...", ToastWarning)
	}
	m.state = m.state.SetPending(true)
	m.op = op
	m.refresh()
	return true, m.spinner.Tick
}

// finish clears the pending request. It reports false when the reply
// belongs to a session the user has since restarted.
func (m *Model) finish(op string, epoch int) bool {
	m.state = m.state.SetPending(false)
	m.op = ""
	if epoch != m.epoch {
		m.deps.Logger.Debug("dropping reply from a cleared session", slog.String("op", op))
		return false
	}
	return true
}

func (m *Model) requireSelection() (outline.Node, tea.Cmd) {
	if m.state.Selected == nil {
		return outline.Node{}, m.toast.Show("Generate an outline and select an entry first", ToastWarning)
	}
	return *m.state.Selected, nil
}

func (m *Model) generateStructure() tea.Cmd {
	ok, cmd := m.begin("the outline")
	if !ok {
		return cmd
	}
	ctx, gen, cfg, epoch := m.ctx, m.deps.Generator, m.state.Config, m.epoch
	return tea.Batch(cmd, func() tea.Msg {
		draft, err := gen.Structure(ctx, cfg)
		return structureMsg{epoch: epoch, draft: draft, err: err}
	})
}

func (m *Model) continueSelected() tea.Cmd {
	node, warn := m.requireSelection()
	if warn != nil {
		return warn
	}
	ok, cmd := m.begin("the next passage")
	if !ok {
		return cmd
	}
	ctx, gen, epoch := m.ctx, m.deps.Generator, m.epoch
	ref, storyContext := generate.RefOf(node), m.state.ContextFor(node.ID)
	return tea.Batch(cmd, func() tea.Msg {
		text, err := gen.Continue(ctx, ref, storyContext)
		return continueMsg{epoch: epoch, id: node.ID, text: text, err: err}
	})
}

func (m *Model) summarizeSelected() tea.Cmd {
	node, warn := m.requireSelection()
	if warn != nil {
		return warn
	}
	if strings.TrimSpace(node.Content) == "" {
		return m.toast.Show("Nothing to summarize yet", ToastWarning)
	}
	ok, cmd := m.begin("the summary")
	if !ok {
		return cmd
	}
	ctx, gen, epoch := m.ctx, m.deps.Generator, m.epoch
	return tea.Batch(cmd, func() tea.Msg {
		summary, err := gen.Summarize(ctx, node.Content)
		return summaryMsg{epoch: epoch, id: node.ID, summary: summary, err: err}
	})
}

func (m *Model) endSelected() tea.Cmd {
	node, warn := m.requireSelection()
	if warn != nil {
		return warn
	}
	ok, cmd := m.begin("the ending")
	if !ok {
		return cmd
	}
	ctx, gen, epoch := m.ctx, m.deps.Generator, m.epoch
	return tea.Batch(cmd, func() tea.Msg {
		ending, err := gen.Ending(ctx, generate.RefOf(node))
		return endingMsg{epoch: epoch, id: node.ID, ending: ending, err: err}
	})
}

func (m *Model) requestIntro() tea.Cmd {
	ok, cmd := m.begin("intro options")
	if !ok {
		return cmd
	}
	ctx, gen, style, epoch := m.ctx, m.deps.Generator, m.state.Config.Tone, m.epoch
	return tea.Batch(cmd, func() tea.Msg {
		options, err := gen.IntroOptions(ctx, style)
		return introMsg{epoch: epoch, options: options, err: err}
	})
}

func (m *Model) startEdit() tea.Cmd {
	node, warn := m.requireSelection()
	if warn != nil {
		return warn
	}
	m.editor.SetValue(node.Content)
	m.view = ViewEdit
	m.refresh()
	return m.editor.Focus()
}

func (m *Model) toggleSpeech() tea.Cmd {
	if m.deps.Speaker == nil {
		return m.toast.Show("Speech playback is not available", ToastWarning)
	}
	if m.deps.Speaker.Playing() {
		m.deps.Speaker.Toggle(m.ctx, "")
		return m.toast.Show("Playback stopped", ToastInfo)
	}

	node, warn := m.requireSelection()
	if warn != nil {
		return warn
	}
	if !m.deps.Speaker.Toggle(m.ctx, node.Content) {
		return m.toast.Show("Nothing to read yet", ToastWarning)
	}
	return m.toast.Show("Reading "+titleOf(node), ToastInfo)
}

func (m *Model) stopSpeech() {
	if m.deps.Speaker != nil {
		m.deps.Speaker.Stop()
	}
}

func (m *Model) exportSelected() tea.Cmd {
	node, warn := m.requireSelection()
	if warn != nil {
		return warn
	}
	if m.deps.Exporter == nil {
		return m.toast.Show("Export is not available", ToastWarning)
	}
	path, err := m.deps.Exporter.Node(node)
	if err != nil {
		m.deps.Logger.Error("export failed", slog.String("node", node.ID), slog.Any("error", err))
		return m.toast.Show("Export failed: "+err.Error(), ToastError)
	}
	return m.toast.Show("Exported to "+path, ToastSuccess)
}

func (m *Model) restart() tea.Cmd {
	m.stopSpeech()
	m.epoch++
	m.state = m.state.Clear()
	m.view = ViewOutline
	m.refresh()
	return m.toast.Show("Session cleared", ToastInfo)
}

// =============================================================================
// Results
// =============================================================================

func (m *Model) fail(op string, err error) tea.Cmd {
	m.deps.Logger.Error(op+" failed", slog.Any("error", err))
	msg := err.Error()
	if errors.Is(err, generate.ErrConfiguration) {
		return m.toast.Show(msg, ToastWarning)
	}
	return m.toast.Show(msg, ToastError)
}

func (m *Model) handleStructure(msg structureMsg) tea.Cmd {
	defer m.refresh()
	if !m.finish("structure", msg.epoch) {
		return nil
	}
	if msg.err != nil {
		return m.fail("structure", msg.err)
	}
	m.state = m.state.ImportStructure(msg.draft, m.deps.IDs)
	return m.toast.Show(fmt.Sprintf("Outline ready: %d entries", outline.Count(*m.state.Tree)), ToastSuccess)
}

func (m *Model) handleContinue(msg continueMsg) tea.Cmd {
	defer m.refresh()
	if !m.finish("continue", msg.epoch) {
		return nil
	}
	if msg.err != nil {
		return m.fail("continue", msg.err)
	}
	if msg.text == "" {
		return m.toast.Show("Nothing was generated", ToastWarning)
	}
	m.state = m.state.ApplyNodeUpdate(msg.id, outline.AppendContent(msg.text))
	return nil
}

func (m *Model) handleSummary(msg summaryMsg) tea.Cmd {
	defer m.refresh()
	if !m.finish("summarize", msg.epoch) {
		return nil
	}
	if msg.err != nil {
		return m.fail("summarize", msg.err)
	}
	m.state = m.state.ApplyNodeUpdate(msg.id, outline.SetSummary(msg.summary))
	return nil
}

func (m *Model) handleEnding(msg endingMsg) tea.Cmd {
	defer m.refresh()
	if !m.finish("ending", msg.epoch) {
		return nil
	}
	if msg.err != nil {
		return m.fail("ending", msg.err)
	}
	m.state = m.state.ApplyNodeUpdate(msg.id, outline.AppendEnding(msg.ending.Ending, msg.ending.Transition))
	return nil
}

func (m *Model) handleIntro(msg introMsg) tea.Cmd {
	defer m.refresh()
	if !m.finish("intro", msg.epoch) {
		return nil
	}
	if msg.err != nil {
		return m.fail("intro", msg.err)
	}
	m.state = m.state.SetOptions(msg.options)
	m.optIndex = 0
	m.view = ViewOptions
	return nil
}

// =============================================================================
// Tree navigation
// =============================================================================

// row is one visible line of the outline tree.
type row struct {
	node  outline.Node
	depth int
}

// visibleRows flattens the tree, skipping children of collapsed nodes.
func (m *Model) visibleRows() []row {
	if m.state.Tree == nil {
		return nil
	}
	var rows []row
	outline.Walk(*m.state.Tree, func(n outline.Node, depth int) bool {
		rows = append(rows, row{node: n, depth: depth})
		return n.Expanded
	})
	return rows
}

func (m *Model) cursor(rows []row) int {
	id := m.state.SelectedID()
	for i, r := range rows {
		if r.node.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) moveCursor(delta int) {
	rows := m.visibleRows()
	if len(rows) == 0 {
		return
	}
	i := m.cursor(rows) + delta
	if i < 0 {
		i = 0
	}
	if i >= len(rows) {
		i = len(rows) - 1
	}
	m.state = m.state.Select(rows[i].node.ID)
	m.refresh()
}

// =============================================================================
// Rendering
// =============================================================================

func (m *Model) contentSize() (width, height int) {
	treeWidth := m.width / treeWidthRatio
	width = max(m.width-treeWidth-6, 10)
	height = max(m.height-6, 3)
	return width, height
}

// refresh re-renders the content pane.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	var content string
	switch m.view {
	case ViewHelp:
		content = renderHelp()
	case ViewOptions:
		content = m.renderOptions()
	case ViewSearch:
		content = m.renderSearch()
	default:
		content = m.renderNode()
	}
	m.viewport.SetContent(content)
}

func (m *Model) renderNode() string {
	if m.state.Selected == nil {
		if !m.state.HasTree() {
			return styles.MutedText.Render("Press g to generate an outline for:\n\n") +
				styles.InfoText.Render(orDash(m.state.Config.PlotIdea))
		}
		return styles.MutedText.Render("Select an entry in the outline.")
	}

	n := *m.state.Selected
	width, _ := m.contentSize()
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s · %s", n.Level.Label(), titleOf(n))))
	sb.WriteString("\n\n")
	if n.Summary != "" {
		sb.WriteString(styles.Quote.Width(width - 2).Render(n.Summary))
		sb.WriteString("\n\n")
	}
	content := strings.TrimLeft(n.Content, "\n")
	if content == "" {
		sb.WriteString(styles.MutedText.Render("No content yet. Press c to continue writing or e to edit."))
		return sb.String()
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, outline.EndingMarker) || strings.HasPrefix(line, outline.TransitionMarker) {
			sb.WriteString(styles.Marker.Render(line))
		} else {
			sb.WriteString(lipgloss.NewStyle().Width(width).Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderOptions() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Choose an intro"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("It is added to the end of " + m.selectedTitle()))
	sb.WriteString("\n\n")
	width, _ := m.contentSize()
	for i, opt := range m.state.Options {
		style := styles.ListItem
		if i == m.optIndex {
			style = styles.SelectedItem
		}
		sb.WriteString(style.Width(width - 2).Render(fmt.Sprintf("%d. %s", i+1, opt)))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func renderHelp() string {
	help := `
NOVELVIP - Help

Outline:
  g          - Generate the outline from the premise
  ↑/↓ or k/j - Move the selection
  space      - Expand or collapse the selected entry
  /          - Search titles, summaries and content
  r          - Restart with an empty outline

Writing:
  c          - Continue writing the selected entry
  s          - Summarize the selected entry
  n          - Write an ending and a transition
  i          - Generate intro options
  e          - Edit the content (ctrl+s saves, esc cancels)

Other:
  p          - Read the content aloud / stop
  x          - Export the content to <title>.txt
  q, ctrl+c  - Quit

Press ? or Esc to return.
`
	return styles.InfoText.Render(help)
}

func (m *Model) renderTree(width, height int) string {
	rows := m.visibleRows()
	if len(rows) == 0 {
		return styles.MutedText.Render("No outline yet")
	}

	cur := m.cursor(rows)
	start := 0
	if cur >= height {
		start = cur - height + 1
	}

	var lines []string
	for i := start; i < len(rows) && len(lines) < height; i++ {
		r := rows[i]
		marker := "  "
		if r.node.HasChildren() {
			marker = "▸ "
			if r.node.Expanded {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", r.depth) + marker + titleOf(r.node)
		line = truncateWidth(line, width)
		if i == cur {
			lines = append(lines, styles.TreeSelected.Render(line))
		} else {
			lines = append(lines, styles.TreeItem.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// View renders the TUI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	// Header with the toast on the right
	header := styles.Header.Render("NOVELVIP - " + headerTitle(m.state))
	if toast := m.toast.View(m.width - lipgloss.Width(header)); toast != "" {
		gap := max(m.width-lipgloss.Width(header)-lipgloss.Width(toast), 1)
		header += strings.Repeat(" ", gap) + toast
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	// Panes
	treeWidth := m.width / treeWidthRatio
	_, bodyHeight := m.contentSize()
	tree := styles.Pane.Width(treeWidth).Height(bodyHeight).Render(m.renderTree(treeWidth-2, bodyHeight))

	var right string
	if m.view == ViewEdit {
		right = styles.FocusedBorder.Render(m.editor.View())
	} else {
		right = styles.Pane.Render(m.viewport.View())
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tree, right))
	sb.WriteString("\n")

	// Status bar
	sb.WriteString(m.renderStatus())
	return sb.String()
}

func (m *Model) renderStatus() string {
	if m.state.Pending {
		return m.spinner.View() + styles.InfoText.Render(" Writing "+m.op+"...")
	}

	var keys []string
	switch m.view {
	case ViewEdit:
		keys = []string{"ctrl+s save", "esc cancel"}
	case ViewOptions:
		keys = []string{"1-9/enter pick", "esc dismiss"}
	case ViewSearch:
		keys = []string{"↑/↓ choose", "enter go", "esc cancel"}
	default:
		keys = []string{"g outline", "c continue", "s summary", "n ending", "i intro", "e edit", "p speak", "x export", "/ search", "? help"}
	}
	var parts []string
	for _, k := range keys {
		key, desc, _ := strings.Cut(k, " ")
		parts = append(parts, styles.HelpKey.Render(key)+styles.HelpDesc.Render(" "+desc))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) selectedTitle() string {
	if m.state.Selected == nil {
		return "the selected entry"
	}
	return titleOf(*m.state.Selected)
}

func headerTitle(s session.State) string {
	if s.Tree != nil {
		return titleOf(*s.Tree)
	}
	return s.Config.Genre
}

func titleOf(n outline.Node) string {
	if strings.TrimSpace(n.Title) == "" {
		return "(" + n.Level.Label() + ")"
	}
	return n.Title
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Message types for generation results
type structureMsg struct {
	epoch int
	draft outline.Draft
	err   error
}

type continueMsg struct {
	epoch int
	id    string
	text  string
	err   error
}

type summaryMsg struct {
	epoch   int
	id      string
	summary string
	err     error
}

type endingMsg struct {
	epoch  int
	id     string
	ending generate.Ending
	err    error
}

type introMsg struct {
	epoch   int
	options []string
	err     error
}

// SpeechDoneMsg reports that playback ended on its own.
type SpeechDoneMsg struct {
	Err error
}

// Run starts the workspace full screen and blocks until the user quits.
// The returned state is the session at exit.
func Run(ctx context.Context, m *Model, setup func(*tea.Program)) (session.State, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if setup != nil {
		setup(p)
	}
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return m.state, fmt.Errorf("tui: %w", err)
	}
	if fm, ok := final.(*Model); ok {
		return fm.state, nil
	}
	return m.state, nil
}
