package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Nhatlinh9898/novelvip/internal/generate"
	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

func init() {
	// Disable colors for consistent test output across environments
	lipgloss.SetColorProfile(termenv.Ascii)
}

// testConfig holds common test configuration values.
var testConfig = struct {
	Width       int
	Height      int
	Timeout     time.Duration
	CmdDeadline time.Duration
}{
	Width:   100,
	Height:  30,
	Timeout: 5 * time.Second,
	// Long enough for immediate commands, short enough to skip toast timers.
	CmdDeadline: 200 * time.Millisecond,
}

// fakeGenerator returns canned results and records what it was asked.
type fakeGenerator struct {
	mu sync.Mutex

	draft   outline.Draft
	text    string
	summary string
	ending  generate.Ending
	options []string
	err     error

	calls    []string
	refs     []generate.NodeRef
	contexts []string
	inputs   []string
	styles   []string
}

func (f *fakeGenerator) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeGenerator) Structure(_ context.Context, cfg types.NovelConfig) (outline.Draft, error) {
	f.record("structure")
	return f.draft, f.err
}

func (f *fakeGenerator) Continue(_ context.Context, node generate.NodeRef, storyContext string) (string, error) {
	f.record("continue")
	f.mu.Lock()
	f.refs = append(f.refs, node)
	f.contexts = append(f.contexts, storyContext)
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeGenerator) Summarize(_ context.Context, content string) (string, error) {
	f.record("summarize")
	f.mu.Lock()
	f.inputs = append(f.inputs, content)
	f.mu.Unlock()
	return f.summary, f.err
}

func (f *fakeGenerator) Ending(_ context.Context, node generate.NodeRef) (generate.Ending, error) {
	f.record("ending")
	f.mu.Lock()
	f.refs = append(f.refs, node)
	f.mu.Unlock()
	return f.ending, f.err
}

func (f *fakeGenerator) IntroOptions(_ context.Context, style string) ([]string, error) {
	f.record("intro")
	f.mu.Lock()
	f.styles = append(f.styles, style)
	f.mu.Unlock()
	return f.options, f.err
}

func (f *fakeGenerator) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeSpeaker toggles a flag instead of playing audio.
type fakeSpeaker struct {
	playing bool
	texts   []string
	stops   int
}

func (s *fakeSpeaker) Toggle(_ context.Context, text string) bool {
	if s.playing {
		s.playing = false
		return false
	}
	if text == "" {
		return false
	}
	s.texts = append(s.texts, text)
	s.playing = true
	return true
}

func (s *fakeSpeaker) Playing() bool { return s.playing }

func (s *fakeSpeaker) Stop() {
	s.stops++
	s.playing = false
}

// fakeExporter records exported nodes.
type fakeExporter struct {
	nodes []outline.Node
	err   error
}

func (e *fakeExporter) Node(n outline.Node) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.nodes = append(e.nodes, n)
	return n.Title + ".txt", nil
}

func monkConfig() types.NovelConfig {
	cfg := types.DefaultNovelConfig()
	cfg.PlotIdea = "A monk discovers a forbidden scroll"
	return cfg
}

// monkDraft imports as n1 (novel), n2 (part), n3 (chapter), n4 (part).
func monkDraft() outline.Draft {
	return outline.Draft{
		Title: "Monk's Ascent",
		Children: []outline.Draft{
			{Type: "Part", Title: "Awakening", Children: []outline.Draft{
				{Type: "Chapter", Title: "The Scroll", Summary: "He finds it."},
			}},
			{Type: "Part", Title: "Trials"},
		},
	}
}

// newTestModel creates a sized model wired to fakes.
func newTestModel(t *testing.T, gen *fakeGenerator, deps Deps) *Model {
	t.Helper()

	deps.Generator = gen
	if deps.IDs == nil {
		deps.IDs = outline.NewCounterGenerator("n")
	}
	m := New(context.Background(), monkConfig(), deps)
	return sendWindowSize(m, testConfig.Width, testConfig.Height)
}

// newTestModelWithTree creates a model whose outline was already generated.
func newTestModelWithTree(t *testing.T, gen *fakeGenerator, deps Deps) *Model {
	t.Helper()

	m := newTestModel(t, gen, deps)
	m.state = m.state.ImportStructure(monkDraft(), m.deps.IDs)
	m.refresh()
	return m
}

// sendKeyMsg sends a key message to the model and returns the updated model.
func sendKeyMsg(m *Model, keyType tea.KeyType) (*Model, tea.Cmd) {
	model, cmd := m.Update(tea.KeyMsg{Type: keyType})
	return model.(*Model), cmd
}

// sendKey sends a single-rune key such as "g" or "?".
func sendKey(m *Model, key string) (*Model, tea.Cmd) {
	if key == " " {
		model, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		return model.(*Model), cmd
	}
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return model.(*Model), cmd
}

// sendRunesMsg sends runes (typed text) to the model and returns the updated model.
func sendRunesMsg(m *Model, s string) *Model {
	for _, r := range s {
		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = model.(*Model)
	}
	return m
}

// sendWindowSize sends a window size message to the model.
func sendWindowSize(m *Model, width, height int) *Model {
	model, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return model.(*Model)
}

// collect runs cmd and returns the messages it produces, expanding batches.
// Commands that do not finish before the deadline, such as toast timers,
// are skipped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var msgs []tea.Msg
			for _, c := range batch {
				msgs = append(msgs, collect(c)...)
			}
			return msgs
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(testConfig.CmdDeadline):
		return nil
	}
}

// deliver runs cmd and feeds its messages back into the model.
func deliver(m *Model, cmd tea.Cmd) *Model {
	for _, msg := range collect(cmd) {
		model, _ := m.Update(msg)
		m = model.(*Model)
	}
	return m
}

// node returns the tree's node with the given id.
func node(t *testing.T, m *Model, id string) outline.Node {
	t.Helper()
	if m.state.Tree == nil {
		t.Fatalf("no tree")
	}
	n, ok := outline.Find(*m.state.Tree, id)
	if !ok {
		t.Fatalf("node %s not found", id)
	}
	return n
}

// assertViewState checks that the model is in the expected view state.
func assertViewState(t *testing.T, m *Model, expected ViewState) {
	t.Helper()
	if m.view != expected {
		t.Errorf("expected view state %v, got %v", expected, m.view)
	}
}

// assertToast checks the visible toast.
func assertToast(t *testing.T, m *Model, level ToastLevel, substr string) {
	t.Helper()
	if !m.toast.Visible {
		t.Errorf("expected a toast containing %q, got none", substr)
		return
	}
	if m.toast.Level != level {
		t.Errorf("expected toast level %v, got %v (%q)", level, m.toast.Level, m.toast.Message)
	}
	if !containsText(m.toast.Message, substr) {
		t.Errorf("expected toast to contain %q, got %q", substr, m.toast.Message)
	}
}

func containsText(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
