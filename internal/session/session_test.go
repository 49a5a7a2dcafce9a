package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

func monkDraft() outline.Draft {
	return outline.Draft{
		Title: "Monk's Ascent",
		Children: []outline.Draft{
			{Type: "Part", Title: "The Discovery", Children: []outline.Draft{{Type: "Chapter", Title: "The Scroll"}}},
			{Type: "Part", Title: "The Return"},
		},
	}
}

// newTestState returns a session with the monk outline imported using
// deterministic ids: n1 root, n2 part one, n3 chapter, n4 part two.
func newTestState(t *testing.T) State {
	t.Helper()
	cfg := types.DefaultNovelConfig()
	cfg.PlotIdea = "A monk discovers a forbidden scroll"
	s := New(cfg).ImportStructure(monkDraft(), outline.NewCounterGenerator("n"))
	require.True(t, s.HasTree())
	return s
}

// assertSelectionInSync checks that the selection mirrors the tree's copy.
func assertSelectionInSync(t *testing.T, s State) {
	t.Helper()
	if s.Selected == nil {
		return
	}
	require.NotNil(t, s.Tree)
	n, ok := outline.Find(*s.Tree, s.Selected.ID)
	require.True(t, ok, "selection %q not in tree", s.Selected.ID)
	assert.Equal(t, n, *s.Selected)
}

// =============================================================================
// TestImportStructure
// =============================================================================

func TestImportStructureSelectsRoot(t *testing.T) {
	s := newTestState(t)

	assert.Equal(t, "n1", s.SelectedID())
	assert.Equal(t, outline.LevelNovel, s.Tree.Level)
	assert.Equal(t, "Monk's Ascent", s.Selected.Title)
	assertSelectionInSync(t, s)
}

func TestImportStructureReplacesTree(t *testing.T) {
	s := newTestState(t).SetOptions([]string{"a"})
	s = s.ImportStructure(outline.Draft{Title: "Other"}, outline.NewCounterGenerator("m"))

	assert.Equal(t, "Other", s.Tree.Title)
	assert.Equal(t, "m1", s.SelectedID())
	assert.Empty(t, s.Options)
}

// =============================================================================
// TestApplyNodeUpdate
// =============================================================================

func TestApplyNodeUpdateContinuation(t *testing.T) {
	s := newTestState(t).Select("n3")
	s = s.EditContent("Once upon a time.")

	s = s.ApplyNodeUpdate("n3", outline.AppendContent(" The monk opened the scroll."))

	want := "Once upon a time.\n The monk opened the scroll."
	assert.Equal(t, want, s.Selected.Content)
	n, ok := outline.Find(*s.Tree, "n3")
	require.True(t, ok)
	assert.Equal(t, want, n.Content)
	assertSelectionInSync(t, s)
}

func TestApplyNodeUpdateRefreshesAncestorSelection(t *testing.T) {
	s := newTestState(t).Select("n2")

	s = s.ApplyNodeUpdate("n3", outline.SetSummary("the scroll is found"))

	assert.Equal(t, "n2", s.SelectedID())
	require.Len(t, s.Selected.Children, 1)
	assert.Equal(t, "the scroll is found", s.Selected.Children[0].Summary)
	assertSelectionInSync(t, s)
}

func TestApplyNodeUpdateUnknownID(t *testing.T) {
	s := newTestState(t)
	before := *s.Tree

	s = s.ApplyNodeUpdate("nope", outline.ReplaceContent("x"))

	assert.Equal(t, before, *s.Tree)
	assertSelectionInSync(t, s)
}

func TestApplyNodeUpdateWithoutTree(t *testing.T) {
	s := New(types.DefaultNovelConfig())
	s = s.ApplyNodeUpdate("n1", outline.ReplaceContent("x"))
	assert.False(t, s.HasTree())
	assert.Nil(t, s.Selected)
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	s := newTestState(t).Select("n3")
	snapshot := *s.Tree

	_ = s.EditContent("changed")
	_ = s.ToggleExpanded("n2")

	assert.Equal(t, snapshot, *s.Tree)
	assert.Empty(t, s.Selected.Content)
}

// =============================================================================
// TestSelection
// =============================================================================

func TestSelect(t *testing.T) {
	s := newTestState(t)

	s = s.Select("n4")
	assert.Equal(t, "The Return", s.Selected.Title)

	s = s.Select("missing")
	assert.Nil(t, s.Selected)
	assert.Equal(t, "", s.SelectedID())
}

func TestToggleExpanded(t *testing.T) {
	s := newTestState(t).Select("n2")

	s = s.ToggleExpanded("n2")
	assert.False(t, s.Selected.Expanded)
	assertSelectionInSync(t, s)

	root := *s.Tree
	assert.True(t, root.Expanded)
	assert.True(t, root.Children[1].Expanded)
	assert.True(t, root.Children[0].Children[0].Expanded)
}

func TestReveal(t *testing.T) {
	s := newTestState(t).ToggleExpanded("n1").ToggleExpanded("n2")
	require.False(t, s.Tree.Expanded)

	s = s.Reveal("n3")

	assert.Equal(t, "n3", s.SelectedID())
	assert.True(t, s.Tree.Expanded)
	assert.True(t, s.Tree.Children[0].Expanded)
	assertSelectionInSync(t, s)
}

func TestRevealUnknownID(t *testing.T) {
	s := newTestState(t).Select("n2")

	got := s.Reveal("missing")

	assert.Equal(t, "n2", got.SelectedID())
	assert.Same(t, s.Tree, got.Tree)
	assert.Equal(t, State{}.Reveal("n1"), State{})
}

// =============================================================================
// TestOptions
// =============================================================================

func TestApplyOption(t *testing.T) {
	s := newTestState(t).Select("n3").SetOptions([]string{"First.", "Second.", "Third."})

	s = s.ApplyOption(1)

	assert.Equal(t, "\nSecond.", s.Selected.Content)
	assert.Empty(t, s.Options)
	assertSelectionInSync(t, s)
}

func TestApplyOptionIgnoresInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		state func(t *testing.T) State
		index int
	}{
		{"index out of range", func(t *testing.T) State { return newTestState(t).SetOptions([]string{"a"}) }, 3},
		{"negative index", func(t *testing.T) State { return newTestState(t).SetOptions([]string{"a"}) }, -1},
		{"no selection", func(t *testing.T) State { return newTestState(t).Select("x").SetOptions([]string{"a"}) }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.state(t)
			after := before.ApplyOption(tt.index)
			assert.Equal(t, before, after)
		})
	}
}

func TestSetOptionsCopies(t *testing.T) {
	opts := []string{"a", "b"}
	s := New(types.NovelConfig{}).SetOptions(opts)
	opts[0] = "z"
	assert.Equal(t, []string{"a", "b"}, s.Options)
}

// =============================================================================
// TestClear
// =============================================================================

func TestClear(t *testing.T) {
	s := newTestState(t).SetOptions([]string{"a"}).SetPending(true)

	s = s.Clear()

	assert.False(t, s.HasTree())
	assert.Nil(t, s.Selected)
	assert.Empty(t, s.Options)
	assert.True(t, s.Pending, "an in-flight request survives the restart")
	assert.Equal(t, "A monk discovers a forbidden scroll", s.Config.PlotIdea)

	assert.False(t, newTestState(t).Clear().Pending)
}

func TestSetConfig(t *testing.T) {
	s := newTestState(t)
	cfg := s.Config
	cfg.Genre = "Kiếm Hiệp"

	s = s.SetConfig(cfg)
	assert.Equal(t, "Kiếm Hiệp", s.Config.Genre)
	assert.True(t, s.HasTree())
}

func TestContextFor(t *testing.T) {
	s := newTestState(t).ApplyNodeUpdate("n2", outline.SetSummary("he finds it"))

	ctx := s.ContextFor("n3")

	assert.Contains(t, ctx, "Premise: A monk discovers a forbidden scroll")
	assert.Contains(t, ctx, "Novel: Monk's Ascent")
	assert.Contains(t, ctx, "Part: The Discovery (he finds it)")
	assert.Contains(t, ctx, "Chapter: The Scroll")
}
