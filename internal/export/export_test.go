package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nhatlinh9898/novelvip/internal/outline"
)

func testOutline() outline.Node {
	return outline.Node{
		ID: "n1", Level: outline.LevelNovel, Title: "Monk's Ascent", Summary: "A monk rises.",
		Children: []outline.Node{
			{
				ID: "n2", Level: outline.LevelPart, Title: "The Discovery",
				Children: []outline.Node{
					{ID: "n3", Level: outline.LevelChapter, Title: "The Scroll", Summary: "He finds it.", Content: "The monk opened the scroll."},
				},
			},
			{ID: "n4", Level: outline.LevelPart, Title: ""},
		},
	}
}

// =============================================================================
// TestFileName
// =============================================================================

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "Chương 1", "Chương 1"},
		{"reserved characters", `A/B\C:D*E?F"G<H>I|J`, "A_B_C_D_E_F_G_H_I_J"},
		{"control characters", "a\tb\nc", "a_b_c"},
		{"trims dots and spaces", "  ..hidden.. ", "hidden"},
		{"empty", "", "untitled"},
		{"only dots", "...", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.title))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"txt": FormatText, "MD": FormatMarkdown, "markdown": FormatMarkdown, " html ": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

// =============================================================================
// TestNode
// =============================================================================

func TestNode(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)
	node := outline.Node{Title: "Chương 1: Khởi đầu", Content: "Once upon a time.\nThe end."}

	path, err := e.Node(node)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Chương 1_ Khởi đầu.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, node.Content, string(data))

	// Exporting again replaces the file.
	node.Content = "Rewritten."
	path2, err := e.Node(node)
	require.NoError(t, err)
	assert.Equal(t, path, path2)
	data, _ = os.ReadFile(path)
	assert.Equal(t, "Rewritten.", string(data))
}

func TestNodeEmptyContent(t *testing.T) {
	path, err := New(t.TempDir()).Node(outline.Node{Title: "Empty"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

// =============================================================================
// TestManuscript
// =============================================================================

func TestMarkdown(t *testing.T) {
	md := Markdown(testOutline())

	assert.Contains(t, md, "# Monk's Ascent\n\n> A monk rises.\n")
	assert.Contains(t, md, "\n## The Discovery\n")
	assert.Contains(t, md, "\n### The Scroll\n\n> He finds it.\n\nThe monk opened the scroll.\n")
	assert.Contains(t, md, "\n## untitled\n")
	assert.Less(t, strings.Index(md, "The Discovery"), strings.Index(md, "The Scroll"))
}

func TestPlainText(t *testing.T) {
	text := PlainText(testOutline())
	assert.True(t, strings.HasPrefix(text, "Monk's Ascent\n"))
	assert.Contains(t, text, "The Scroll\n\nThe monk opened the scroll.")
}

func TestHTML(t *testing.T) {
	doc, err := New(t.TempDir()).HTML(testOutline())
	require.NoError(t, err)

	assert.Contains(t, doc, "<title>Monk&#39;s Ascent</title>")
	assert.Contains(t, doc, "<h1>")
	assert.Contains(t, doc, "<h3>The Scroll</h3>")
	assert.Contains(t, doc, "<blockquote>")
	assert.Contains(t, doc, "<p>The monk opened the scroll.</p>")
}

func TestManuscriptKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	first, err := e.Manuscript(testOutline(), FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Monk's Ascent.md"), first)

	second, err := e.Manuscript(testOutline(), FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Monk's Ascent (1).md"), second)

	htmlPath, err := e.Manuscript(testOutline(), FormatHTML)
	require.NoError(t, err)
	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h2>The Discovery</h2>")

	_, err = e.Manuscript(testOutline(), Format("pdf"))
	assert.Error(t, err)
}
