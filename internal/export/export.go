// Package export writes outline content to files: a single node as plain
// text, or the whole outline as a Markdown or HTML manuscript.
package export

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"

	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/internal/storage"
)

// Format is a manuscript file format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "txt", "md"/"markdown" and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

const untitled = "untitled"

// Exporter writes files into a directory.
type Exporter struct {
	dir string
	md  goldmark.Markdown
}

// New creates an Exporter writing into dir.
func New(dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{
		dir: dir,
		md:  goldmark.New(),
	}
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Node writes the node's content to "<title>.txt" and returns the path.
// An existing file of the same name is replaced.
func (e *Exporter) Node(n outline.Node) (string, error) {
	path := filepath.Join(e.dir, FileName(n.Title)+".txt")
	if err := storage.WriteFile(path, []byte(n.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to export %q: %w", n.Title, err)
	}
	return path, nil
}

// Manuscript writes the whole outline in the given format and returns the
// path. Existing files are kept; a numbered name is chosen instead.
func (e *Exporter) Manuscript(root outline.Node, format Format) (string, error) {
	var data []byte
	switch format {
	case FormatText:
		data = []byte(PlainText(root))
	case FormatMarkdown:
		data = []byte(Markdown(root))
	case FormatHTML:
		doc, err := e.HTML(root)
		if err != nil {
			return "", err
		}
		data = []byte(doc)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}

	path := storage.UniquePath(e.dir, FileName(root.Title), "."+string(format))
	if err := storage.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to export manuscript: %w", err)
	}
	return path, nil
}

// HTML renders the outline's Markdown manuscript as an HTML document.
func (e *Exporter) HTML(root outline.Node) (string, error) {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(Markdown(root)), &body); err != nil {
		return "", fmt.Errorf("failed to render manuscript: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(titleOr(root.Title)))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// Markdown renders the outline as a manuscript: one heading per node, its
// summary as a quote and its content as paragraphs.
func Markdown(root outline.Node) string {
	var b strings.Builder
	outline.Walk(root, func(n outline.Node, depth int) bool {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", strings.Repeat("#", min(depth+1, 6)), titleOr(n.Title))
		if s := strings.TrimSpace(n.Summary); s != "" {
			b.WriteString("\n")
			for _, line := range strings.Split(s, "\n") {
				b.WriteString(strings.TrimRight("> "+line, " ") + "\n")
			}
		}
		if c := strings.TrimSpace(n.Content); c != "" {
			b.WriteString("\n" + c + "\n")
		}
		return true
	})
	return b.String()
}

// PlainText joins every node's title and content in outline order.
func PlainText(root outline.Node) string {
	var parts []string
	outline.Walk(root, func(n outline.Node, _ int) bool {
		part := titleOr(n.Title)
		if c := strings.TrimSpace(n.Content); c != "" {
			part += "\n\n" + c
		}
		parts = append(parts, part)
		return true
	})
	return strings.Join(parts, "\n\n\n") + "\n"
}

// FileName turns a title into a safe file name. Characters that are
// reserved on common filesystems become underscores.
func FileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			return '_'
		default:
			return r
		}
	}, title)
	name = strings.Trim(name, " .")
	if name == "" {
		return untitled
	}
	return name
}

func titleOr(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}
