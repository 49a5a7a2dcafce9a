package outline

import (
	"encoding/json"
	"strings"
)

// Draft is a generated structure before it is mapped into nodes. Every field
// is optional.
type Draft struct {
	Type     string  `json:"type,omitempty"`
	Title    string  `json:"title,omitempty"`
	Summary  string  `json:"summary,omitempty"`
	Children []Draft `json:"children,omitempty"`
}

// IsEmpty reports whether the draft carries no structure at all.
func (d Draft) IsEmpty() bool {
	return d.Type == "" && d.Title == "" && d.Summary == "" && len(d.Children) == 0
}

// rawDraft decodes each field separately so a malformed field does not
// discard its siblings.
type rawDraft struct {
	Type     json.RawMessage   `json:"type"`
	Title    json.RawMessage   `json:"title"`
	Summary  json.RawMessage   `json:"summary"`
	Children []json.RawMessage `json:"children"`
}

// DecodeDraft decodes a generated structure. It never fails: an empty or
// unparseable payload yields an empty Draft, malformed fields are dropped and
// a top-level array is treated as the root's children.
func DecodeDraft(data []byte) Draft {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Draft{}
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return Draft{}
		}
		return Draft{Children: decodeChildren(items)}
	}

	d, _ := decodeDraft([]byte(trimmed))
	return d
}

func decodeDraft(data []byte) (Draft, bool) {
	var raw rawDraft
	if err := json.Unmarshal(data, &raw); err != nil {
		// Retry without children in case only that field is malformed.
		var flat struct {
			Type    json.RawMessage `json:"type"`
			Title   json.RawMessage `json:"title"`
			Summary json.RawMessage `json:"summary"`
		}
		if err := json.Unmarshal(data, &flat); err != nil {
			return Draft{}, false
		}
		raw.Type, raw.Title, raw.Summary = flat.Type, flat.Title, flat.Summary
	}

	return Draft{
		Type:     decodeString(raw.Type),
		Title:    decodeString(raw.Title),
		Summary:  decodeString(raw.Summary),
		Children: decodeChildren(raw.Children),
	}, true
}

func decodeChildren(items []json.RawMessage) []Draft {
	if len(items) == 0 {
		return nil
	}
	children := make([]Draft, 0, len(items))
	for _, item := range items {
		if child, ok := decodeDraft(item); ok {
			children = append(children, child)
		}
	}
	return children
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// ImportStructure maps a draft into a new tree. Each node gets a fresh id
// from ids. A declared type is honoured when it names a known level that is
// deeper than the parent's; otherwise the level defaults to NextLevel of the
// parent's resolved level. The root uses its declared type if known, else
// rootLevel. Content starts empty and every node starts expanded.
func ImportStructure(d Draft, rootLevel Level, ids IDGenerator) Node {
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	level := rootLevel
	if declared, ok := ParseLevel(d.Type); ok {
		level = declared
	}
	return importNode(d, level, ids)
}

func importNode(d Draft, level Level, ids IDGenerator) Node {
	n := Node{
		ID:       ids.NewID(),
		Level:    level,
		Title:    d.Title,
		Summary:  d.Summary,
		Content:  "",
		Children: make([]Node, 0, len(d.Children)),
		Expanded: true,
	}
	for _, child := range d.Children {
		n.Children = append(n.Children, importNode(child, childLevel(level, child.Type), ids))
	}
	return n
}

func childLevel(parent Level, declaredType string) Level {
	fallback := NextLevel(parent)
	declared, ok := ParseLevel(declaredType)
	if !ok {
		return fallback
	}
	if declared > parent || (parent == LevelSection && declared == LevelSection) {
		return declared
	}
	return fallback
}
