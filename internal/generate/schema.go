package generate

import "github.com/Nhatlinh9898/novelvip/internal/llm"

// draftNodeSchema describes one outline entry. Children are left open so the
// model may nest as deep as it likes; the importer handles any depth.
func draftNodeSchema(depth int) map[string]any {
	props := map[string]any{
		"type":    map[string]any{"type": "string"},
		"title":   map[string]any{"type": "string"},
		"summary": map[string]any{"type": "string"},
	}
	if depth > 0 {
		props["children"] = map[string]any{
			"type":  "array",
			"items": draftNodeSchema(depth - 1),
		}
	} else {
		props["children"] = map[string]any{"type": "array"}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

var structureSchema = func() *llm.Schema {
	doc := draftNodeSchema(3)
	doc["required"] = []any{"title", "children"}
	return llm.MustCompileSchema("structure", doc)
}()

var summarySchema = llm.MustCompileSchema("summary", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{"type": "string"},
	},
})

var endingSchema = llm.MustCompileSchema("ending", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"ending":     map[string]any{"type": "string"},
		"transition": map[string]any{"type": "string"},
	},
})

var introSchema = llm.MustCompileSchema("intro", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"options": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []any{"options"},
})
