package generate

import (
	"fmt"
	"strings"

	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

// promptBuilder assembles a prompt from blank-line separated parts.
type promptBuilder struct {
	parts []string
}

func newPromptBuilder() *promptBuilder {
	return &promptBuilder{}
}

func (b *promptBuilder) add(part string) *promptBuilder {
	if part = strings.TrimSpace(part); part != "" {
		b.parts = append(b.parts, part)
	}
	return b
}

func (b *promptBuilder) addf(format string, args ...any) *promptBuilder {
	return b.add(fmt.Sprintf(format, args...))
}

func (b *promptBuilder) build() string {
	return strings.Join(b.parts, "\n\n")
}

func languageOf(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return "Vietnamese"
	}
	return lang
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none yet)"
	}
	return s
}

// systemPrompt is shared by every operation.
func systemPrompt(lang string) string {
	return newPromptBuilder().
		add("You are a novelist's writing engine. You plan and write long-form serial fiction.").
		addf("Write every piece of prose, title and summary in %s.", languageOf(lang)).
		add(`When asked for JSON, return exactly one JSON value with no markdown and no commentary.`).
		build()
}

func structurePrompt(cfg types.NovelConfig) string {
	return newPromptBuilder().
		add("Design the outline of a novel as a tree from the premise below.").
		addf(`Premise:
- Genre: %s
- Tone: %s
- Point of view: %s
- Setting: %s
- Main character: %s
- Core plot idea: %s`,
			orNone(cfg.Genre), orNone(cfg.Tone), orNone(cfg.POV), orNone(cfg.Setting),
			orNone(cfg.MainCharacter), cfg.PlotIdea).
		add(`Requirements:
- Levels run Novel -> Part -> Chapter -> Act (optional) -> Section.
- At least 3 parts, each with 2 or 3 chapters.
- Every entry has a short summary.`).
		add(`Return JSON shaped like:
{
  "title": "Novel title",
  "children": [
    {
      "type": "Part",
      "title": "Part title",
      "summary": "What happens in this part",
      "children": [
        {"type": "Chapter", "title": "Chapter title", "summary": "Summary", "children": []}
      ]
    }
  ]
}`).
		build()
}

func continuePrompt(node NodeRef, storyContext string) string {
	return newPromptBuilder().
		addf("Continue writing the prose for [%s - %s].", node.Level, node.Title).
		addf("Summary of this entry: %s", orNone(node.Summary)).
		addf("Story context:\n%s", orNone(storyContext)).
		add(`Requirements:
- Keep the established plot line and style.
- Write in detail: characters, surroundings and emotion.
- Around 1000 to 2000 words.
- Leave the ending open so the next entry can pick up.
- Return plain text only.`).
		build()
}

func summaryPrompt(content string) string {
	return newPromptBuilder().
		add("Summarize the novel excerpt below.").
		add(`Requirements:
- 3 to 5 sentences.
- Keep the plot line and the characters accurate.
- Make the setting, key events and dominant emotion clear.
- Return JSON: {"summary": "..."}`).
		addf("Excerpt:\n%s", content).
		build()
}

func endingPrompt(node NodeRef) string {
	return newPromptBuilder().
		addf("Write the ending for [%s - %s].", node.Level, node.Title).
		addf("Summary of this entry: %s", orNone(node.Summary)).
		add(`Requirements:
- A concise ending that brings out the main point.
- Then a 2 to 3 sentence transition that leads into the next entry.
- Return JSON: {"ending": "...", "transition": "..."}`).
		build()
}

func introPrompt(style string) string {
	return newPromptBuilder().
		addf("You are a storyteller. Write an opening narration for the novel in a %s style.", orNone(style)).
		add(`Requirements:
- 3 to 5 sentences each.
- It should feel like the narrator speaks to the reader directly.
- Give at least 3 different options.
- Return JSON: {"options": ["option 1", "option 2", "option 3"]}`).
		build()
}
