// Package outline provides the novel outline tree: its node model, the
// path-copying update engine and the importer for generated structure drafts.
package outline

import (
	"strings"
)

// Level is a node's position in the fixed nesting taxonomy.
// Values are ordered from shallowest to deepest.
type Level int

const (
	LevelNovel Level = iota
	LevelPart
	LevelChapter
	LevelAct
	LevelSection
)

var levelNames = map[Level]string{
	LevelNovel:   "Novel",
	LevelPart:    "Part",
	LevelChapter: "Chapter",
	LevelAct:     "Act",
	LevelSection: "Section",
}

var levelLabels = map[Level]string{
	LevelNovel:   "Tiểu thuyết",
	LevelPart:    "Phần",
	LevelChapter: "Chương",
	LevelAct:     "Hồi",
	LevelSection: "Mục",
}

// String returns the English name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[LevelSection]
}

// Label returns the Vietnamese display label of the level.
func (l Level) Label() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return levelLabels[LevelSection]
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l >= LevelNovel && l <= LevelSection
}

// NextLevel returns the default level for children of a node at level l.
// It saturates at LevelSection, including for unknown values.
func NextLevel(l Level) Level {
	switch l {
	case LevelNovel:
		return LevelPart
	case LevelPart:
		return LevelChapter
	case LevelChapter:
		return LevelAct
	default:
		return LevelSection
	}
}

// ParseLevel maps a declared type string to a Level. Both the English names
// and the Vietnamese labels are accepted, case-insensitively.
func ParseLevel(s string) (Level, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LevelNovel, false
	}
	for l := LevelNovel; l <= LevelSection; l++ {
		if strings.EqualFold(s, levelNames[l]) || strings.EqualFold(s, levelLabels[l]) {
			return l, true
		}
	}
	return LevelNovel, false
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to
// LevelSection, the deepest level.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, ok := ParseLevel(string(text))
	if !ok {
		parsed = LevelSection
	}
	*l = parsed
	return nil
}
