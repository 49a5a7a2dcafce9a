// Package session holds the authoring session state and the pure transitions
// that move it forward. A State is a value: every transition returns a new
// State and leaves its receiver untouched.
package session

import (
	"strings"

	"github.com/Nhatlinh9898/novelvip/internal/outline"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

// State is the whole session: the premise, the outline and what is selected.
type State struct {
	Config types.NovelConfig

	// Tree is nil until a structure has been imported.
	Tree *outline.Node

	// Selected mirrors the tree's copy of the selected node, or is nil.
	Selected *outline.Node

	// Options holds intro candidates awaiting a pick.
	Options []string

	// Pending is set while a generation request is in flight.
	Pending bool
}

// New returns an empty session for the given premise.
func New(cfg types.NovelConfig) State {
	return State{Config: cfg}
}

// HasTree reports whether an outline has been imported.
func (s State) HasTree() bool {
	return s.Tree != nil
}

// SelectedID returns the id of the selected node or "".
func (s State) SelectedID() string {
	if s.Selected == nil {
		return ""
	}
	return s.Selected.ID
}

// SetConfig replaces the novel premise.
func (s State) SetConfig(cfg types.NovelConfig) State {
	s.Config = cfg
	return s
}

// ImportStructure replaces the tree with one mapped from d and selects its
// root.
func (s State) ImportStructure(d outline.Draft, ids outline.IDGenerator) State {
	root := outline.ImportStructure(d, outline.LevelNovel, ids)
	s.Tree = &root
	s.Options = nil
	return s.selectID(root.ID)
}

// ApplyNodeUpdate transforms the node with the given id and refreshes the
// selection from the new tree. An unknown id leaves the state as is.
func (s State) ApplyNodeUpdate(id string, fn outline.Transform) State {
	if s.Tree == nil {
		return s
	}
	root, found := outline.TryUpdateNode(*s.Tree, id, fn)
	if !found {
		return s
	}
	s.Tree = &root
	return s.resync()
}

// Select points the selection at the node with the given id. An id that is
// not in the tree clears the selection.
func (s State) Select(id string) State {
	return s.selectID(id)
}

// Clear drops the tree, the selection and any pending options. The premise
// is kept so the user can regenerate from it, and so is Pending: a request
// still in flight keeps blocking new ones until its reply arrives.
func (s State) Clear() State {
	return State{Config: s.Config, Pending: s.Pending}
}

// SetOptions stores intro candidates for the user to choose from.
func (s State) SetOptions(options []string) State {
	s.Options = append([]string(nil), options...)
	return s
}

// ApplyOption appends intro option i to the selected node and clears the
// options. Out of range indexes and a missing selection are ignored.
func (s State) ApplyOption(i int) State {
	if s.Selected == nil || i < 0 || i >= len(s.Options) {
		return s
	}
	text := s.Options[i]
	s = s.ApplyNodeUpdate(s.Selected.ID, outline.AppendContent(text))
	s.Options = nil
	return s
}

// EditContent replaces the selected node's content wholesale.
func (s State) EditContent(content string) State {
	if s.Selected == nil {
		return s
	}
	return s.ApplyNodeUpdate(s.Selected.ID, outline.ReplaceContent(content))
}

// ToggleExpanded flips the expanded flag of the node with the given id.
func (s State) ToggleExpanded(id string) State {
	return s.ApplyNodeUpdate(id, outline.ToggleExpanded())
}

// Reveal selects the node with the given id and expands its ancestors so
// it shows in the tree. An unknown id leaves the state as is.
func (s State) Reveal(id string) State {
	if s.Tree == nil {
		return s
	}
	path := outline.Path(*s.Tree, id)
	if path == nil {
		return s
	}
	for _, n := range path[:len(path)-1] {
		if !n.Expanded {
			s = s.ApplyNodeUpdate(n.ID, outline.Expand())
		}
	}
	return s.selectID(id)
}

// SetPending marks whether a generation request is in flight.
func (s State) SetPending(pending bool) State {
	s.Pending = pending
	return s
}

// ContextFor builds the continuation context for a node: the premise
// followed by the titles and summaries from the root down to the node.
func (s State) ContextFor(id string) string {
	var sb strings.Builder
	if s.Config.PlotIdea != "" {
		sb.WriteString("Premise: ")
		sb.WriteString(s.Config.PlotIdea)
		sb.WriteString("\n")
	}
	if s.Tree == nil {
		return sb.String()
	}
	for _, n := range outline.Path(*s.Tree, id) {
		sb.WriteString(n.Level.String())
		sb.WriteString(": ")
		sb.WriteString(n.Title)
		if n.Summary != "" {
			sb.WriteString(" (")
			sb.WriteString(n.Summary)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s State) selectID(id string) State {
	if s.Tree == nil {
		s.Selected = nil
		return s
	}
	n, ok := outline.Find(*s.Tree, id)
	if !ok {
		s.Selected = nil
		return s
	}
	s.Selected = &n
	return s
}

func (s State) resync() State {
	if s.Selected == nil {
		return s
	}
	return s.selectID(s.Selected.ID)
}
