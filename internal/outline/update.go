package outline

import "strings"

// Transform maps a node to its replacement.
type Transform func(Node) Node

// UpdateNode returns a copy of root in which the node with the given id has
// been replaced by fn(node). Only the nodes on the path from root to the
// target are rebuilt; every other subtree is returned as is. fn is called
// exactly once when the id is found. When the id is absent, root is returned
// unchanged and fn is never called.
func UpdateNode(root Node, id string, fn Transform) Node {
	updated, _ := TryUpdateNode(root, id, fn)
	return updated
}

// TryUpdateNode behaves like UpdateNode and also reports whether the target
// was found.
func TryUpdateNode(root Node, id string, fn Transform) (Node, bool) {
	if root.ID == id {
		return fn(root), true
	}
	for i, child := range root.Children {
		updated, ok := TryUpdateNode(child, id, fn)
		if !ok {
			continue
		}
		children := make([]Node, len(root.Children))
		copy(children, root.Children)
		children[i] = updated
		root.Children = children
		return root, true
	}
	return root, false
}

// EndingMarker and TransitionMarker frame an appended ending block.
const (
	EndingMarker     = "--- KẾT THÚC ---"
	TransitionMarker = ">>> DẪN CHUYỆN:"
)

// AppendContent appends text to the node's content on a new line.
func AppendContent(text string) Transform {
	return func(n Node) Node {
		n.Content = n.Content + "\n" + text
		return n
	}
}

// ReplaceContent replaces the node's content wholesale, as a direct edit does.
func ReplaceContent(text string) Transform {
	return func(n Node) Node {
		n.Content = text
		return n
	}
}

// SetSummary sets the node's summary.
func SetSummary(summary string) Transform {
	return func(n Node) Node {
		n.Summary = summary
		return n
	}
}

// AppendEnding appends a formatted ending and transition block.
func AppendEnding(ending, transition string) Transform {
	return func(n Node) Node {
		n.Content = n.Content + FormatEnding(ending, transition)
		return n
	}
}

// FormatEnding renders the block appended by AppendEnding.
func FormatEnding(ending, transition string) string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(EndingMarker)
	sb.WriteString("\n")
	sb.WriteString(ending)
	sb.WriteString("\n\n")
	sb.WriteString(TransitionMarker)
	sb.WriteString(" ")
	sb.WriteString(transition)
	return sb.String()
}

// ToggleExpanded flips the node's expanded flag.
func ToggleExpanded() Transform {
	return func(n Node) Node {
		n.Expanded = !n.Expanded
		return n
	}
}

// Expand marks the node as expanded.
func Expand() Transform {
	return func(n Node) Node {
		n.Expanded = true
		return n
	}
}
