package outline

// Node is one entry in the outline hierarchy. A node owns its children by
// value, so a tree has no shared subtrees and no back pointers.
type Node struct {
	ID       string `json:"id"`
	Level    Level  `json:"level"`
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Content  string `json:"content,omitempty"`
	Children []Node `json:"children"`
	Expanded bool   `json:"expanded"`
}

// HasChildren reports whether the node has any children.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Find returns the node with the given id, searching depth-first.
func Find(root Node, id string) (Node, bool) {
	if root.ID == id {
		return root, true
	}
	for _, child := range root.Children {
		if found, ok := Find(child, id); ok {
			return found, true
		}
	}
	return Node{}, false
}

// Walk visits every node in depth-first pre-order. depth is 0 for root.
// Returning false from fn skips the node's children.
func Walk(root Node, fn func(n Node, depth int) bool) {
	walk(root, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		walk(child, depth+1, fn)
	}
}

// Count returns the number of nodes in the tree.
func Count(root Node) int {
	total := 0
	Walk(root, func(Node, int) bool {
		total++
		return true
	})
	return total
}

// Path returns the chain of nodes from root to the node with the given id,
// inclusive. It returns nil when the id is absent.
func Path(root Node, id string) []Node {
	if root.ID == id {
		return []Node{root}
	}
	for _, child := range root.Children {
		if rest := Path(child, id); rest != nil {
			return append([]Node{root}, rest...)
		}
	}
	return nil
}
