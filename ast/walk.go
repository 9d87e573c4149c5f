package ast

// Children returns the direct children of n in evaluation order. For Choose that is every
// When branch followed by Otherwise; for Select the projection precedes the body.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *If:
		return n.Children
	case *Choose:
		var out []Node
		for _, w := range n.Whens {
			out = append(out, w.Children...)
		}
		if n.Otherwise != nil {
			out = append(out, n.Otherwise.Children...)
		}
		return out
	case *Foreach:
		return n.Children
	case *Where:
		return n.Children
	case *Set:
		return n.Children
	case *Trim:
		return n.Children
	case *Select:
		out := make([]Node, 0, len(n.Projection)+len(n.Children))
		out = append(out, n.Projection...)
		return append(out, n.Children...)
	case *OrderBy:
		return n.Children
	case *Fragment:
		return n.Children
	}
	return nil
}

// Walk visits n and its descendants depth-first. Returning false from fn skips the
// children of the node just visited.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// IsStatic reports whether n renders the same SQL for every parameter tree, so its
// rendered text and placeholder order can be computed once.
func IsStatic(n Node) bool {
	static := true
	Walk(n, func(n Node) bool {
		switch n.(type) {
		case *Static, *Placeholder, *Fragment, *Select, *OrderBy:
			return true
		}
		static = false
		return false
	})
	return static
}

// Placeholders returns the placeholders under n in evaluation order.
func Placeholders(n Node) []*Placeholder {
	var out []*Placeholder
	Walk(n, func(n Node) bool {
		if p, ok := n.(*Placeholder); ok {
			out = append(out, p)
		}
		return true
	})
	return out
}
