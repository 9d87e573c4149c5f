package ast

import (
	"github.com/Konsultn-Engineering/sqlmap/utils"
)

// Where renders its children prefixed by WHERE, dropping a leading AND/OR. It renders
// nothing when the children render nothing.
type Where struct {
	Children []Node
}

func (n *Where) Type() NodeType         { return NodeWhere }
func (n *Where) Accept(v Visitor) error { return v.VisitWhere(n) }
func (n *Where) Fingerprint() uint64 {
	return fingerprintNodes(utils.NewHasher("where"), n.Children).Sum()
}
func (*Where) sealed() {}

// Set renders its children prefixed by SET, dropping a trailing comma.
type Set struct {
	Children []Node
}

func (n *Set) Type() NodeType         { return NodeSet }
func (n *Set) Accept(v Visitor) error { return v.VisitSet(n) }
func (n *Set) Fingerprint() uint64 {
	return fingerprintNodes(utils.NewHasher("set"), n.Children).Sum()
}
func (*Set) sealed() {}

// Trim strips the first matching prefix and suffix override from the rendered
// children, then wraps the remainder with Prefix and Suffix.
type Trim struct {
	Prefix          string
	Suffix          string
	PrefixOverrides []string
	SuffixOverrides []string
	Children        []Node
}

func (n *Trim) Type() NodeType         { return NodeTrim }
func (n *Trim) Accept(v Visitor) error { return v.VisitTrim(n) }
func (n *Trim) Fingerprint() uint64 {
	h := utils.NewHasher("trim").
		String(n.Prefix).String(n.Suffix).
		Strings(n.PrefixOverrides).Strings(n.SuffixOverrides)
	return fingerprintNodes(h, n.Children).Sum()
}
func (*Trim) sealed() {}

// Select marks the projection of a query. In normal mode it renders
// SELECT <projection> <children>; count mode replaces the projection with COUNT(1).
type Select struct {
	Projection []Node
	Children   []Node
}

func (n *Select) Type() NodeType         { return NodeSelect }
func (n *Select) Accept(v Visitor) error { return v.VisitSelect(n) }
func (n *Select) Fingerprint() uint64 {
	h := fingerprintNodes(utils.NewHasher("select"), n.Projection)
	return fingerprintNodes(h, n.Children).Sum()
}
func (*Select) sealed() {}

// OrderBy renders ORDER BY <children>. It is suppressed in count mode.
type OrderBy struct {
	Children []Node
}

func (n *OrderBy) Type() NodeType         { return NodeOrderBy }
func (n *OrderBy) Accept(v Visitor) error { return v.VisitOrderBy(n) }
func (n *OrderBy) Fingerprint() uint64 {
	return fingerprintNodes(utils.NewHasher("orderBy"), n.Children).Sum()
}
func (*OrderBy) sealed() {}

// Fragment is a plain sequence. Statement roots and reusable fragments are Fragments.
type Fragment struct {
	Children []Node
}

func NewFragment(children ...Node) *Fragment { return &Fragment{Children: children} }

func (n *Fragment) Type() NodeType         { return NodeFragment }
func (n *Fragment) Accept(v Visitor) error { return v.VisitFragment(n) }
func (n *Fragment) Fingerprint() uint64 {
	return fingerprintNodes(utils.NewHasher("fragment"), n.Children).Sum()
}
func (*Fragment) sealed() {}
