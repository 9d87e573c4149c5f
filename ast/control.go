package ast

import (
	"github.com/Konsultn-Engineering/sqlmap/utils"
)

func fingerprintNodes(h *utils.Hasher, nodes []Node) *utils.Hasher {
	h.U64(uint64(len(nodes)))
	for _, n := range nodes {
		h.U64(n.Fingerprint())
	}
	return h
}

// If emits Children when Test evaluates truthy.
type If struct {
	Test     string
	Children []Node
}

func (n *If) Type() NodeType         { return NodeIf }
func (n *If) Accept(v Visitor) error { return v.VisitIf(n) }
func (n *If) Fingerprint() uint64 {
	return fingerprintNodes(utils.NewHasher("if").String(n.Test), n.Children).Sum()
}
func (*If) sealed() {}

type When struct {
	Test     string
	Children []Node
}

type Otherwise struct {
	Children []Node
}

// Choose emits the children of the first When whose test is truthy, else the
// Otherwise children, else nothing.
type Choose struct {
	Whens     []When
	Otherwise *Otherwise
}

func (n *Choose) Type() NodeType         { return NodeChoose }
func (n *Choose) Accept(v Visitor) error { return v.VisitChoose(n) }
func (n *Choose) Fingerprint() uint64 {
	h := utils.NewHasher("choose").U64(uint64(len(n.Whens)))
	for _, w := range n.Whens {
		fingerprintNodes(h.String(w.Test), w.Children)
	}
	h.Bool(n.Otherwise != nil)
	if n.Otherwise != nil {
		fingerprintNodes(h, n.Otherwise.Children)
	}
	return h.Sum()
}
func (*Choose) sealed() {}

// Foreach emits Children once per element of the collection at Collection, binding the
// element to Item and its position (or key, for objects) to Index.
type Foreach struct {
	Collection string
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
	Children   []Node
}

func (n *Foreach) Type() NodeType         { return NodeForeach }
func (n *Foreach) Accept(v Visitor) error { return v.VisitForeach(n) }
func (n *Foreach) Fingerprint() uint64 {
	h := utils.NewHasher("foreach").
		String(n.Collection).String(n.Item).String(n.Index).
		String(n.Open).String(n.Close).String(n.Separator)
	return fingerprintNodes(h, n.Children).Sum()
}
func (*Foreach) sealed() {}

// Bind evaluates Expr and binds the result to Name for the rest of the enclosing
// sequence. It emits nothing.
type Bind struct {
	Name string
	Expr string
}

func (n *Bind) Type() NodeType         { return NodeBind }
func (n *Bind) Accept(v Visitor) error { return v.VisitBind(n) }
func (n *Bind) Fingerprint() uint64 {
	return utils.NewHasher("bind").String(n.Name).String(n.Expr).Sum()
}
func (*Bind) sealed() {}

// Include splices a reusable fragment. RefID is either an id in the including
// namespace or a "namespace.id" reference.
type Include struct {
	RefID string
}

func (n *Include) Type() NodeType         { return NodeInclude }
func (n *Include) Accept(v Visitor) error { return v.VisitInclude(n) }
func (n *Include) Fingerprint() uint64 {
	return utils.NewHasher("include").String(n.RefID).Sum()
}
func (*Include) sealed() {}
