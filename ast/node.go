// Package ast defines the closed set of dynamic SQL template nodes.
//
// A statement is a tree of nodes. Static text and placeholders are leaves; the remaining
// nodes decide at evaluation time which of their children are emitted and how the emitted
// text is wrapped. Nodes are immutable once handed to a registry.
package ast

type NodeType int

const (
	NodeStatic NodeType = iota
	NodePlaceholder
	NodeIf
	NodeChoose
	NodeForeach
	NodeWhere
	NodeSet
	NodeTrim
	NodeBind
	NodeInclude
	NodeSelect
	NodeOrderBy
	NodeFragment
)

var nodeTypeNames = [...]string{
	NodeStatic:      "static",
	NodePlaceholder: "param",
	NodeIf:          "if",
	NodeChoose:      "choose",
	NodeForeach:     "foreach",
	NodeWhere:       "where",
	NodeSet:         "set",
	NodeTrim:        "trim",
	NodeBind:        "bind",
	NodeInclude:     "include",
	NodeSelect:      "select",
	NodeOrderBy:     "orderBy",
	NodeFragment:    "fragment",
}

func (t NodeType) String() string {
	if int(t) < 0 || int(t) >= len(nodeTypeNames) {
		return "unknown"
	}
	return nodeTypeNames[t]
}

// Node is implemented only by the types in this package.
type Node interface {
	Type() NodeType
	Accept(v Visitor) error
	Fingerprint() uint64
	sealed()
}
