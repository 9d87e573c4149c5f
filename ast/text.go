package ast

import (
	"github.com/Konsultn-Engineering/sqlmap/utils"
	"github.com/Konsultn-Engineering/sqlmap/value"
)

// Static is literal SQL text, emitted verbatim apart from whitespace normalization.
type Static struct {
	Text string
}

func NewStatic(text string) *Static { return &Static{Text: text} }

func (s *Static) Type() NodeType         { return NodeStatic }
func (s *Static) Accept(v Visitor) error { return v.VisitStatic(s) }
func (s *Static) Fingerprint() uint64 {
	return utils.NewHasher("static").String(s.Text).Sum()
}
func (*Static) sealed() {}

// Placeholder binds the value at Path as one positional parameter. When the path does
// not resolve, Default is bound instead; without a Default the evaluation fails.
type Placeholder struct {
	Path    value.Path
	Default *value.Value
	// JDBCType is a driver type hint carried through from mapper documents. It does not
	// change how the parameter is bound.
	JDBCType string
}

func NewPlaceholder(path string) (*Placeholder, error) {
	p, err := value.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return &Placeholder{Path: p}, nil
}

// Param is NewPlaceholder for paths known to be valid. It panics otherwise.
func Param(path string) *Placeholder {
	return &Placeholder{Path: value.MustParsePath(path)}
}

// WithDefault returns a copy of p that binds def when the path is unresolved.
func (p *Placeholder) WithDefault(def value.Value) *Placeholder {
	cp := *p
	cp.Default = &def
	return &cp
}

func (p *Placeholder) Type() NodeType         { return NodePlaceholder }
func (p *Placeholder) Accept(v Visitor) error { return v.VisitPlaceholder(p) }
func (p *Placeholder) Fingerprint() uint64 {
	h := utils.NewHasher("param").String(p.Path.String()).String(p.JDBCType)
	h.Bool(p.Default != nil)
	if p.Default != nil {
		h.String(p.Default.String())
	}
	return h.Sum()
}
func (*Placeholder) sealed() {}
