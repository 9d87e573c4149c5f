package builder

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/value"
)

// Part produces the nodes of one piece of a statement.
type Part func() ([]ast.Node, error)

func expand(parts []Part) ([]ast.Node, error) {
	var out []ast.Node
	for _, p := range parts {
		if p == nil {
			continue
		}
		nodes, err := p()
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func single(n ast.Node) Part {
	return func() ([]ast.Node, error) { return []ast.Node{n}, nil }
}

func container(parts []Part, wrap func([]ast.Node) ast.Node) Part {
	return func() ([]ast.Node, error) {
		children, err := expand(parts)
		if err != nil {
			return nil, err
		}
		return []ast.Node{wrap(children)}, nil
	}
}

// Text is SQL text with optional #{path} markers.
func Text(sql string) Part {
	return func() ([]ast.Node, error) { return ast.ParseText(sql) }
}

// Nodes passes prebuilt nodes through unchanged.
func Nodes(nodes ...ast.Node) Part {
	return func() ([]ast.Node, error) { return nodes, nil }
}

// Param binds the value at path, or def when the path does not resolve.
func Param(path string, def ...any) Part {
	return func() ([]ast.Node, error) {
		p, err := ast.NewPlaceholder(path)
		if err != nil {
			return nil, err
		}
		switch len(def) {
		case 0:
			return []ast.Node{p}, nil
		case 1:
			v, err := value.FromAny(def[0])
			if err != nil {
				return nil, fmt.Errorf("param %s default: %w", path, err)
			}
			return []ast.Node{p.WithDefault(v)}, nil
		}
		return nil, fmt.Errorf("param %s: at most one default", path)
	}
}

func If(test string, parts ...Part) Part {
	if test == "" {
		return failed(errors.New("if needs a test"))
	}
	return container(parts, func(children []ast.Node) ast.Node {
		return &ast.If{Test: test, Children: children}
	})
}

// Case is one branch of Choose. A Case with an empty test is the otherwise branch.
type Case struct {
	Test  string
	Parts []Part
}

func When(test string, parts ...Part) Case { return Case{Test: test, Parts: parts} }

func Otherwise(parts ...Part) Case { return Case{Parts: parts} }

// Choose emits the first branch whose test holds. An otherwise branch must come last.
func Choose(cases ...Case) Part {
	return func() ([]ast.Node, error) {
		n := &ast.Choose{}
		for i, c := range cases {
			children, err := expand(c.Parts)
			if err != nil {
				return nil, err
			}
			if c.Test == "" {
				if i != len(cases)-1 {
					return nil, errors.New("choose: otherwise must be the last branch")
				}
				n.Otherwise = &ast.Otherwise{Children: children}
				continue
			}
			n.Whens = append(n.Whens, ast.When{Test: c.Test, Children: children})
		}
		if len(n.Whens) == 0 {
			return nil, errors.New("choose needs at least one when")
		}
		return []ast.Node{n}, nil
	}
}

// Loop configures Foreach. Item defaults to the singular of the collection name.
type Loop struct {
	Collection string
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
}

func Foreach(loop Loop, parts ...Part) Part {
	if loop.Collection == "" {
		return failed(errors.New("foreach needs a collection"))
	}
	return container(parts, func(children []ast.Node) ast.Node {
		return &ast.Foreach{
			Collection: loop.Collection,
			Item:       loop.Item,
			Index:      loop.Index,
			Open:       loop.Open,
			Close:      loop.Close,
			Separator:  loop.Separator,
			Children:   children,
		}
	})
}

// In renders "(#{item},#{item},...)" over collection.
func In(collection string) Part {
	return Foreach(Loop{Collection: collection, Item: "item", Open: "(", Close: ")", Separator: ","}, Text("#{item}"))
}

func Where(parts ...Part) Part {
	return container(parts, func(children []ast.Node) ast.Node { return &ast.Where{Children: children} })
}

func Set(parts ...Part) Part {
	return container(parts, func(children []ast.Node) ast.Node { return &ast.Set{Children: children} })
}

func OrderBy(parts ...Part) Part {
	return container(parts, func(children []ast.Node) ast.Node { return &ast.OrderBy{Children: children} })
}

// Trimmed configures Trim.
type Trimmed struct {
	Prefix          string
	Suffix          string
	PrefixOverrides []string
	SuffixOverrides []string
}

func Trim(t Trimmed, parts ...Part) Part {
	return container(parts, func(children []ast.Node) ast.Node {
		return &ast.Trim{
			Prefix:          t.Prefix,
			Suffix:          t.Suffix,
			PrefixOverrides: t.PrefixOverrides,
			SuffixOverrides: t.SuffixOverrides,
			Children:        children,
		}
	})
}

// Projection renders SELECT <projection> <parts>. Count queries replace the
// projection with COUNT(1).
func Projection(projection []Part, parts ...Part) Part {
	return func() ([]ast.Node, error) {
		proj, err := expand(projection)
		if err != nil {
			return nil, err
		}
		if len(proj) == 0 {
			return nil, errors.New("select needs a projection")
		}
		children, err := expand(parts)
		if err != nil {
			return nil, err
		}
		return []ast.Node{&ast.Select{Projection: proj, Children: children}}, nil
	}
}

// Columns is a projection of plain column text.
func Columns(cols string) []Part { return []Part{Text(cols)} }

func Bind(name, expression string) Part {
	if name == "" || expression == "" {
		return failed(errors.New("bind needs a name and a value"))
	}
	return single(&ast.Bind{Name: name, Expr: expression})
}

// Include splices a fragment by id or "namespace.id".
func Include(ref string) Part {
	if ref == "" {
		return failed(errors.New("include needs a refid"))
	}
	return single(&ast.Include{RefID: ref})
}

func failed(err error) Part {
	return func() ([]ast.Node, error) { return nil, err }
}
