package loader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/value"
)

type converter struct {
	file string
}

func (c *converter) errorf(n *yaml.Node, format string, args ...any) error {
	line := 0
	if n != nil {
		line = n.Line
	}
	return &Error{File: c.file, Line: line, Err: fmt.Errorf(format, args...)}
}

// nodes converts a node list. A lone scalar or mapping is read as a list of one.
func (c *converter) nodes(n *yaml.Node) ([]ast.Node, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var out []ast.Node
		for _, item := range n.Content {
			converted, err := c.node(item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted...)
		}
		return out, nil
	case yaml.ScalarNode, yaml.MappingNode:
		return c.node(n)
	}
	return nil, c.errorf(n, "expected a list of nodes")
}

func (c *converter) node(n *yaml.Node) ([]ast.Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		out, err := ast.ParseText(n.Value)
		if err != nil {
			return nil, c.errorf(n, "%v", err)
		}
		return out, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, c.errorf(n, "a dynamic node is a mapping with exactly one key")
		}
		key, body := n.Content[0], n.Content[1]
		built, err := c.dynamic(key.Value, body)
		if err != nil {
			return nil, err
		}
		return []ast.Node{built}, nil
	}
	return nil, c.errorf(n, "unexpected %s", kindName(n.Kind))
}

func (c *converter) dynamic(key string, body *yaml.Node) (ast.Node, error) {
	switch key {
	case "param":
		return c.param(body)
	case "if":
		var spec struct {
			Test  string    `yaml:"test"`
			Nodes yaml.Node `yaml:"nodes"`
		}
		children, err := c.decodeWithNodes(body, &spec, &spec.Nodes)
		if err != nil {
			return nil, err
		}
		if spec.Test == "" {
			return nil, c.errorf(body, "if needs a test")
		}
		return &ast.If{Test: spec.Test, Children: children}, nil
	case "choose":
		return c.choose(body)
	case "foreach":
		var spec struct {
			Collection string    `yaml:"collection"`
			Item       string    `yaml:"item"`
			Index      string    `yaml:"index"`
			Open       string    `yaml:"open"`
			Close      string    `yaml:"close"`
			Separator  string    `yaml:"separator"`
			Nodes      yaml.Node `yaml:"nodes"`
		}
		children, err := c.decodeWithNodes(body, &spec, &spec.Nodes)
		if err != nil {
			return nil, err
		}
		if spec.Collection == "" {
			return nil, c.errorf(body, "foreach needs a collection")
		}
		return &ast.Foreach{
			Collection: spec.Collection,
			Item:       spec.Item,
			Index:      spec.Index,
			Open:       spec.Open,
			Close:      spec.Close,
			Separator:  spec.Separator,
			Children:   children,
		}, nil
	case "where":
		children, err := c.nodes(body)
		if err != nil {
			return nil, err
		}
		return &ast.Where{Children: children}, nil
	case "set":
		children, err := c.nodes(body)
		if err != nil {
			return nil, err
		}
		return &ast.Set{Children: children}, nil
	case "trim":
		return c.trim(body)
	case "bind":
		var spec struct {
			Name  string `yaml:"name"`
			Value string `yaml:"value"`
		}
		if err := body.Decode(&spec); err != nil {
			return nil, c.errorf(body, "bind: %v", err)
		}
		if spec.Name == "" || spec.Value == "" {
			return nil, c.errorf(body, "bind needs a name and a value")
		}
		return &ast.Bind{Name: spec.Name, Expr: spec.Value}, nil
	case "include":
		if body.Kind != yaml.ScalarNode || body.Value == "" {
			return nil, c.errorf(body, "include takes a fragment id")
		}
		return &ast.Include{RefID: body.Value}, nil
	case "select":
		var spec struct {
			Projection yaml.Node `yaml:"projection"`
			Nodes      yaml.Node `yaml:"nodes"`
		}
		children, err := c.decodeWithNodes(body, &spec, &spec.Nodes)
		if err != nil {
			return nil, err
		}
		projection, err := c.nodes(&spec.Projection)
		if err != nil {
			return nil, err
		}
		if len(projection) == 0 {
			return nil, c.errorf(body, "select needs a projection")
		}
		return &ast.Select{Projection: projection, Children: children}, nil
	case "orderBy", "order_by":
		children, err := c.nodes(body)
		if err != nil {
			return nil, err
		}
		return &ast.OrderBy{Children: children}, nil
	}
	return nil, c.errorf(body, "unknown node %q", key)
}

// decodeWithNodes decodes body into spec and converts the node list held in nodes.
func (c *converter) decodeWithNodes(body *yaml.Node, spec any, nodes *yaml.Node) ([]ast.Node, error) {
	if body.Kind != yaml.MappingNode {
		return nil, c.errorf(body, "expected a mapping")
	}
	if err := body.Decode(spec); err != nil {
		return nil, c.errorf(body, "%v", err)
	}
	return c.nodes(nodes)
}

func (c *converter) param(body *yaml.Node) (ast.Node, error) {
	if body.Kind == yaml.ScalarNode {
		p, err := ast.NewPlaceholder(body.Value)
		if err != nil {
			return nil, c.errorf(body, "%v", err)
		}
		return p, nil
	}
	var spec struct {
		Path     string    `yaml:"path"`
		Default  yaml.Node `yaml:"default"`
		JDBCType string    `yaml:"jdbcType"`
	}
	if err := body.Decode(&spec); err != nil {
		return nil, c.errorf(body, "param: %v", err)
	}
	p, err := ast.NewPlaceholder(spec.Path)
	if err != nil {
		return nil, c.errorf(body, "%v", err)
	}
	p.JDBCType = spec.JDBCType
	if spec.Default.Kind != 0 {
		var raw any
		if err := spec.Default.Decode(&raw); err != nil {
			return nil, c.errorf(&spec.Default, "param default: %v", err)
		}
		def, err := value.FromAny(raw)
		if err != nil {
			return nil, c.errorf(&spec.Default, "param default: %v", err)
		}
		p = p.WithDefault(def)
	}
	return p, nil
}

func (c *converter) choose(body *yaml.Node) (ast.Node, error) {
	var spec struct {
		When []struct {
			Test  string    `yaml:"test"`
			Nodes yaml.Node `yaml:"nodes"`
		} `yaml:"when"`
		Otherwise yaml.Node `yaml:"otherwise"`
	}
	if err := body.Decode(&spec); err != nil {
		return nil, c.errorf(body, "choose: %v", err)
	}
	if len(spec.When) == 0 {
		return nil, c.errorf(body, "choose needs at least one when")
	}
	out := &ast.Choose{}
	for _, w := range spec.When {
		if w.Test == "" {
			return nil, c.errorf(body, "when needs a test")
		}
		children, err := c.nodes(&w.Nodes)
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, ast.When{Test: w.Test, Children: children})
	}
	if spec.Otherwise.Kind != 0 {
		children, err := c.nodes(&spec.Otherwise)
		if err != nil {
			return nil, err
		}
		out.Otherwise = &ast.Otherwise{Children: children}
	}
	return out, nil
}

func (c *converter) trim(body *yaml.Node) (ast.Node, error) {
	var spec struct {
		Prefix          string    `yaml:"prefix"`
		Suffix          string    `yaml:"suffix"`
		PrefixOverrides yaml.Node `yaml:"prefixOverrides"`
		SuffixOverrides yaml.Node `yaml:"suffixOverrides"`
		Nodes           yaml.Node `yaml:"nodes"`
	}
	children, err := c.decodeWithNodes(body, &spec, &spec.Nodes)
	if err != nil {
		return nil, err
	}
	prefixes, err := c.overrides(&spec.PrefixOverrides)
	if err != nil {
		return nil, err
	}
	suffixes, err := c.overrides(&spec.SuffixOverrides)
	if err != nil {
		return nil, err
	}
	return &ast.Trim{
		Prefix:          spec.Prefix,
		Suffix:          spec.Suffix,
		PrefixOverrides: prefixes,
		SuffixOverrides: suffixes,
		Children:        children,
	}, nil
}

// overrides accepts a list or a pipe separated string such as "AND |OR ".
func (c *converter) overrides(n *yaml.Node) ([]string, error) {
	var raw []string
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		raw = strings.Split(n.Value, "|")
	case yaml.SequenceNode:
		if err := n.Decode(&raw); err != nil {
			return nil, c.errorf(n, "overrides: %v", err)
		}
	default:
		return nil, c.errorf(n, "overrides must be a string or a list")
	}
	out := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	}
	return "scalar"
}
