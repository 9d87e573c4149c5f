// Package loader reads mapper documents written in YAML and adds their statements to
// a registry builder.
//
// A document names a namespace and lists fragments and statements. Each carries a
// list of nodes. A plain string is static SQL in which #{path} marks a bound
// parameter; a single-key mapping is a dynamic node:
//
//	namespace: users
//	fragments:
//	  - id: columns
//	    nodes: ["id, name, email"]
//	statements:
//	  - id: search
//	    kind: select
//	    nodes:
//	      - select:
//	          projection: [{include: columns}]
//	          nodes:
//	            - FROM users
//	            - where:
//	                - if: {test: "name != null", nodes: ["AND name = #{name}"]}
//	            - orderBy: [name]
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/registry"
)

type document struct {
	Namespace  string  `yaml:"namespace"`
	Fragments  []entry `yaml:"fragments"`
	Statements []entry `yaml:"statements"`
}

type entry struct {
	ID    string    `yaml:"id"`
	Kind  string    `yaml:"kind"`
	Nodes yaml.Node `yaml:"nodes"`
}

// Load reads one document from r.
func Load(b *registry.Builder, r io.Reader) error {
	return load(b, r, "")
}

// LoadFile reads one document from path.
func LoadFile(b *registry.Builder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return load(b, f, path)
}

// LoadGlob loads every file matching the patterns, in lexical order, and returns the
// number of files read. A pattern matching nothing is an error.
func LoadGlob(b *registry.Builder, patterns ...string) (int, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return 0, fmt.Errorf("mapper pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return 0, fmt.Errorf("no mapper files match %q", pattern)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		if seen[file] {
			continue
		}
		seen[file] = true
		if err := LoadFile(b, file); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

func load(b *registry.Builder, r io.Reader, file string) error {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return &Error{File: file, Err: errors.New("empty document")}
		}
		return &Error{File: file, Err: err}
	}
	var doc document
	if err := root.Decode(&doc); err != nil {
		return &Error{File: file, Err: err}
	}
	if doc.Namespace == "" {
		return &Error{File: file, Line: root.Line, Err: errors.New("namespace is required")}
	}

	c := &converter{file: file}
	for _, e := range doc.Fragments {
		if err := c.add(b, doc.Namespace, e, registry.KindSQL); err != nil {
			return err
		}
	}
	for _, e := range doc.Statements {
		kind := registry.KindSelect
		if e.Kind != "" {
			k, err := registry.ParseKind(e.Kind)
			if err != nil {
				return c.errorf(&e.Nodes, "statement %s: %v", e.ID, err)
			}
			kind = k
		}
		if err := c.add(b, doc.Namespace, e, kind); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) add(b *registry.Builder, namespace string, e entry, kind registry.Kind) error {
	if e.ID == "" {
		return c.errorf(&e.Nodes, "entry without id")
	}
	nodes, err := c.nodes(&e.Nodes)
	if err != nil {
		return err
	}
	stmt := registry.Statement{Namespace: namespace, ID: e.ID, Kind: kind, Root: ast.NewFragment(nodes...)}
	if err := b.Add(stmt); err != nil {
		return &Error{File: c.file, Line: e.Nodes.Line, Err: err}
	}
	return nil
}
