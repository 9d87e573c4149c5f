// Package registry holds the compiled statements of every loaded mapper.
//
// A Builder collects statements at load time. Build validates them and returns a
// Registry that is never mutated again, so it can be shared by any number of goroutines
// without locking.
package registry

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlmap/ast"
)

type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	// KindSQL marks a reusable fragment.
	KindSQL
)

var kindNames = map[Kind]string{
	KindSelect: "select",
	KindInsert: "insert",
	KindUpdate: "update",
	KindDelete: "delete",
	KindSQL:    "sql",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind accepts the kind names case-insensitively.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("registry: unknown statement kind %q", s)
}

// Statement is one compiled statement or fragment.
type Statement struct {
	Namespace string
	ID        string
	Kind      Kind
	Root      ast.Node
}

// Key is the fully qualified "namespace.id" name.
func (s Statement) Key() string { return key(s.Namespace, s.ID) }

func key(ns, id string) string {
	if ns == "" {
		return id
	}
	return ns + "." + id
}
