package registry

import (
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/sqlmap/ast"
)

// Registry is the immutable result of Builder.Build.
type Registry struct {
	byKey      map[string]Statement
	namespaces map[string][]string
}

func newRegistry(statements map[string]Statement) *Registry {
	r := &Registry{
		byKey:      make(map[string]Statement, len(statements)),
		namespaces: make(map[string][]string),
	}
	for k, s := range statements {
		r.byKey[k] = s
		r.namespaces[s.Namespace] = append(r.namespaces[s.Namespace], s.ID)
	}
	for _, ids := range r.namespaces {
		sort.Strings(ids)
	}
	return r
}

func (r *Registry) Lookup(namespace, id string) (Statement, bool) {
	s, ok := r.byKey[key(namespace, id)]
	return s, ok
}

// LookupKey looks a statement up by its "namespace.id" name.
func (r *Registry) LookupKey(k string) (Statement, bool) {
	s, ok := r.byKey[k]
	return s, ok
}

// Fragment resolves an include reference made from namespace. A reference names an id
// in the same namespace or, failing that, a fully qualified "namespace.id".
func (r *Registry) Fragment(namespace, ref string) (Statement, bool) {
	if s, ok := r.byKey[key(namespace, ref)]; ok {
		return s, true
	}
	if strings.Contains(ref, ".") {
		if s, ok := r.byKey[ref]; ok {
			return s, true
		}
	}
	return Statement{}, false
}

// ResolveFragment implements visitor.FragmentResolver.
func (r *Registry) ResolveFragment(namespace, ref string) (string, ast.Node, bool) {
	s, ok := r.Fragment(namespace, ref)
	if !ok {
		return "", nil, false
	}
	return s.Namespace, s.Root, true
}

func (r *Registry) Namespaces() []string {
	out := make([]string, 0, len(r.namespaces))
	for ns := range r.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Statements returns the statements of namespace sorted by id.
func (r *Registry) Statements(namespace string) []Statement {
	ids := r.namespaces[namespace]
	out := make([]Statement, len(ids))
	for i, id := range ids {
		out[i] = r.byKey[key(namespace, id)]
	}
	return out
}

func (r *Registry) Len() int { return len(r.byKey) }
