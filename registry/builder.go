package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/expr"
	"github.com/Konsultn-Engineering/sqlmap/value"
	"github.com/Konsultn-Engineering/sqlmap/visitor"
)

// Builder collects statements. A Builder may be filled from several goroutines, but
// Build must be called once, after every Add has returned.
type Builder struct {
	mu         sync.Mutex
	statements map[string]Statement
	order      []string
	built      bool
}

func NewBuilder() *Builder {
	return &Builder{statements: make(map[string]Statement)}
}

func (b *Builder) Add(s Statement) error {
	if s.ID == "" {
		return fmt.Errorf("registry: statement in namespace %q has no id", s.Namespace)
	}
	if s.Root == nil {
		return fmt.Errorf("registry: statement %q has no body", s.Key())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilt
	}
	k := s.Key()
	if _, exists := b.statements[k]; exists {
		return &DuplicateError{Key: k}
	}
	b.statements[k] = s
	b.order = append(b.order, k)
	return nil
}

// Build validates every statement and freezes the collection. Every include must
// resolve, includes must not form a cycle, and every test and bind expression must
// compile. All failures are reported together.
func (b *Builder) Build() (*Registry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrBuilt
	}

	r := newRegistry(b.statements)
	var errs []error
	for _, k := range b.order {
		if err := r.validate(r.byKey[k]); err != nil {
			errs = append(errs, &StatementError{Key: k, Err: err})
		}
	}
	if err := r.checkCycles(b.order); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	b.built = true
	return r, nil
}

func (r *Registry) validate(s Statement) error {
	var errs []error
	ast.Walk(s.Root, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Include:
			if _, _, ok := r.ResolveFragment(s.Namespace, n.RefID); !ok {
				errs = append(errs, &visitor.UnresolvedIncludeError{Namespace: s.Namespace, Ref: n.RefID})
			}
		case *ast.If:
			errs = appendCompile(errs, n.Test)
		case *ast.Choose:
			for _, w := range n.Whens {
				errs = appendCompile(errs, w.Test)
			}
		case *ast.Bind:
			errs = appendCompile(errs, n.Expr)
		case *ast.Foreach:
			if _, err := value.ParsePath(n.Collection); err != nil {
				errs = append(errs, fmt.Errorf("foreach collection %q: %w", n.Collection, err))
			}
		}
		return true
	})
	return errors.Join(errs...)
}

func appendCompile(errs []error, src string) []error {
	if _, err := expr.Compile(src); err != nil {
		return append(errs, err)
	}
	return errs
}

// includesOf returns the fully qualified keys included directly by s.
func (r *Registry) includesOf(s Statement) []string {
	var out []string
	ast.Walk(s.Root, func(n ast.Node) bool {
		if inc, ok := n.(*ast.Include); ok {
			if frag, ok := r.Fragment(s.Namespace, inc.RefID); ok {
				out = append(out, frag.Key())
			}
		}
		return true
	})
	return out
}

func (r *Registry) checkCycles(order []string) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(order))
	var stack []string

	var visit func(k string) error
	visit = func(k string) error {
		switch state[k] {
		case visiting:
			start := 0
			for i, s := range stack {
				if s == k {
					start = i
				}
			}
			chain := append(append([]string(nil), stack[start:]...), k)
			return &CycleError{Chain: chain}
		case done:
			return nil
		}
		state[k] = visiting
		stack = append(stack, k)
		for _, inc := range r.includesOf(r.byKey[k]) {
			if err := visit(inc); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[k] = done
		return nil
	}

	for _, k := range order {
		if err := visit(k); err != nil {
			return err
		}
	}
	return nil
}
