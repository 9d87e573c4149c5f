// Package builder declares mapper statements in Go code. It produces the same trees the
// YAML loader does, so statements from both sources can share a registry.
//
//	stmt, err := builder.Select("users", "search").
//		Text("SELECT id, name FROM users").
//		Where(builder.If("name != null", builder.Text("AND name = #{name}"))).
//		OrderBy(builder.Text("id")).
//		Build()
package builder

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/registry"
)

// StatementBuilder accumulates the top-level parts of one statement. Errors from
// parts are collected and reported by Build.
type StatementBuilder struct {
	namespace string
	id        string
	kind      registry.Kind
	parts     []Part
}

func newStatement(kind registry.Kind, namespace, id string) *StatementBuilder {
	return &StatementBuilder{namespace: namespace, id: id, kind: kind}
}

func Select(namespace, id string) *StatementBuilder {
	return newStatement(registry.KindSelect, namespace, id)
}

func Insert(namespace, id string) *StatementBuilder {
	return newStatement(registry.KindInsert, namespace, id)
}

func Update(namespace, id string) *StatementBuilder {
	return newStatement(registry.KindUpdate, namespace, id)
}

func Delete(namespace, id string) *StatementBuilder {
	return newStatement(registry.KindDelete, namespace, id)
}

// Fragment starts a reusable fragment for Include.
func Fragment(namespace, id string) *StatementBuilder {
	return newStatement(registry.KindSQL, namespace, id)
}

// Append adds parts in order.
func (b *StatementBuilder) Append(parts ...Part) *StatementBuilder {
	b.parts = append(b.parts, parts...)
	return b
}

// Text appends SQL text; #{path} markers become parameters.
func (b *StatementBuilder) Text(sql string) *StatementBuilder {
	return b.Append(Text(sql))
}

func (b *StatementBuilder) Where(parts ...Part) *StatementBuilder {
	return b.Append(Where(parts...))
}

func (b *StatementBuilder) Set(parts ...Part) *StatementBuilder {
	return b.Append(Set(parts...))
}

func (b *StatementBuilder) OrderBy(parts ...Part) *StatementBuilder {
	return b.Append(OrderBy(parts...))
}

func (b *StatementBuilder) Include(ref string) *StatementBuilder {
	return b.Append(Include(ref))
}

// Build assembles the statement. It does not resolve includes or compile
// expressions; registry.Builder.Build does that.
func (b *StatementBuilder) Build() (registry.Statement, error) {
	key := b.id
	if b.namespace != "" {
		key = b.namespace + "." + b.id
	}
	if b.id == "" {
		return registry.Statement{}, fmt.Errorf("builder: statement in namespace %q has no id", b.namespace)
	}
	if len(b.parts) == 0 {
		return registry.Statement{}, fmt.Errorf("builder: %s: statement has no body", key)
	}
	nodes, err := expand(b.parts)
	if err != nil {
		return registry.Statement{}, fmt.Errorf("builder: %s: %w", key, err)
	}
	return registry.Statement{
		Namespace: b.namespace,
		ID:        b.id,
		Kind:      b.kind,
		Root:      ast.NewFragment(nodes...),
	}, nil
}

// Register builds the statement and adds it to rb.
func (b *StatementBuilder) Register(rb *registry.Builder) error {
	stmt, err := b.Build()
	if err != nil {
		return err
	}
	return rb.Add(stmt)
}

// RegisterAll registers every builder and reports all failures together.
func RegisterAll(rb *registry.Builder, builders ...*StatementBuilder) error {
	var errs []error
	for _, b := range builders {
		if err := b.Register(rb); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
