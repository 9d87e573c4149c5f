// Package visitor renders statement trees into parameterized SQL.
package visitor

import (
	"fmt"
	"strings"
	"sync"

	pluralizer "github.com/gertd/go-pluralize"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/cache"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/expr"
	"github.com/Konsultn-Engineering/sqlmap/value"
)

// CountAlias names the derived table when a count query wraps the full statement. It is
// quoted in the evaluator's dialect.
const CountAlias = "sqlmap_count"

var pluralizeClient = pluralizer.NewClient()

// FragmentResolver resolves include references. It returns the namespace the fragment
// was declared in, so nested includes resolve relative to it.
type FragmentResolver interface {
	ResolveFragment(namespace, ref string) (string, ast.Node, bool)
}

// Result is one rendered statement. Params are in marker order.
type Result struct {
	SQL    string
	Params []value.Value
	// Counted reports whether a Select node rendered the count projection. A count
	// render without one wraps the whole statement instead.
	Counted bool
}

// Args converts Params to driver values.
func (r Result) Args() []any {
	if len(r.Params) == 0 {
		return nil
	}
	out := make([]any, len(r.Params))
	for i, p := range r.Params {
		out[i] = p.Native()
	}
	return out
}

type Option func(*Evaluator)

func WithDialect(d dialect.Dialect) Option {
	return func(e *Evaluator) { e.dialect = d }
}

// WithExprCache shares compiled test expressions between evaluations.
func WithExprCache(c *expr.Cache) Option {
	return func(e *Evaluator) { e.exprs = c }
}

// Evaluator renders statements. It holds no per-call state and is safe for concurrent
// use.
type Evaluator struct {
	fragments FragmentResolver
	dialect   dialect.Dialect
	exprs     *expr.Cache
}

func New(fragments FragmentResolver, opts ...Option) *Evaluator {
	e := &Evaluator{fragments: fragments, dialect: dialect.NewPostgresDialect()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Dialect() dialect.Dialect { return e.dialect }

// Evaluate renders root against env.
func (e *Evaluator) Evaluate(namespace string, root ast.Node, env value.Value) (Result, error) {
	return e.run(namespace, root, env, false)
}

// EvaluateCount renders the companion count query of root. The outermost Select renders
// COUNT(1) in place of its projection and OrderBy nodes are dropped. Statements without
// exactly one outermost Select, or whose Select uses DISTINCT, aggregates, grouping or
// set operations, are wrapped in SELECT COUNT(1) FROM (...).
func (e *Evaluator) EvaluateCount(namespace string, root ast.Node, env value.Value) (Result, error) {
	res, err := e.run(namespace, root, env, true)
	if err != nil {
		return Result{}, err
	}
	if !res.Counted {
		res.SQL = "SELECT COUNT(1) FROM (" + res.SQL + ") " + e.dialect.QuoteIdentifier(CountAlias)
	}
	return res, nil
}

// Plan renders a static tree once, recording its placeholders in marker order. The
// result can be bound to any parameter tree with Bind.
func (e *Evaluator) Plan(namespace string, root ast.Node) (*cache.CachedQuery, error) {
	if !ast.IsStatic(root) {
		return nil, fmt.Errorf("visitor: statement is not static")
	}
	v := e.acquire(namespace, value.Null(), false)
	defer v.release()
	v.planning = true

	if err := root.Accept(v); err != nil {
		return nil, err
	}
	q := &cache.CachedQuery{
		SQL:          collapseSpace(joinParts(v.top())),
		Placeholders: append([]*ast.Placeholder(nil), v.planned...),
	}
	q.ArgsOrder = make([]string, len(q.Placeholders))
	for i, p := range q.Placeholders {
		q.ArgsOrder[i] = p.Path.String()
	}
	return q, nil
}

// Bind resolves the placeholders of a plan against env.
func Bind(q *cache.CachedQuery, env value.Value) ([]value.Value, error) {
	scope := value.Root(env)
	params := make([]value.Value, len(q.Placeholders))
	for i, p := range q.Placeholders {
		v, err := resolvePlaceholder(scope, p)
		if err != nil {
			return nil, err
		}
		params[i] = v
	}
	return params, nil
}

func resolvePlaceholder(scope *value.Scope, p *ast.Placeholder) (value.Value, error) {
	if v, ok := scope.Resolve(p.Path); ok {
		return v, nil
	}
	if p.Default != nil {
		return *p.Default, nil
	}
	return value.Value{}, &MissingParameterError{Path: p.Path.String()}
}

func (e *Evaluator) run(namespace string, root ast.Node, env value.Value, count bool) (Result, error) {
	v := e.acquire(namespace, env, count)
	defer v.release()
	if count {
		v.wrap = !v.countsInPlace(root)
	}

	if err := root.Accept(v); err != nil {
		return Result{}, err
	}
	return Result{
		SQL:     collapseSpace(joinParts(v.top())),
		Params:  append([]value.Value(nil), v.params...),
		Counted: v.counted,
	}, nil
}

var visitorPool = sync.Pool{
	New: func() any {
		return &SQLVisitor{
			params: make([]value.Value, 0, 8),
			frames: make([][]string, 0, 8),
		}
	},
}

// SQLVisitor is the per-call rendering state. Every node appends its text to the
// innermost frame; container nodes push a frame for their children and pop it to
// post-process the joined text.
type SQLVisitor struct {
	e         *Evaluator
	namespace string
	scope     *value.Scope
	frames    [][]string
	params    []value.Value
	planned   []*ast.Placeholder
	count     bool
	counted   bool
	wrap      bool
	planning  bool
	selects   int
	includes  int
}

func (e *Evaluator) acquire(namespace string, env value.Value, count bool) *SQLVisitor {
	v := visitorPool.Get().(*SQLVisitor)
	v.e = e
	v.namespace = namespace
	v.scope = value.Root(env).Child()
	v.count = count
	v.frames = append(v.frames[:0], nil)
	return v
}

func (v *SQLVisitor) release() {
	v.e = nil
	v.scope = nil
	v.frames = v.frames[:0]
	v.params = v.params[:0]
	v.planned = v.planned[:0]
	v.count, v.counted, v.wrap, v.planning = false, false, false, false
	v.selects, v.includes = 0, 0
	v.namespace = ""
	visitorPool.Put(v)
}

func (v *SQLVisitor) top() []string { return v.frames[len(v.frames)-1] }

func (v *SQLVisitor) emit(s string) {
	i := len(v.frames) - 1
	v.frames[i] = append(v.frames[i], s)
}

func (v *SQLVisitor) push() {
	v.frames = append(v.frames, nil)
}

func (v *SQLVisitor) pop() string {
	i := len(v.frames) - 1
	s := joinParts(v.frames[i])
	v.frames = v.frames[:i]
	return s
}

// renderChildren renders nodes in their own frame and returns the joined text.
func (v *SQLVisitor) renderChildren(nodes []ast.Node) (string, error) {
	v.push()
	for _, n := range nodes {
		if err := n.Accept(v); err != nil {
			v.pop()
			return "", err
		}
	}
	return v.pop(), nil
}

func (v *SQLVisitor) acceptAll(nodes []ast.Node) error {
	for _, n := range nodes {
		if err := n.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) program(src string) (*expr.Program, error) {
	if v.e.exprs != nil {
		return v.e.exprs.Compile(src)
	}
	return expr.Compile(src)
}

func (v *SQLVisitor) test(kind, src string) (bool, error) {
	p, err := v.program(src)
	if err != nil {
		return false, fmt.Errorf("%s test %q: %w", kind, src, err)
	}
	ok, err := p.EvalBool(v.scope)
	if err != nil {
		return false, fmt.Errorf("%s test %q: %w", kind, src, err)
	}
	return ok, nil
}

func (v *SQLVisitor) VisitStatic(n *ast.Static) error {
	v.emit(n.Text)
	return nil
}

func (v *SQLVisitor) VisitPlaceholder(n *ast.Placeholder) error {
	if v.planning {
		v.planned = append(v.planned, n)
		v.emit(v.e.dialect.Placeholder(len(v.planned)))
		return nil
	}
	val, err := resolvePlaceholder(v.scope, n)
	if err != nil {
		return err
	}
	v.params = append(v.params, val)
	v.emit(v.e.dialect.Placeholder(len(v.params)))
	return nil
}

func (v *SQLVisitor) VisitIf(n *ast.If) error {
	ok, err := v.test("if", n.Test)
	if err != nil || !ok {
		return err
	}
	return v.acceptAll(n.Children)
}

func (v *SQLVisitor) VisitChoose(n *ast.Choose) error {
	for _, w := range n.Whens {
		ok, err := v.test("when", w.Test)
		if err != nil {
			return err
		}
		if ok {
			return v.acceptAll(w.Children)
		}
	}
	if n.Otherwise != nil {
		return v.acceptAll(n.Otherwise.Children)
	}
	return nil
}

func (v *SQLVisitor) VisitForeach(n *ast.Foreach) error {
	path, err := value.ParsePath(n.Collection)
	if err != nil {
		return fmt.Errorf("foreach collection: %w", &expr.Error{
			Kind: expr.Syntax, Expr: n.Collection, Msg: err.Error(),
		})
	}
	coll, ok := v.scope.Resolve(path)
	if !ok || coll.IsNull() {
		return nil
	}

	type entry struct {
		index value.Value
		item  value.Value
	}
	var entries []entry
	switch coll.Kind() {
	case value.KindArray:
		for i, item := range coll.Items() {
			entries = append(entries, entry{index: value.Int(int64(i)), item: item})
		}
	case value.KindObject:
		for _, k := range coll.Keys() {
			item, _ := coll.Get(k)
			entries = append(entries, entry{index: value.String(k), item: item})
		}
	default:
		return fmt.Errorf("foreach collection: %w", &expr.Error{
			Kind: expr.TypeMismatch, Expr: n.Collection,
			Msg: fmt.Sprintf("cannot iterate over %s", coll.Kind()),
		})
	}
	if len(entries) == 0 {
		return nil
	}

	itemNames := []string{n.Item}
	if n.Item == "" {
		itemNames = []string{"item"}
		if last := path.Last(); last != "" && last != value.RootName {
			if singular := pluralizeClient.Singular(last); singular != last {
				itemNames = append(itemNames, singular)
			}
		}
	}
	indexName := n.Index
	if indexName == "" {
		indexName = "index"
	}

	outer := v.scope
	defer func() { v.scope = outer }()

	parts := make([]string, 0, len(entries))
	for _, ent := range entries {
		v.scope = outer.Child()
		for _, name := range itemNames {
			v.scope.Set(name, ent.item)
		}
		v.scope.Set(indexName, ent.index)

		s, err := v.renderChildren(n.Children)
		if err != nil {
			return err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	v.emit(n.Open + strings.Join(parts, n.Separator) + n.Close)
	return nil
}

func (v *SQLVisitor) VisitBind(n *ast.Bind) error {
	p, err := v.program(n.Expr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", n.Name, err)
	}
	val, err := p.Eval(v.scope)
	if err != nil {
		return fmt.Errorf("bind %s: %w", n.Name, err)
	}
	v.scope.Set(n.Name, val)
	return nil
}

func (v *SQLVisitor) VisitInclude(n *ast.Include) error {
	if v.e.fragments == nil {
		return &UnresolvedIncludeError{Namespace: v.namespace, Ref: n.RefID}
	}
	ns, frag, ok := v.e.fragments.ResolveFragment(v.namespace, n.RefID)
	if !ok {
		return &UnresolvedIncludeError{Namespace: v.namespace, Ref: n.RefID}
	}
	if v.includes >= MaxIncludeDepth {
		return &IncludeDepthError{Ref: n.RefID, Depth: MaxIncludeDepth}
	}

	outerNS := v.namespace
	v.namespace = ns
	v.includes++
	defer func() {
		v.namespace = outerNS
		v.includes--
	}()
	return frag.Accept(v)
}

func (v *SQLVisitor) trimmed(children []ast.Node, prefix, suffix string, prefixOverrides, suffixOverrides []string) error {
	body, err := v.renderChildren(children)
	if err != nil {
		return err
	}
	body = trimPrefixWord(body, prefixOverrides)
	body = trimSuffixWord(body, suffixOverrides)
	if body == "" {
		return nil
	}
	v.emit(joinParts([]string{prefix, body, suffix}))
	return nil
}

var (
	whereOverrides = []string{"AND", "OR"}
	setOverrides   = []string{","}
)

func (v *SQLVisitor) VisitWhere(n *ast.Where) error {
	return v.trimmed(n.Children, "WHERE", "", whereOverrides, nil)
}

func (v *SQLVisitor) VisitSet(n *ast.Set) error {
	return v.trimmed(n.Children, "SET", "", setOverrides, setOverrides)
}

func (v *SQLVisitor) VisitTrim(n *ast.Trim) error {
	return v.trimmed(n.Children, n.Prefix, n.Suffix, n.PrefixOverrides, n.SuffixOverrides)
}

// VisitSelect renders the projection. Only the outermost Select is replaced in count
// mode; nested Selects are subqueries and render as written.
func (v *SQLVisitor) VisitSelect(n *ast.Select) error {
	v.selects++
	defer func() { v.selects-- }()

	v.emit("SELECT")
	if v.count && !v.wrap && v.selects == 1 && !v.counted {
		v.counted = true
		v.emit("COUNT(1)")
	} else if err := v.acceptAll(n.Projection); err != nil {
		return err
	}
	return v.acceptAll(n.Children)
}

func (v *SQLVisitor) VisitOrderBy(n *ast.OrderBy) error {
	if v.count && v.selects <= 1 {
		return nil
	}
	body, err := v.renderChildren(n.Children)
	if err != nil || body == "" {
		return err
	}
	v.emit("ORDER BY " + body)
	return nil
}

func (v *SQLVisitor) VisitFragment(n *ast.Fragment) error {
	return v.acceptAll(n.Children)
}
