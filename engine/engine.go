// Package engine runs registered statements against a database and decodes the
// results.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Konsultn-Engineering/sqlmap/ast"
	"github.com/Konsultn-Engineering/sqlmap/cache"
	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/expr"
	"github.com/Konsultn-Engineering/sqlmap/registry"
	"github.com/Konsultn-Engineering/sqlmap/schema"
	"github.com/Konsultn-Engineering/sqlmap/utils"
	"github.com/Konsultn-Engineering/sqlmap/value"
	"github.com/Konsultn-Engineering/sqlmap/visitor"
)

const (
	// DefaultDatabase names the datasource passed to New.
	DefaultDatabase = "default"

	DefaultPlanCacheSize = 512
	DefaultExprCacheSize = expr.DefaultCacheSize
)

type Engine struct {
	registry  *registry.Registry
	db        database.Database
	dbName    string
	databases map[string]database.Database

	dialect      dialect.Dialect
	logger       *slog.Logger
	decoder      *schema.Decoder
	queryTimeout time.Duration
	planSize     int
	exprSize     int

	evaluator *visitor.Evaluator
	plans     *cache.PlanCache
}

type Option func(*Engine)

// WithDialect sets the dialect statements render in. Defaults to Postgres.
func WithDialect(d dialect.Dialect) Option {
	return func(e *Engine) { e.dialect = d }
}

// WithLogger sets the logger for query records. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithDecoder(d *schema.Decoder) Option {
	return func(e *Engine) { e.decoder = d }
}

// WithPlanCache sets how many static statement plans are kept. Zero or less disables
// plan caching.
func WithPlanCache(size int) Option {
	return func(e *Engine) { e.planSize = size }
}

// WithExprCache sets how many compiled test expressions are kept.
func WithExprCache(size int) Option {
	return func(e *Engine) { e.exprSize = size }
}

// WithQueryTimeout bounds every driver call.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) { e.queryTimeout = d }
}

// WithDatabase registers an additional named datasource. Use selects it.
func WithDatabase(name string, db database.Database) Option {
	return func(e *Engine) { e.databases[name] = db }
}

// New creates an engine over a built registry. db may be nil for an engine that
// only renders.
func New(reg *registry.Registry, db database.Database, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:  reg,
		db:        db,
		dbName:    DefaultDatabase,
		databases: make(map[string]database.Database),
		dialect:   dialect.NewPostgresDialect(),
		logger:    slog.New(slog.DiscardHandler),
		decoder:   schema.Default(),
		planSize:  DefaultPlanCacheSize,
		exprSize:  DefaultExprCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if db != nil {
		e.databases[DefaultDatabase] = db
	}
	if e.decoder == nil {
		e.decoder = schema.Default()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	exprs, err := expr.NewCache(e.exprSize)
	if err != nil {
		return nil, fmt.Errorf("engine: expression cache: %w", err)
	}
	if e.planSize > 0 {
		if e.plans, err = cache.NewPlanCache(e.planSize); err != nil {
			return nil, fmt.Errorf("engine: plan cache: %w", err)
		}
	}
	e.evaluator = visitor.New(reg, visitor.WithDialect(e.dialect), visitor.WithExprCache(exprs))
	return e, nil
}

// Use returns an engine that runs statements on the named datasource. Everything else,
// including the dialect statements render in, is shared with e.
func (e *Engine) Use(name string) (*Engine, error) {
	db, ok := e.databases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}
	c := *e
	c.db, c.dbName = db, name
	return &c, nil
}

// DatabaseName names the datasource e runs on.
func (e *Engine) DatabaseName() string { return e.dbName }

func (e *Engine) Dialect() dialect.Dialect   { return e.dialect }
func (e *Engine) Registry() *registry.Registry { return e.registry }
func (e *Engine) Database() database.Database  { return e.db }

func (e *Engine) lookup(namespace, id string) (registry.Statement, error) {
	stmt, ok := e.registry.Lookup(namespace, id)
	if !ok {
		return registry.Statement{}, fmt.Errorf("%w: %s.%s", ErrStatementNotFound, namespace, id)
	}
	return stmt, nil
}

// Env converts caller parameters to a value tree. value.Value is used as is.
func Env(params any) (value.Value, error) {
	switch p := params.(type) {
	case nil:
		return value.Null(), nil
	case value.Value:
		return p, nil
	case *value.Value:
		if p == nil {
			return value.Null(), nil
		}
		return *p, nil
	}
	v, err := value.FromAny(params)
	if err != nil {
		return value.Value{}, fmt.Errorf("engine: parameters: %w", err)
	}
	return v, nil
}

// render evaluates stmt against env. Static statements are planned once and served
// from the plan cache afterwards.
func (e *Engine) render(stmt registry.Statement, env value.Value) (visitor.Result, error) {
	if e.plans == nil || !ast.IsStatic(stmt.Root) {
		return e.evaluator.Evaluate(stmt.Namespace, stmt.Root, env)
	}

	key := utils.NewHasher("plan").String(stmt.Key()).U64(stmt.Root.Fingerprint()).Sum()
	q, ok := e.plans.GetSQL(key)
	if !ok {
		planned, err := e.evaluator.Plan(stmt.Namespace, stmt.Root)
		if err != nil {
			return visitor.Result{}, err
		}
		e.plans.SetSQL(key, planned)
		q = planned
	}
	params, err := visitor.Bind(q, env)
	if err != nil {
		return visitor.Result{}, err
	}
	return visitor.Result{SQL: q.SQL, Params: params}, nil
}

// Render returns the SQL and driver arguments of a statement without running it.
func (e *Engine) Render(namespace, id string, params any) (string, []any, error) {
	stmt, err := e.lookup(namespace, id)
	if err != nil {
		return "", nil, err
	}
	env, err := Env(params)
	if err != nil {
		return "", nil, err
	}
	res, err := e.render(stmt, env)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", stmt.Key(), err)
	}
	return res.SQL, res.Args(), nil
}

// RenderCount returns the companion count query SelectPage would run.
func (e *Engine) RenderCount(namespace, id string, params any) (string, []any, error) {
	stmt, err := e.lookup(namespace, id)
	if err != nil {
		return "", nil, err
	}
	env, err := Env(params)
	if err != nil {
		return "", nil, err
	}
	res, err := e.evaluator.EvaluateCount(stmt.Namespace, stmt.Root, env)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", stmt.Key(), err)
	}
	return res.SQL, res.Args(), nil
}

// Exec runs an insert, update or delete and returns the rows affected.
func (e *Engine) Exec(ctx context.Context, namespace, id string, params any) (int64, error) {
	sql, args, err := e.Render(namespace, id, params)
	if err != nil {
		return 0, err
	}
	return e.exec(ctx, sql, args)
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout > 0 {
		return context.WithTimeout(ctx, e.queryTimeout)
	}
	return ctx, func() {}
}

func (e *Engine) query(ctx context.Context, sql string, args []any) ([]database.Row, error) {
	if e.db == nil {
		return nil, &DriverError{SQL: sql, Err: errNoDatabase}
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := database.Fetch(ctx, e.db, sql, args...)
	if err != nil {
		e.logger.ErrorContext(ctx, "query failed", "sql", sql, "params", len(args), "error", err)
		return nil, &DriverError{SQL: sql, Err: err}
	}
	e.logger.DebugContext(ctx, "query", "db", e.dbName, "sql", sql, "params", len(args), "rows", len(rows), "elapsed", time.Since(start))
	return rows, nil
}

func (e *Engine) exec(ctx context.Context, sql string, args []any) (int64, error) {
	if e.db == nil {
		return 0, &DriverError{SQL: sql, Err: errNoDatabase}
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := e.db.ExecContext(ctx, sql, args...)
	if err != nil {
		e.logger.ErrorContext(ctx, "exec failed", "sql", sql, "params", len(args), "error", err)
		return 0, &DriverError{SQL: sql, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &DriverError{SQL: sql, Err: err}
	}
	e.logger.DebugContext(ctx, "exec", "db", e.dbName, "sql", sql, "params", len(args), "rows", n, "elapsed", time.Since(start))
	return n, nil
}
