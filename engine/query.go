package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/sqlmap/database"
	"github.com/Konsultn-Engineering/sqlmap/page"
	"github.com/Konsultn-Engineering/sqlmap/schema"
	"github.com/Konsultn-Engineering/sqlmap/value"
)

// EvalTyped runs a statement and decodes the result into T. A slice T (other than
// []byte) receives every row, and so does value.Value, as an array of row objects that
// is empty when there are no rows. Any other T receives the single row, the zero value
// when there is none, and a shape mismatch when there are several.
func EvalTyped[T any](ctx context.Context, e *Engine, namespace, id string, params any) (T, error) {
	var zero T
	sql, args, err := e.Render(namespace, id, params)
	if err != nil {
		return zero, err
	}
	rows, err := e.query(ctx, sql, args)
	if err != nil {
		return zero, err
	}
	return decodeResult[T](e.decoder, rows)
}

// QueryRaw runs literal SQL and decodes it like EvalTyped.
func QueryRaw[T any](ctx context.Context, e *Engine, sql string, args ...any) (T, error) {
	var zero T
	rows, err := e.query(ctx, sql, args)
	if err != nil {
		return zero, err
	}
	return decodeResult[T](e.decoder, rows)
}

func decodeResult[T any](d *schema.Decoder, rows []database.Row) (T, error) {
	var out T
	if dyn, ok := any(&out).(*value.Value); ok {
		items := make([]value.Value, len(rows))
		for i, row := range rows {
			item, err := schema.DecodeRow[value.Value](d, row)
			if err != nil {
				return out, fmt.Errorf("row %d: %w", i, err)
			}
			items[i] = item
		}
		*dyn = value.Array(items...)
		return out, nil
	}

	t := reflect.TypeOf(&out).Elem()
	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		list := reflect.MakeSlice(t, len(rows), len(rows))
		for i, row := range rows {
			if err := d.Decode(row, list.Index(i).Addr().Interface()); err != nil {
				return out, fmt.Errorf("row %d: %w", i, err)
			}
		}
		reflect.ValueOf(&out).Elem().Set(list)
		return out, nil
	}

	switch len(rows) {
	case 0:
		return out, nil
	case 1:
		return schema.DecodeRow[T](d, rows[0])
	}
	return out, &schema.DecodeError{
		Kind:  schema.ShapeMismatch,
		Type:  t.String(),
		Cause: fmt.Errorf("expected at most one row, got %d", len(rows)),
	}
}

// SelectPage runs the count query of a statement and then, unless the total is zero
// or the page size is zero, the statement itself limited to the requested page.
func SelectPage[T any](ctx context.Context, e *Engine, namespace, id string, params any, req page.Request) (*page.Result[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	stmt, err := e.lookup(namespace, id)
	if err != nil {
		return nil, err
	}
	env, err := Env(params)
	if err != nil {
		return nil, err
	}

	count, err := e.evaluator.EvaluateCount(stmt.Namespace, stmt.Root, env)
	if err != nil {
		return nil, &page.Error{Stage: page.StageCount, Err: fmt.Errorf("%s: %w", stmt.Key(), err)}
	}
	countRows, err := e.query(ctx, count.SQL, count.Args())
	if err != nil {
		return nil, &page.Error{Stage: page.StageCount, Err: err}
	}
	var total int64
	if len(countRows) > 0 {
		if total, err = schema.DecodeRow[int64](e.decoder, countRows[0]); err != nil {
			return nil, &page.Error{Stage: page.StageCount, Err: err}
		}
	}

	result := page.NewResult[T](req, total)
	if total == 0 || req.Size == 0 {
		return result, nil
	}

	data, err := e.render(stmt, env)
	if err != nil {
		return nil, &page.Error{Stage: page.StageData, Err: fmt.Errorf("%s: %w", stmt.Key(), err)}
	}
	clause, limitArgs := e.dialect.LimitClause(len(data.Params)+1, req.Size, req.Offset())
	args := append(data.Args(), limitArgs...)

	rows, err := e.query(ctx, data.SQL+" "+clause, args)
	if err != nil {
		return nil, &page.Error{Stage: page.StageData, Err: err}
	}
	records, err := schema.DecodeRows[T](e.decoder, rows)
	if err != nil {
		return nil, &page.Error{Stage: page.StageData, Err: err}
	}
	result.Records = records
	return result, nil
}
