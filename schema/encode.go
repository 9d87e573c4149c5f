package schema

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

// EncodeRow flattens a record into the row form drivers exchange: one entry per
// decodable field, keyed by its tag name or, when untagged, by the naming strategy.
// Values are limited to int64, float64, bool, string, []byte, time.Time and nil, so
// DecodeRow reads the row back into an equal record. Fields promoted through a nil
// embedded pointer are left out.
func (d *Decoder) EncodeRow(src any) (map[string]any, error) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, &DecodeError{Kind: ShapeMismatch, Type: fmt.Sprintf("%T", src), Cause: errors.New("nil record")}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || !isRecord(rv.Type()) {
		return nil, &DecodeError{Kind: ShapeMismatch, Type: fmt.Sprintf("%T", src), Cause: errors.New("not a record type")}
	}
	if !rv.CanAddr() {
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		rv = cp
	}

	meta := d.Introspect(rv.Type())
	row := make(map[string]any, len(meta.Fields))
	for _, f := range meta.Fields {
		fv, ok := readField(rv, f.Index)
		if !ok {
			continue
		}
		col := d.columnName(f)
		v, err := encodeValue(fv, f.hint)
		if err != nil {
			return nil, &DecodeError{Kind: TypeMismatch, Column: col, Type: f.Type.String(), Cause: err}
		}
		row[col] = v
	}
	return row, nil
}

// EncodeRows encodes every record in order.
func EncodeRows[T any](d *Decoder, records []T) ([]map[string]any, error) {
	if d == nil {
		d = defaultDecoder
	}
	rows := make([]map[string]any, len(records))
	for i := range records {
		row, err := d.EncodeRow(&records[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func (d *Decoder) columnName(f *FieldMeta) string {
	if f.tagged || d.naming == nil {
		return f.Name
	}
	return d.naming.ColumnName(f.GoName)
}

// readField walks to the field without allocating. It reports false when a nil
// embedded pointer lies on the way.
func readField(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

func encodeValue(v reflect.Value, hint string) (any, error) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch x := v.Interface().(type) {
	case time.Time:
		return x, nil
	case json.RawMessage:
		if x == nil {
			return nil, nil
		}
		return []byte(x), nil
	case []byte:
		if x == nil {
			return nil, nil
		}
		return append([]byte(nil), x...), nil
	case value.Value:
		if x.IsNull() {
			return nil, nil
		}
		return x.MarshalJSON()
	}

	if hint != "json" {
		if v.Type().Implements(valuerType) {
			return v.Interface().(driver.Valuer).Value()
		}
		if v.CanAddr() && v.Addr().Type().Implements(valuerType) {
			return v.Addr().Interface().(driver.Valuer).Value()
		}
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		return json.Marshal(v.Interface())
	case reflect.Array, reflect.Struct:
		return json.Marshal(v.Interface())
	}
	if hint == "json" {
		return json.Marshal(v.Interface())
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	}
	return nil, fmt.Errorf("cannot encode %s", v.Type())
}
