package schema

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

// Decode decodes one row into dst, which must be a non-nil pointer.
func (d *Decoder) Decode(row map[string]any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &DecodeError{Kind: ShapeMismatch, Type: fmt.Sprintf("%T", dst), Cause: errors.New("destination must be a non-nil pointer")}
	}
	return d.decodeInto(row, rv.Elem())
}

// DecodeRow decodes one row into a new T. A nil decoder uses Default.
func DecodeRow[T any](d *Decoder, row map[string]any) (T, error) {
	var out T
	if d == nil {
		d = defaultDecoder
	}
	err := d.decodeInto(row, reflect.ValueOf(&out).Elem())
	return out, err
}

// DecodeRows decodes every row in order. Zero rows yield an empty, non-nil slice.
func DecodeRows[T any](d *Decoder, rows []map[string]any) ([]T, error) {
	if d == nil {
		d = defaultDecoder
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		if err := d.decodeInto(row, reflect.ValueOf(&out[i]).Elem()); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

func (d *Decoder) decodeInto(row map[string]any, dst reflect.Value) error {
	t := dst.Type()
	switch {
	case t == valueType:
		v, err := value.FromAny(row)
		if err != nil {
			return &DecodeError{Kind: TypeMismatch, Type: t.String(), Cause: err}
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	case t.Kind() == reflect.Interface && t.NumMethod() == 0:
		dst.Set(reflect.ValueOf(copyRow(row)))
		return nil
	case t.Kind() == reflect.Map && t.Key().Kind() == reflect.String:
		return d.decodeMap(row, dst)
	case t.Kind() == reflect.Ptr && isRecord(t.Elem()):
		p := reflect.New(t.Elem())
		if err := d.decodeRecord(row, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case isRecord(t):
		return d.decodeRecord(row, dst)
	}
	return d.decodeScalar(row, dst)
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func (d *Decoder) decodeMap(row map[string]any, dst reflect.Value) error {
	t := dst.Type()
	conv := buildConverter(t.Elem(), "")
	out := reflect.MakeMapWithSize(t, len(row))
	for _, col := range sortedColumns(row) {
		item := reflect.New(t.Elem()).Elem()
		if err := conv(row[col], item); err != nil {
			return &DecodeError{Kind: TypeMismatch, Column: col, Type: t.Elem().String(), Cause: err}
		}
		out.SetMapIndex(reflect.ValueOf(col).Convert(t.Key()), item)
	}
	dst.Set(out)
	return nil
}

func (d *Decoder) decodeScalar(row map[string]any, dst reflect.Value) error {
	if len(row) != 1 {
		return &DecodeError{
			Kind:  ShapeMismatch,
			Type:  dst.Type().String(),
			Cause: fmt.Errorf("scalar target needs exactly one column, row has %d", len(row)),
		}
	}
	conv := buildConverter(dst.Type(), "")
	for col, v := range row {
		if err := conv(v, dst); err != nil {
			return &DecodeError{Kind: TypeMismatch, Column: col, Type: dst.Type().String(), Cause: err}
		}
	}
	return nil
}

// decodeRecord runs two passes so an exact column match is never displaced by a
// normalized one. Columns without a field are ignored.
func (d *Decoder) decodeRecord(row map[string]any, dst reflect.Value) error {
	meta := d.Introspect(dst.Type())
	cols := sortedColumns(row)

	assigned := make(map[*FieldMeta]bool, len(meta.Fields))
	var deferred []string
	for _, col := range cols {
		m := d.match(meta, col)
		if m.field == nil {
			continue
		}
		if !m.exact {
			deferred = append(deferred, col)
			continue
		}
		if assigned[m.field] {
			continue
		}
		if err := d.assign(dst, m.field, col, row[col]); err != nil {
			return err
		}
		assigned[m.field] = true
	}
	for _, col := range deferred {
		f := d.match(meta, col).field
		if assigned[f] {
			continue
		}
		if err := d.assign(dst, f, col, row[col]); err != nil {
			return err
		}
		assigned[f] = true
	}
	return nil
}

func (d *Decoder) assign(dst reflect.Value, f *FieldMeta, col string, src any) error {
	field := fieldByIndex(dst, f.Index)
	if err := f.conv(src, field); err != nil {
		return &DecodeError{Kind: TypeMismatch, Column: col, Type: f.Type.String(), Cause: err}
	}
	return nil
}
