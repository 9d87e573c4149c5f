package value

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"
)

// FromAny converts a Go value into a Value. Primitives, maps with string keys and slices
// convert directly; anything else (structs, text marshalers) goes through encoding/json so
// json tags and custom marshalers are respected.
//
// Byte slices become strings when they hold valid UTF-8, which is how drivers deliver
// text columns. Other byte slices, binary columns, become their standard base64
// encoding, the form encoding/json uses for []byte.
func FromAny(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Value:
		if v == nil {
			return Null(), nil
		}
		return *v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return fromBytes(v), nil
	case json.Number:
		return fromNumberText(string(v))
	case json.RawMessage:
		return FromJSON(v)
	case time.Time:
		return String(v.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			c, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = c
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for k, item := range v {
			c, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			fields[k] = c
		}
		return Object(fields), nil
	}
	return fromReflect(reflect.ValueOf(x))
}

// MustFromAny is FromAny for values known to be convertible, such as test fixtures.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

func fromBytes(b []byte) Value {
	if utf8.Valid(b) {
		return String(string(b))
	}
	return String(base64.StdEncoding.EncodeToString(b))
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		if marshals(rv) {
			return viaJSON(rv.Interface())
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		if marshals(rv) {
			return viaJSON(rv.Interface())
		}
		items := make([]Value, rv.Len())
		for i := range items {
			c, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = c
		}
		return Array(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return viaJSON(rv.Interface())
		}
		if rv.IsNil() {
			return Null(), nil
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			c, err := FromAny(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", iter.Key().String(), err)
			}
			fields[iter.Key().String()] = c
		}
		return Object(fields), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		if marshals(rv) {
			return viaJSON(rv.Interface())
		}
		return String(rv.String()), nil
	}
	return viaJSON(rv.Interface())
}

func marshals(rv reflect.Value) bool {
	switch rv.Interface().(type) {
	case json.Marshaler, encoding.TextMarshaler:
		return true
	}
	return false
}

func viaJSON(x any) (Value, error) {
	b, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("value: cannot convert %T: %w", x, err)
	}
	return FromJSON(b)
}

// FromJSON decodes a JSON document into a Value, keeping integer precision.
func FromJSON(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

func fromNumberText(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("value: invalid number %q", s)
	}
	return Float(f), nil
}

func fromDecoded(x any) (Value, error) {
	switch v := x.(type) {
	case json.Number:
		return fromNumberText(string(v))
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			c, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = c
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for k, item := range v {
			c, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = c
		}
		return Object(fields), nil
	}
	return FromAny(x)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	c, err := fromDecoded(raw)
	if err != nil {
		return err
	}
	*v = c
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if !v.isInt && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
			return fmt.Errorf("value: cannot encode %v as JSON", v.f)
		}
		buf.WriteString(v.Text())
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.obj[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
