package schema

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

// converter stores a driver value into dst, which is always settable. A nil source
// stores the zero value.
type converter func(src any, dst reflect.Value) error

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	ulidType    = reflect.TypeOf(ulid.ULID{})
	rawJSONType = reflect.TypeOf(json.RawMessage(nil))
	bytesType   = reflect.TypeOf([]byte(nil))
	valueType   = reflect.TypeOf(value.Value{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// timeLayouts are tried before falling back to dateparse. They cover what the MySQL,
// SQLite and Postgres text protocols send.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func buildConverter(t reflect.Type, hint string) converter {
	switch t {
	case timeType:
		return convertTime
	case uuidType:
		return convertUUID
	case ulidType:
		return convertULID
	case rawJSONType:
		return convertRawJSON
	case bytesType:
		return convertBytes
	case valueType:
		return convertValue
	}

	if t.Kind() == reflect.Ptr {
		return buildPointerConverter(t, hint)
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		return convertScanner
	}
	if hint == "json" {
		return convertJSON
	}

	switch t.Kind() {
	case reflect.Bool:
		return convertBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return convertInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return convertUint
	case reflect.Float32, reflect.Float64:
		return convertFloat
	case reflect.String:
		return convertString
	case reflect.Interface:
		return convertInterface
	case reflect.Slice:
		return buildSliceConverter(t)
	case reflect.Map:
		return buildMapConverter(t)
	case reflect.Struct:
		return convertJSON
	}
	return convertAssignable
}

// driverValue unwraps driver.Valuer sources such as pgtype.Numeric to plain values.
func driverValue(src any) (any, error) {
	switch src.(type) {
	case nil, time.Time, []byte, string:
		return src, nil
	}
	if v, ok := src.(driver.Valuer); ok {
		return v.Value()
	}
	return src, nil
}

func setZero(dst reflect.Value) {
	dst.Set(reflect.Zero(dst.Type()))
}

func buildPointerConverter(t reflect.Type, hint string) converter {
	elem := buildConverter(t.Elem(), hint)
	return func(src any, dst reflect.Value) error {
		if src == nil {
			setZero(dst)
			return nil
		}
		p := reflect.New(t.Elem())
		if err := elem(src, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
}

func convertScanner(src any, dst reflect.Value) error {
	return dst.Addr().Interface().(sql.Scanner).Scan(src)
}

func convertValue(src any, dst reflect.Value) error {
	v, err := value.FromAny(src)
	if err != nil {
		return err
	}
	dst.Set(reflect.ValueOf(v))
	return nil
}

func convertInterface(src any, dst reflect.Value) error {
	if src == nil {
		setZero(dst)
		return nil
	}
	sv := reflect.ValueOf(src)
	if !sv.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
	}
	dst.Set(sv)
	return nil
}

func convertAssignable(src any, dst reflect.Value) error {
	if src == nil {
		setZero(dst)
		return nil
	}
	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(dst.Type()):
		dst.Set(sv)
	case sv.Kind() == dst.Kind() && sv.Type().ConvertibleTo(dst.Type()):
		dst.Set(sv.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot convert %T to %s", src, dst.Type())
	}
	return nil
}

func convertBool(src any, dst reflect.Value) error {
	src, err := driverValue(src)
	if err != nil {
		return err
	}
	if src == nil {
		setZero(dst)
		return nil
	}
	b, err := asBool(src)
	if err != nil {
		return err
	}
	dst.SetBool(b)
	return nil
}

func asBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(v)))
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0, nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", src)
}

func convertInt(src any, dst reflect.Value) error {
	src, err := driverValue(src)
	if err != nil {
		return err
	}
	if src == nil {
		setZero(dst)
		return nil
	}
	i, err := asInt64(src)
	if err != nil {
		return err
	}
	if dst.OverflowInt(i) {
		return fmt.Errorf("value %d overflows %s", i, dst.Type())
	}
	dst.SetInt(i)
	return nil
}

func asInt64(src any) (int64, error) {
	switch v := src.(type) {
	case string:
		return parseInt(v)
	case []byte:
		return parseInt(string(v))
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	}
	return 0, fmt.Errorf("cannot convert %T to integer", src)
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as integer", s)
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v is not representable as an integer", f)
	}
	return int64(f), nil
}

func convertUint(src any, dst reflect.Value) error {
	src, err := driverValue(src)
	if err != nil {
		return err
	}
	if src == nil {
		setZero(dst)
		return nil
	}
	var u uint64
	switch v := src.(type) {
	case uint64:
		u = v
	case string, []byte:
		text := strings.TrimSpace(fmt.Sprintf("%s", v))
		u, err = strconv.ParseUint(text, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as unsigned integer", text)
		}
	default:
		i, err := asInt64(src)
		if err != nil {
			return err
		}
		if i < 0 {
			return fmt.Errorf("negative value %d for %s", i, dst.Type())
		}
		u = uint64(i)
	}
	if dst.OverflowUint(u) {
		return fmt.Errorf("value %d overflows %s", u, dst.Type())
	}
	dst.SetUint(u)
	return nil
}

func convertFloat(src any, dst reflect.Value) error {
	src, err := driverValue(src)
	if err != nil {
		return err
	}
	if src == nil {
		setZero(dst)
		return nil
	}
	var f float64
	switch v := src.(type) {
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		f, err = strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	default:
		rv := reflect.ValueOf(src)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		default:
			return fmt.Errorf("cannot convert %T to float", src)
		}
	}
	if err != nil {
		return fmt.Errorf("cannot parse %v as float", src)
	}
	if dst.OverflowFloat(f) {
		return fmt.Errorf("value %v overflows %s", f, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}

func convertString(src any, dst reflect.Value) error {
	src, err := driverValue(src)
	if err != nil {
		return err
	}
	if src == nil {
		setZero(dst)
		return nil
	}
	s, err := asString(src)
	if err != nil {
		return err
	}
	dst.SetString(s)
	return nil
}

func asString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", src)
}

func convertBytes(src any, dst reflect.Value) error {
	src, err := driverValue(src)
	if err != nil {
		return err
	}
	switch v := src.(type) {
	case nil:
		setZero(dst)
	case []byte:
		dst.SetBytes(append([]byte(nil), v...))
	case string:
		dst.SetBytes([]byte(v))
	case [16]byte:
		dst.SetBytes(v[:])
	default:
		return fmt.Errorf("cannot convert %T to []byte", src)
	}
	return nil
}

func convertTime(src any, dst reflect.Value) error {
	var t time.Time
	switch v := src.(type) {
	case nil:
		setZero(dst)
		return nil
	case time.Time:
		t = v
	case string:
		parsed, err := parseTime(v)
		if err != nil {
			return err
		}
		t = parsed
	case []byte:
		parsed, err := parseTime(string(v))
		if err != nil {
			return err
		}
		t = parsed
	default:
		return fmt.Errorf("cannot convert %T to time.Time", src)
	}
	dst.Set(reflect.ValueOf(t))
	return nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %q as time: %w", s, err)
	}
	return t, nil
}

func convertUUID(src any, dst reflect.Value) error {
	var id uuid.UUID
	switch v := src.(type) {
	case nil:
		setZero(dst)
		return nil
	case uuid.UUID:
		id = v
	case [16]byte:
		id = uuid.UUID(v)
	case []byte:
		if len(v) == 16 {
			copy(id[:], v)
			break
		}
		parsed, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		id = parsed
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		id = parsed
	default:
		return fmt.Errorf("cannot convert %T to uuid", src)
	}
	dst.Set(reflect.ValueOf(id))
	return nil
}

func convertULID(src any, dst reflect.Value) error {
	var id ulid.ULID
	switch v := src.(type) {
	case nil:
		setZero(dst)
		return nil
	case ulid.ULID:
		id = v
	case [16]byte:
		id = ulid.ULID(v)
	case []byte:
		if len(v) == 16 {
			copy(id[:], v)
			break
		}
		parsed, err := parseULID(string(v))
		if err != nil {
			return err
		}
		id = parsed
	case string:
		parsed, err := parseULID(v)
		if err != nil {
			return err
		}
		id = parsed
	default:
		return fmt.Errorf("cannot convert %T to ulid", src)
	}
	dst.Set(reflect.ValueOf(id))
	return nil
}

// parseULID accepts the Crockford text form and, for ULIDs stored in uuid columns, the
// uuid text form.
func parseULID(s string) (ulid.ULID, error) {
	if id, err := ulid.ParseStrict(s); err == nil {
		return id, nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("cannot parse %q as ulid", s)
	}
	return ulid.ULID(u), nil
}

func convertRawJSON(src any, dst reflect.Value) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		setZero(dst)
		return nil
	case []byte:
		raw = append([]byte(nil), v...)
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	if !json.Valid(raw) {
		return errors.New("column does not hold valid JSON")
	}
	dst.SetBytes(raw)
	return nil
}

// convertJSON decodes JSON text, or an already decoded JSON value as returned by pgx,
// into dst.
func convertJSON(src any, dst reflect.Value) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		setZero(dst)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cannot convert %T to %s", src, dst.Type())
		}
		raw = b
	}
	ptr := reflect.New(dst.Type())
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return err
	}
	dst.Set(ptr.Elem())
	return nil
}

func buildSliceConverter(t reflect.Type) converter {
	elem := buildConverter(t.Elem(), "")
	return func(src any, dst reflect.Value) error {
		switch src.(type) {
		case nil:
			setZero(dst)
			return nil
		case []byte, string:
			return convertJSON(src, dst)
		}
		sv := reflect.ValueOf(src)
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			return fmt.Errorf("cannot convert %T to %s", src, t)
		}
		out := reflect.MakeSlice(t, sv.Len(), sv.Len())
		for i := 0; i < sv.Len(); i++ {
			if err := elem(sv.Index(i).Interface(), out.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	}
}

func buildMapConverter(t reflect.Type) converter {
	if t.Key().Kind() != reflect.String {
		return convertAssignable
	}
	elem := buildConverter(t.Elem(), "")
	return func(src any, dst reflect.Value) error {
		switch src.(type) {
		case nil:
			setZero(dst)
			return nil
		case []byte, string:
			return convertJSON(src, dst)
		}
		sv := reflect.ValueOf(src)
		if sv.Kind() != reflect.Map || sv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("cannot convert %T to %s", src, t)
		}
		out := reflect.MakeMapWithSize(t, sv.Len())
		iter := sv.MapRange()
		for iter.Next() {
			item := reflect.New(t.Elem()).Elem()
			if err := elem(iter.Value().Interface(), item); err != nil {
				return fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			out.SetMapIndex(iter.Key().Convert(t.Key()), item)
		}
		dst.Set(out)
		return nil
	}
}
