package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// renderLiteral handles the literals every dialect spells the same way. It reports false
// for values that need dialect-specific syntax.
func renderLiteral(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "NULL", true
	case string:
		return quoteString(val), true
	case bool:
		if val {
			return "TRUE", true
		}
		return "FALSE", true
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), true
	case time.Time:
		return quoteString(val.Format("2006-01-02 15:04:05.000000")), true
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			s, ok := renderLiteral(item)
			if !ok {
				return "", false
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", true
	case fmt.Stringer:
		return quoteString(val.String()), true
	}
	return "", false
}
