package schema

import (
	"reflect"
	"strings"
)

// ParsedTag is the decoded form of a field's struct tag.
//
//	`db:"column_name"`          // column mapping
//	`db:"column:custom_name"`   // explicit column mapping
//	`db:"column:meta;type:json"`
//	`db:"-"`                    // never decoded
type ParsedTag struct {
	ColumnName string
	Skip       bool
	// Type is a storage type hint. "json" decodes text columns into the field with
	// encoding/json.
	Type string
}

func parseTag(tag reflect.StructTag, tagName string) ParsedTag {
	tagValue, ok := tag.Lookup(tagName)
	if !ok || tagValue == "" {
		return ParsedTag{}
	}
	if tagValue == "-" {
		return ParsedTag{Skip: true}
	}
	if !strings.ContainsAny(tagValue, ";:") {
		return ParsedTag{ColumnName: strings.TrimSpace(tagValue)}
	}

	var parsed ParsedTag
	for _, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		key, val, hasValue := strings.Cut(option, ":")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !hasValue {
			// a bare first option is the column name, as in `db:"name;type:json"`
			if parsed.ColumnName == "" && key != "" {
				parsed.ColumnName = key
			}
			continue
		}
		switch key {
		case "column", "name":
			parsed.ColumnName = val
		case "type":
			parsed.Type = strings.ToLower(val)
		default:
			// unknown options are ignored for forward compatibility
		}
	}
	return parsed
}
