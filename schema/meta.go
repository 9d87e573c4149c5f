package schema

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// FieldMeta describes one decodable field of a record type.
type FieldMeta struct {
	Name     string // column name from the tag, else the Go field name
	GoName   string
	Index    []int
	Type     reflect.Type
	Embedded bool // promoted from an embedded struct

	tagged bool
	hint   string
	conv   converter
}

// EntityMeta is the decoding plan for a record type.
type EntityMeta struct {
	Type   reflect.Type
	Fields []*FieldMeta

	exact      map[string]*FieldMeta
	normalized map[string]*FieldMeta

	// columns memoizes column name resolution, keyed by the raw column name.
	columns sync.Map
}

type columnMatch struct {
	field *FieldMeta
	exact bool
}

// isRecord reports whether t decodes column by column rather than as a single value.
func isRecord(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	switch t {
	case timeType, valueType:
		return false
	}
	return !reflect.PointerTo(t).Implements(scannerType)
}

func (d *Decoder) buildEntityMeta(t reflect.Type) *EntityMeta {
	meta := &EntityMeta{
		Type:       t,
		exact:      make(map[string]*FieldMeta),
		normalized: make(map[string]*FieldMeta),
	}
	d.collectFields(meta, t, nil, false, map[reflect.Type]bool{t: true})

	// Direct fields were collected first, so they win over promoted ones.
	for _, f := range meta.Fields {
		d.addKey(meta.exact, d.exactKey(f.Name), f)
	}
	for _, f := range meta.Fields {
		if d.naming != nil {
			d.addKey(meta.normalized, d.exactKey(d.naming.ColumnName(f.GoName)), f)
		}
		d.addKey(meta.normalized, normalizedKey(f.Name), f)
		d.addKey(meta.normalized, normalizedKey(f.GoName), f)
	}
	return meta
}

func (d *Decoder) addKey(keys map[string]*FieldMeta, key string, f *FieldMeta) {
	if _, taken := keys[key]; !taken {
		keys[key] = f
	}
}

func (d *Decoder) collectFields(meta *EntityMeta, t reflect.Type, prefix []int, promoted bool, seen map[reflect.Type]bool) {
	type embed struct {
		typ   reflect.Type
		index []int
	}
	var embeds []embed

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := parseTag(sf.Tag, d.tagName)
		if tag.Skip {
			continue
		}
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && tag.ColumnName == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if isRecord(ft) {
				if !seen[ft] {
					embeds = append(embeds, embed{typ: ft, index: index})
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		name := tag.ColumnName
		if name == "" {
			name = sf.Name
		}
		meta.Fields = append(meta.Fields, &FieldMeta{
			Name:     name,
			GoName:   sf.Name,
			Index:    index,
			Type:     sf.Type,
			Embedded: promoted,
			tagged:   tag.ColumnName != "",
			hint:     tag.Type,
			conv:     buildConverter(sf.Type, tag.Type),
		})
	}

	for _, e := range embeds {
		seen[e.typ] = true
		d.collectFields(meta, e.typ, e.index, true, seen)
	}
}

// match resolves a column to a field. Exact matches take priority over normalized ones.
func (d *Decoder) match(meta *EntityMeta, column string) columnMatch {
	if cached, ok := meta.columns.Load(column); ok {
		return cached.(columnMatch)
	}
	var m columnMatch
	if f, ok := meta.exact[d.exactKey(column)]; ok {
		m = columnMatch{field: f, exact: true}
	} else if d.normalize {
		if f, ok := meta.normalized[d.exactKey(column)]; ok {
			m = columnMatch{field: f}
		} else if f, ok := meta.normalized[normalizedKey(column)]; ok {
			m = columnMatch{field: f}
		}
	}
	meta.columns.Store(column, m)
	return m
}

func (d *Decoder) exactKey(s string) string {
	if d.caseSensitive {
		return s
	}
	return fold(s)
}

// normalizedKey ignores case and underscores, so user_id, userId and UserID agree.
func normalizedKey(s string) string {
	return fold(strings.ReplaceAll(toSnakeCase(s), "_", ""))
}

func sortedColumns(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// fieldByIndex walks to the field, allocating nil embedded pointers on the way.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
