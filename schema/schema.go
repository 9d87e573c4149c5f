// Package schema decodes result rows, delivered as column name to driver value maps,
// into typed Go values.
package schema

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
)

const DefaultCacheSize = 256

// Decoder maps rows onto Go types. Plans are built once per type and cached, so a
// Decoder is safe for concurrent use.
type Decoder struct {
	naming        ColumnNamingStrategy
	tagName       string
	caseSensitive bool
	normalize     bool
	cacheSize     int

	entityCache *lru.Cache[reflect.Type, *EntityMeta]
}

type Option func(*Decoder)

// WithNamingStrategy sets the strategy used to derive a column name from a field name
// during the normalized matching pass.
func WithNamingStrategy(strategy ColumnNamingStrategy) Option {
	return func(d *Decoder) { d.naming = strategy }
}

// WithTagName sets the struct tag holding column names. Defaults to "db".
func WithTagName(tagName string) Option {
	return func(d *Decoder) { d.tagName = tagName }
}

// WithCaseSensitive disables case folding in the exact matching pass.
func WithCaseSensitive(sensitive bool) Option {
	return func(d *Decoder) { d.caseSensitive = sensitive }
}

// WithNormalization toggles the second matching pass, which ignores case and underscores.
func WithNormalization(enabled bool) Option {
	return func(d *Decoder) { d.normalize = enabled }
}

// WithCacheSize sets the LRU size for type plans.
func WithCacheSize(size int) Option {
	return func(d *Decoder) { d.cacheSize = size }
}

func New(options ...Option) *Decoder {
	d := &Decoder{
		naming:    NewColumnNamingStrategy(ColumnSnakeCase),
		tagName:   "db",
		normalize: true,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.cacheSize <= 0 {
		d.cacheSize = DefaultCacheSize
	}
	// lru.New only fails on a non-positive size.
	d.entityCache, _ = lru.New[reflect.Type, *EntityMeta](d.cacheSize)
	return d
}

var defaultDecoder = New()

// Default returns the shared decoder with default options.
func Default() *Decoder {
	return defaultDecoder
}

// Introspect returns the decoding plan for a record type, building it on first use.
func (d *Decoder) Introspect(t reflect.Type) *EntityMeta {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if meta, ok := d.entityCache.Get(t); ok {
		return meta
	}
	meta := d.buildEntityMeta(t)
	d.entityCache.Add(t, meta)
	return meta
}

func fold(s string) string {
	return cases.Fold().String(s)
}
