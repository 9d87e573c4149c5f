// Package cache holds the engine's bounded caches: rendered plans for static statements
// and prepared driver statements.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/sqlmap/ast"
)

const DefaultPlanCacheSize = 512

// CachedQuery is the rendered form of a statement whose SQL does not depend on its
// parameters. Binding it only needs the placeholders, in marker order.
type CachedQuery struct {
	SQL          string
	ArgsOrder    []string
	Placeholders []*ast.Placeholder
}

type QueryCache interface {
	GetSQL(fingerprint uint64) (*CachedQuery, bool)
	SetSQL(fingerprint uint64, q *CachedQuery)
}

// PlanCache is an LRU QueryCache. It is safe for concurrent use.
type PlanCache struct {
	data *lru.Cache[uint64, *CachedQuery]
}

func NewPlanCache(size int) (*PlanCache, error) {
	if size <= 0 {
		size = DefaultPlanCacheSize
	}
	c, err := lru.New[uint64, *CachedQuery](size)
	if err != nil {
		return nil, err
	}
	return &PlanCache{data: c}, nil
}

func (c *PlanCache) GetSQL(f uint64) (*CachedQuery, bool) {
	return c.data.Get(f)
}

func (c *PlanCache) SetSQL(f uint64, q *CachedQuery) {
	c.data.Add(f, q)
}

func (c *PlanCache) Len() int { return c.data.Len() }

func (c *PlanCache) Purge() { c.data.Purge() }
