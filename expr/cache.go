package expr

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

const DefaultCacheSize = 1024

// Cache memoizes compiled programs by source text. Syntax errors are not cached.
type Cache struct {
	programs *lru.Cache[string, *Program]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Program](size)
	if err != nil {
		return nil, err
	}
	return &Cache{programs: c}, nil
}

// Compile returns the cached program for src, compiling it on a miss.
func (c *Cache) Compile(src string) (*Program, error) {
	if p, ok := c.programs.Get(src); ok {
		return p, nil
	}
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	c.programs.Add(src, p)
	return p, nil
}

func (c *Cache) EvaluateBoolean(src string, env value.Resolver) (bool, error) {
	p, err := c.Compile(src)
	if err != nil {
		return false, err
	}
	return p.EvalBool(env)
}

func (c *Cache) Evaluate(src string, env value.Resolver) (value.Value, error) {
	p, err := c.Compile(src)
	if err != nil {
		return value.Value{}, err
	}
	return p.Eval(env)
}

func (c *Cache) Len() int { return c.programs.Len() }
