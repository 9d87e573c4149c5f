package cache

import (
	"context"
	"database/sql"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const DefaultStatementCacheSize = 256

// Preparer is satisfied by *sql.DB and *sql.Conn.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StatementCache keeps prepared statements keyed by SQL fingerprint. Evicted statements
// are closed. Concurrent misses on the same key prepare once.
type StatementCache struct {
	cache *lru.Cache[uint64, *sql.Stmt]
	group singleflight.Group
}

func NewStatementCache(size int) (*StatementCache, error) {
	if size <= 0 {
		size = DefaultStatementCacheSize
	}
	c, err := lru.NewWithEvict(size, func(_ uint64, stmt *sql.Stmt) {
		_ = stmt.Close()
	})
	if err != nil {
		return nil, err
	}
	return &StatementCache{cache: c}, nil
}

func (s *StatementCache) Get(key uint64) (*sql.Stmt, bool) {
	return s.cache.Get(key)
}

func (s *StatementCache) Set(key uint64, stmt *sql.Stmt) {
	s.cache.Add(key, stmt)
}

func (s *StatementCache) GetOrPrepare(ctx context.Context, key uint64, db Preparer, query string) (*sql.Stmt, error) {
	if stmt, ok := s.cache.Get(key); ok {
		return stmt, nil
	}

	v, err, _ := s.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		if stmt, ok := s.cache.Get(key); ok {
			return stmt, nil
		}
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, stmt)
		return stmt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.Stmt), nil
}

func (s *StatementCache) Len() int { return s.cache.Len() }

// Close closes every cached statement.
func (s *StatementCache) Close() error {
	s.cache.Purge()
	return nil
}
