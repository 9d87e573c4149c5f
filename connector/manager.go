package connector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/sqlmap/database"
)

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under name. Registering a name twice replaces
// the earlier provider.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[strings.ToLower(name)] = provider
}

// Providers lists registered driver names.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Provider, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[strings.ToLower(name)]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not registered (registered: %s)", name, strings.Join(Providers(), ", "))
	}
	return provider, nil
}

// Open connects through the named provider and pings the result, retrying per
// config.Retry. ConnectTimeout bounds each attempt.
func Open(ctx context.Context, name string, config Config) (*Connection, error) {
	provider, err := lookup(name)
	if err != nil {
		return nil, err
	}
	config = config.WithPoolDefaults()

	var db database.Database
	err = retry(ctx, config.Retry, func(ctx context.Context) error {
		if config.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
			defer cancel()
		}
		conn, err := provider.Connect(ctx, config)
		if err != nil {
			return err
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &Connection{Driver: strings.ToLower(name), Database: db, Dialect: provider.Dialect()}, nil
}
