package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlmap/value"
)

func mustLookup(t *testing.T, r *Registry, ns, id string) Statement {
	t.Helper()
	s, ok := r.Lookup(ns, id)
	require.True(t, ok, "%s.%s", ns, id)
	return s
}

func nullValue() value.Value { return value.Null() }
