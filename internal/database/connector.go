// Package database runs gated SQL statements against a Postgres or SQLite backend.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
)

//go:generate mockgen -source=connector.go -destination=mocks/mock_connector.go -package=mocks

// Connector hands out one Session per statement.
type Connector interface {
	Acquire(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close()
}

// Session is a single acquired connection. Release must be called exactly once.
type Session interface {
	Query(ctx context.Context, sql string) (*models.ResultSet, error)
	Release()
}

// Open picks a connector from the DSN scheme.
func Open(ctx context.Context, dsn string) (Connector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresConnector(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteConnector(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return NewSQLiteConnector(ctx, dsn)
	case dsn == "":
		return nil, fmt.Errorf("database url is empty")
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %s", redact(dsn))
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i+3] + "..."
	}
	return "..."
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}

// uniqueColumns keeps the first occurrence of each name and suffixes later
// duplicates (id, id_2, id_3) so no value is lost when rows become maps.
func uniqueColumns(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		if !seen[n] {
			seen[n] = true
			out[i] = n
			continue
		}
		candidate := n
		for suffix := 2; taken[candidate]; suffix++ {
			candidate = fmt.Sprintf("%s_%d", n, suffix)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}
