package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type SQLiteConnector struct {
	db *sql.DB
}

func NewSQLiteConnector(ctx context.Context, path string) (*SQLiteConnector, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &SQLiteConnector{db: db}, nil
}

// DB exposes the handle so callers can inspect pool stats.
func (c *SQLiteConnector) DB() *sql.DB {
	return c.db
}

func (c *SQLiteConnector) Acquire(ctx context.Context) (Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqliteSession{conn: conn}, nil
}

func (c *SQLiteConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteConnector) Close() {
	c.db.Close()
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) Query(ctx context.Context, query string) (*models.ResultSet, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	columns := uniqueColumns(names)

	result := &models.ResultSet{Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func (s *sqliteSession) Release() {
	s.conn.Close()
}
