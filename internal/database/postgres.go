package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
)

type PostgresConnector struct {
	pool *pgxpool.Pool
}

func NewPostgresConnector(ctx context.Context, dsn string) (*PostgresConnector, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresConnector{pool: pool}, nil
}

func (c *PostgresConnector) Acquire(ctx context.Context) (Session, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &postgresSession{conn: conn}, nil
}

func (c *PostgresConnector) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *PostgresConnector) Close() {
	c.pool.Close()
}

type postgresSession struct {
	conn *pgxpool.Conn
}

func (s *postgresSession) Query(ctx context.Context, sql string) (*models.ResultSet, error) {
	rows, err := s.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	columns := uniqueColumns(names)

	result := &models.ResultSet{Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizePostgresValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	// Rows errors catch
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func (s *postgresSession) Release() {
	s.conn.Release()
}

func normalizePostgresValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return normalizeValue(v)
	}
}
