package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/querygate"
	"github.com/rs/zerolog"
)

func newSQLiteAdapter(t *testing.T, readOnly bool) (*Adapter, *SQLiteConnector) {
	t.Helper()
	ctx := context.Background()

	connector, err := NewSQLiteConnector(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteConnector failed: %v", err)
	}
	t.Cleanup(connector.Close)

	logger := zerolog.Nop()
	return NewAdapter(querygate.NewKeywordGate(readOnly, nil), connector, 0, &logger), connector
}

func seed(t *testing.T, c *SQLiteConnector) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, updated_at TEXT)`,
		`INSERT INTO users (id, name, updated_at) VALUES (1, 'ada', '2024-01-01'), (2, 'linus', NULL)`,
	}
	for _, s := range stmts {
		if _, err := c.DB().Exec(s); err != nil {
			t.Fatalf("seed %q failed: %v", s, err)
		}
	}
}

func TestSQLite_DeniedStatementOpensNoConnection(t *testing.T) {
	adapter, connector := newSQLiteAdapter(t, true)

	_, err := adapter.Execute(context.Background(), "DROP TABLE users")
	if !errors.Is(err, models.ErrStatementNotAllowed) {
		t.Fatalf("error: %v, want StatementNotAllowed", err)
	}

	if open := connector.DB().Stats().OpenConnections; open != 0 {
		t.Errorf("OpenConnections: %d, want 0", open)
	}
}

func TestSQLite_SelectMaterializesRows(t *testing.T) {
	adapter, connector := newSQLiteAdapter(t, true)
	seed(t, connector)

	result, err := adapter.Execute(context.Background(), "SELECT id, name, updated_at FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(result.Columns) != 3 || result.Columns[0] != "id" || result.Columns[2] != "updated_at" {
		t.Errorf("Columns: %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Rows: %d, want 2", len(result.Rows))
	}
	if result.Rows[0]["name"] != "ada" {
		t.Errorf("first row name: %v", result.Rows[0]["name"])
	}
	if result.Rows[1]["updated_at"] != nil {
		t.Errorf("NULL should map to nil, got %v", result.Rows[1]["updated_at"])
	}

	if inUse := connector.DB().Stats().InUse; inUse != 0 {
		t.Errorf("InUse after success: %d, want 0", inUse)
	}
}

func TestSQLite_DuplicateColumnsKeepEveryValue(t *testing.T) {
	adapter, _ := newSQLiteAdapter(t, true)

	result, err := adapter.Execute(context.Background(), "SELECT 1 AS id, 2 AS id")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(result.Columns) != 2 || result.Columns[0] != "id" || result.Columns[1] != "id_2" {
		t.Errorf("Columns: %v, want [id id_2]", result.Columns)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("Rows: %d, want 1", len(result.Rows))
	}
	if result.Rows[0]["id"] != int64(1) || result.Rows[0]["id_2"] != int64(2) {
		t.Errorf("row: %v", result.Rows[0])
	}
}

func TestUniqueColumns(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{in: []string{"a", "b"}, want: []string{"a", "b"}},
		{in: []string{"id", "id", "id"}, want: []string{"id", "id_2", "id_3"}},
		{in: []string{"id", "id", "id_2"}, want: []string{"id", "id_3", "id_2"}},
		{in: []string{}, want: []string{}},
	}
	for _, tt := range tests {
		got := uniqueColumns(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("uniqueColumns(%v) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("uniqueColumns(%v) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestSQLite_ReleasesOnEveryPath(t *testing.T) {
	adapter, connector := newSQLiteAdapter(t, true)
	seed(t, connector)
	ctx := context.Background()

	queries := []struct {
		sql      string
		wantKind models.ErrorKind
	}{
		{sql: "SELECT * FROM users WHERE id = 42"},
		{sql: "SELEC * FROM users", wantKind: models.KindExecutionFailure},
		{sql: "SELECT * FROM missing_table", wantKind: models.KindExecutionFailure},
		{sql: "SELECT name FROM users"},
	}

	for _, q := range queries {
		_, err := adapter.Execute(ctx, q.sql)
		if models.KindOf(err) != q.wantKind {
			t.Errorf("Execute(%q) kind: %v, want %v (err=%v)", q.sql, models.KindOf(err), q.wantKind, err)
		}
		if inUse := connector.DB().Stats().InUse; inUse != 0 {
			t.Errorf("Execute(%q) leaked a connection: InUse=%d", q.sql, inUse)
		}
	}
}

func TestSQLite_WritableModeRunsMutations(t *testing.T) {
	adapter, connector := newSQLiteAdapter(t, false)
	seed(t, connector)
	ctx := context.Background()

	if _, err := adapter.Execute(ctx, "DELETE FROM users WHERE id = 2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	result, err := adapter.Execute(ctx, "SELECT COUNT(*) AS n FROM users")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if result.Rows[0]["n"] != int64(1) {
		t.Errorf("count: %v, want 1", result.Rows[0]["n"])
	}
}

func TestOpen_SQLiteSchemes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, dsn := range []string{"sqlite://" + filepath.Join(dir, "a.db"), "file:" + filepath.Join(dir, "b.db")} {
		c, err := Open(ctx, dsn)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", dsn, err)
		}
		if err := c.Ping(ctx); err != nil {
			t.Errorf("Ping(%q) failed: %v", dsn, err)
		}
		c.Close()
	}
}
