package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"regtest/internal/config"
	"regtest/internal/printing"
)

func TestIsValidDatabaseName(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"regtest_1", true},
		{"Tests_16", true},
		{"", false},
		{"bad-name", false},
		{"drop`table", false},
		{"a b", false},
		{strings.Repeat("a", 65), false},
	} {
		require.Equal(t, tt.want, IsValidDatabaseName(tt.name), tt.name)
	}
}

func TestDSN(t *testing.T) {
	cfg := config.New()
	cfg.Database.Host = "db.local"
	cfg.Database.Port = "3307"
	cfg.Database.User = "tester"
	cfg.Database.Password = "secret"

	parsed, err := mysql.ParseDSN(NewManager(cfg).DSN("regtest_2"))
	require.NoError(t, err)
	require.Equal(t, "tester", parsed.User)
	require.Equal(t, "secret", parsed.Passwd)
	require.Equal(t, "tcp", parsed.Net)
	require.Equal(t, "db.local:3307", parsed.Addr)
	require.Equal(t, "regtest_2", parsed.DBName)
	require.True(t, parsed.MultiStatements)
}

func TestFindFixtures(t *testing.T) {
	root := t.TempDir()
	schema := filepath.Join(root, "schema")
	require.NoError(t, os.MkdirAll(filepath.Join(schema, "nested.sql"), 0o755))
	for _, name := range []string{"02_data.sql", "01_tables.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(schema, name), []byte("SELECT 1;"), 0o644))
	}

	cfg := config.New()
	cfg.ProjectRoot = root
	cfg.Database.SchemaDir = "schema"
	p := NewProvisioner(cfg, NewManager(cfg), printing.Discard())

	files, err := p.FindFixtures()
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(schema, "01_tables.sql"),
		filepath.Join(schema, "02_data.sql"),
	}, files)

	cfg.Database.SchemaDir = "missing"
	files, err = p.FindFixtures()
	require.NoError(t, err)
	require.Empty(t, files)
}

type fakeExecer struct {
	mu      sync.Mutex
	queries []string
	failOn  string
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, errors.New("syntax error")
	}
	f.queries = append(f.queries, query)
	return nil, nil
}

type countingProgress struct {
	mu       sync.Mutex
	last     [3]int
	finished bool
}

func (c *countingProgress) Update(completed, passed, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = [3]int{completed, passed, failed}
}

func (c *countingProgress) Finish() { c.finished = true }

func TestApplyAll(t *testing.T) {
	dir := t.TempDir()
	tables := filepath.Join(dir, "01_tables.sql")
	data := filepath.Join(dir, "02_data.sql")
	empty := filepath.Join(dir, "03_empty.sql")
	require.NoError(t, os.WriteFile(tables, []byte("CREATE TABLE t (id INT);"), 0o644))
	require.NoError(t, os.WriteFile(data, []byte("INSERT INTO t VALUES (1);"), 0o644))
	require.NoError(t, os.WriteFile(empty, []byte("\n  \n"), 0o644))

	dbs := map[string]*fakeExecer{
		"regtest_1": {},
		"regtest_2": {failOn: "INSERT"},
	}
	var mu sync.Mutex
	open := func(_ context.Context, name string) (Execer, func() error, error) {
		mu.Lock()
		defer mu.Unlock()
		return dbs[name], func() error { return nil }, nil
	}

	progress := &countingProgress{}
	p := NewProvisioner(config.New(), nil, printing.Discard())
	p.SetProgress(progress)

	results := p.applyAll(context.Background(), []string{"regtest_1", "regtest_2"}, []string{tables, data, empty}, open)
	require.Len(t, results, 2)

	require.True(t, results[0].Success)
	require.Equal(t, 1, results[0].WorkerID)
	require.Equal(t, 3, results[0].Fixtures)
	require.Equal(t, []string{"CREATE TABLE t (id INT);", "INSERT INTO t VALUES (1);"}, dbs["regtest_1"].queries)

	require.False(t, results[1].Success)
	require.Equal(t, "regtest_2", results[1].Database)
	require.Equal(t, 1, results[1].Fixtures)
	require.ErrorContains(t, results[1].Error, "02_data.sql")

	require.Equal(t, [3]int{5, 4, 1}, progress.last)
	require.True(t, progress.finished)
}

func TestApplyAllOpenError(t *testing.T) {
	open := func(context.Context, string) (Execer, func() error, error) {
		return nil, nil, errors.New("connection refused")
	}
	p := NewProvisioner(config.New(), nil, printing.Discard())
	results := p.applyAll(context.Background(), []string{"regtest_1"}, nil, open)
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
	require.EqualError(t, results[0].Error, "connection refused")
}
