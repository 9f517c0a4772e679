package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"

	"regtest/internal/config"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// Manager manages the per-worker test databases
type Manager struct {
	config *config.Config
}

// NewManager creates a new Manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// DSN returns the connection string for dbName; an empty name connects to
// the server without selecting a database. Fixture files may hold several
// statements.
func (m *Manager) DSN(dbName string) string {
	c := mysql.NewConfig()
	c.User = m.config.Database.User
	c.Passwd = m.config.Database.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(m.config.Database.Host, m.config.Database.Port)
	c.DBName = dbName
	c.MultiStatements = true
	c.Timeout = 10 * time.Second
	return c.FormatDSN()
}

// Open connects to dbName and checks the connection.
func (m *Manager) Open(ctx context.Context, dbName string) (*sql.DB, error) {
	db, err := sql.Open("mysql", m.DSN(dbName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}
	return db, nil
}

// EnsureDatabases creates the databases of workers 1..workerCount that do
// not exist yet, dropping existing ones first when fresh is set. It returns
// the database names in worker order.
func (m *Manager) EnsureDatabases(ctx context.Context, db *sql.DB, workerCount int, fresh bool) ([]string, error) {
	names := make([]string, 0, workerCount)
	for i := 1; i <= workerCount; i++ {
		dbName := m.config.GetDatabaseName(i)
		if !IsValidDatabaseName(dbName) {
			return nil, fmt.Errorf("invalid database name: %s", dbName)
		}

		exists, err := databaseExists(ctx, db, dbName)
		if err != nil {
			return nil, fmt.Errorf("failed to check database %s: %w", dbName, err)
		}
		if exists && fresh {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE `%s`", dbName)); err != nil {
				return nil, fmt.Errorf("failed to drop database %s: %w", dbName, err)
			}
			exists = false
		}
		if !exists {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)); err != nil {
				return nil, fmt.Errorf("failed to create database %s: %w", dbName, err)
			}
		}
		names = append(names, dbName)
	}
	return names, nil
}

func databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// IsValidDatabaseName reports whether name can be quoted as an identifier
// without escaping.
func IsValidDatabaseName(name string) bool {
	return validName.MatchString(name)
}
