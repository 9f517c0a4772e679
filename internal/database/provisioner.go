package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"regtest/internal/config"
	"regtest/internal/domain"
	"regtest/internal/printing"
)

// Progress receives updates as fixtures are applied
type Progress interface {
	Update(completed, passed, failed int)
	Finish()
}

// Execer runs SQL statements.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Provisioner prepares one database per worker and loads the SQL fixtures
// into each, all workers in parallel.
type Provisioner struct {
	config   *config.Config
	manager  *Manager
	log      *printing.Logger
	progress Progress
}

// NewProvisioner creates a new Provisioner
func NewProvisioner(cfg *config.Config, manager *Manager, log *printing.Logger) *Provisioner {
	return &Provisioner{config: cfg, manager: manager, log: log}
}

// SetProgress sets the progress reporter, advanced once per applied fixture.
func (p *Provisioner) SetProgress(progress Progress) {
	p.progress = progress
}

// FindFixtures lists the .sql files of the schema dir in name order. A
// missing or unset dir has no fixtures.
func (p *Provisioner) FindFixtures() ([]string, error) {
	if p.config.Database.SchemaDir == "" {
		return nil, nil
	}
	dir := p.config.Database.SchemaDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.config.ProjectRoot, dir)
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run creates the databases of workers 1..workerCount and applies the
// fixtures to each. With fresh set, existing databases are recreated.
func (p *Provisioner) Run(ctx context.Context, workerCount int, fresh bool) ([]domain.ProvisionResult, error) {
	server, err := p.manager.Open(ctx, "")
	if err != nil {
		return nil, err
	}
	names, err := p.manager.EnsureDatabases(ctx, server, workerCount, fresh)
	server.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to check databases: %w", err)
	}

	fixtures, err := p.FindFixtures()
	if err != nil {
		return nil, fmt.Errorf("failed to find fixtures: %w", err)
	}
	p.log.Infof("Workers: %d | Fixture files: %d", len(names), len(fixtures))

	startTime := time.Now()
	results := p.applyAll(ctx, names, fixtures, func(ctx context.Context, dbName string) (Execer, func() error, error) {
		db, err := p.manager.Open(ctx, dbName)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	})

	var failed []domain.ProvisionResult
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		for _, r := range failed {
			p.log.Errorf("worker %d (DB: %s): %v", r.WorkerID, r.Database, r.Error)
		}
		return results, fmt.Errorf("provisioning failed for %d worker(s)", len(failed))
	}
	p.log.Successf("✓ Databases ready for all %d workers (%s)", len(names), time.Since(startTime).Round(time.Millisecond))
	return results, nil
}

type opener func(ctx context.Context, dbName string) (Execer, func() error, error)

func (p *Provisioner) applyAll(ctx context.Context, names, fixtures []string, open opener) []domain.ProvisionResult {
	var mu sync.Mutex
	completed, failedCount := 0, 0
	step := func(ok bool) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if !ok {
			failedCount++
		}
		if p.progress != nil {
			p.progress.Update(completed, completed-failedCount, failedCount)
		}
	}

	results := make([]domain.ProvisionResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = p.provision(ctx, i+1, name, fixtures, open, step)
		}(i, name)
	}
	wg.Wait()
	if p.progress != nil {
		p.progress.Finish()
	}
	return results
}

func (p *Provisioner) provision(ctx context.Context, workerID int, dbName string, fixtures []string, open opener, step func(bool)) domain.ProvisionResult {
	result := domain.ProvisionResult{WorkerID: workerID, Database: dbName}
	db, closeDB, err := open(ctx, dbName)
	if err != nil {
		result.Error = err
		return result
	}
	defer closeDB()

	for _, f := range fixtures {
		if err := applyFixture(ctx, db, f); err != nil {
			step(false)
			result.Error = err
			return result
		}
		step(true)
		result.Fixtures++
	}
	result.Success = true
	return result
}

func applyFixture(ctx context.Context, db Execer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
