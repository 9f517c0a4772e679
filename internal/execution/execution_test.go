package execution

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"regtest/internal/config"
	"regtest/internal/domain"
	"regtest/internal/parser"
)

type fakeRunner struct {
	mu      sync.Mutex
	order   []string
	active  int
	peak    int
	failing map[string]bool
	delay   time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, module domain.TestModule, workerID int) domain.TestResult {
	f.mu.Lock()
	f.order = append(f.order, module.Name)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return domain.TestResult{Module: module, Success: !f.failing[module.Name], WorkerID: workerID}
}

type fakeProgress struct {
	updates  int
	finished bool
}

func (p *fakeProgress) Update(completed, passed, failed int) { p.updates++ }
func (p *fakeProgress) Finish()                              { p.finished = true }

func testModules(names ...string) []domain.TestModule {
	var modules []domain.TestModule
	for _, n := range names {
		modules = append(modules, domain.TestModule{
			Name:       n,
			RelDir:     "tests/install/" + n,
			Sequential: strings.HasPrefix(n, "test_sequential_"),
		})
	}
	return modules
}

func TestWorkerCount(t *testing.T) {
	tests := []struct {
		requested, modules, expected int
	}{
		{requested: 16, modules: 3, expected: 3},
		{requested: 4, modules: 10, expected: 4},
		{requested: 64, modules: 100, expected: config.MaxParallelJobs},
		{requested: 0, modules: 5, expected: 1},
		{requested: 8, modules: 0, expected: 1},
	}
	for _, tt := range tests {
		if got := WorkerCount(tt.requested, tt.modules); got != tt.expected {
			t.Errorf("WorkerCount(%d, %d) = %d, expected %d", tt.requested, tt.modules, got, tt.expected)
		}
	}
}

func TestNewPlan(t *testing.T) {
	plan := NewPlan(testModules("test_a", "test_sequential_db", "test_b"), 16)
	if len(plan.Sequential) != 1 || plan.Sequential[0].Name != "test_sequential_db" {
		t.Errorf("unexpected sequential modules: %v", plan.Sequential)
	}
	if len(plan.Parallel) != 2 || plan.Workers != 2 || plan.Total() != 3 {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestWorkerPool_Execute(t *testing.T) {
	runner := &fakeRunner{delay: 20 * time.Millisecond, failing: map[string]bool{"test_b": true}}
	progress := &fakeProgress{}
	pool := NewWorkerPool(runner, nil, 2)
	pool.SetProgress(progress)

	results, _, err := pool.Execute(context.Background(), testModules("test_c", "test_sequential_x", "test_a", "test_b", "test_sequential_y"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if results[0].Module.Name != "test_a" || results[4].Module.Name != "test_sequential_y" {
		t.Errorf("results not sorted: %v, %v", results[0].Module.Name, results[4].Module.Name)
	}
	if runner.order[0] != "test_sequential_x" || runner.order[1] != "test_sequential_y" {
		t.Errorf("sequential modules did not run first: %v", runner.order)
	}
	if runner.peak > 2 {
		t.Errorf("expected at most 2 concurrent modules, got %d", runner.peak)
	}
	if progress.updates != 5 || !progress.finished {
		t.Errorf("unexpected progress: %+v", progress)
	}
}

func TestWorkerPool_Execute_failFast(t *testing.T) {
	runner := &fakeRunner{failing: map[string]bool{"test_sequential_x": true}}
	pool := NewWorkerPool(runner, parser.NewGoTestParser(), 4)
	pool.SetFailFast(true)

	results, _, err := pool.Execute(context.Background(), testModules("test_a", "test_b", "test_sequential_x"))
	if err != nil {
		t.Fatalf("fail-fast is not an error, got %v", err)
	}
	if len(results) != 1 || results[0].Module.Name != "test_sequential_x" {
		t.Errorf("expected only the failing module, got %v", results)
	}
}

func TestWorkerPool_Execute_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewWorkerPool(&fakeRunner{}, nil, 4)

	results, _, err := pool.Execute(ctx, testModules("test_a", "test_b"))
	if err == nil {
		t.Error("expected the context error")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunner_Args(t *testing.T) {
	cfg := config.New()
	cfg.ProjectRoot = "/repo"
	cfg.ModulePath = "example.com/app"
	cfg.TestTimeout = time.Minute
	module := domain.TestModule{Name: "test_check", RelDir: "tests/install/test_check"}

	r := NewRunner(cfg, parser.NewGoTestParser(), nil)
	got := strings.Join(r.Args(module), " ")
	if got != "test -json -v -count=1 -p 1 -timeout 1m0s ./tests/install/test_check" {
		t.Errorf("unexpected args: %s", got)
	}

	cfg.Flags.Coverage = true
	got = strings.Join(r.Args(module), " ")
	want := "-covermode atomic -coverpkg example.com/app/install/... -coverprofile /repo/reports/coverage/cover.tests_install_test_check.out ./tests/install/test_check"
	if !strings.HasSuffix(got, want) {
		t.Errorf("unexpected args: %s", got)
	}
}
