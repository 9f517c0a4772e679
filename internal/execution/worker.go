package execution

import (
	"context"
	"sort"
	"sync"
	"time"

	"regtest/internal/domain"
	"regtest/internal/parser"
)

// WorkerPool manages a pool of workers for parallel module execution
type WorkerPool struct {
	runner   ModuleRunner
	parser   *parser.GoTestParser
	progress Progress
	parallel int
	failFast bool
}

var _ Executor = (*WorkerPool)(nil)

// NewWorkerPool creates a new WorkerPool running up to parallel modules at
// a time.
func NewWorkerPool(runner ModuleRunner, goTestParser *parser.GoTestParser, parallel int) *WorkerPool {
	return &WorkerPool{
		runner:   runner,
		parser:   goTestParser,
		parallel: parallel,
	}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// SetFailFast stops dispatching modules after the first failing one.
func (wp *WorkerPool) SetFailFast(failFast bool) {
	wp.failFast = failFast
}

// Execute runs the sequential modules one by one and then the parallel
// modules on the pool. Results are sorted by module directory. The error is
// parent's when the run was cut short by a timeout or an interrupt.
func (wp *WorkerPool) Execute(parent context.Context, modules []domain.TestModule) ([]domain.TestResult, time.Duration, error) {
	if len(modules) == 0 {
		return nil, 0, nil
	}
	plan := NewPlan(modules, wp.parallel)
	startTime := time.Now()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	collected := &tally{pool: wp, cancel: cancel}
	wp.executeAll(ctx, plan.Sequential, 1, collected)
	wp.executeAll(ctx, plan.Parallel, plan.Workers, collected)

	if wp.progress != nil {
		wp.progress.Finish()
	}

	results := collected.results
	sort.Slice(results, func(i, j int) bool { return results[i].Module.RelDir < results[j].Module.RelDir })
	return results, time.Since(startTime), parent.Err()
}

// tally collects results and progress counts across workers.
type tally struct {
	mu          sync.Mutex
	pool        *WorkerPool
	cancel      context.CancelFunc
	results     []domain.TestResult
	completed   int
	passedCases int
	failedCases int
	stopped     bool
}

func (t *tally) add(result domain.TestResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.results = append(t.results, result)
	t.completed++
	if t.pool.parser != nil {
		p, f, e, _ := t.pool.parser.ParseTestCounts(result)
		t.passedCases += p
		t.failedCases += f + e
	} else if result.Success {
		t.passedCases++
	} else {
		t.failedCases++
	}
	if t.pool.progress != nil {
		t.pool.progress.Update(t.completed, t.passedCases, t.failedCases)
	}
	if t.pool.failFast && !result.Success {
		t.stopped = true
		t.cancel()
	}
}

func (wp *WorkerPool) executeAll(ctx context.Context, modules []domain.TestModule, workerCount int, t *tally) {
	if len(modules) == 0 || ctx.Err() != nil {
		return
	}

	moduleQueue := make(chan domain.TestModule)
	go func() {
		defer close(moduleQueue)
		for _, m := range modules {
			select {
			case <-ctx.Done():
				return
			case moduleQueue <- m:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for module := range moduleQueue {
				t.add(wp.runner.Run(ctx, module, workerID))
			}
		}(i)
	}
	wg.Wait()
}
