package execution

import (
	"context"
	"time"

	"regtest/internal/domain"
)

// Executor executes test modules and returns results
type Executor interface {
	Execute(ctx context.Context, modules []domain.TestModule) ([]domain.TestResult, time.Duration, error)
}

// ModuleRunner runs one test module on behalf of a worker
type ModuleRunner interface {
	Run(ctx context.Context, module domain.TestModule, workerID int) domain.TestResult
}

// Progress receives updates as modules complete
type Progress interface {
	Update(completed, passed, failed int)
	Finish()
}
