package execution

import (
	"regtest/internal/config"
	"regtest/internal/discovery"
	"regtest/internal/domain"
)

// Plan is the order modules run in: every sequential module on a single
// worker first, then the parallel modules on the pool.
type Plan struct {
	Sequential []domain.TestModule
	Parallel   []domain.TestModule
	Workers    int
}

// NewPlan splits modules and sizes the pool for the parallel ones.
func NewPlan(modules []domain.TestModule, requested int) Plan {
	p := Plan{}
	p.Sequential, p.Parallel = discovery.Split(modules)
	p.Workers = WorkerCount(requested, len(p.Parallel))
	return p
}

// Total returns the number of modules in the plan.
func (p Plan) Total() int {
	return len(p.Sequential) + len(p.Parallel)
}

// WorkerCount caps the requested parallelism at the hard limit and at the
// number of modules. It is never below one.
func WorkerCount(requested, modules int) int {
	n := requested
	if n > config.MaxParallelJobs {
		n = config.MaxParallelJobs
	}
	if n > modules {
		n = modules
	}
	if n < 1 {
		n = 1
	}
	return n
}
