package domain

import "time"

// Case outcomes as reported by go test.
const (
	StatusPass = "pass"
	StatusFail = "fail"
	StatusSkip = "skip"
	// StatusError is a case that panicked or never finished.
	StatusError = "error"
)

// CaseResult is the outcome of one test function (or subtest).
type CaseResult struct {
	Name    string
	Status  string
	Elapsed time.Duration
	Output  []string
}

// TestResult is the outcome of running one module.
type TestResult struct {
	Module       TestModule
	Success      bool   // Whether go test exited cleanly
	Output       string // Raw go test -json stream
	Cases        []CaseResult
	Error        error // Set when go test could not run or build the module
	Duration     time.Duration
	CoverProfile string // Profile written for this module, if any
	WorkerID     int
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	RunID             string  `json:"run_id"`
	TotalModules      int     `json:"total_modules"`
	SequentialModules int     `json:"sequential_modules"`
	ParallelModules   int     `json:"parallel_modules"`
	PassedModules     int     `json:"passed_modules"`
	FailedModules     int     `json:"failed_modules"`
	TotalCases        int     `json:"total_cases"`
	PassedCases       int     `json:"passed_cases"`
	FailedCases       int     `json:"failed_cases"`
	ErroredCases      int     `json:"errored_cases"`
	SkippedCases      int     `json:"skipped_cases"`
	Duration          string  `json:"duration"`
	DurationSeconds   float64 `json:"duration_seconds"`
	Workers           int     `json:"workers"`
	Timestamp         string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Details []TestFailure   `json:"details"`
}
