package domain

// Failure kinds. A failure is a reported check that did not hold; an error
// is a panic, a build failure or a module that did not finish.
const (
	KindFailure = "failure"
	KindError   = "error"
)

// TestFailure represents a failed or errored test case
type TestFailure struct {
	Module   string   `json:"module"`
	Package  string   `json:"package"`
	TestName string   `json:"test_name"`
	Kind     string   `json:"kind"`
	Message  string   `json:"message"`
	Output   []string `json:"output"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	DiffFile string   `json:"diff_file,omitempty"` // Comparison output of a golden log mismatch
	Resolved bool     `json:"resolved,omitempty"`  // Track if test case is marked as resolved
}

// IsError reports whether f is an error rather than a failure.
func (f TestFailure) IsError() bool {
	return f.Kind == KindError
}
