package domain

// ProvisionResult is the outcome of preparing one worker database
type ProvisionResult struct {
	WorkerID int
	Database string
	Success  bool
	Fixtures int // SQL fixture files applied
	Error    error
}
