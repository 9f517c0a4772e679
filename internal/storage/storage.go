package storage

import (
	"regtest/internal/config"
	"regtest/internal/domain"
)

// Storage persists and loads test run results (e.g. for the failures viewer
// and --failed reruns).
type Storage interface {
	Save(output *domain.TestResultsOutput) error
	Load() (*domain.TestResultsOutput, error)
	// SaveOutput writes the full output (e.g. after resolved marks change).
	SaveOutput(output *domain.TestResultsOutput) error
}

// JSONStorage stores results in a JSON file under the configured state dir.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
