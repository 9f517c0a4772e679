package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"regtest/internal/domain"
	"regtest/internal/parser"
)

// Summarize builds the stored output of a run: module and case counts, a
// fresh run ID, and the failures.
func Summarize(results []domain.TestResult, failures []domain.TestFailure, duration time.Duration, workers int) *domain.TestResultsOutput {
	p := parser.NewGoTestParser()
	meta := domain.TestResultsMeta{
		RunID:           uuid.New().String(),
		TotalModules:    len(results),
		Duration:        duration.String(),
		DurationSeconds: duration.Seconds(),
		Workers:         workers,
		Timestamp:       time.Now().Format(time.RFC3339),
	}
	for _, r := range results {
		if r.Module.Sequential {
			meta.SequentialModules++
		} else {
			meta.ParallelModules++
		}
		if r.Success {
			meta.PassedModules++
		} else {
			meta.FailedModules++
		}
		passed, failed, errored, skipped := p.ParseTestCounts(r)
		meta.PassedCases += passed
		meta.FailedCases += failed
		meta.ErroredCases += errored
		meta.SkippedCases += skipped
	}
	meta.TotalCases = meta.PassedCases + meta.FailedCases + meta.ErroredCases + meta.SkippedCases

	if failures == nil {
		failures = []domain.TestFailure{}
	}
	return &domain.TestResultsOutput{Meta: meta, Details: failures}
}

// FailedModules returns the package dirs of the unresolved failures,
// in the order they first appear.
func FailedModules(output *domain.TestResultsOutput) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, d := range output.Details {
		if d.Resolved || d.Package == "" || seen[d.Package] {
			continue
		}
		seen[d.Package] = true
		dirs = append(dirs, d.Package)
	}
	return dirs
}

// Save writes the output of a run to the configured JSON output file.
func (s *JSONStorage) Save(output *domain.TestResultsOutput) error {
	return s.SaveOutput(output)
}

// Load reads the last test results from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.TestResultsOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// SaveOutput writes the full output to the configured JSON file.
func (s *JSONStorage) SaveOutput(output *domain.TestResultsOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
