package cli

import (
	"time"

	"regtest/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	Root         string
	Test         bool
	Coverage     bool
	Lint         bool
	Docs         bool
	Parallel     int
	Package      string
	Case         string
	FailFast     bool
	OnlyFailed   bool
	OpenFailures bool
	Timeout      time.Duration
	DB           bool
	Fresh        bool
	TestCases    bool
	Report       string
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Test:         f.Test,
		Coverage:     f.Coverage,
		Lint:         f.Lint,
		Docs:         f.Docs,
		Parallel:     f.Parallel,
		Package:      f.Package,
		Case:         f.Case,
		FailFast:     f.FailFast,
		OnlyFailed:   f.OnlyFailed,
		OpenFailures: f.OpenFailures,
		Timeout:      f.Timeout,
		DB:           f.DB,
		Fresh:        f.Fresh,
		TestCases:    f.TestCases,
		Report:       f.Report,
	}
}
