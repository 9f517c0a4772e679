package config

import "time"

const (
	// DefaultPackage is the package root searched for test modules
	DefaultPackage = "tests"
	// DefaultCase matches every test module
	DefaultCase = "*"
	// DefaultReportsDir is recreated at the start of every run
	DefaultReportsDir = "reports"
	// DefaultRegressionDir holds gold, test and temp trees for every test
	DefaultRegressionDir = "regression"
	// DefaultStateDir keeps the results of the last run between invocations
	DefaultStateDir = ".regtest"
	// DefaultOutputJSONFile is the results file inside the state dir
	DefaultOutputJSONFile = "results.json"
	// DefaultConfigFile is read from the project root when present
	DefaultConfigFile = "regtest.yaml"
	// DefaultEnvFile is read from the project root when present
	DefaultEnvFile = ".env"
	// MaxParallelJobs caps the worker pool regardless of the CPU count
	MaxParallelJobs = 16
	// DefaultCoverMode is passed to go test -covermode
	DefaultCoverMode = "atomic"
	// DefaultGoBinary runs tests, builds and docs
	DefaultGoBinary = "go"
	// DefaultDatabasePrefix names the per-worker test databases
	DefaultDatabasePrefix = "regtest"
	// DefaultTestTimeout bounds a single module's go test run
	DefaultTestTimeout = 10 * time.Minute
	// DefaultJUnitTool converts verbose go test output to JUnit XML
	DefaultJUnitTool = "github.com/jstemmer/go-junit-report@v0.9.1"
	// DefaultCoberturaTool converts a coverprofile to Cobertura XML
	DefaultCoberturaTool = "github.com/t-yuki/gocover-cobertura@latest"
)

// DefaultSourceDirs are the packages under measurement (coverage, lint, docs, build)
var DefaultSourceDirs = []string{"install"}

// DefaultCoverageExcludeRules are fnmatch-style globs of files left out of coverage
var DefaultCoverageExcludeRules = []string{
	"*/vendor/*",
	"*/tests/*",
	"*/testdata/*",
	"*_test.go",
}

// DefaultLintCommand is run with the source package patterns appended
var DefaultLintCommand = []string{"go", "vet"}

// DefaultPathsToIgnore are the directories never descended into during discovery
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"testdata",
	DefaultReportsDir,
	DefaultRegressionDir,
	DefaultStateDir,
}
