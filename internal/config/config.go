package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectRoot string `yaml:"-"`
	ModulePath  string `yaml:"-"`

	Package       string   `yaml:"package"`
	SourceDirs    []string `yaml:"source_dirs"`
	RegressionDir string   `yaml:"regression_dir"`
	PathsToIgnore []string `yaml:"paths_to_ignore"`

	// Output settings
	ReportsDir     string `yaml:"reports_dir"`
	StateDir       string `yaml:"state_dir"`
	OutputJSONFile string `yaml:"-"`

	// Execution settings
	Parallel             int           `yaml:"parallel"`
	GoBinary             string        `yaml:"go_binary"`
	CoverMode            string        `yaml:"cover_mode"`
	CoverageExcludeRules []string      `yaml:"coverage_exclude"`
	LintCommand          []string      `yaml:"lint_command"`
	TestTimeout          time.Duration `yaml:"test_timeout"`
	JUnitTool            string        `yaml:"junit_tool"`
	CoberturaTool        string        `yaml:"cobertura_tool"`

	Database Database `yaml:"database"`

	// Env holds the variables read from the project .env file. They are handed
	// to child processes explicitly and never exported into this process.
	Env map[string]string `yaml:"-"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Database holds the connection used to provision per-worker test databases
type Database struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Prefix    string `yaml:"prefix"`
	SchemaDir string `yaml:"schema_dir"`
}

// Flags holds command-line flags
type Flags struct {
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

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectRoot:    ".",
		Package:        DefaultPackage,
		RegressionDir:  DefaultRegressionDir,
		ReportsDir:     DefaultReportsDir,
		StateDir:       DefaultStateDir,
		OutputJSONFile: DefaultOutputJSONFile,
		Parallel:       MaxParallelJobs,
		GoBinary:       DefaultGoBinary,
		CoverMode:      DefaultCoverMode,
		TestTimeout:    DefaultTestTimeout,
		JUnitTool:      DefaultJUnitTool,
		CoberturaTool:  DefaultCoberturaTool,
		Database: Database{
			Host:   "127.0.0.1",
			Port:   "3306",
			User:   "root",
			Prefix: DefaultDatabasePrefix,
		},
		Env:   map[string]string{},
		Flags: Flags{Parallel: MaxParallelJobs, Package: DefaultPackage, Case: DefaultCase},
	}
	cfg.SourceDirs = append([]string(nil), DefaultSourceDirs...)
	cfg.CoverageExcludeRules = append([]string(nil), DefaultCoverageExcludeRules...)
	cfg.LintCommand = append([]string(nil), DefaultLintCommand...)
	cfg.PathsToIgnore = append([]string(nil), DefaultPathsToIgnore...)
	return cfg
}

// Load finds the project enclosing dir, then layers regtest.yaml and .env
// over the defaults.
func Load(dir string) (*Config, error) {
	cfg := New()

	root, modPath, err := FindProject(dir)
	if err != nil {
		return nil, err
	}
	cfg.ProjectRoot = root
	cfg.ModulePath = modPath

	if err := cfg.LoadFile(filepath.Join(root, DefaultConfigFile)); err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(filepath.Join(root, DefaultEnvFile)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays a YAML config file. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv reads a dotenv file into c.Env. A missing file is not an error.
// DB_* variables also override the database settings, the same variables the
// tests themselves read.
func (c *Config) LoadEnv(path string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for k, v := range env {
		c.Env[k] = v
	}

	if v := c.lookupEnv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := c.lookupEnv("DB_PORT"); v != "" {
		c.Database.Port = v
	}
	if v := c.lookupEnv("DB_USERNAME"); v != "" {
		c.Database.User = v
	}
	if v := c.lookupEnv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := c.lookupEnv("DB_DATABASE_PREFIX"); v != "" {
		c.Database.Prefix = v
	}
	return nil
}

func (c *Config) lookupEnv(key string) string {
	if v, ok := c.Env[key]; ok {
		return v
	}
	return os.Getenv(key)
}

// ApplyFlags copies parsed command-line flags over the loaded settings.
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Parallel > 0 {
		c.Parallel = flags.Parallel
	}
	if flags.Package != "" {
		c.Package = flags.Package
	}
	if flags.Timeout > 0 {
		c.TestTimeout = flags.Timeout
	}
}

// FindProject walks up from dir to the nearest go.mod and returns the
// directory holding it and the module path it declares.
func FindProject(dir string) (string, string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	for cur := abs; ; cur = filepath.Dir(cur) {
		goModPath := filepath.Join(cur, "go.mod")
		content, err := os.ReadFile(goModPath)
		if err == nil {
			modFile, err := modfile.Parse(goModPath, content, nil)
			if err != nil {
				return "", "", fmt.Errorf("failed to parse go.mod: %w", err)
			}
			if modFile.Module == nil || modFile.Module.Mod.Path == "" {
				return "", "", fmt.Errorf("could not find module name in %s", goModPath)
			}
			return cur, modFile.Module.Mod.Path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("failed to read go.mod: %w", err)
		}
		if filepath.Dir(cur) == cur {
			return "", "", fmt.Errorf("no go.mod found in %s or any parent directory", abs)
		}
	}
}

// PackagePath returns the directory searched for test modules. Dotted names
// ("tests.install") are accepted as well as slash-separated ones.
func (c *Config) PackagePath() string {
	pkg := c.Package
	if c.Flags.Package != "" {
		pkg = c.Flags.Package
	}
	if !strings.Contains(pkg, "/") {
		pkg = strings.ReplaceAll(pkg, ".", "/")
	}
	if filepath.IsAbs(pkg) {
		return pkg
	}
	return filepath.Join(c.ProjectRoot, filepath.FromSlash(pkg))
}

// Case returns the module name pattern, defaulting to every module.
func (c *Config) Case() string {
	if c.Flags.Case == "" {
		return DefaultCase
	}
	return c.Flags.Case
}

// ReportsPath returns the root of the reports tree.
func (c *Config) ReportsPath() string {
	return c.abs(c.ReportsDir)
}

// CoveragePath returns the directory for coverage data and reports.
func (c *Config) CoveragePath() string {
	return filepath.Join(c.ReportsPath(), "coverage")
}

// TestReportsPath returns the directory for JUnit XML reports.
func (c *Config) TestReportsPath() string {
	return filepath.Join(c.ReportsPath(), "tests")
}

// LintPath returns the directory for the lint report.
func (c *Config) LintPath() string {
	return filepath.Join(c.ReportsPath(), "lint")
}

// DocsPath returns the directory for plain-text docs.
func (c *Config) DocsPath() string {
	return filepath.Join(c.ReportsPath(), "docs")
}

// HTMLDocsPath returns the directory for the HTML API site.
func (c *Config) HTMLDocsPath() string {
	return filepath.Join(c.DocsPath(), "html")
}

// MetricsPath returns the directory for the Prometheus textfile.
func (c *Config) MetricsPath() string {
	return filepath.Join(c.ReportsPath(), "metrics")
}

// ReportDirs lists every directory of the reports tree, parents first.
func (c *Config) ReportDirs() []string {
	return []string{
		c.ReportsPath(),
		c.CoveragePath(),
		c.TestReportsPath(),
		c.LintPath(),
		c.DocsPath(),
		c.HTMLDocsPath(),
		c.MetricsPath(),
	}
}

// RegressionPath returns the regression base directory.
func (c *Config) RegressionPath() string {
	return c.abs(c.RegressionDir)
}

// GetOutputPath returns the full path to the results JSON file. It lives
// outside the reports tree so it survives the reset at the start of a run.
func (c *Config) GetOutputPath() string {
	return filepath.Join(c.abs(c.StateDir), c.OutputJSONFile)
}

// SourcePatterns returns the go package patterns for the source dirs.
func (c *Config) SourcePatterns() []string {
	patterns := make([]string, 0, len(c.SourceDirs))
	for _, dir := range c.SourceDirs {
		patterns = append(patterns, "./"+filepath.ToSlash(filepath.Clean(dir))+"/...")
	}
	return patterns
}

// CoverPkg returns the -coverpkg value covering the source dirs.
func (c *Config) CoverPkg() string {
	pkgs := make([]string, 0, len(c.SourceDirs))
	for _, dir := range c.SourceDirs {
		pkgs = append(pkgs, c.ModulePath+"/"+filepath.ToSlash(filepath.Clean(dir))+"/...")
	}
	return strings.Join(pkgs, ",")
}

// GetDatabaseName returns the database name for a worker
func (c *Config) GetDatabaseName(workerID int) string {
	prefix := c.Database.Prefix
	if prefix == "" {
		prefix = DefaultDatabasePrefix
	}
	return fmt.Sprintf("%s_%d", prefix, workerID)
}

// TestEnv returns the environment handed to test processes: the .env values
// plus the variables the golden package reads.
func (c *Config) TestEnv(workerID int) []string {
	env := make([]string, 0, len(c.Env)+3)
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"REGTEST_ROOT="+c.ProjectRoot,
		"REGTEST_REGRESSION_DIR="+c.RegressionPath(),
		fmt.Sprintf("REGTEST_WORKER=%d", workerID),
	)
	if c.Flags.DB {
		env = append(env, "DB_DATABASE="+c.GetDatabaseName(workerID))
	}
	return env
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectRoot, p)
}
