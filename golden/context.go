package golden

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"regtest/internal/config"
	"regtest/internal/logdiff"
	"regtest/internal/printing"
)

// Environment variables set by the regtest runner for every test process.
const (
	EnvRoot          = "REGTEST_ROOT"
	EnvRegressionDir = "REGTEST_REGRESSION_DIR"
)

// testPrefix is stripped from the leaf package directory.
const testPrefix = "test_"

// dirMu serializes creation of the shared test directory between the
// tests of one process.
var dirMu sync.Mutex

// Context is the identity and file layout of one test case. It is
// read-only once constructed.
type Context struct {
	name           string
	regressBaseDir string
	regressDir     string

	comparer *logdiff.Comparer
	log      *printing.Logger
}

// NewContext derives the layout for testName in the package directory
// pkgDir (relative to the project root, e.g. "tests/install/test_check")
// under the regression base directory.
func NewContext(regressBaseDir, pkgDir, testName string) (*Context, error) {
	regressDir, err := RegressDir(regressBaseDir, pkgDir)
	if err != nil {
		return nil, err
	}
	if testName == "" {
		return nil, errors.New("golden: empty test name")
	}
	log := printing.NewLogger(os.Stdout)
	return &Context{
		name:           strings.ReplaceAll(testName, "/", "_"),
		regressBaseDir: regressBaseDir,
		regressDir:     regressDir,
		comparer:       logdiff.New(log),
		log:            log,
	}, nil
}

// RegressDir maps a test package directory to its regression directory:
// the first segment ("tests") is dropped and the "test_" prefix is removed
// from the last one.
func RegressDir(regressBaseDir, pkgDir string) (string, error) {
	var segments []string
	for _, s := range strings.Split(filepath.ToSlash(filepath.Clean(pkgDir)), "/") {
		if s != "" && s != "." {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return "", fmt.Errorf("golden: package dir %q is not below a test package root", pkgDir)
	}
	segments = segments[1:]
	last := len(segments) - 1
	segments[last] = strings.TrimPrefix(segments[last], testPrefix)
	return filepath.Join(append([]string{regressBaseDir}, segments...)...), nil
}

// New builds the Context of the running test from the working directory
// (go test runs in the package directory) and prepares its directories.
func New(t testing.TB) *Context {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("golden: %v", err)
	}
	root := os.Getenv(EnvRoot)
	if root == "" {
		root, _, err = config.FindProject(cwd)
		if err != nil {
			t.Fatalf("golden: %v", err)
		}
	}
	base := os.Getenv(EnvRegressionDir)
	if base == "" {
		base = filepath.Join(root, config.DefaultRegressionDir)
	}
	pkgDir, err := filepath.Rel(root, cwd)
	if err != nil {
		t.Fatalf("golden: %v", err)
	}
	c, err := NewContext(base, pkgDir, t.Name())
	if err != nil {
		t.Fatalf("%v", err)
	}
	c.Setup()
	return c
}

// Setup creates the test directory, removes the previous test log and
// recreates the temp directory. Failures are logged, never fatal: a
// parallel sibling may have won the race to create the same directory.
func (c *Context) Setup() {
	c.log.Logf("Test: %s is running under PID: %d of parent PID: %d", c.name, os.Getpid(), os.Getppid())

	func() {
		dirMu.Lock()
		defer dirMu.Unlock()
		if _, err := os.Stat(c.TestDir()); errors.Is(err, os.ErrNotExist) {
			c.log.Logf("Creating the test dir: %s", c.TestDir())
			if err := os.MkdirAll(c.TestDir(), 0755); err != nil && !errors.Is(err, os.ErrExist) {
				c.log.Warnf("%v", err)
			}
		}
	}()

	if _, err := os.Stat(c.TestLog()); err == nil {
		c.log.Logf("Cleaning up the previous test log: %s", c.TestLog())
		if err := os.Remove(c.TestLog()); err != nil {
			c.log.Warnf("%v", err)
		}
	}

	if _, err := os.Stat(c.TempDir()); err == nil {
		c.log.Logf("Cleaning up the previous temp dir: %s", c.TempDir())
		if err := os.RemoveAll(c.TempDir()); err != nil {
			c.log.Warnf("%v", err)
		}
	}
	c.log.Logf("Creating the temp dir: %s", c.TempDir())
	if err := os.MkdirAll(c.TempDir(), 0755); err != nil {
		c.log.Warnf("%v", err)
	}
}

// Name returns the test name the log files are named after.
func (c *Context) Name() string { return c.name }

// RegressBaseDir returns the root of all regression directories.
func (c *Context) RegressBaseDir() string { return c.regressBaseDir }

// RegressDir returns this test module's regression directory.
func (c *Context) RegressDir() string { return c.regressDir }

// GoldDir returns the directory of reference logs.
func (c *Context) GoldDir() string { return filepath.Join(c.regressDir, "gold") }

// TestDir returns the directory of logs produced by this run.
func (c *Context) TestDir() string { return filepath.Join(c.regressDir, "test") }

// TempDir returns the per-test scratch directory.
func (c *Context) TempDir() string { return filepath.Join(c.regressDir, "temp", c.name) }

// DataDir returns the directory of input fixtures.
func (c *Context) DataDir() string { return filepath.Join(c.regressDir, "data") }

// TestLog returns the path of the log this test writes.
func (c *Context) TestLog() string { return filepath.Join(c.TestDir(), c.name+".log") }

// GoldLog returns the path of the reference log.
func (c *Context) GoldLog() string { return filepath.Join(c.GoldDir(), c.name+".log") }

// DiffFile returns the path of the comparison output.
func (c *Context) DiffFile() string { return filepath.Join(c.regressDir, c.name+".diff.out") }

// Log appends msg to the test log.
func (c *Context) Log(msg string) error {
	f, err := os.OpenFile(c.TestLog(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = f.WriteString(msg)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Logf formats and appends to the test log.
func (c *Context) Logf(format string, a ...interface{}) error {
	return c.Log(fmt.Sprintf(format, a...))
}
