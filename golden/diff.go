package golden

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"regtest/internal/logdiff"
)

type diffOptions struct {
	waivers []string
	sort    bool
	keep    bool
	timeout time.Duration
}

// DiffOption changes how Diff compares.
type DiffOption func(*diffOptions)

// Waivers drops lines matching any of the POSIX extended regular
// expressions from both logs before comparing. Empty patterns are ignored.
func Waivers(patterns ...string) DiffOption {
	return func(o *diffOptions) {
		for _, p := range patterns {
			if p != "" {
				o.waivers = append(o.waivers, p)
			}
		}
	}
}

// Sorted compares the logs regardless of line order.
func Sorted() DiffOption {
	return func(o *diffOptions) {
		o.sort = true
	}
}

// KeepIntermediate leaves the waived and sorted copies in the test dir.
func KeepIntermediate() DiffOption {
	return func(o *diffOptions) {
		o.keep = true
	}
}

// Timeout bounds the comparison.
func Timeout(d time.Duration) DiffOption {
	return func(o *diffOptions) {
		o.timeout = d
	}
}

// Paths resolves the test and gold logs for testLog. An empty testLog means
// this test's own log. A bare file name is looked up in the test and gold
// dirs. An absolute path is used as is, while its gold counterpart is
// always the file of the same name in the gold dir.
func (c *Context) Paths(testLog string) (string, string) {
	switch {
	case testLog == "":
		return c.TestLog(), c.GoldLog()
	case filepath.IsAbs(testLog):
		return testLog, filepath.Join(c.GoldDir(), filepath.Base(testLog))
	default:
		return filepath.Join(c.TestDir(), testLog), filepath.Join(c.GoldDir(), testLog)
	}
}

// Diff compares testLog with its gold log and writes the differences to
// DiffFile. It returns false when the logs differ; the error is reserved
// for I/O failures, a missing test log and invalid waivers.
func (c *Context) Diff(testLog string, opts ...DiffOption) (bool, error) {
	var o diffOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	testFile, goldFile := c.Paths(testLog)
	res, err := c.comparer.Compare(ctx, logdiff.Request{
		TestFile:         testFile,
		GoldFile:         goldFile,
		DiffFile:         c.DiffFile(),
		WorkDir:          c.TestDir(),
		Waivers:          strings.Join(o.waivers, "|"),
		Sort:             o.sort,
		KeepIntermediate: o.keep,
	})
	if err != nil {
		return false, err
	}
	return res.Equal, nil
}

// Check is Diff for use inside a test: errors are fatal, and a mismatch
// fails the test with the diff output.
func (c *Context) Check(t testing.TB, testLog string, opts ...DiffOption) {
	t.Helper()
	ok, err := c.Diff(testLog, opts...)
	if err != nil {
		t.Fatalf("golden: %v", err)
	}
	if ok {
		return
	}
	testFile, goldFile := c.Paths(testLog)
	diff, err := os.ReadFile(c.DiffFile())
	if err != nil {
		t.Errorf("%s and %s are different (%s): %v", testFile, goldFile, c.DiffFile(), err)
		return
	}
	t.Errorf("%s and %s are different (%s):\n%s", testFile, goldFile, c.DiffFile(), diff)
}
