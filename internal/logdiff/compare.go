// Package logdiff compares a generated test log against its gold log. The
// two files are optionally stripped of waived lines, optionally sorted, and
// finally diffed with "diff -bB" semantics, always in that order. The
// originals are only ever read; every transformation goes to a derived file.
package logdiff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"regtest/internal/printing"
)

// Suffixes appended to the test log's base name for intermediate files.
const (
	TestWaivedSuffix = "_test_waived.log"
	GoldWaivedSuffix = "_gold_waived.log"
	TestSortedSuffix = "_test_sorted.log"
	GoldSortedSuffix = "_gold_sorted.log"
)

// Request describes one comparison.
type Request struct {
	TestFile string
	GoldFile string
	// DiffFile receives the diff output. It is empty when the logs match.
	DiffFile string
	// WorkDir holds the intermediate files. Defaults to TestFile's directory.
	WorkDir string
	// Waivers is a POSIX extended regular expression; matching lines are
	// dropped from both logs. Empty means nothing is waived.
	Waivers string
	// Sort makes the comparison insensitive to line order.
	Sort bool
	// KeepIntermediate leaves the waived and sorted files in WorkDir.
	KeepIntermediate bool
}

// Result is the outcome of Compare.
type Result struct {
	Equal bool
	// Compared are the two files the final diff ran on.
	ComparedTest string
	ComparedGold string
	DiffFile     string
	Hunks        int
}

// Comparer runs comparisons and logs what it does.
type Comparer struct {
	log *printing.Logger
}

// New creates a Comparer logging to log.
func New(log *printing.Logger) *Comparer {
	if log == nil {
		log = printing.Discard()
	}
	return &Comparer{log: log}
}

// Compare runs req without logging.
func Compare(ctx context.Context, req Request) (Result, error) {
	return New(nil).Compare(ctx, req)
}

// Compare runs waive, sort and diff as requested. A mismatch is reported
// through Result.Equal; the returned error is for I/O problems and an
// invalid waiver pattern.
func (c *Comparer) Compare(ctx context.Context, req Request) (Result, error) {
	if req.DiffFile == "" {
		return Result{}, errors.New("logdiff: no diff output file")
	}
	if _, err := os.Stat(req.TestFile); err != nil {
		return Result{}, fmt.Errorf("logdiff: test log: %w", err)
	}
	waiver, err := CompileWaiver(req.Waivers)
	if err != nil {
		return Result{}, fmt.Errorf("logdiff: invalid waiver pattern %q: %w", req.Waivers, err)
	}

	workDir := req.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(req.TestFile)
	}
	base := filepath.Base(req.TestFile)
	res := Result{ComparedTest: req.TestFile, ComparedGold: req.GoldFile, DiffFile: req.DiffFile}

	if _, err := os.Stat(req.GoldFile); errors.Is(err, os.ErrNotExist) {
		c.log.Warnf("gold log %s does not exist", req.GoldFile)
		if err := os.WriteFile(req.DiffFile, []byte(fmt.Sprintf("missing gold log: %s\n", req.GoldFile)), 0644); err != nil {
			return res, err
		}
		return res, nil
	}

	var intermediates []string
	defer func() {
		if !req.KeepIntermediate {
			c.cleanup(intermediates)
		}
	}()

	if waiver != nil {
		testWaived := filepath.Join(workDir, base+TestWaivedSuffix)
		goldWaived := filepath.Join(workDir, base+GoldWaivedSuffix)
		intermediates = append(intermediates, testWaived, goldWaived)
		if err := transform(ctx, res.ComparedTest, testWaived, waiveWith(waiver)); err != nil {
			return res, err
		}
		if err := transform(ctx, res.ComparedGold, goldWaived, waiveWith(waiver)); err != nil {
			return res, err
		}
		res.ComparedTest, res.ComparedGold = testWaived, goldWaived
	}

	if req.Sort {
		testSorted := filepath.Join(workDir, base+TestSortedSuffix)
		goldSorted := filepath.Join(workDir, base+GoldSortedSuffix)
		intermediates = append(intermediates, testSorted, goldSorted)
		if err := transform(ctx, res.ComparedTest, testSorted, SortLines); err != nil {
			return res, err
		}
		if err := transform(ctx, res.ComparedGold, goldSorted, SortLines); err != nil {
			return res, err
		}
		res.ComparedTest, res.ComparedGold = testSorted, goldSorted
	}

	hunks, err := c.diffFiles(ctx, res.ComparedTest, res.ComparedGold, req.DiffFile)
	if err != nil {
		return res, err
	}
	res.Hunks = hunks

	// The artifact has to be there and empty; a zero hunk count alone is not
	// trusted.
	info, err := os.Stat(req.DiffFile)
	if err != nil {
		return res, fmt.Errorf("logdiff: diff output: %w", err)
	}
	res.Equal = hunks == 0 && info.Size() == 0
	if !res.Equal {
		c.log.Logf("%s and %s are different", req.TestFile, req.GoldFile)
	}
	return res, nil
}

func (c *Comparer) diffFiles(ctx context.Context, testPath, goldPath, diffPath string) (int, error) {
	a, err := readFile(ctx, testPath)
	if err != nil {
		return 0, err
	}
	b, err := readFile(ctx, goldPath)
	if err != nil {
		return 0, err
	}
	hunks, err := DiffText(ctx, a, b)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return 0, err
	}

	out, err := os.Create(diffPath)
	if err != nil {
		return 0, fmt.Errorf("logdiff: create diff output: %w", err)
	}
	err = WriteNormal(out, a, b, hunks)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("logdiff: write diff output: %w", err)
	}
	return len(hunks), nil
}

// cleanup removes intermediate files. It is best effort: failures are
// logged and otherwise ignored.
func (c *Comparer) cleanup(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.Warnf("could not remove %s: %v", p, err)
		}
	}
}

type streamFunc func(ctx context.Context, r io.Reader, w io.Writer) error

func waiveWith(waiver *regexp.Regexp) streamFunc {
	return func(ctx context.Context, r io.Reader, w io.Writer) error {
		return Waive(ctx, waiver, r, w)
	}
}

// transform streams src through fn into dst.
func transform(ctx context.Context, src, dst string, fn streamFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	err = fn(ctx, in, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("logdiff: %s: %w", dst, err)
	}
	return nil
}

func readFile(ctx context.Context, path string) (Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return Text{}, err
	}
	defer f.Close()
	return readText(ctx, f)
}
