// Package coverage combines the per-module coverprofiles of a run and
// writes the text, HTML and Cobertura XML reports.
package coverage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/cover"

	"regtest/internal/config"
	"regtest/internal/printing"
	"regtest/internal/run"
)

// File names inside the coverage report dir.
const (
	ProfileGlob     = "cover.*.out"
	CombinedProfile = "combined.out"
	TextReport      = "coverage.txt"
	HTMLReport      = "index.html"
	XMLReport       = "coverage.xml"
)

var generatedFileRegexp = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// Coverage is a combined set of profiles with the source files they refer to
// resolved on disk.
type Coverage struct {
	profiles   []*cover.Profile
	root       string
	modulePath string
}

// Load combines the module profiles in cfg's coverage dir, dropping
// generated files and the files matching the exclude rules.
func Load(cfg *config.Config) (*Coverage, error) {
	paths, err := filepath.Glob(filepath.Join(cfg.CoveragePath(), ProfileGlob))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no coverage profiles in %s", cfg.CoveragePath())
	}
	sort.Strings(paths)

	profiles, err := Combine(paths)
	if err != nil {
		return nil, err
	}
	cov := &Coverage{root: cfg.ProjectRoot, modulePath: cfg.ModulePath}

	rules, err := compileRules(cfg.CoverageExcludeRules)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		rel := cov.relPath(p.FileName)
		if matchAny(rules, rel) {
			continue
		}
		if gen, err := isGenerated(filepath.Join(cov.root, filepath.FromSlash(rel))); err != nil {
			return nil, err
		} else if gen {
			continue
		}
		cov.profiles = append(cov.profiles, p)
	}
	return cov, nil
}

// Combine merges coverprofiles. Blocks at the same position are merged:
// counts are summed, or OR'ed in "set" mode.
func Combine(paths []string) ([]*cover.Profile, error) {
	byFile := make(map[string]*cover.Profile)
	for _, path := range paths {
		profiles, err := cover.ParseProfiles(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, p := range profiles {
			existing, ok := byFile[p.FileName]
			if !ok {
				cp := *p
				cp.Blocks = append([]cover.ProfileBlock(nil), p.Blocks...)
				byFile[p.FileName] = &cp
				continue
			}
			if existing.Mode != p.Mode {
				return nil, fmt.Errorf("%s: cover mode %q does not match %q", path, p.Mode, existing.Mode)
			}
			existing.Blocks = mergeBlocks(existing.Mode, existing.Blocks, p.Blocks)
		}
	}

	combined := make([]*cover.Profile, 0, len(byFile))
	for _, p := range byFile {
		combined = append(combined, p)
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].FileName < combined[j].FileName })
	return combined, nil
}

type blockPos struct {
	startLine, startCol, endLine, endCol int
}

func mergeBlocks(mode string, a, b []cover.ProfileBlock) []cover.ProfileBlock {
	index := make(map[blockPos]int, len(a))
	for i, blk := range a {
		index[blockPos{blk.StartLine, blk.StartCol, blk.EndLine, blk.EndCol}] = i
	}
	for _, blk := range b {
		i, ok := index[blockPos{blk.StartLine, blk.StartCol, blk.EndLine, blk.EndCol}]
		if !ok {
			index[blockPos{blk.StartLine, blk.StartCol, blk.EndLine, blk.EndCol}] = len(a)
			a = append(a, blk)
			continue
		}
		if mode == "set" {
			if blk.Count > 0 {
				a[i].Count = 1
			}
		} else {
			a[i].Count += blk.Count
		}
	}
	sort.Slice(a, func(i, j int) bool {
		if a[i].StartLine != a[j].StartLine {
			return a[i].StartLine < a[j].StartLine
		}
		return a[i].StartCol < a[j].StartCol
	})
	return a
}

// relPath maps a profile file name ("<module>/install/x.go") to a path
// relative to the project root.
func (cov *Coverage) relPath(fileName string) string {
	if cov.modulePath != "" {
		if rel := strings.TrimPrefix(fileName, cov.modulePath+"/"); rel != fileName {
			return rel
		}
	}
	return fileName
}

// CoverProfile writes the coverage to a file in the Go "coverprofile" format.
func (cov *Coverage) CoverProfile(outPath string) error {
	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	err = writeProfiles(cov.profiles, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// HTML renders the combined profile with go tool cover. profilePath must
// have been written by CoverProfile.
func (cov *Coverage) HTML(ctx context.Context, goBinary, profilePath, outPath string, log *printing.Logger) error {
	_, _, err := run.Cmd(ctx, goBinary,
		run.Args("tool", "cover", "-html="+profilePath, "-o", outPath),
		run.Dir(cov.root),
		run.Log(log),
	)
	return err
}

// XML writes the coverage to a file in the Cobertura-style XML format using
// the converter tool (a "go run" package@version).
func (cov *Coverage) XML(ctx context.Context, goBinary, tool, outPath string, log *printing.Logger) error {
	profilesWithRealPaths := make([]*cover.Profile, len(cov.profiles))
	for i, profile := range cov.profiles {
		withRealPath := *profile
		withRealPath.FileName = cov.relPath(profile.FileName)
		profilesWithRealPaths[i] = &withRealPath
	}
	var modifiedGoCov strings.Builder
	if err := writeProfiles(profilesWithRealPaths, &modifiedGoCov); err != nil {
		return err
	}
	xmlCovOut, _, err := run.Cmd(ctx, goBinary,
		run.Args("run", tool),
		run.Dir(cov.root),
		run.Stdin(modifiedGoCov.String()),
		run.Log(log),
		run.SuppressStdout(),
	)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(xmlCovOut), 0666) //nolint:gosec
}

// Ratio returns the ratio of covered statements over all statements. The
// value returned will always be between 0 and 1. If there are no statements
// then 1 is returned.
func (cov *Coverage) Ratio() float64 {
	statementCnt := 0
	statementHit := 0
	for _, profile := range cov.profiles {
		for _, block := range profile.Blocks {
			statementCnt += block.NumStmt
			if block.Count > 0 {
				statementHit += block.NumStmt
			}
		}
	}
	if statementCnt == 0 {
		return 1
	}
	return float64(statementHit) / float64(statementCnt)
}

// isGenerated checks if the provided file was generated or not. A file that
// cannot be found on disk is not considered generated.
func isGenerated(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer file.Close() // ignore close error (we are not writing)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if generatedFileRegexp.MatchString(scanner.Text()) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// writeProfiles writes cover profiles to the provided io.Writer in the Go
// "coverprofile" format.
func writeProfiles(profiles []*cover.Profile, w io.Writer) error {
	if len(profiles) == 0 {
		return nil
	}

	if _, err := io.WriteString(w, "mode: "+profiles[0].Mode+"\n"); err != nil {
		return err
	}

	for _, profile := range profiles {
		for _, block := range profile.Blocks {
			_, err := fmt.Fprintf(
				w, "%s:%d.%d,%d.%d %d %d\n", profile.FileName,
				block.StartLine, block.StartCol, block.EndLine, block.EndCol,
				block.NumStmt, block.Count,
			)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
