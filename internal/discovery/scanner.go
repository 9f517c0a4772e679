package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"regtest/internal/domain"
)

// Module directory prefixes.
const (
	ModulePrefix           = "test_"
	SequentialModulePrefix = "test_sequential_"
)

// Scanner scans for test modules below a package root
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// Scan finds all test modules in pkgDir, a directory relative to the project
// root. A module is a directory named test_* holding at least one
// _test.go file. Modules are returned sorted by relative directory.
func (s *Scanner) Scan(projectRoot, pkgDir string) ([]domain.TestModule, error) {
	root := filepath.Clean(filepath.Join(projectRoot, pkgDir))
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test package does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test package is not a directory: %s", root)
	}

	var modules []domain.TestModule
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
			return filepath.SkipDir
		}
		if s.skipDirs[name] {
			return filepath.SkipDir
		}
		if !strings.HasPrefix(name, ModulePrefix) {
			return nil
		}

		ok, err := hasTestFiles(path)
		if err != nil || !ok {
			return err
		}
		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return err
		}
		modules = append(modules, domain.TestModule{
			Name:       name,
			Dir:        path,
			RelDir:     filepath.ToSlash(rel),
			Sequential: strings.HasPrefix(name, SequentialModulePrefix),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].RelDir < modules[j].RelDir })
	return modules, nil
}

func hasTestFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "_test.go") {
			return true, nil
		}
	}
	return false, nil
}
