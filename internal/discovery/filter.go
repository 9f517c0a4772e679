package discovery

import (
	"path/filepath"

	"regtest/internal/domain"
)

// Filter filters test modules by case pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByCase keeps the modules whose name matches the case pattern, a
// shell wildcard applied after the module prefix: "check*" selects
// test_check and test_check_upgrade, and test_sequential_check* for
// sequential modules. An empty pattern keeps everything.
func (f *Filter) FilterByCase(modules []domain.TestModule, pattern string) []domain.TestModule {
	if pattern == "" {
		return modules
	}

	var filtered []domain.TestModule
	for _, m := range modules {
		prefix := ModulePrefix
		if m.Sequential {
			prefix = SequentialModulePrefix
		}
		if matched, err := filepath.Match(prefix+pattern, m.Name); err == nil && matched {
			filtered = append(filtered, m)
			continue
		}
		// "sequential_x" names a sequential module through the plain prefix.
		if matched, err := filepath.Match(ModulePrefix+pattern, m.Name); err == nil && matched {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// FilterByDirs keeps the modules whose relative directory is in dirs.
func (f *Filter) FilterByDirs(modules []domain.TestModule, dirs []string) []domain.TestModule {
	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[filepath.ToSlash(d)] = true
	}
	var filtered []domain.TestModule
	for _, m := range modules {
		if want[m.RelDir] {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Split separates sequential from parallel modules, keeping order.
func Split(modules []domain.TestModule) (sequential, parallel []domain.TestModule) {
	for _, m := range modules {
		if m.Sequential {
			sequential = append(sequential, m)
		} else {
			parallel = append(parallel, m)
		}
	}
	return sequential, parallel
}
