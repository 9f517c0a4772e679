package domain

// TestModule is one test package: a directory below the package root whose
// name starts with "test_". Modules named "test_sequential_*" never run
// alongside other modules.
type TestModule struct {
	Name       string // Directory name, e.g. test_check
	Dir        string // Absolute directory
	RelDir     string // Directory relative to the project root, slash separated
	Sequential bool
}

// Pattern returns the package pattern go test accepts for the module.
func (m TestModule) Pattern() string {
	return "./" + m.RelDir
}

// TestCase is a single test function within a module.
type TestCase struct {
	Name     string // Test function name
	FilePath string // File declaring it
}
