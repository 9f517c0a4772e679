package coverage

import (
	"fmt"
	"regexp"
	"strings"
)

// compileRules turns shell-style exclude patterns into regular expressions.
// Unlike path.Match, "*" also matches "/", so "*/testdata/*" excludes
// testdata at any depth.
func compileRules(patterns []string) ([]*regexp.Regexp, error) {
	rules := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(globToRegexp(p))
		if err != nil {
			return nil, fmt.Errorf("invalid coverage exclude rule %q: %w", p, err)
		}
		rules = append(rules, re)
	}
	return rules, nil
}

func globToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func matchAny(rules []*regexp.Regexp, path string) bool {
	for _, re := range rules {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
