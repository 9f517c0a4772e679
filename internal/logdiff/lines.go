package logdiff

import (
	"bufio"
	"context"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
)

// checkEvery is how many lines are processed between context checks.
const checkEvery = 4096

// readText splits r into lines without their terminators. A final line
// without a newline is still a line, and is flagged in NoEOL.
func readText(ctx context.Context, r io.Reader) (Text, error) {
	br := bufio.NewReader(r)
	var t Text
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			trimmed := strings.TrimSuffix(line, "\n")
			t.NoEOL = len(trimmed) == len(line)
			t.Lines = append(t.Lines, trimmed)
			if len(t.Lines)%checkEvery == 0 {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return Text{}, ctxErr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return Text{}, err
		}
	}
}

func readLines(ctx context.Context, r io.Reader) ([]string, error) {
	t, err := readText(ctx, r)
	return t.Lines, err
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Waive copies r to w, dropping every line matched by waiver. It behaves
// like "grep -Ev": every written line is newline terminated.
func Waive(ctx context.Context, waiver *regexp.Regexp, r io.Reader, w io.Writer) error {
	lines, err := readLines(ctx, r)
	if err != nil {
		return err
	}
	kept := lines[:0]
	for _, line := range lines {
		if !waiver.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return writeLines(w, kept)
}

// SortLines copies r to w with its lines in byte order, like "LC_ALL=C sort".
func SortLines(ctx context.Context, r io.Reader, w io.Writer) error {
	lines, err := readLines(ctx, r)
	if err != nil {
		return err
	}
	sort.Strings(lines)
	return writeLines(w, lines)
}

// CompileWaiver compiles a POSIX extended regular expression. An empty
// pattern returns nil, meaning nothing is waived.
func CompileWaiver(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.CompilePOSIX(pattern)
}

// squash applies "diff -b" equivalence in the C locale: every run of space,
// tab, newline, vertical tab, form feed or carriage return becomes a single
// space and trailing white space disappears. Any other byte, including
// invalid UTF-8 and non-ASCII spaces, is kept as it is.
func squash(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	pending := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if isSpace(c) {
			pending = true
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
