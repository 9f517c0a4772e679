package logdiff

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Hunk is one change between two line slices, as half-open ranges.
type Hunk struct {
	Kind   byte // 'a', 'c' or 'd' as in normal diff output
	I1, I2 int
	J1, J2 int
}

// Text is a file split into lines. NoEOL is set when the last line had no
// terminating newline.
type Text struct {
	Lines []string
	NoEOL bool
}

// Diff compares newline terminated line slices with "diff -bB" semantics.
func Diff(ctx context.Context, a, b []string) ([]Hunk, error) {
	return DiffText(ctx, Text{Lines: a}, Text{Lines: b})
}

// DiffText compares a and b the way "diff -bB" does. Lines are equal when
// they match after squashing white space, and a change made only of blank
// lines is dropped. The edit script comes from the same pipeline GNU diff
// runs, so the hunks that survive the blank filter are the ones it reports.
func DiffText(ctx context.Context, a, b Text) ([]Hunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	changes, err := editScript(ctx, a, b)
	if err != nil {
		return nil, err
	}

	var hunks []Hunk
	for _, h := range changes {
		if allBlank(a.Lines[h.I1:h.I2]) && allBlank(b.Lines[h.J1:h.J2]) {
			continue
		}
		switch {
		case h.I1 == h.I2:
			h.Kind = 'a'
		case h.J1 == h.J2:
			h.Kind = 'd'
		default:
			h.Kind = 'c'
		}
		hunks = append(hunks, h)
	}
	return hunks, nil
}

func allBlank(lines []string) bool {
	for _, line := range lines {
		if squash(line) != "" {
			return false
		}
	}
	return true
}

// WriteNormal renders hunks in the default (normal) diff output format.
func WriteNormal(w io.Writer, a, b Text, hunks []Hunk) error {
	bw := bufio.NewWriter(w)
	for _, h := range hunks {
		switch h.Kind {
		case 'd':
			fmt.Fprintf(bw, "%sd%d\n", lineRange(h.I1, h.I2), h.J1)
		case 'a':
			fmt.Fprintf(bw, "%da%s\n", h.I1, lineRange(h.J1, h.J2))
		default:
			fmt.Fprintf(bw, "%sc%s\n", lineRange(h.I1, h.I2), lineRange(h.J1, h.J2))
		}
		writeSide(bw, "< ", a, h.I1, h.I2)
		if h.Kind == 'c' {
			fmt.Fprintln(bw, "---")
		}
		writeSide(bw, "> ", b, h.J1, h.J2)
	}
	return bw.Flush()
}

func writeSide(w io.Writer, prefix string, t Text, from, to int) {
	for i := from; i < to; i++ {
		fmt.Fprintf(w, "%s%s\n", prefix, t.Lines[i])
		if t.NoEOL && i == len(t.Lines)-1 {
			fmt.Fprintln(w, `\ No newline at end of file`)
		}
	}
}

// lineRange formats the 1-based range of the half-open [from, to).
func lineRange(from, to int) string {
	if to-from == 1 {
		return fmt.Sprintf("%d", to)
	}
	return fmt.Sprintf("%d,%d", from+1, to)
}
