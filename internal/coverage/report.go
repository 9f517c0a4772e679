package coverage

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FileSummary is the coverage of one source file.
type FileSummary struct {
	Name       string
	Statements int
	Missed     int
	// Missing lists the uncovered line ranges, e.g. "12-15, 20".
	Missing string
}

// Percent returns the covered share of statements, 100 for a file without
// statements.
func (s FileSummary) Percent() float64 {
	if s.Statements == 0 {
		return 100
	}
	return 100 * float64(s.Statements-s.Missed) / float64(s.Statements)
}

// Summaries returns one summary per file, sorted by name.
func (cov *Coverage) Summaries() []FileSummary {
	summaries := make([]FileSummary, 0, len(cov.profiles))
	for _, p := range cov.profiles {
		s := FileSummary{Name: cov.relPath(p.FileName)}
		covered := make(map[int]bool)
		for _, b := range p.Blocks {
			if b.Count > 0 {
				for l := b.StartLine; l <= b.EndLine; l++ {
					covered[l] = true
				}
			}
		}
		var missing []int
		seen := make(map[int]bool)
		for _, b := range p.Blocks {
			s.Statements += b.NumStmt
			if b.Count > 0 {
				continue
			}
			s.Missed += b.NumStmt
			if b.NumStmt == 0 {
				continue
			}
			for l := b.StartLine; l <= b.EndLine; l++ {
				if !covered[l] && !seen[l] {
					seen[l] = true
					missing = append(missing, l)
				}
			}
		}
		sort.Ints(missing)
		s.Missing = lineRanges(missing)
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

// WriteText writes a per-file table with a total row.
func (cov *Coverage) WriteText(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Stmts", "Miss", "Cover", "Missing"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Stmts", Align: text.AlignRight},
		{Name: "Miss", Align: text.AlignRight},
		{Name: "Cover", Align: text.AlignRight},
		{Name: "Missing", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	total := FileSummary{Name: "TOTAL"}
	for _, s := range cov.Summaries() {
		t.AppendRow(table.Row{s.Name, s.Statements, s.Missed, formatPercent(s.Percent()), s.Missing})
		total.Statements += s.Statements
		total.Missed += s.Missed
	}
	t.AppendFooter(table.Row{total.Name, total.Statements, total.Missed, formatPercent(total.Percent()), ""})
	t.Render()
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}

// lineRanges collapses sorted line numbers into "a-b, c" form.
func lineRanges(lines []int) string {
	var parts []string
	for i := 0; i < len(lines); {
		j := i
		for j+1 < len(lines) && lines[j+1] == lines[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(lines[i]))
		} else {
			parts = append(parts, strconv.Itoa(lines[i])+"-"+strconv.Itoa(lines[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}
