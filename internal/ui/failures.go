package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"regtest/internal/domain"
	"regtest/internal/printing"
	"regtest/internal/storage"
)

// maxOutputLines bounds the captured output shown for one failure.
const maxOutputLines = 40

// FailureViewer displays test failures in an interactive TUI. Each failure
// shows its message, its location and, for golden log mismatches, the diff
// output written next to the regression dir.
type FailureViewer struct {
	storage storage.Storage
	log     *printing.Logger
}

// NewFailureViewer creates a new FailureViewer persisting resolved marks
// through st.
func NewFailureViewer(st storage.Storage, log *printing.Logger) *FailureViewer {
	return &FailureViewer{storage: st, log: log}
}

// View displays test failures in an interactive TUI
func (fv *FailureViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		fv.log.Successf("✓ No test failures found!")
		return nil
	}

	app := tview.NewApplication()
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	for i := range results.Details {
		list.AddItem(listItemText(results.Details[i], i), "", 0, nil)
	}
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)
	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)
	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)
	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)
	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		headerView.SetText(fmt.Sprintf(
			" Test Failures (%d total, %d unresolved) | Use ↑↓ to navigate, [yellow]R[white] to mark resolved, → to view details, ← to go back, Ctrl+C to exit ",
			len(results.Details), countUnresolved(results.Details)))
	}
	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(results.Details) {
			return
		}
		failure := results.Details[index]
		statsView.SetText(FormatFailureStats(failure))
		detailsView.SetText(FormatFailureDetails(failure, readDiff(failure.DiffFile)))
		detailsView.ScrollToBeginning()
	}
	var saveErr error
	toggleResolved := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(results.Details) {
			return
		}
		results.Details[index].Resolved = !results.Details[index].Resolved
		list.SetItemText(index, listItemText(results.Details[index], index), "")
		updateHeader()
		updateDetails()
		if err := fv.storage.SaveOutput(results); err != nil {
			saveErr = err
		}
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				toggleResolved()
				return nil
			}
		}
		return event
	})
	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})
	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})

	updateHeader()
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save resolved marks: %w", saveErr)
	}
	return nil
}

func listItemText(failure domain.TestFailure, index int) string {
	name := tview.Escape(failure.TestName)
	if name == "" {
		name = fmt.Sprintf("Test %d", index+1)
	}
	kind := ""
	if failure.IsError() {
		kind = " [red](E)"
	}
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s%s[white]", index+1, name, kind)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s%s[white]", index+1, name, kind)
}

func countUnresolved(details []domain.TestFailure) int {
	count := 0
	for _, d := range details {
		if !d.Resolved {
			count++
		}
	}
	return count
}

// readDiff returns the diff output of a golden log mismatch, or "" when
// there is none to show.
func readDiff(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// FormatFailureStats formats the header line of a failure using tview
// color tags.
func FormatFailureStats(failure domain.TestFailure) string {
	pkg := failure.Package
	if pkg == "" {
		pkg = "Unknown package"
	}
	return fmt.Sprintf("[cyan]package:[white] [yellow]%s[white].[yellow]%s[white]\n",
		tview.Escape(pkg), tview.Escape(failure.TestName))
}

// FormatFailureDetails formats a failure for display using tview color
// tags. diff is the content of the failure's diff file, if any.
func FormatFailureDetails(failure domain.TestFailure, diff string) string {
	var b strings.Builder

	label := "Failure"
	if failure.IsError() {
		label = "Error"
	}
	fmt.Fprintf(&b, "[red]✗ %s: %s[white]\n\n", label, tview.Escape(failure.TestName))
	fmt.Fprintf(&b, "[cyan]Module: %s[white]\n", tview.Escape(failure.Package))
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&b, "[yellow]Location: %s:%d[white]\n", tview.Escape(failure.File), failure.Line)
	}
	b.WriteString("\n")

	if failure.Message != "" {
		fmt.Fprintf(&b, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if failure.DiffFile != "" {
		fmt.Fprintf(&b, "[yellow]Diff (%s):[white]\n", tview.Escape(failure.DiffFile))
		if diff == "" {
			b.WriteString("[gray](diff output unavailable)[white]\n\n")
		} else {
			for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
				switch {
				case strings.HasPrefix(line, "<"):
					fmt.Fprintf(&b, "[red]%s[white]\n", tview.Escape(line))
				case strings.HasPrefix(line, ">"):
					fmt.Fprintf(&b, "[green]%s[white]\n", tview.Escape(line))
				default:
					fmt.Fprintf(&b, "%s\n", tview.Escape(line))
				}
			}
			b.WriteString("\n")
		}
	}

	if len(failure.Output) > 0 {
		b.WriteString("[yellow]Output:[white]\n")
		for i, line := range failure.Output {
			if i == maxOutputLines {
				fmt.Fprintf(&b, "  [gray]... and %d more lines[white]\n", len(failure.Output)-maxOutputLines)
				break
			}
			fmt.Fprintf(&b, "  %s\n", tview.Escape(line))
		}
	}
	return b.String()
}
