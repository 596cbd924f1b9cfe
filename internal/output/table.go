package output

import (
	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

// maxCellWidth is in terminal columns and keeps long sequences from wrapping the table.
const maxCellWidth = 40

// TableData returns header plus cells, shortening long values.
func TableData(rows []*model.Row) [][]string {
	cols := Columns(rows)
	data := [][]string{cols}
	for _, r := range rows {
		cells := Cells(r, cols)
		for i, c := range cells {
			if runewidth.StringWidth(c) > maxCellWidth {
				cells[i] = runewidth.Truncate(c, maxCellWidth, "...")
			}
		}
		data = append(data, cells)
	}
	return data
}

// StartSpinner shows an inline spinner; the returned func stops it.
func StartSpinner(text string) func(ok bool, msg string) {
	sp, err := pterm.DefaultSpinner.WithRemoveWhenDone(false).Start(text)
	if err != nil {
		return func(bool, string) {}
	}
	return func(ok bool, msg string) {
		if ok {
			sp.Success(msg)
			return
		}
		sp.Fail(msg)
	}
}

// RenderResult prints the results table, success count and failure list.
func RenderResult(res model.BatchResult) {
	name := res.Model.DisplayName()

	if res.AllFailed() {
		pterm.Error.Printfln("%s processing failed for all sequences.", name)
		renderFailures("Failure details", res.Failures)
		return
	}

	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(TableData(res.Rows)).Render(); err != nil {
		Logger.Warn("Failed to render results table", "error", err)
	}
	pterm.Success.Printfln("Processed %d sequence(s) via %s API.", len(res.Rows), name)
	if len(res.Failures) > 0 {
		pterm.Warning.Println("Some sequences failed")
		renderFailures("", res.Failures)
	}
}

func renderFailures(title string, failures []string) {
	if len(failures) == 0 {
		return
	}
	if title != "" {
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint(title))
	}
	items := make([]pterm.BulletListItem, 0, len(failures))
	for _, f := range failures {
		items = append(items, pterm.BulletListItem{Level: 0, Text: f})
	}
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}

// PresentError shows a batch-level error (configuration or validation).
func PresentError(err error) {
	if err == nil {
		return
	}
	switch errors.KindOf(err) {
	case errors.Configuration:
		title := pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Configuration Required")
		pterm.Println(pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(err.Error()))
	case errors.Validation:
		pterm.Error.Println(err.Error())
	default:
		pterm.Error.Printfln("Unexpected error: %v", err)
	}
}
