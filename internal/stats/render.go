package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/mindful/internal/model"
)

// RenderSummary prints the overall totals.
func RenderSummary(w io.Writer, summary model.StatsSummary) error {
	if summary.TotalSessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", summary.TotalSessions); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total time: %d min\n", summary.TotalTimeMinutes); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg session: %.1f min\n", summary.AverageSessionDuration); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderByPeriod prints the per-month table. labels, when index aligned
// with periods, adds a localized column.
func RenderByPeriod(w io.Writer, periods []model.StatsByPeriod, labels []string) error {
	if len(periods) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "By Month"); err != nil {
		return err
	}
	withLabels := len(labels) == len(periods)
	headers := []string{"Month", "Sessions", "Minutes"}
	rightAlign := map[int]bool{1: true, 2: true}
	if withLabels {
		headers = []string{"Month", "Label", "Sessions", "Minutes"}
		rightAlign = map[int]bool{2: true, 3: true}
	}
	rows := make([][]string, 0, len(periods))
	for i, p := range periods {
		row := []string{p.Period}
		if withLabels {
			row = append(row, labels[i])
		}
		row = append(row, strconv.Itoa(p.TotalSessions), strconv.Itoa(p.TotalMinutes))
		rows = append(rows, row)
	}
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderReport prints summary, monthly table and chart.
func RenderReport(w io.Writer, res Result, width int, forceColor bool) error {
	if err := RenderSummary(w, res.Summary); err != nil {
		return err
	}
	if err := RenderByPeriod(w, res.ByPeriod, res.Chart.Labels); err != nil {
		return err
	}
	return RenderChart(w, "Minutes per Month", res.Chart, width, forceColor)
}
