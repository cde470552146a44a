package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/mindful/internal/model"
)

const (
	barChar             = "█"
	axisSeparator       = " │ "
	minBarWidth         = 10
	terminalWidthBackup = 80
	colorReset          = "\x1b[0m"
)

var barColors = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
}

// RenderChart prints one horizontal bar per label. A width of 0 uses the
// terminal width.
func RenderChart(w io.Writer, title string, chart model.ChartData, width int, forceColor bool) error {
	n := len(chart.Labels)
	if len(chart.Data) < n {
		n = len(chart.Data)
	}
	if n == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidth()
	}
	useColor := shouldUseColor(w, forceColor)

	labelWidth := 0
	valueWidth := 0
	maxVal := 0
	for i := 0; i < n; i++ {
		if lw := runewidth.StringWidth(chart.Labels[i]); lw > labelWidth {
			labelWidth = lw
		}
		if vw := len(strconv.Itoa(chart.Data[i])); vw > valueWidth {
			valueWidth = vw
		}
		if chart.Data[i] > maxVal {
			maxVal = chart.Data[i]
		}
	}
	barWidth := BarWidthFor(width, labelWidth, valueWidth)

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		label := runewidth.FillRight(chart.Labels[i], labelWidth)
		bar := strings.Repeat(barChar, barLength(chart.Data[i], maxVal, barWidth))
		if useColor && bar != "" {
			bar = barColors[i%len(barColors)] + bar + colorReset
		}
		line := label + axisSeparator + bar
		if bar != "" {
			line += " "
		}
		line += strconv.Itoa(chart.Data[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BarWidthFor computes the longest bar that fits in totalWidth next to the
// label and value columns.
func BarWidthFor(totalWidth, labelWidth, valueWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	bar := totalWidth - labelWidth - utf8.RuneCountInString(axisSeparator) - valueWidth - 1
	if bar < minBarWidth {
		bar = minBarWidth
	}
	return bar
}

func barLength(value, maxVal, barWidth int) int {
	if value <= 0 || maxVal <= 0 {
		return 0
	}
	length := value * barWidth / maxVal
	if length < 1 {
		length = 1
	}
	return length
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
