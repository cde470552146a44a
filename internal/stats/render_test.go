package stats

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/mindful/internal/model"
)

func sampleResult(t *testing.T) Result {
	t.Helper()
	res, err := Aggregate([]Record{
		{Timestamp: "2025-05-10T08:00:00Z", Duration: 125},
		{Timestamp: "2025-05-20T08:00:00Z", Duration: 95},
		{Timestamp: "2025-06-02T08:00:00Z", Duration: 1200},
	}, "2M", "en-US", june2025)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	return res
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, sampleResult(t), 60, false); err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 3", "Total time: 24 min", "Avg session: 7.9 min", "By Month", "2025-05", "Jun 25", "Minutes per Month"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected color codes in non-terminal output")
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, model.StatsSummary{}); err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No sessions found." {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderChartScalesBars(t *testing.T) {
	var buf bytes.Buffer
	chart := model.ChartData{Labels: []string{"Apr 25", "May 25", "Jun 25"}, Data: []int{0, 5, 10}}
	if err := RenderChart(&buf, "Chart", chart, 40, false); err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title and 3 bars, got %d lines:\n%s", len(lines), buf.String())
	}
	full := BarWidthFor(40, 6, 2)
	if got := strings.Count(lines[3], barChar); got != full {
		t.Fatalf("expected longest bar %d, got %d", full, got)
	}
	if got := strings.Count(lines[2], barChar); got != full/2 {
		t.Fatalf("expected half bar %d, got %d", full/2, got)
	}
	if strings.Contains(lines[1], barChar) || !strings.HasSuffix(lines[1], " 0") {
		t.Fatalf("zero value must render without a bar: %q", lines[1])
	}
}

func TestBarWidthFor(t *testing.T) {
	if got := BarWidthFor(0, 6, 2); got != minBarWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := BarWidthFor(80, 6, 3); got != 80-6-3-3-1 {
		t.Fatalf("unexpected width %d", got)
	}
}

func TestExportYAMLSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportYAML(&buf, sampleResult(t)); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	var doc struct {
		Summary map[string]float64 `yaml:"summary"`
		ByMonth []struct {
			Month         string `yaml:"month"`
			TotalSessions int    `yaml:"total_sessions"`
			TotalMinutes  int    `yaml:"total_minutes"`
		} `yaml:"by_month"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
	}
	if doc.Summary["total_sessions"] != 3 || doc.Summary["total_time_minutes"] != 24 {
		t.Fatalf("unexpected summary %v", doc.Summary)
	}
	if _, ok := doc.Summary["average_session_duration_minutes"]; !ok {
		t.Fatalf("missing average in %v", doc.Summary)
	}
	if len(doc.ByMonth) != 2 || doc.ByMonth[0].Month != "2025-05" || doc.ByMonth[1].TotalMinutes != 20 {
		t.Fatalf("unexpected by_month %+v", doc.ByMonth)
	}
}

type staticLogs struct {
	logs []model.MeditationLog
	err  error
}

func (s staticLogs) ListLogs(context.Context) ([]model.MeditationLog, error) {
	return s.logs, s.err
}

func TestBuildReport(t *testing.T) {
	src := staticLogs{logs: []model.MeditationLog{
		{Timestamp: "2025-05-10T08:00:00Z", Duration: 125},
		{Timestamp: "2025-05-20T08:00:00Z", Duration: 95},
	}}
	res, err := BuildReport(context.Background(), src, model.StatsConfig{Locale: "en", Now: june2025})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if res.Summary.TotalSessions != 2 || len(res.ByPeriod) != 1 {
		t.Fatalf("expected ALL by default, got %+v", res)
	}

	boom := errors.New("boom")
	if _, err := BuildReport(context.Background(), staticLogs{err: boom}, model.StatsConfig{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
