// Package stats aggregates meditation logs into summaries, monthly
// breakdowns and chart series, and renders them.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/mindful/internal/model"
)

// PeriodAll buckets every month that has at least one log.
const PeriodAll = "ALL"

// Record is one aggregatable log. Duration is kept as a float so values
// read from external sources can be rejected rather than truncated.
type Record struct {
	Timestamp string
	Duration  float64
}

// Result holds the three aggregate views.
type Result struct {
	Summary  model.StatsSummary
	ByPeriod []model.StatsByPeriod
	Chart    model.ChartData
}

// RecordsFromLogs converts stored logs to records.
func RecordsFromLogs(logs []model.MeditationLog) []Record {
	out := make([]Record, len(logs))
	for i, l := range logs {
		out[i] = Record{Timestamp: l.Timestamp, Duration: float64(l.Duration)}
	}
	return out
}

// ParsePeriod validates a period key and returns the month count, or 0 for ALL.
func ParsePeriod(key string) (int, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == PeriodAll {
		return 0, nil
	}
	if !strings.HasSuffix(key, "M") {
		return 0, fmt.Errorf("invalid period %q: expected ALL or <n>M", key)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(key, "M"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid period %q: expected ALL or <n>M", key)
	}
	return n, nil
}

type bucket struct {
	sessions int
	minutes  int
}

// Aggregate computes the summary, per-month breakdown and chart series.
// Months are calendar months in now's location; "<n>M" windows end at
// now's month and drop every record outside them.
func Aggregate(records []Record, period, locale string, now time.Time) (Result, error) {
	months, err := ParsePeriod(period)
	if err != nil {
		return Result{}, err
	}
	loc := now.Location()

	type dated struct {
		key      string
		duration float64
	}
	valid := make([]dated, 0, len(records))
	for _, r := range records {
		if !model.ValidDuration(r.Duration) {
			continue
		}
		ts, err := model.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		valid = append(valid, dated{key: MonthKey(ts.In(loc)), duration: r.Duration})
	}

	var keys []string
	if months == 0 {
		seen := map[string]bool{}
		for _, d := range valid {
			if !seen[d.key] {
				seen[d.key] = true
				keys = append(keys, d.key)
			}
		}
		sort.Strings(keys)
	} else {
		keys = LastMonths(now, months)
	}

	buckets := make(map[string]*bucket, len(keys))
	for _, k := range keys {
		buckets[k] = &bucket{}
	}

	var res Result
	var rawSeconds float64
	for _, d := range valid {
		b, ok := buckets[d.key]
		if !ok {
			continue
		}
		minutes := RoundMinutes(d.duration)
		b.sessions++
		b.minutes += minutes
		res.Summary.TotalSessions++
		res.Summary.TotalTimeMinutes += minutes
		rawSeconds += d.duration
	}
	if res.Summary.TotalSessions > 0 {
		avg := rawSeconds / float64(res.Summary.TotalSessions) / 60
		res.Summary.AverageSessionDuration = math.Round(avg*10) / 10
	}

	res.ByPeriod = make([]model.StatsByPeriod, 0, len(keys))
	res.Chart.Labels = make([]string, 0, len(keys))
	res.Chart.Data = make([]int, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		res.ByPeriod = append(res.ByPeriod, model.StatsByPeriod{
			Period:        k,
			TotalSessions: b.sessions,
			TotalMinutes:  b.minutes,
		})
		year, month := splitMonthKey(k)
		res.Chart.Labels = append(res.Chart.Labels, MonthLabel(year, month, locale))
		res.Chart.Data = append(res.Chart.Data, b.minutes)
	}
	return res, nil
}

// RoundMinutes converts seconds to whole minutes, rounding half up.
func RoundMinutes(seconds float64) int {
	return int(math.Round(seconds / 60))
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// LastMonths returns the n month keys ending at now's month, oldest first.
func LastMonths(now time.Time, n int) []string {
	keys := make([]string, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, MonthKey(first.AddDate(0, -i, 0)))
	}
	return keys
}

func splitMonthKey(key string) (int, time.Month) {
	var year, month int
	if _, err := fmt.Sscanf(key, "%d-%d", &year, &month); err != nil {
		return 0, time.January
	}
	return year, time.Month(month)
}
