package stats

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/mindful/internal/model"
)

type monthExport struct {
	Month         string `yaml:"month"`
	TotalSessions int    `yaml:"total_sessions"`
	TotalMinutes  int    `yaml:"total_minutes"`
}

type yamlExport struct {
	Summary model.StatsSummary `yaml:"summary"`
	ByMonth []monthExport      `yaml:"by_month"`
}

// ExportYAML writes the summary and monthly breakdown as YAML.
func ExportYAML(w io.Writer, res Result) error {
	doc := yamlExport{
		Summary: res.Summary,
		ByMonth: make([]monthExport, 0, len(res.ByPeriod)),
	}
	for _, p := range res.ByPeriod {
		doc.ByMonth = append(doc.ByMonth, monthExport{
			Month:         p.Period,
			TotalSessions: p.TotalSessions,
			TotalMinutes:  p.TotalMinutes,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	return nil
}
