package model

import (
	"time"

	"github.com/bytedance/sonic"
)

// CountryMedalSummary is one bar of the per-country medal chart.
type CountryMedalSummary struct {
	Country        string  `json:"country" yaml:"country"`
	Gold           int     `json:"gold" yaml:"gold"`
	Silver         int     `json:"silver" yaml:"silver"`
	Bronze         int     `json:"bronze" yaml:"bronze"`
	Total          int     `json:"total" yaml:"total"`
	Disciplines    int     `json:"disciplines" yaml:"disciplines"`
	DiversityRatio float64 `json:"ddi" yaml:"ddi"`
}

// CountryTotal is a country with its record count.
type CountryTotal struct {
	Country string `json:"country" yaml:"country"`
	Total   int    `json:"total" yaml:"total"`
}

// DailyCounts holds per-country medal counts bucketed by UTC day key.
type DailyCounts struct {
	Days            []time.Time
	PerCountryDaily map[string]map[string]int
}

// DailyMatrixRow is one day of a stacked time series. Counts[i] belongs to
// the i-th country of the enclosing DailyMatrix.
type DailyMatrixRow struct {
	Day    time.Time
	Counts []int
}

// DailyMatrix is a dense days x countries table with an explicit column order.
// It encodes to JSON and YAML as its DailyMatrixView.
type DailyMatrix struct {
	Countries []string
	Rows      []DailyMatrixRow
}

// Total returns the sum of the column for country, or 0 if it is not tracked.
func (m DailyMatrix) Total(country string) int {
	col := -1
	for i, c := range m.Countries {
		if c == country {
			col = i
			break
		}
	}
	if col < 0 {
		return 0
	}
	sum := 0
	for _, r := range m.Rows {
		sum += r.Counts[col]
	}
	return sum
}

// Records flattens the matrix into one keyed object per day: {"day": ..., "<country>": n}.
// This is the shape stacked-chart layouts expect.
func (m DailyMatrix) Records() []map[string]any {
	out := make([]map[string]any, 0, len(m.Rows))
	for _, r := range m.Rows {
		obj := make(map[string]any, len(m.Countries)+1)
		obj["day"] = r.Day.UTC().Format(time.RFC3339)
		for i, c := range m.Countries {
			obj[c] = r.Counts[i]
		}
		out = append(out, obj)
	}
	return out
}

// DailyMatrixView is the wire shape of a DailyMatrix.
type DailyMatrixView struct {
	Countries []string         `json:"countries" yaml:"countries"`
	Rows      []map[string]any `json:"rows" yaml:"rows"`
}

// View returns the matrix in its wire shape.
func (m DailyMatrix) View() DailyMatrixView {
	countries := m.Countries
	if countries == nil {
		countries = []string{}
	}
	return DailyMatrixView{Countries: countries, Rows: m.Records()}
}

// MarshalJSON encodes the matrix as its view.
func (m DailyMatrix) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(m.View())
}

// MarshalYAML encodes the matrix as its view.
func (m DailyMatrix) MarshalYAML() (any, error) {
	return m.View(), nil
}

// CategoryBreakdownEntry is one cell group of the waffle chart.
type CategoryBreakdownEntry struct {
	Category string `json:"discipline" yaml:"discipline"`
	Count    int    `json:"count" yaml:"count"`
}

// OtherCategory labels the bucket that collects categories beyond the top-K.
const OtherCategory = "Other"
