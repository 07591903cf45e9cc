// Package aggregate derives the dashboard views from normalized medal records.
//
// Every function is pure: it reads the input slice and returns freshly
// allocated results. Grouping keeps first-encounter order and all sorts are
// stable, so ties keep the order in which countries or categories first
// appeared in the input.
package aggregate

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
)

type countryTally struct {
	gold, silver, bronze int
	categories           map[string]struct{}
}

// SummarizeByCountry tallies medals per country, keeps the topN countries by
// total and orders them by diversity ratio (descending unless diversityDesc
// is false). Rows whose medal type is not Gold, Silver or Bronze are ignored.
func SummarizeByCountry(records []model.MedalRecord, topN int, diversityDesc bool) []model.CountryMedalSummary {
	order := make([]string, 0)
	tallies := make(map[string]*countryTally)

	for i := range records {
		r := &records[i]
		medal, ok := normalize.NormalizeMedalType(r.MedalType)
		if !ok {
			continue
		}
		t, seen := tallies[r.Country]
		if !seen {
			t = &countryTally{categories: make(map[string]struct{})}
			tallies[r.Country] = t
			order = append(order, r.Country)
		}
		switch medal {
		case model.Gold:
			t.gold++
		case model.Silver:
			t.silver++
		case model.Bronze:
			t.bronze++
		}
		if r.Category != "" {
			t.categories[r.Category] = struct{}{}
		}
	}

	out := make([]model.CountryMedalSummary, 0, len(order))
	for _, country := range order {
		t := tallies[country]
		total := t.gold + t.silver + t.bronze
		s := model.CountryMedalSummary{
			Country:     country,
			Gold:        t.gold,
			Silver:      t.silver,
			Bronze:      t.bronze,
			Total:       total,
			Disciplines: len(t.categories),
		}
		if total > 0 {
			s.DiversityRatio = float64(s.Disciplines) / float64(total)
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	out = truncate(out, topN)

	sort.SliceStable(out, func(i, j int) bool {
		if diversityDesc {
			return out[i].DiversityRatio > out[j].DiversityRatio
		}
		return out[i].DiversityRatio < out[j].DiversityRatio
	})
	return out
}

// RankCountriesByTotal counts every record per country regardless of medal
// type and returns the n largest, descending.
func RankCountriesByTotal(records []model.MedalRecord, n int) []model.CountryTotal {
	order := make([]string, 0)
	counts := make(map[string]int)
	for i := range records {
		c := records[i].Country
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	out := make([]model.CountryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, model.CountryTotal{Country: c, Total: counts[c]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return truncate(out, n)
}

// Countries returns the country names of totals in order.
func Countries(totals []model.CountryTotal) []string {
	out := make([]string, len(totals))
	for i, t := range totals {
		out[i] = t.Country
	}
	return out
}

func truncate[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
