package aggregate

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
)

// BreakdownByCategory counts one country's records per category, keeps the
// topK largest and folds the rest into a trailing "Other" entry when the
// folded sum is positive. A country without records yields an empty slice.
func BreakdownByCategory(records []model.MedalRecord, country string, topK int) []model.CategoryBreakdownEntry {
	order := make([]string, 0)
	counts := make(map[string]int)
	for i := range records {
		if records[i].Country != country {
			continue
		}
		c := records[i].Category
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	all := make([]model.CategoryBreakdownEntry, 0, len(order))
	for _, c := range order {
		all = append(all, model.CategoryBreakdownEntry{Category: c, Count: counts[c]})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Count > all[j].Count })

	top := truncate(all, topK)
	rest := 0
	for _, e := range all[len(top):] {
		rest += e.Count
	}

	out := make([]model.CategoryBreakdownEntry, len(top), len(top)+1)
	copy(out, top)
	if rest > 0 {
		out = append(out, model.CategoryBreakdownEntry{Category: model.OtherCategory, Count: rest})
	}
	return out
}
