package aggregate

import (
	"sort"
	"time"

	"github.com/okian/podium/internal/domain/dates"
	"github.com/okian/podium/internal/domain/model"
)

// BuildDailyCounts restricts records to countries and counts them per UTC
// day. Days holds the distinct observed days in ascending order; calendar
// gaps between observed days are not filled. Every requested country gets
// an entry in PerCountryDaily, empty if it has no rows.
func BuildDailyCounts(records []model.MedalRecord, countries []string) model.DailyCounts {
	perCountry := make(map[string]map[string]int, len(countries))
	for _, c := range countries {
		perCountry[c] = make(map[string]int)
	}

	seen := make(map[string]struct{})
	for i := range records {
		byDay, tracked := perCountry[records[i].Country]
		if !tracked {
			continue
		}
		key := dates.DayKey(records[i].Date)
		seen[key] = struct{}{}
		byDay[key]++
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		// keys come from DayKey, so they always parse
		d, err := dates.ParseDayKey(k)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return model.DailyCounts{Days: days, PerCountryDaily: perCountry}
}

// BuildDailyMatrix emits one row per day, in the given order, with one count
// per country in the given column order. Missing cells are 0.
func BuildDailyMatrix(days []time.Time, perCountryDaily map[string]map[string]int, countries []string) model.DailyMatrix {
	cols := make([]string, len(countries))
	copy(cols, countries)

	rows := make([]model.DailyMatrixRow, 0, len(days))
	for _, d := range days {
		key := dates.DayKey(d)
		counts := make([]int, len(cols))
		for i, c := range cols {
			counts[i] = perCountryDaily[c][key]
		}
		rows = append(rows, model.DailyMatrixRow{Day: dates.StartOfDay(d), Counts: counts})
	}
	return model.DailyMatrix{Countries: cols, Rows: rows}
}
