package aggregate_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/podium/internal/domain/aggregate"
	"github.com/okian/podium/internal/domain/dates"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC)
}

func rec(d int, medal, country, category string) model.MedalRecord {
	return model.MedalRecord{Date: day(d), MedalType: medal, Country: country, Category: category}
}

func exampleRecords() []model.MedalRecord {
	return []model.MedalRecord{
		rec(27, "Gold Medal", "USA", "Swimming"),
		rec(27, "Silver Medal", "USA", "Swimming"),
		rec(28, "Gold Medal", "France", "Judo"),
	}
}

// randomRecords builds a reproducible dataset with some non-medal rows.
func randomRecords(seed int64, n int) []model.MedalRecord {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	countries := []string{"USA", "China", "Japan", "France", "Australia", "Kenya", "Brazil", "Italy", "Germany", "Canada"}
	categories := []string{"Swimming", "Athletics", "Judo", "Fencing", "Cycling", "Rowing", "Gymnastics", "Boxing"}
	medals := []string{"Gold Medal", "Silver Medal", "Bronze Medal", "Gold", "Diploma"}
	out := make([]model.MedalRecord, n)
	for i := range out {
		out[i] = model.MedalRecord{
			Date:      day(26).Add(time.Duration(rng.Intn(16*24)) * time.Hour),
			MedalType: medals[rng.Intn(len(medals))],
			Country:   countries[rng.Intn(len(countries))],
			Category:  categories[rng.Intn(len(categories))],
		}
	}
	return out
}

func TestSummarizeByCountry(t *testing.T) {
	Convey("Given the worked example", t, func() {
		records := exampleRecords()

		Convey("When summarizing the top 2 by diversity descending", func() {
			got := aggregate.SummarizeByCountry(records, 2, true)

			Convey("Then France comes before USA with the expected tallies", func() {
				So(len(got), ShouldEqual, 2)
				So(got[0], ShouldResemble, model.CountryMedalSummary{
					Country: "France", Gold: 1, Total: 1, Disciplines: 1, DiversityRatio: 1.0,
				})
				So(got[1], ShouldResemble, model.CountryMedalSummary{
					Country: "USA", Gold: 1, Silver: 1, Total: 2, Disciplines: 1, DiversityRatio: 0.5,
				})
			})
		})

		Convey("When ordering by diversity ascending", func() {
			got := aggregate.SummarizeByCountry(records, 2, false)

			Convey("Then USA comes first", func() {
				So(got[0].Country, ShouldEqual, "USA")
				So(got[1].Country, ShouldEqual, "France")
			})
		})

		Convey("When topN is 1", func() {
			got := aggregate.SummarizeByCountry(records, 1, true)

			Convey("Then only the country with the most medals remains", func() {
				So(len(got), ShouldEqual, 1)
				So(got[0].Country, ShouldEqual, "USA")
			})
		})

		Convey("When topN is zero or negative", func() {
			Convey("Then the result is empty", func() {
				So(aggregate.SummarizeByCountry(records, 0, true), ShouldBeEmpty)
				So(aggregate.SummarizeByCountry(records, -3, true), ShouldBeEmpty)
			})
		})
	})

	Convey("Given rows without a valid medal type", t, func() {
		records := []model.MedalRecord{
			rec(27, "Diploma", "Kenya", "Athletics"),
			rec(27, "Bronze Medal", "Chile", "Tennis"),
			rec(28, "Diploma", "Chile", "Sailing"),
		}

		got := aggregate.SummarizeByCountry(records, 10, true)

		Convey("Then they neither create entries nor count toward totals or disciplines", func() {
			So(len(got), ShouldEqual, 1)
			So(got[0].Country, ShouldEqual, "Chile")
			So(got[0].Total, ShouldEqual, 1)
			So(got[0].Disciplines, ShouldEqual, 1)
		})
	})

	Convey("Given ties on total and diversity", t, func() {
		records := []model.MedalRecord{
			rec(27, "Gold", "B", "x"),
			rec(27, "Gold", "A", "x"),
			rec(27, "Gold", "C", "x"),
		}

		got := aggregate.SummarizeByCountry(records, 2, true)

		Convey("Then encounter order is kept", func() {
			So(got[0].Country, ShouldEqual, "B")
			So(got[1].Country, ShouldEqual, "A")
		})
	})

	Convey("Given a random dataset", t, func() {
		records := randomRecords(7, 2000)

		Convey("Then medal counts over all countries equal the valid medal rows", func() {
			valid := 0
			for _, r := range records {
				if _, ok := normalize.NormalizeMedalType(r.MedalType); ok {
					valid++
				}
			}
			sum := 0
			for _, s := range aggregate.SummarizeByCountry(records, 1<<30, true) {
				So(s.Total, ShouldEqual, s.Gold+s.Silver+s.Bronze)
				So(s.DiversityRatio, ShouldAlmostEqual, float64(s.Disciplines)/float64(s.Total), 1e-12)
				sum += s.Gold + s.Silver + s.Bronze
			}
			So(sum, ShouldEqual, valid)
		})

		Convey("Then topN bounds the result to the highest totals", func() {
			all := aggregate.SummarizeByCountry(records, 1<<30, true)
			for _, n := range []int{1, 3, 5, 12} {
				got := aggregate.SummarizeByCountry(records, n, true)
				So(len(got), ShouldBeLessThanOrEqualTo, n)

				minKept := 1 << 30
				kept := map[string]bool{}
				for _, s := range got {
					kept[s.Country] = true
					if s.Total < minKept {
						minKept = s.Total
					}
				}
				for _, s := range all {
					if !kept[s.Country] {
						So(s.Total, ShouldBeLessThanOrEqualTo, minKept)
					}
				}
				for i := 1; i < len(got); i++ {
					So(got[i-1].DiversityRatio, ShouldBeGreaterThanOrEqualTo, got[i].DiversityRatio)
				}
			}
		})
	})
}

func TestRankCountriesByTotal(t *testing.T) {
	Convey("Given records including a non-medal row", t, func() {
		records := []model.MedalRecord{
			rec(27, "Gold", "France", "Judo"),
			rec(27, "Diploma", "Kenya", "Athletics"),
			rec(28, "Gold", "USA", "Swimming"),
			rec(28, "Silver", "USA", "Swimming"),
			rec(29, "Diploma", "Kenya", "Athletics"),
		}

		Convey("When ranking the top 2", func() {
			got := aggregate.RankCountriesByTotal(records, 2)

			Convey("Then every row counts and ties keep encounter order", func() {
				So(got, ShouldResemble, []model.CountryTotal{
					{Country: "Kenya", Total: 2},
					{Country: "USA", Total: 2},
				})
				So(aggregate.Countries(got), ShouldResemble, []string{"Kenya", "USA"})
			})
		})

		Convey("When n exceeds the number of countries", func() {
			got := aggregate.RankCountriesByTotal(records, 50)

			Convey("Then all countries are returned", func() {
				So(len(got), ShouldEqual, 3)
				So(got[2].Country, ShouldEqual, "France")
			})
		})

		Convey("When there are no records", func() {
			So(aggregate.RankCountriesByTotal(nil, 8), ShouldBeEmpty)
		})
	})
}

func TestBuildDailyCounts(t *testing.T) {
	Convey("Given records across days and countries", t, func() {
		records := []model.MedalRecord{
			rec(30, "Gold", "USA", "Swimming"),
			rec(27, "Gold", "USA", "Swimming"),
			{Date: day(27).Add(23 * time.Hour), MedalType: "Silver", Country: "USA", Category: "Swimming"},
			rec(28, "Gold", "France", "Judo"),
			rec(29, "Gold", "Kenya", "Athletics"),
		}

		Convey("When tracking USA, France and Japan", func() {
			got := aggregate.BuildDailyCounts(records, []string{"USA", "France", "Japan"})

			Convey("Then only observed days of tracked countries appear, sorted", func() {
				want := []time.Time{day(27), day(28), day(30)}
				So(len(got.Days), ShouldEqual, len(want))
				for i := range want {
					So(got.Days[i].Equal(want[i]), ShouldBeTrue)
					So(got.Days[i].Location(), ShouldEqual, time.UTC)
				}
			})

			Convey("And counts are bucketed by UTC day", func() {
				So(got.PerCountryDaily["USA"]["2024-07-27"], ShouldEqual, 2)
				So(got.PerCountryDaily["USA"]["2024-07-30"], ShouldEqual, 1)
				So(got.PerCountryDaily["France"]["2024-07-28"], ShouldEqual, 1)
			})

			Convey("And countries without rows still get an empty entry", func() {
				japan, ok := got.PerCountryDaily["Japan"]
				So(ok, ShouldBeTrue)
				So(japan, ShouldBeEmpty)
				_, kenya := got.PerCountryDaily["Kenya"]
				So(kenya, ShouldBeFalse)
			})
		})

		Convey("When no countries are tracked", func() {
			got := aggregate.BuildDailyCounts(records, nil)

			Convey("Then there are no days", func() {
				So(got.Days, ShouldBeEmpty)
				So(got.PerCountryDaily, ShouldBeEmpty)
			})
		})
	})
}

func TestBuildDailyMatrix(t *testing.T) {
	Convey("Given daily counts for tracked countries", t, func() {
		records := randomRecords(11, 1500)
		countries := aggregate.Countries(aggregate.RankCountriesByTotal(records, 8))
		counts := aggregate.BuildDailyCounts(records, countries)

		matrix := aggregate.BuildDailyMatrix(counts.Days, counts.PerCountryDaily, countries)

		Convey("Then the matrix is dense over days x countries", func() {
			So(len(matrix.Rows), ShouldEqual, len(counts.Days))
			cells := 0
			for _, r := range matrix.Rows {
				cells += len(r.Counts)
			}
			So(cells, ShouldEqual, len(counts.Days)*len(countries))
		})

		Convey("And each column sums to that country's record count", func() {
			for _, c := range countries {
				want := 0
				for _, r := range records {
					if r.Country == c {
						want++
					}
				}
				So(matrix.Total(c), ShouldEqual, want)
			}
		})

		Convey("And row and column order follow the inputs", func() {
			So(matrix.Countries, ShouldResemble, countries)
			for i, r := range matrix.Rows {
				So(r.Day.Equal(counts.Days[i]), ShouldBeTrue)
			}
		})
	})

	Convey("Given days absent from the counts", t, func() {
		per := map[string]map[string]int{"USA": {"2024-07-27": 3}}
		matrix := aggregate.BuildDailyMatrix(
			[]time.Time{day(28).Add(5 * time.Hour), day(27)},
			per,
			[]string{"France", "USA"},
		)

		Convey("Then missing cells are zero and day order is preserved", func() {
			So(len(matrix.Rows), ShouldEqual, 2)
			So(matrix.Rows[0].Day.Equal(day(28)), ShouldBeTrue)
			So(matrix.Rows[0].Counts, ShouldResemble, []int{0, 0})
			So(matrix.Rows[1].Counts, ShouldResemble, []int{0, 3})
			So(dates.DayKey(matrix.Rows[1].Day), ShouldEqual, "2024-07-27")
		})
	})
}

func TestBreakdownByCategory(t *testing.T) {
	Convey("Given the worked example", t, func() {
		records := exampleRecords()

		Convey("When topK is 0", func() {
			got := aggregate.BreakdownByCategory(records, "USA", 0)

			Convey("Then everything folds into Other", func() {
				So(got, ShouldResemble, []model.CategoryBreakdownEntry{{Category: "Other", Count: 2}})
			})
		})

		Convey("When topK covers every category", func() {
			got := aggregate.BreakdownByCategory(records, "USA", 12)

			Convey("Then no Other entry is appended", func() {
				So(got, ShouldResemble, []model.CategoryBreakdownEntry{{Category: "Swimming", Count: 2}})
			})
		})

		Convey("When the country has no records", func() {
			got := aggregate.BreakdownByCategory(records, "Japan", 5)

			Convey("Then the result is empty", func() {
				So(got, ShouldNotBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a country with several categories", t, func() {
		records := []model.MedalRecord{
			rec(27, "Gold", "USA", "Fencing"),
			rec(27, "Gold", "USA", "Swimming"),
			rec(27, "Gold", "USA", "Swimming"),
			rec(27, "Gold", "USA", "Rowing"),
			rec(27, "Gold", "USA", "Athletics"),
			rec(27, "Gold", "USA", "Athletics"),
			rec(27, "Gold", "USA", "Athletics"),
			rec(27, "Gold", "France", "Athletics"),
		}

		got := aggregate.BreakdownByCategory(records, "USA", 2)

		Convey("Then top categories are sorted with stable ties and the tail folded", func() {
			So(got, ShouldResemble, []model.CategoryBreakdownEntry{
				{Category: "Athletics", Count: 3},
				{Category: "Swimming", Count: 2},
				{Category: "Other", Count: 2},
			})
		})
	})

	Convey("Given a random dataset", t, func() {
		records := randomRecords(3, 1000)

		Convey("Then the breakdown always sums to the country's record count", func() {
			for _, k := range []int{-1, 0, 1, 3, 8, 20} {
				got := aggregate.BreakdownByCategory(records, "Japan", k)
				want, sum := 0, 0
				for _, r := range records {
					if r.Country == "Japan" {
						want++
					}
				}
				hasOther := false
				for _, e := range got {
					sum += e.Count
					if e.Category == model.OtherCategory {
						hasOther = true
						So(e.Count, ShouldBeGreaterThan, 0)
					}
				}
				So(sum, ShouldEqual, want)
				So(hasOther, ShouldEqual, k < 8)
			}
		})
	})
}
