package uknations

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

var zeroDay = domain.Date(2020, time.January, 1)

// columns is the output column order.
var columns = []string{
	"Country",
	"Year",
	"weekly_cases_rolling",
	"cumulative_cases",
	"weekly_deaths_rolling",
	"cumulative_deaths",
	"daily_deaths",
	"daily_cases",
	"test_positivity_rate",
	"weekly_hospital_admissions",
	"people_in_hospital",
	"cumulative_cases_rate",
	"cumulative_deaths_rate",
	"weekly_cases_rate",
	"weekly_deaths_rate",
	"daily_cases_rolling_average",
	"daily_deaths_rolling_average",
	"daily_cases_rate_rolling_average",
	"daily_deaths_rate_rolling_average",
	"new_hospital_admissions",
}

// averages derives daily values from weekly rolling sums.
var averages = []struct{ from, to string }{
	{"weekly_cases_rolling", "daily_cases_rolling_average"},
	{"weekly_deaths_rolling", "daily_deaths_rolling_average"},
	{"weekly_cases_rate", "daily_cases_rate_rolling_average"},
	{"weekly_deaths_rate", "daily_deaths_rate_rolling_average"},
	{"weekly_hospital_admissions", "new_hospital_admissions"},
}

// join keeps the absolute rows that have a rate row for the same date and
// area, combining their values. Row order follows absolute.
func join(absolute, rate []record) []record {
	byKey := make(map[string]record, len(rate))
	for _, r := range rate {
		if _, seen := byKey[r.key()]; !seen {
			byKey[r.key()] = r
		}
	}
	out := make([]record, 0, len(absolute))
	for _, a := range absolute {
		r, ok := byKey[a.key()]
		if !ok {
			continue
		}
		merged := record{Date: a.Date, Area: a.Area, AreaCode: a.AreaCode, Values: make(map[string]float64, len(a.Values)+len(r.Values))}
		for k, v := range a.Values {
			merged.Values[k] = v
		}
		for k, v := range r.Values {
			merged.Values[k] = v
		}
		out = append(out, merged)
	}
	return out
}

// row is one output line: area, day number and values by column.
type row struct {
	Area   string
	Day    int
	Values map[string]float64
}

// build combines area groups in priority order into the grapher table.
// A (area, date) pair already produced by an earlier group is skipped.
func build(groups ...[]record) (domain.Table, error) {
	seen := make(map[string]bool)
	var rows []row
	for _, g := range groups {
		for _, rec := range g {
			k := rec.Area + "\x00" + rec.Date
			if seen[k] {
				continue
			}
			seen[k] = true

			if _, ok := rec.Values["weekly_cases_rolling"]; !ok {
				continue
			}
			date, err := domain.ParseDate(rec.Date)
			if err != nil {
				return domain.Table{}, formatDrift("%s: %v", rec.Area, err)
			}
			values := make(map[string]float64, len(rec.Values)+len(averages))
			for k, v := range rec.Values {
				values[k] = v
			}
			for _, a := range averages {
				if v, ok := values[a.from]; ok {
					values[a.to] = v / 7
				}
			}
			rows = append(rows, row{Area: rec.Area, Day: dayNumber(date), Values: values})
		}
	}

	slices.SortStableFunc(rows, func(a, b row) int {
		if c := strings.Compare(a.Area, b.Area); c != 0 {
			return c
		}
		return a.Day - b.Day
	})

	t := domain.Table{Header: columns, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		line := make([]string, len(columns))
		line[0] = r.Area
		line[1] = strconv.Itoa(r.Day)
		for i, col := range columns[2:] {
			if v, ok := r.Values[col]; ok {
				line[i+2] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		t.Rows = append(t.Rows, line)
	}
	return t, nil
}

// dayNumber counts days since 2020-01-01, the grapher zero day.
func dayNumber(d time.Time) int {
	return int(d.Sub(zeroDay).Hours() / 24)
}

func sortedColumns(s structure) []string {
	out := make([]string, 0, len(s))
	for col := range s {
		out = append(out, col)
	}
	slices.Sort(out)
	return out
}
