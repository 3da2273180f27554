package uknations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// maxPages bounds v1 pagination in case the API never reports a last page.
const maxPages = 500

// Output column names taken from the dashboard structures.
const (
	colDate     = "Year"
	colArea     = "Country"
	colAreaCode = "areaCode"
)

// structure maps output column names to dashboard metric names.
type structure map[string]string

var (
	nationalAbsolute = structure{
		"weekly_cases_rolling":       "newCasesByPublishDateRollingSum",
		"cumulative_cases":           "cumCasesByPublishDate",
		"weekly_deaths_rolling":      "newDeaths28DaysByPublishDateRollingSum",
		"cumulative_deaths":          "cumDeaths28DaysByPublishDate",
		"daily_deaths":               "newDeaths28DaysByPublishDate",
		"daily_cases":                "newCasesByPublishDate",
		"test_positivity_rate":       "uniqueCasePositivityBySpecimenDateRollingSum",
		"weekly_hospital_admissions": "newAdmissionsRollingSum",
		"people_in_hospital":         "hospitalCases",
	}
	rates = structure{
		"cumulative_cases_rate":  "cumCasesByPublishDateRate",
		"cumulative_deaths_rate": "cumDeaths28DaysByPublishDateRate",
		"weekly_cases_rate":      "newCasesByPublishDateRollingRate",
		"weekly_deaths_rate":     "newDeaths28DaysByDeathDateRollingRate",
	}
	localAbsolute = structure{
		"cumulative_cases":      "cumCasesByPublishDate",
		"cumulative_deaths":     "cumDeaths28DaysByPublishDate",
		"weekly_cases_rolling":  "newCasesByPublishDateRollingSum",
		"weekly_deaths_rolling": "newDeaths28DaysByPublishDateRollingSum",
		"daily_deaths":          "newDeaths28DaysByPublishDate",
		"daily_cases":           "newCasesByPublishDate",
		"test_positivity_rate":  "uniqueCasePositivityBySpecimenDateRollingSum",
	}
	nhsRegion = structure{
		"weekly_hospital_admissions": "newAdmissionsRollingSum",
		"people_in_hospital":         "hospitalCases",
	}
)

// record is one area on one date. Values holds only the metrics the API
// reported as non-null.
type record struct {
	Date     string
	Area     string
	AreaCode string
	Values   map[string]float64
}

func (r record) key() string {
	return r.Date + "\x00" + r.Area + "\x00" + r.AreaCode
}

// v1Page is one page of the v1 data endpoint.
type v1Page struct {
	Data       []map[string]any `json:"data"`
	Pagination struct {
		Next *string `json:"next"`
	} `json:"pagination"`
}

// v2Response is the v2 data endpoint, which is not paginated.
type v2Response struct {
	Body []map[string]any `json:"body"`
}

// query fetches every page of a v1 query for one area type.
func (u *UKNations) query(ctx context.Context, areaType string, s structure) ([]record, error) {
	full := make(map[string]string, len(s)+3)
	for col, metric := range s {
		full[col] = metric
	}
	full[colDate] = "date"
	full[colArea] = "areaName"
	full[colAreaCode] = "areaCode"
	structJSON, err := json.Marshal(full)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}

	// v1 rows are keyed by the requested column names.
	fields := make(map[string]string, len(s))
	for col := range s {
		fields[col] = col
	}

	var out []record
	for page := 1; page <= maxPages; page++ {
		params := url.Values{
			"filters":   {"areaType=" + areaType},
			"structure": {string(structJSON)},
			"format":    {"json"},
			"page":      {strconv.Itoa(page)},
		}
		body, err := u.fetcher.Fetch(ctx, u.apiBase+"/v1/data?"+params.Encode())
		if err != nil {
			return nil, err
		}
		// The API answers past-the-end pages with 204 No Content.
		if len(strings.TrimSpace(string(body))) == 0 {
			return out, nil
		}
		var p v1Page
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, formatDrift("%s page %d: %v", areaType, page, err)
		}
		for _, raw := range p.Data {
			rec, err := toRecord(raw, v1Identity, fields)
			if err != nil {
				return nil, formatDrift("%s page %d: %v", areaType, page, err)
			}
			out = append(out, rec)
		}
		if p.Pagination.Next == nil {
			return out, nil
		}
	}
	return nil, formatDrift("%s: more than %d pages", areaType, maxPages)
}

// localRates fetches upper-tier local authority rates from the v2 endpoint.
func (u *UKNations) localRates(ctx context.Context) ([]record, error) {
	params := url.Values{"areaType": {"utla"}}
	for _, col := range sortedColumns(rates) {
		params.Add("metric", rates[col])
	}
	body, err := u.fetcher.Fetch(ctx, u.apiBase+"/v2/data?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var resp v2Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, formatDrift("utla rates: %v", err)
	}
	// v2 rows are keyed by the dashboard metric names.
	fields := make(map[string]string, len(rates))
	for col, metric := range rates {
		fields[metric] = col
	}
	out := make([]record, 0, len(resp.Body))
	for _, raw := range resp.Body {
		rec, err := toRecord(raw, v2Identity, fields)
		if err != nil {
			return nil, formatDrift("utla rates: %v", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// identity names the date, area name and area code keys of a row.
type identity struct{ date, area, code string }

var (
	v1Identity = identity{colDate, colArea, colAreaCode}
	v2Identity = identity{"date", "areaName", "areaCode"}
)

// toRecord reads identity fields and metrics from one decoded row. fields
// maps row keys to output column names.
func toRecord(raw map[string]any, id identity, fields map[string]string) (record, error) {
	rec := record{Values: make(map[string]float64)}
	var ok bool
	if rec.Date, ok = raw[id.date].(string); !ok {
		return record{}, fmt.Errorf("row without %s", id.date)
	}
	if rec.Area, ok = raw[id.area].(string); !ok {
		return record{}, fmt.Errorf("row without %s", id.area)
	}
	rec.AreaCode, _ = raw[id.code].(string)

	for key, col := range fields {
		switch v := raw[key].(type) {
		case nil:
		case float64:
			rec.Values[col] = v
		default:
			return record{}, fmt.Errorf("%s on %s: %v is not a number", key, rec.Date, v)
		}
	}
	return rec, nil
}
