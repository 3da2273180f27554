// Package chile rebuilds Chile's vaccination history from the Ministry of
// Science open data repository.
package chile

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/couchcryptid/covid-data-etl/internal/source"
)

const (
	name     = "chile"
	location = "Chile"

	vaccinationsURL = "https://raw.githubusercontent.com/MinCiencia/Datos-COVID19/master/output/producto76/vacunacion.csv"
	manufacturerURL = "https://raw.githubusercontent.com/MinCiencia/Datos-COVID19/master/output/producto76/fabricante.csv"
	referenceURL    = "https://github.com/MinCiencia/Datos-COVID19"
	sourceName      = "Ministerio de Ciencia, Tecnología, Conocimiento e Innovación"

	categoryByManufacturer = "vaccinations-by-manufacturer"
)

// Dose labels in the Dosis column.
const (
	dosePrimera  = "Primera"
	doseSegunda  = "Segunda"
	doseRefuerzo = "Refuerzo"
	doseUnica    = "Unica"
)

// vaccineNames maps manufacturer labels to canonical vaccine names.
var vaccineNames = map[string]string{
	"Pfizer":       "Pfizer/BioNTech",
	"Sinovac":      "Sinovac",
	"Astra-Zeneca": "Oxford/AstraZeneca",
	"CanSino":      "CanSino",
}

func init() {
	source.Register(source.Entry{
		Name: name,
		Kind: source.KindBatch,
		URL:  referenceURL,
		New:  func(d source.Deps) pipeline.Source { return New(d.Fetcher, d.Logger) },
	})
}

// Chile is a batch source producing the national series and the
// per-manufacturer breakdown.
type Chile struct {
	fetcher domain.Fetcher
	logger  *slog.Logger
}

// New creates the Chile source.
func New(fetcher domain.Fetcher, logger *slog.Logger) *Chile {
	return &Chile{fetcher: fetcher, logger: logger}
}

func (c *Chile) Name() string { return name }

// Collect downloads both files and reshapes them.
func (c *Chile) Collect(ctx context.Context) ([]domain.Dataset, error) {
	manRaw, err := c.readWide(ctx, manufacturerURL, "Fabricante")
	if err != nil {
		return nil, err
	}
	byManufacturer, err := manufacturerRows(manRaw)
	if err != nil {
		return nil, err
	}

	vaxRaw, err := c.readWide(ctx, vaccinationsURL, "Region")
	if err != nil {
		return nil, err
	}
	series := vaccinationSeries(vaxRaw, vaccineLists(byManufacturer))
	c.logger.Debug("reshaped producto76", "series_rows", len(series), "manufacturer_rows", len(byManufacturer))

	return []domain.Dataset{
		{
			Category: categoryByManufacturer,
			Name:     location,
			Table:    manufacturerTable(byManufacturer),
			Meta: &domain.DatasetMeta{
				Name:       location,
				Namespace:  categoryByManufacturer,
				SourceName: sourceName,
				SourceURL:  referenceURL,
			},
		},
		{
			Category: pipeline.CategoryVaccinations,
			Name:     location,
			Table:    domain.SeriesTable(series),
		},
	}, nil
}

// cell is one value of a wide table after melting: a group label, a dose
// label, a date and a count.
type cell struct {
	Group string
	Dose  string
	Date  time.Time
	Value float64
}

// readWide fetches a "<group>,Dosis,<date>,<date>,..." file and melts it to
// one cell per group, dose and date. Empty and non-numeric values are
// skipped.
func (c *Chile) readWide(ctx context.Context, url, groupCol string) ([]cell, error) {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return nil, domain.FormatDrift("%s: %v", url, err)
	}
	if len(records) == 0 {
		return nil, domain.FormatDrift("%s: empty file", url)
	}
	header := records[0]
	if len(header) < 3 || header[0] != groupCol || header[1] != "Dosis" {
		return nil, domain.FormatDrift("%s: want columns %s,Dosis,<dates>, got %v", url, groupCol, header[:min(len(header), 3)])
	}
	dates := make([]time.Time, len(header)-2)
	for i, h := range header[2:] {
		d, err := domain.ParseDate(h)
		if err != nil {
			return nil, domain.FormatDrift("%s: date column %q", url, h)
		}
		dates[i] = d
	}

	var out []cell
	for _, rec := range records[1:] {
		for i, raw := range rec[2:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || math.IsNaN(v) {
				continue
			}
			out = append(out, cell{Group: rec[0], Dose: rec[1], Date: dates[i], Value: v})
		}
	}
	return out, nil
}

// pivot groups positive cells by (group, date) into a dose→value map.
func pivot(cells []cell, keep func(group string) bool) map[string]map[time.Time]map[string]float64 {
	out := make(map[string]map[time.Time]map[string]float64)
	for _, c := range cells {
		if c.Value <= 0 || !keep(c.Group) {
			continue
		}
		byDate, ok := out[c.Group]
		if !ok {
			byDate = make(map[time.Time]map[string]float64)
			out[c.Group] = byDate
		}
		doses, ok := byDate[c.Date]
		if !ok {
			doses = make(map[string]float64)
			byDate[c.Date] = doses
		}
		doses[c.Dose] = c.Value
	}
	return out
}

// manufacturerRow is one line of the by-manufacturer output.
type manufacturerRow struct {
	Date    time.Time
	Vaccine string
	Total   int64
}

func manufacturerRows(cells []cell) ([]manufacturerRow, error) {
	pivoted := pivot(cells, func(g string) bool { return g != "Total" })

	var unknown []string
	var rows []manufacturerRow
	for label, byDate := range pivoted {
		vaccine, ok := vaccineNames[label]
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		for date, doses := range byDate {
			rows = append(rows, manufacturerRow{
				Date:    date,
				Vaccine: vaccine,
				Total:   round(doses[dosePrimera] + doses[doseSegunda]),
			})
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, domain.FormatDrift("unknown manufacturers %v", unknown)
	}

	slices.SortFunc(rows, func(a, b manufacturerRow) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Vaccine, b.Vaccine)
	})
	return rows, nil
}

func manufacturerTable(rows []manufacturerRow) domain.Table {
	t := domain.Table{Header: []string{"location", "date", "vaccine", "total_vaccinations"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{location, r.Date.Format(domain.DateLayout), r.Vaccine, strconv.FormatInt(r.Total, 10)})
	}
	return t
}

// vaccineLists returns, per date, the vaccines administered that day.
func vaccineLists(rows []manufacturerRow) map[time.Time]string {
	names := make(map[time.Time][]string)
	for _, r := range rows {
		names[r.Date] = append(names[r.Date], r.Vaccine)
	}
	out := make(map[time.Time]string, len(names))
	for d, vs := range names {
		out[d] = domain.NormalizeVaccines(strings.Join(vs, ","))
	}
	return out
}

// vaccinationSeries builds the national series from the Region=Total rows.
// Dates without manufacturer data inherit the previous date's vaccine list.
func vaccinationSeries(cells []cell, vaccines map[time.Time]string) domain.Series {
	totals := pivot(cells, func(g string) bool { return g == "Total" })["Total"]

	dates := make([]time.Time, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	series := make(domain.Series, 0, len(dates))
	var vaccine string
	for _, d := range dates {
		doses := totals[d]
		if v, ok := vaccines[d]; ok {
			vaccine = v
		}
		first, second := doses[dosePrimera], doses[doseSegunda]
		booster, single := doses[doseRefuerzo], doses[doseUnica]
		series = append(series, domain.Observation{
			Location:  location,
			Date:      d,
			Vaccine:   vaccine,
			SourceURL: referenceURL,
			Metrics: map[domain.Metric]int64{
				domain.TotalVaccinations:     round(first + second + booster + single),
				domain.PeopleVaccinated:      round(first + single),
				domain.PeopleFullyVaccinated: round(second + single),
				domain.TotalBoosters:         round(booster),
			},
		})
	}
	return series
}

func round(f float64) int64 {
	return int64(math.Round(f))
}
