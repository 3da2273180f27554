// Package uknations builds the UK, nation and local authority dataset from
// the UK coronavirus dashboard API.
package uknations

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/couchcryptid/covid-data-etl/internal/source"
)

const (
	name        = "uk-nations"
	datasetName = "uk_covid_data"
	category    = "grapher"
	apiBase     = "https://api.coronavirus.data.gov.uk"
	dashboard   = "https://coronavirus.data.gov.uk/"
)

func init() {
	source.Register(source.Entry{
		Name: name,
		Kind: source.KindBatch,
		URL:  dashboard,
		New:  func(d source.Deps) pipeline.Source { return New(d.Fetcher, d.Logger) },
	})
}

// UKNations is a batch source.
type UKNations struct {
	fetcher domain.Fetcher
	logger  *slog.Logger
	apiBase string
}

// New creates the UK source.
func New(fetcher domain.Fetcher, logger *slog.Logger) *UKNations {
	return &UKNations{fetcher: fetcher, logger: logger, apiBase: apiBase}
}

func (u *UKNations) Name() string { return name }

// Collect queries every area type and builds the grapher dataset.
func (u *UKNations) Collect(ctx context.Context) ([]domain.Dataset, error) {
	uk, err := u.absoluteWithRates(ctx, "overview", nationalAbsolute)
	if err != nil {
		return nil, err
	}
	nations, err := u.absoluteWithRates(ctx, "nation", nationalAbsolute)
	if err != nil {
		return nil, err
	}

	local, err := u.query(ctx, "utla", localAbsolute)
	if err != nil {
		return nil, err
	}
	localRate, err := u.localRates(ctx)
	if err != nil {
		return nil, err
	}

	regions, err := u.query(ctx, "nhsRegion", nhsRegion)
	if err != nil {
		return nil, err
	}

	table, err := build(uk, nations, join(local, localRate), regions)
	if err != nil {
		return nil, err
	}
	u.logger.Debug("built grapher table", "rows", len(table.Rows))

	return []domain.Dataset{{
		Category: category,
		Name:     datasetName,
		Table:    table,
		Meta: &domain.DatasetMeta{
			Name:       datasetName,
			Namespace:  "owid",
			SourceName: sourceName(domain.Now()),
			SourceURL:  dashboard,
			Display: map[string]any{
				"yearIsDay": true,
				"zeroDay":   zeroDay.Format(domain.DateLayout),
			},
		},
	}}, nil
}

func (u *UKNations) absoluteWithRates(ctx context.Context, areaType string, s structure) ([]record, error) {
	absolute, err := u.query(ctx, areaType, s)
	if err != nil {
		return nil, err
	}
	rate, err := u.query(ctx, areaType, rates)
	if err != nil {
		return nil, err
	}
	return join(absolute, rate), nil
}

// sourceName renders the catalog source label with the update time in
// London.
func sourceName(now time.Time) string {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		london = time.UTC
	}
	return fmt.Sprintf("UK Government Coronavirus (COVID-19) Dashboard – Last updated %s (London time)", now.In(london).Format("2 January, 15:04"))
}

func formatDrift(format string, args ...any) error {
	return domain.FormatDrift("uk dashboard: "+format, args...)
}
