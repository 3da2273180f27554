// Package serbia reads the latest vaccination totals from the Serbian
// government vaccination portal.
package serbia

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/couchcryptid/covid-data-etl/internal/source"
)

const (
	name      = "serbia"
	location  = "Serbia"
	sourceURL = "https://vakcinacija.gov.rs/"
	vaccines  = "Oxford/AstraZeneca, Pfizer/BioNTech, Sinopharm/Beijing, Sputnik V"

	// dateMarker introduces the "last updated" date, e.g. "ажурирано 10.1.2022".
	dateMarker = "ажурирано"
	dateLayout = "2.1.2006"
)

var (
	metricsPattern = regexp.MustCompile(`Број доза: ([\d.]+) – прва доза ([\d.]+), друга доза ([\d.]+), трећа доза ([\d.]+)`)
	datePattern    = regexp.MustCompile(dateMarker + ` (\d{1,2}\.\d{1,2}\.\d{4})`)
)

func init() {
	source.Register(source.Entry{
		Name: name,
		Kind: source.KindIncremental,
		URL:  sourceURL,
		New:  func(d source.Deps) pipeline.Source { return New(d.Fetcher, d.Logger) },
	})
}

// Serbia is an incremental source.
type Serbia struct {
	fetcher domain.Fetcher
	logger  *slog.Logger
	url     string
}

// New creates the Serbia source.
func New(fetcher domain.Fetcher, logger *slog.Logger) *Serbia {
	return &Serbia{fetcher: fetcher, logger: logger, url: sourceURL}
}

func (s *Serbia) Name() string     { return name }
func (s *Serbia) Location() string { return location }

// Observe fetches the portal front page and extracts today's totals.
func (s *Serbia) Observe(ctx context.Context) (domain.Observation, error) {
	body, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return domain.Observation{}, err
	}
	doc, err := source.ParseHTML(body)
	if err != nil {
		return domain.Observation{}, err
	}
	obs, err := parse(doc)
	if err != nil {
		return domain.Observation{}, err
	}
	return domain.Pipe(obs,
		domain.WithLocation(location),
		domain.WithVaccine(vaccines),
		domain.WithSourceURL(s.url),
	)
}

func parse(doc *goquery.Document) (domain.Observation, error) {
	counts, err := domain.ExtractCounts(metricsPattern, source.Text(doc.Selection), "dose totals")
	if err != nil {
		return domain.Observation{}, err
	}
	date, err := parseDate(doc)
	if err != nil {
		return domain.Observation{}, err
	}
	return domain.Observation{
		Date: date,
		Metrics: map[domain.Metric]int64{
			domain.TotalVaccinations:     counts[0],
			domain.PeopleVaccinated:      counts[1],
			domain.PeopleFullyVaccinated: counts[2],
			domain.TotalBoosters:         counts[3],
		},
	}, nil
}

// parseDate reads the date from the only paragraph carrying the
// "last updated" marker.
func parseDate(doc *goquery.Document) (time.Time, error) {
	var matches []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := source.Text(p); strings.Contains(text, dateMarker) {
			matches = append(matches, text)
		}
	})
	if len(matches) != 1 {
		return time.Time{}, domain.FormatDrift("want exactly one %q paragraph, found %d", dateMarker, len(matches))
	}
	groups, err := domain.Extract(datePattern, matches[0], "update date")
	if err != nil {
		return time.Time{}, err
	}
	return domain.CleanDate(groups[0], dateLayout)
}
