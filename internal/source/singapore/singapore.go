// Package singapore reads vaccination progress from the Ministry of
// Health news feed.
package singapore

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/couchcryptid/covid-data-etl/internal/source"
	"golang.org/x/net/html"
)

const (
	name     = "singapore"
	location = "Singapore"
	feedURL  = "https://www.moh.gov.sg/feeds/news-highlights"
	vaccines = "Moderna, Pfizer/BioNTech, Sinovac"

	dateLayout = "2 January 2006"
)

var (
	articlePattern = regexp.MustCompile(`https?://\S*vaccination-progress\S*`)

	nationalPattern = regexp.MustCompile(`As of ([\d]+ [A-Za-z]+ 20\d{2}), we have administered a total of ([\d,]+) doses of COVID-19 vaccines under the national vaccination programme \(Pfizer-BioNTech Comirnaty and Moderna\), covering ([\d,]+) individuals`)
	whoEULPattern   = regexp.MustCompile(`In addition, ([\d,]+) doses of other vaccines recognised in the World Health Organization’s Emergency Use Listing \(WHO EUL\) have been administered as of ([\d]+ [A-Za-z]+ 20\d{2}), covering ([\d,]+) individuals\. In total, (\d+)% of our population has completed their full regimen/ received two doses of COVID-19 vaccines, and (\d+)% has received at least one dose`)
)

func init() {
	source.Register(source.Entry{
		Name: name,
		Kind: source.KindIncremental,
		URL:  feedURL,
		New:  func(d source.Deps) pipeline.Source { return New(d.Fetcher, d.Logger) },
	})
}

// Singapore is an incremental source.
type Singapore struct {
	fetcher domain.Fetcher
	logger  *slog.Logger
	feedURL string
}

// New creates the Singapore source.
func New(fetcher domain.Fetcher, logger *slog.Logger) *Singapore {
	return &Singapore{fetcher: fetcher, logger: logger, feedURL: feedURL}
}

func (s *Singapore) Name() string     { return name }
func (s *Singapore) Location() string { return location }

// Observe finds the latest vaccination progress article in the feed and
// extracts its totals.
func (s *Singapore) Observe(ctx context.Context) (domain.Observation, error) {
	articleURL, err := s.findArticle(ctx)
	if err != nil {
		return domain.Observation{}, err
	}
	s.logger.Debug("found vaccination article", "url", articleURL)

	body, err := s.fetcher.Fetch(ctx, articleURL)
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
		domain.WithSourceURL(articleURL),
		domain.WithVaccine(vaccines),
	)
}

// findArticle returns the first feed item linking to a vaccination
// progress article.
func (s *Singapore) findArticle(ctx context.Context) (string, error) {
	body, err := s.fetcher.Fetch(ctx, s.feedURL)
	if err != nil {
		return "", err
	}
	doc, err := source.ParseHTML(body)
	if err != nil {
		return "", err
	}
	var url string
	doc.Find("item link").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		url = articlePattern.FindString(linkText(link))
		return url == ""
	})
	if url == "" {
		return "", domain.FormatDrift("no vaccination-progress item in feed %s", s.feedURL)
	}
	return url, nil
}

// linkText returns the URL of an RSS <link>. The HTML parser treats <link>
// as a void element, so its URL ends up in the text node that follows it.
func linkText(link *goquery.Selection) string {
	text := link.Text()
	if text == "" {
		if next := link.Nodes[0].NextSibling; next != nil && next.Type == html.TextNode {
			text = next.Data
		}
	}
	if fields := strings.Fields(text); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func parse(doc *goquery.Document) (domain.Observation, error) {
	text := source.Text(doc.Selection)

	national, err := domain.Extract(nationalPattern, text, "national programme totals")
	if err != nil {
		return domain.Observation{}, err
	}
	nationalDate, err := domain.CleanDate(national[0], dateLayout)
	if err != nil {
		return domain.Observation{}, err
	}
	nationalDoses, err := domain.CleanCount(national[1])
	if err != nil {
		return domain.Observation{}, err
	}
	nationalPeople, err := domain.CleanCount(national[2])
	if err != nil {
		return domain.Observation{}, err
	}

	who, err := domain.Extract(whoEULPattern, text, "WHO EUL totals")
	if err != nil {
		return domain.Observation{}, err
	}
	whoDoses, err := domain.CleanCount(who[0])
	if err != nil {
		return domain.Observation{}, err
	}
	whoDate, err := domain.CleanDate(who[1], dateLayout)
	if err != nil {
		return domain.Observation{}, err
	}
	whoPeople, err := domain.CleanCount(who[2])
	if err != nil {
		return domain.Observation{}, err
	}
	shareFull, err := strconv.Atoi(who[3])
	if err != nil {
		return domain.Observation{}, domain.FormatDrift("fully vaccinated share %q", who[3])
	}
	shareAny, err := strconv.Atoi(who[4])
	if err != nil || shareAny == 0 {
		return domain.Observation{}, domain.FormatDrift("vaccinated share %q", who[4])
	}

	peopleVaccinated := nationalPeople + whoPeople
	return domain.Observation{
		Date: latest(nationalDate, whoDate),
		Metrics: map[domain.Metric]int64{
			domain.TotalVaccinations:     nationalDoses + whoDoses,
			domain.PeopleVaccinated:      peopleVaccinated,
			domain.PeopleFullyVaccinated: int64(math.Round(float64(peopleVaccinated) * float64(shareFull) / float64(shareAny))),
		},
	}, nil
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
