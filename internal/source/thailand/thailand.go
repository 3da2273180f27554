// Package thailand reads the daily testing workbook published by the
// Department of Medical Sciences.
package thailand

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/couchcryptid/covid-data-etl/internal/source"
	"github.com/xuri/excelize/v2"
)

const (
	name        = "thailand"
	country     = "Thailand"
	landingURL  = "https://www3.dmsc.moph.go.th/"
	sourceLabel = "Department of Medical Sciences Ministry of Public Health"
	units       = "tests performed"
	sheet       = "Data"
	category    = "testing"

	// linkIndex is the position of the workbook link in the landing page's
	// first container.
	linkIndex = 3

	// Serial numbers outside this range are not dates in this workbook.
	minSerial = 43466 // 2019-01-01
	maxSerial = 73051 // 2100-01-01
)

var header = []string{"Date", "Daily change in cumulative total", "Country", "Units", "Source URL", "Source label", "Notes"}

func init() {
	source.Register(source.Entry{
		Name: name,
		Kind: source.KindBatch,
		URL:  landingURL,
		New:  func(d source.Deps) pipeline.Source { return New(d.Fetcher, d.Logger) },
	})
}

// Thailand is a batch source.
type Thailand struct {
	fetcher    domain.Fetcher
	logger     *slog.Logger
	landingURL string
}

// New creates the Thailand source.
func New(fetcher domain.Fetcher, logger *slog.Logger) *Thailand {
	return &Thailand{fetcher: fetcher, logger: logger, landingURL: landingURL}
}

func (t *Thailand) Name() string { return name }

// Collect locates the workbook, downloads it and converts the Data sheet.
func (t *Thailand) Collect(ctx context.Context) ([]domain.Dataset, error) {
	workbookURL, err := t.findWorkbook(ctx)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("found testing workbook", "url", workbookURL)

	body, err := t.fetcher.Fetch(ctx, workbookURL)
	if err != nil {
		return nil, err
	}
	rows, err := readSheet(body)
	if err != nil {
		return nil, err
	}
	return []domain.Dataset{{
		Category: category,
		Name:     country,
		Table:    toTable(rows, t.landingURL),
	}}, nil
}

func (t *Thailand) findWorkbook(ctx context.Context) (string, error) {
	body, err := t.fetcher.Fetch(ctx, t.landingURL)
	if err != nil {
		return "", err
	}
	doc, err := source.ParseHTML(body)
	if err != nil {
		return "", err
	}
	link := doc.Find("div.container-fluid").First().Find("a").Eq(linkIndex)
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", domain.FormatDrift("no workbook link at position %d of div.container-fluid", linkIndex+1)
	}

	base, err := url.Parse(t.landingURL)
	if err != nil {
		return "", fmt.Errorf("parse landing url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", domain.FormatDrift("workbook link %q: %v", href, err)
	}
	return strings.TrimSuffix(base.ResolveReference(ref).String(), "/") + "/download", nil
}

// dailyTests is one dated row of the Data sheet.
type dailyTests struct {
	Date  string
	Total int64
}

// readSheet keeps rows whose first column is a date and whose Total is
// non-zero. Column B (positives) is not published.
func readSheet(body []byte) ([]dailyTests, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, domain.FormatDrift("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, domain.FormatDrift("sheet %q: %v", sheet, err)
	}

	var out []dailyTests
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil || serial < minSerial || serial >= maxSerial {
			continue
		}
		date, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		if len(row) < 3 || strings.TrimSpace(row[2]) == "" {
			continue
		}
		total, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, domain.FormatDrift("row %d: total %q is not a number", i+1, row[2])
		}
		if total == 0 {
			continue
		}
		out = append(out, dailyTests{Date: date.Format(domain.DateLayout), Total: int64(total)})
	}
	if len(out) == 0 {
		return nil, domain.FormatDrift("sheet %q has no dated rows", sheet)
	}
	return out, nil
}

func toTable(rows []dailyTests, sourceURL string) domain.Table {
	t := domain.Table{Header: header}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Date, strconv.FormatInt(r.Total, 10), country, units, sourceURL, sourceLabel, ""})
	}
	return t
}
