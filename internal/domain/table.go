package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Table is a rectangular dataset: a header row and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Validate checks the header is non-empty and unique and every row has as
// many cells as the header.
func (t Table) Validate() error {
	var errs []error
	if len(t.Header) == 0 {
		errs = append(errs, fmt.Errorf("%w: table has no header", ErrValidation))
	}
	seen := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		if h == "" {
			errs = append(errs, fmt.Errorf("%w: empty column name", ErrValidation))
		}
		if seen[h] {
			errs = append(errs, fmt.Errorf("%w: duplicate column %q", ErrValidation, h))
		}
		seen[h] = true
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			errs = append(errs, fmt.Errorf("%w: row %d has %d cells, want %d", ErrValidation, i+1, len(row), len(t.Header)))
		}
	}
	return errors.Join(errs...)
}

// Column returns the index of the named column, or -1.
func (t Table) Column(name string) int {
	return slices.Index(t.Header, name)
}

const (
	colLocation  = "location"
	colDate      = "date"
	colVaccine   = "vaccine"
	colSourceURL = "source_url"
)

// SeriesTable renders a series in its storage layout:
// location, date, metric columns, vaccine, source_url. Absent metrics are
// empty cells.
func SeriesTable(s Series) Table {
	metrics := s.Metrics()
	header := make([]string, 0, len(metrics)+4)
	header = append(header, colLocation, colDate)
	for _, m := range metrics {
		header = append(header, string(m))
	}
	header = append(header, colVaccine, colSourceURL)

	rows := make([][]string, 0, len(s))
	for _, o := range s {
		row := make([]string, 0, len(header))
		row = append(row, o.Location, o.DateString())
		for _, m := range metrics {
			if v, ok := o.Metrics[m]; ok {
				row = append(row, strconv.FormatInt(v, 10))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, o.Vaccine, o.SourceURL)
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

// ParseSeriesTable reads a series back from its storage layout. Columns
// other than location, date, vaccine and source_url are metrics. Integral
// float cells such as "1234.0" are accepted for files written by other tools.
func ParseSeriesTable(t Table) (Series, error) {
	for _, required := range []string{colLocation, colDate} {
		if t.Column(required) < 0 {
			return nil, FormatDrift("series file has no %q column", required)
		}
	}

	s := make(Series, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return nil, FormatDrift("row %d has %d cells, want %d", i+1, len(row), len(t.Header))
		}
		var o Observation
		for j, name := range t.Header {
			cell := strings.TrimSpace(row[j])
			switch name {
			case colLocation:
				o.Location = cell
			case colDate:
				d, err := ParseDate(cell)
				if err != nil {
					return nil, FormatDrift("row %d: %v", i+1, err)
				}
				o.Date = d
			case colVaccine:
				o.Vaccine = cell
			case colSourceURL:
				o.SourceURL = cell
			default:
				if cell == "" {
					continue
				}
				v, err := parseCount(cell)
				if err != nil {
					return nil, FormatDrift("row %d: column %s: %v", i+1, name, err)
				}
				if o.Metrics == nil {
					o.Metrics = make(map[Metric]int64)
				}
				o.Metrics[Metric(name)] = v
			}
		}
		s = append(s, o)
	}
	return s, nil
}

// fixedColumn reports whether name is one of the non-metric series columns.
func fixedColumn(name string) bool {
	switch name {
	case colLocation, colDate, colVaccine, colSourceURL:
		return true
	}
	return false
}

func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not an integer count", s)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int64(f), nil
}
