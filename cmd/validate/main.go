// Command validate checks the integrity of an output root written by
// covid-etl: every vaccination series parses, belongs to the location its
// file is named after, has strictly ascending unique dates and carries no
// negative counts. Other dataset files must be well-formed tables.
// Decreasing cumulative counts are reported as notes, not failures.
//
// Usage:
//
//	go run ./cmd/validate -dir ./output
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

// joined records each line of a joined error separately.
func (p *phase) joined(prefix string, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		p.errorf("%s: %s", prefix, line)
	}
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "output root written by covid-etl")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(2)
	}

	if code := run(*dir, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

// seriesFile is a vaccination series read from disk.
type seriesFile struct {
	path   string
	series domain.Series
}

func run(dir string, w io.Writer) int {
	fmt.Fprintln(w, "=== Output Integrity Validation ===")
	fmt.Fprintln(w)

	seriesPaths, datasetPaths, err := listFiles(dir)
	if err != nil {
		fmt.Fprintf(w, "FATAL: list %s: %v\n", dir, err)
		return 1
	}

	parse, files := parseSeries(seriesPaths)
	phases := []*phase{
		parse,
		validateLocations(csvfile.New(dir), files),
		validateOrdering(files),
		validateDatasets(datasetPaths),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: %d series, %d datasets\n", len(seriesPaths), len(datasetPaths))
	reportRegressions(w, files)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// listFiles splits the CSV files under dir into vaccination series and
// everything else.
func listFiles(dir string) (series, datasets []string, err error) {
	seriesDir := filepath.Join(dir, pipeline.CategoryVaccinations)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".csv" {
			return nil
		}
		if filepath.Dir(path) == seriesDir {
			series = append(series, path)
		} else {
			datasets = append(datasets, path)
		}
		return nil
	})
	return series, datasets, err
}

// ── Phase 1: Parse ──

func parseSeries(paths []string) (*phase, []seriesFile) {
	p := &phase{name: "Phase 1: Series files parse"}
	var files []seriesFile
	for _, path := range paths {
		t, err := csvfile.ReadFile(path)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		s, err := domain.ParseSeriesTable(t)
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		files = append(files, seriesFile{path: path, series: s})
	}
	return p, files
}

// ── Phase 2: Locations ──
// Every row belongs to the location the file is named after.

func validateLocations(store *csvfile.Store, files []seriesFile) *phase {
	p := &phase{name: "Phase 2: Locations match file names"}
	for _, f := range files {
		for i, o := range f.series {
			if o.Location == "" {
				continue
			}
			if want := store.Path(pipeline.CategoryVaccinations, o.Location); filepath.Clean(f.path) != want {
				p.errorf("%s row %d: location %q belongs in %s", f.path, i+1, o.Location, want)
			}
		}
	}
	return p
}

// ── Phase 3: Ordering ──

func validateOrdering(files []seriesFile) *phase {
	p := &phase{name: "Phase 3: Dates ascending, counts non-negative"}
	for _, f := range files {
		if err := f.series.Validate(); err != nil {
			p.joined(f.path, err)
		}
	}
	return p
}

// ── Phase 4: Datasets ──

func validateDatasets(paths []string) *phase {
	p := &phase{name: "Phase 4: Dataset tables well-formed"}
	for _, path := range paths {
		t, err := csvfile.ReadFile(path)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		if err := t.Validate(); err != nil {
			p.joined(path, err)
			continue
		}
		if len(t.Rows) == 0 {
			p.errorf("%s: no data rows", path)
		}
	}
	return p
}

func reportRegressions(w io.Writer, files []seriesFile) {
	for _, f := range files {
		for _, r := range f.series.Regressions() {
			fmt.Fprintf(w, "  Note: %s: %s fell from %d to %d on %s\n",
				f.path, r.Metric, r.Previous, r.Current, r.Date.Format(domain.DateLayout))
		}
	}
}
