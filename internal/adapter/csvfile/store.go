// Package csvfile persists series and batch tables as CSV files under an
// output root, one file per name per category.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Store reads and writes <root>/<category>/<name>.csv.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the output root.
func (s *Store) Root() string { return s.root }

// Path returns the file path for a dataset.
func (s *Store) Path(category, name string) string {
	return filepath.Join(s.root, sanitize(category), sanitize(name)+".csv")
}

// LoadSeries reads a location's series. A missing file is an empty series.
func (s *Store) LoadSeries(ctx context.Context, category, name string) (domain.Series, error) {
	t, err := s.ReadTable(ctx, category, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	series, err := domain.ParseSeriesTable(t)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path(category, name), err)
	}
	return series, nil
}

// SaveSeries overwrites a location's series file.
func (s *Store) SaveSeries(ctx context.Context, category, name string, series domain.Series) error {
	_, err := s.WriteTable(ctx, category, name, domain.SeriesTable(series))
	return err
}

// ReadTable reads a dataset file. The error wraps fs.ErrNotExist when the
// file is missing.
func (s *Store) ReadTable(ctx context.Context, category, name string) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}
	return ReadFile(s.Path(category, name))
}

// WriteTable atomically replaces a dataset file and returns its path.
// Readers see either the previous file or the complete new one.
func (s *Store) WriteTable(ctx context.Context, category, name string, t domain.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.Path(category, name)
	if err := writeAtomic(path, t); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ReadFile parses one CSV file into a table.
func ReadFile(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := decode(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

func decode(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return domain.Table{}, domain.FormatDrift("csv: %v", err)
	}
	if len(records) == 0 {
		return domain.Table{}, nil
	}
	return domain.Table{Header: records[0], Rows: records[1:]}, nil
}

func writeAtomic(path string, t domain.Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(t.Header); err != nil {
		return err
	}
	if err = w.WriteAll(t.Rows); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var separators = strings.NewReplacer("/", "_", "\\", "_")

// sanitize turns name into a single path segment. Separators become "_" and
// the relative segments "." and ".." are replaced outright.
func sanitize(name string) string {
	name = separators.Replace(strings.TrimSpace(name))
	switch name {
	case "", ".", "..":
		return strings.Repeat("_", max(len(name), 1))
	}
	return name
}
