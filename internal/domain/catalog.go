package domain

import (
	"errors"
	"fmt"
	"time"
)

// Dataset is one full-history output of a batch source, written whole.
type Dataset struct {
	Category string
	Name     string
	Table    Table
	// Meta, when set, is announced to the downstream catalog after the
	// dataset is written.
	Meta *DatasetMeta
}

// Validate checks the dataset can be written.
func (d Dataset) Validate() error {
	var errs []error
	if d.Category == "" {
		errs = append(errs, fmt.Errorf("%w: dataset category is required", ErrValidation))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("%w: dataset name is required", ErrValidation))
	}
	if len(d.Table.Rows) == 0 {
		errs = append(errs, fmt.Errorf("%w: dataset %s/%s has no rows", ErrValidation, d.Category, d.Name))
	}
	if err := d.Table.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DatasetMeta describes a finished dataset for the downstream catalog.
type DatasetMeta struct {
	Name       string         `json:"name"`
	Namespace  string         `json:"namespace"`
	Path       string         `json:"path"`
	SourceName string         `json:"source_name"`
	SourceURL  string         `json:"source_url"`
	Rows       int            `json:"rows"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Display    map[string]any `json:"display,omitempty"`
}
