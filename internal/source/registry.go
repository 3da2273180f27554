// Package source holds the registry of data sources. Each source package
// registers itself from init; import it for side effects to make it
// available to the CLI.
package source

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
)

// Kinds of source.
const (
	KindIncremental = "incremental"
	KindBatch       = "batch"
)

// Deps are the collaborators handed to every source.
type Deps struct {
	Fetcher domain.Fetcher
	Logger  *slog.Logger
}

// Factory builds a runnable source.
type Factory func(Deps) pipeline.Source

// Entry describes one registered source.
type Entry struct {
	Name string
	Kind string
	URL  string
	New  Factory
}

var registry = map[string]Entry{}

// Register adds a source. Registering the same name twice panics.
func Register(e Entry) {
	key := strings.ToLower(e.Name)
	if _, dup := registry[key]; dup {
		panic("source: duplicate registration of " + e.Name)
	}
	registry[key] = e
}

// Get looks a source up by name, case-insensitively.
func Get(name string) (Entry, bool) {
	e, ok := registry[strings.ToLower(name)]
	return e, ok
}

// All returns every registered source ordered by name.
func All() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Names returns the registered source names in order.
func Names() []string {
	entries := All()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
