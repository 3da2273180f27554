// Package sourcetest provides fakes for testing sources without network
// access.
package sourcetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Fetcher serves canned bodies by URL. Unknown URLs fail with a transport
// error, as a 404 would.
type Fetcher struct {
	Pages     map[string][]byte
	Requested []string
}

// Fetch implements domain.Fetcher.
func (f *Fetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.Requested = append(f.Requested, url)
	body, ok := f.Pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: GET %s: status 404", domain.ErrTransport, url)
	}
	return body, nil
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
