package serbia

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/source"
	"github.com/couchcryptid/covid-data-etl/internal/source/sourcetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div class="stats">
  <p>Број доза: 7.123.456 – прва доза 3.123.456, друга доза 2.923.456, трећа доза 1.076.544</p>
  <p>Подаци ажурирано 9.1.2022. године</p>
</div>
</body></html>`

func TestObserve(t *testing.T) {
	fetcher := &sourcetest.Fetcher{Pages: map[string][]byte{sourceURL: []byte(page)}}

	obs, err := New(fetcher, sourcetest.Logger()).Observe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Serbia", obs.Location)
	assert.Equal(t, domain.Date(2022, time.January, 9), obs.Date)
	assert.Equal(t, vaccines, obs.Vaccine)
	assert.Equal(t, sourceURL, obs.SourceURL)
	assert.Equal(t, map[domain.Metric]int64{
		domain.TotalVaccinations:     7123456,
		domain.PeopleVaccinated:      3123456,
		domain.PeopleFullyVaccinated: 2923456,
		domain.TotalBoosters:         1076544,
	}, obs.Metrics)
	assert.NoError(t, domain.Validate(obs))
}

func TestObserveFormatDrift(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{
			name: "metrics sentence reworded",
			page: `<p>Укупно доза: 7.123.456</p><p>ажурирано 9.1.2022</p>`,
		},
		{
			name: "no date paragraph",
			page: `<p>Број доза: 1 – прва доза 1, друга доза 1, трећа доза 1</p>`,
		},
		{
			name: "two date paragraphs",
			page: `<p>Број доза: 1 – прва доза 1, друга доза 1, трећа доза 1</p><p>ажурирано 9.1.2022</p><p>ажурирано 8.1.2022</p>`,
		},
		{
			name: "date in another format",
			page: `<p>Број доза: 1 – прва доза 1, друга доза 1, трећа доза 1</p><p>ажурирано 2022-01-09</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &sourcetest.Fetcher{Pages: map[string][]byte{sourceURL: []byte(tt.page)}}

			_, err := New(fetcher, sourcetest.Logger()).Observe(context.Background())
			assert.ErrorIs(t, err, domain.ErrFormatDrift)
		})
	}
}

func TestObserveTransportError(t *testing.T) {
	_, err := New(&sourcetest.Fetcher{}, sourcetest.Logger()).Observe(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestRegistered(t *testing.T) {
	e, ok := source.Get("serbia")
	require.True(t, ok)
	assert.Equal(t, source.KindIncremental, e.Kind)
	assert.Equal(t, "serbia", e.New(source.Deps{}).Name())
}
