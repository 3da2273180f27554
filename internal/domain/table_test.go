package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesTableRoundTrip(t *testing.T) {
	a := testObs(1, 10)
	a.Metrics[TotalBoosters] = 2
	b := testObs(2, 20)
	b.Metrics["extra"] = 7

	table := SeriesTable(Series{a, b})

	assert.Equal(t, []string{"location", "date", "total_vaccinations", "total_boosters", "extra", "vaccine", "source_url"}, table.Header)
	assert.Equal(t, []string{"Serbia", "2022-01-01", "10", "2", "", a.Vaccine, testURL}, table.Rows[0])
	assert.Equal(t, []string{"Serbia", "2022-01-02", "20", "", "7", b.Vaccine, testURL}, table.Rows[1])

	back, err := ParseSeriesTable(table)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.True(t, back[0].Equal(a))
	assert.True(t, back[1].Equal(b))
}

func TestParseSeriesTable(t *testing.T) {
	t.Run("float cells", func(t *testing.T) {
		s, err := ParseSeriesTable(Table{
			Header: []string{"location", "date", "total_vaccinations"},
			Rows:   [][]string{{"Chile", "2021-02-03", "1234.0"}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1234), s[0].Metrics[TotalVaccinations])
		assert.Equal(t, Date(2021, time.February, 3), s[0].Date)
	})

	t.Run("fractional cell", func(t *testing.T) {
		_, err := ParseSeriesTable(Table{
			Header: []string{"location", "date", "total_vaccinations"},
			Rows:   [][]string{{"Chile", "2021-02-03", "12.5"}},
		})
		assert.ErrorIs(t, err, ErrFormatDrift)
	})

	t.Run("whole float beyond int64", func(t *testing.T) {
		for _, cell := range []string{"1e30", "-1e30", "9223372036854775808.0"} {
			_, err := ParseSeriesTable(Table{
				Header: []string{"location", "date", "total_vaccinations"},
				Rows:   [][]string{{"Chile", "2021-02-03", cell}},
			})
			require.ErrorIs(t, err, ErrFormatDrift, cell)
			assert.Contains(t, err.Error(), "out of range")
		}
	})

	t.Run("missing date column", func(t *testing.T) {
		_, err := ParseSeriesTable(Table{Header: []string{"location"}})
		assert.ErrorIs(t, err, ErrFormatDrift)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseSeriesTable(Table{
			Header: []string{"location", "date"},
			Rows:   [][]string{{"Chile", "03/02/2021"}},
		})
		assert.ErrorIs(t, err, ErrFormatDrift)
	})
}

func TestTableValidate(t *testing.T) {
	assert.NoError(t, Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}}.Validate())
	assert.ErrorIs(t, Table{}.Validate(), ErrValidation)
	assert.ErrorIs(t, Table{Header: []string{"a", "a"}}.Validate(), ErrValidation)
	assert.ErrorIs(t, Table{Header: []string{"a"}, Rows: [][]string{{"1", "2"}}}.Validate(), ErrValidation)
}

func TestDatasetValidate(t *testing.T) {
	d := Dataset{Category: "testing", Name: "Thailand", Table: Table{Header: []string{"Date"}, Rows: [][]string{{"2022-01-01"}}}}
	assert.NoError(t, d.Validate())

	d.Table.Rows = nil
	assert.ErrorIs(t, d.Validate(), ErrValidation)
}
