package source

import (
	"testing"

	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct{ name string }

func (s stub) Name() string { return s.name }

func withRegistry(t *testing.T) {
	t.Helper()
	saved := registry
	registry = map[string]Entry{}
	t.Cleanup(func() { registry = saved })
}

func TestRegistry(t *testing.T) {
	withRegistry(t)
	Register(Entry{Name: "thailand", Kind: KindBatch, New: func(Deps) pipeline.Source { return stub{"thailand"} }})
	Register(Entry{Name: "Chile", Kind: KindBatch, New: func(Deps) pipeline.Source { return stub{"Chile"} }})

	e, ok := Get("CHILE")
	require.True(t, ok)
	assert.Equal(t, "Chile", e.New(Deps{}).Name())

	_, ok = Get("atlantis")
	assert.False(t, ok)

	assert.Equal(t, []string{"Chile", "thailand"}, Names())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	withRegistry(t)
	Register(Entry{Name: "serbia"})

	assert.Panics(t, func() { Register(Entry{Name: "Serbia"}) })
}

func TestText(t *testing.T) {
	doc, err := ParseHTML([]byte("<div><p>Број\n   доза:\t12</p></div>"))
	require.NoError(t, err)

	assert.Equal(t, "Број доза: 12", Text(doc.Find("p")))
}
