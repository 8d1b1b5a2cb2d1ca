package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

const fixtureLexicon = `
version: fixture-1
function_categories:
  - id: pressatura_stampaggio
    label: Pressatura e stampaggio
    terms: [pressa, stampaggio]
  - id: movimentazione_sollevamento
    label: Movimentazione e sollevamento
    terms: [trasportatore, movimentazione]
  - id: lavorazione_metalli
    label: Lavorazione dei metalli
    terms: [metallo, lamiera, pressa]
entries:
  - hs_code: "8462"
    label: Presse per metalli
    terms: [pressa, stampaggio, lamiera, Pressa]
    functions: [pressatura_stampaggio]
  - hs_code: "8462.61"
    label: Presse idrauliche
    terms: [pressa idraulica]
    functions: [pressatura_stampaggio]
  - hs_code: "8428"
    label: Trasportatori
    terms: [trasportatore, nastro]
    functions: [movimentazione_sollevamento]
  - hs_code: "8479.89"
    label: Altre macchine
    terms: [macchina]
  - hs_code: "8515.31"
    label: Saldatrici ad arco
    terms: [saldatura ad arco]
    pattern: '\b(?:mig|tig)\b'
`

func fixtureEngine(t *testing.T, opts classifier.Options) *classifier.Engine {
	t.Helper()
	return engineFromYAML(t, fixtureLexicon, opts)
}

func engineFromYAML(t *testing.T, doc string, opts classifier.Options) *classifier.Engine {
	t.Helper()
	lex, err := lexicon.Parse([]byte(doc))
	require.NoError(t, err)
	engine, err := classifier.NewEngine(lex, opts)
	require.NoError(t, err)
	return engine
}

func defaultEngine(t *testing.T) *classifier.Engine {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	engine, err := classifier.NewEngine(lex, classifier.DefaultOptions())
	require.NoError(t, err)
	return engine
}
