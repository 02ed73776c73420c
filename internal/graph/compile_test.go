package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/voxgraph/internal/grammar"
)

func mustParse(t *testing.T, text string) *grammar.Sentence {
	t.Helper()
	s, err := grammar.ParseSentence(text, 1)
	require.NoError(t, err)
	return s
}

func buildIntents(t *testing.T, bySentenceText map[string][]string) *grammar.Intents {
	t.Helper()
	order := make([]string, 0, len(bySentenceText))
	sentences := map[string][]*grammar.Sentence{}
	for name, texts := range bySentenceText {
		order = append(order, name)
		for _, text := range texts {
			sentences[name] = append(sentences[name], mustParse(t, text))
		}
	}
	return &grammar.Intents{Order: order, Sentences: sentences, Replacements: grammar.NewReplacements()}
}

func walkILabels(t *testing.T, g *Graph, from int) []string {
	t.Helper()
	var out []string
	visited := map[int]bool{}
	var walk func(n int)
	walk = func(n int) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, e := range g.OutEdges(n) {
			if e.ILabel != "" {
				out = append(out, e.ILabel)
			}
			walk(e.To)
		}
	}
	walk(from)
	return out
}

func Test_Compile_singleWordSentence(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{"Greet": {"hello"}})
	g, err := Compile(intents, Options{})
	require.NoError(err)

	require.NotEqual(-1, g.Start())
	require.NotEqual(-1, g.Final())

	startEdges := g.OutEdges(g.Start())
	require.Len(startEdges, 1)
	assert.Equal("__label__Greet", startEdges[0].OLabel)
	assert.False(startEdges[0].HasWeight)

	labels := walkILabels(t, g, g.Start())
	assert.Contains(labels, "hello")
}

func Test_Compile_altBranchesInGraph(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{"Light": {"turn (on | off) the light"}})
	g, err := Compile(intents, Options{})
	require.NoError(err)

	labels := walkILabels(t, g, g.Start())
	assert.Contains(labels, "on")
	assert.Contains(labels, "off")
	assert.Contains(labels, "turn")
	assert.Contains(labels, "light")
}

func Test_Compile_weightedSingleIntentHasNoWeight(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{"Only": {"hello"}})
	g, err := Compile(intents, Options{Weighted: true})
	require.NoError(err)

	edges := g.OutEdges(g.Start())
	require.Len(edges, 1)
	assert.False(edges[0].HasWeight, "a single intent should never carry a weight")
}

func Test_Compile_weightedMultipleIntentsSumToOne(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{
		"Simple":  {"hello"},
		"Complex": {"turn (on | off) the (light | fan | heater)"},
	})
	g, err := Compile(intents, Options{Weighted: true, ExcludeSlotsFromCounts: true})
	require.NoError(err)

	edges := g.OutEdges(g.Start())
	require.Len(edges, 2)

	sum := 0.0
	for _, e := range edges {
		require.True(e.HasWeight)
		sum += e.Weight
	}
	assert.InDelta(1.0, sum, 1e-9)
}

func Test_Compile_substitutionSuppressesWordOutput(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{"Light": {"on:1"}})
	g, err := Compile(intents, Options{})
	require.NoError(err)

	var sawSubstitutionEdge, sawEmptyWordOutput bool
	for _, e := range g.Edges() {
		if e.ILabel == "on" {
			sawEmptyWordOutput = e.OLabel == ""
		}
		if e.ILabel == "" && e.OLabel == "1" {
			sawSubstitutionEdge = true
		}
	}
	assert.True(sawEmptyWordOutput, "word with its own substitution must emit an empty-output main edge")
	assert.True(sawSubstitutionEdge, "the substitution is emitted on its own epsilon edge")
}

func Test_Compile_tagEmitsBeginAndEndMarkers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{"Light": {"the light {target}"}})
	g, err := Compile(intents, Options{})
	require.NoError(err)

	var sawBegin, sawEnd bool
	for _, e := range g.Edges() {
		if e.OLabel == "__begin__target" {
			sawBegin = true
		}
		if e.OLabel == "__end__target" {
			sawEnd = true
		}
	}
	assert.True(sawBegin)
	assert.True(sawEnd)
}

func Test_Compile_unresolvedRuleReferenceIsResolveError(t *testing.T) {
	assert := assert.New(t)

	intents := buildIntents(t, map[string][]string{"Light": {"turn on the <missing_rule>"}})
	_, err := Compile(intents, Options{})
	assert.Error(err)
}
