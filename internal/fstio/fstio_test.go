package fstio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/voxgraph/internal/grammar"
	"github.com/dekarrin/voxgraph/internal/graph"
)

func buildIntents(t *testing.T, bySentenceText map[string][]string) *grammar.Intents {
	t.Helper()
	order := make([]string, 0, len(bySentenceText))
	sentences := map[string][]*grammar.Sentence{}
	for name, texts := range bySentenceText {
		order = append(order, name)
		for _, text := range texts {
			s, err := grammar.ParseSentence(text, 1)
			require.NoError(t, err)
			sentences[name] = append(sentences[name], s)
		}
	}
	return &grammar.Intents{Order: order, Sentences: sentences, Replacements: grammar.NewReplacements()}
}

func Test_Graph_rendersTransitionsAndFinalState(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{"Greet": {"hello"}})
	g, err := graph.Compile(intents, graph.Options{})
	require.NoError(err)

	res, err := Graph(g, Options{})
	require.NoError(err)

	assert.Contains(res.Text, "hello")
	assert.Contains(res.Symbols, "<eps>")
	assert.Equal(0, res.Symbols["<eps>"])

	lines := strings.Split(strings.TrimSpace(res.Text), "\n")
	lastLine := lines[len(lines)-1]
	assert.NotContains(lastLine, " ", "the final line should be a bare state number")
}

func Test_ByIntent_separatesIntents(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{
		"Greet": {"hello"},
		"Bye":   {"goodbye"},
	})
	g, err := graph.Compile(intents, graph.Options{})
	require.NoError(err)

	byIntent, err := ByIntent(g, Options{})
	require.NoError(err)

	require.Contains(byIntent, "Greet")
	require.Contains(byIntent, "Bye")
	assert.Contains(byIntent["Greet"].Text, "hello")
	assert.NotContains(byIntent["Greet"].Text, "goodbye")
	assert.Contains(byIntent["Bye"].Text, "goodbye")
}

func Test_Graph_noWeightOmitsWeightColumn(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	intents := buildIntents(t, map[string][]string{
		"Simple":  {"hello"},
		"Complex": {"turn (on | off) the light"},
	})
	g, err := graph.Compile(intents, graph.Options{Weighted: true})
	require.NoError(err)

	res, err := Graph(g, Options{NoWeight: true})
	require.NoError(err)

	for _, line := range strings.Split(strings.TrimSpace(res.Text), "\n") {
		fields := strings.Fields(line)
		assert.LessOrEqual(len(fields), 4)
	}
}

func Test_WriteSymbols_sortsByID(t *testing.T) {
	assert := assert.New(t)

	out := WriteSymbols(map[string]int{"<eps>": 0, "hello": 1, "world": 2})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal("<eps> 0", lines[0])
	assert.Equal("hello 1", lines[1])
	assert.Equal("world 2", lines[2])
}
