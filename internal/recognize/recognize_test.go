package recognize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/voxgraph/internal/grammar"
	"github.com/dekarrin/voxgraph/internal/graph"
)

func compileText(t *testing.T, bySentenceText map[string][]string) *graph.Graph {
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
	intents := &grammar.Intents{Order: order, Sentences: sentences, Replacements: grammar.NewReplacements()}
	g, err := graph.Compile(intents, graph.Options{})
	require.NoError(t, err)
	return g
}

func Test_Recognize_strictExactMatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Greet": {"hello there"}})
	results, err := Recognize(g, Tokenize("hello there"), Options{})
	require.NoError(err)
	require.Len(results, 1)
	assert.Equal("Greet", results[0].Intent.Name)
	assert.Equal(1.0, results[0].Intent.Confidence)
	assert.Equal("hello there", results[0].RawText)
}

func Test_Recognize_strictNoMatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Greet": {"hello there"}})
	results, err := Recognize(g, Tokenize("goodbye"), Options{})
	require.NoError(err)
	assert.Empty(results)
}

func Test_Recognize_strictAlternative(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Light": {"turn (on | off) the light"}})
	results, err := Recognize(g, Tokenize("turn on the light"), Options{})
	require.NoError(err)
	require.Len(results, 1)
	assert.Equal([]Value{
		StringValue("turn"), StringValue("on"), StringValue("the"), StringValue("light"),
	}, results[0].Tokens)
}

func Test_Recognize_entityExtraction(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Light": {"turn on the (kitchen | bedroom){room}"}})
	results, err := Recognize(g, Tokenize("turn on the kitchen"), Options{})
	require.NoError(err)
	require.Len(results, 1)
	require.Len(results[0].Entities, 1)
	assert.Equal("room", results[0].Entities[0].Name)
	assert.Equal(StringValue("kitchen"), results[0].Entities[0].Value)
}

func Test_Recognize_substitutionChangesText(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Light": {"turn on:1 the light"}})
	results, err := Recognize(g, Tokenize("turn on the light"), Options{})
	require.NoError(err)
	require.Len(results, 1)
	assert.Contains(results[0].Tokens, StringValue("1"))
	assert.NotContains(results[0].Tokens, StringValue("on"))
	assert.Equal([]string{"turn", "on", "the", "light"}, results[0].RawTokens)
}

func Test_Recognize_fuzzyToleratesExtraWord(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Light": {"turn on the light"}})
	results, err := Recognize(g, Tokenize("please turn on the light now"), Options{Fuzzy: true})
	require.NoError(err)
	require.NotEmpty(results)
	assert.Equal("Light", results[0].Intent.Name)
	assert.Less(results[0].Intent.Confidence, 1.0)
	assert.GreaterOrEqual(results[0].Intent.Confidence, 0.0)
}

func Test_Recognize_fuzzyRejectsPathWithNoGrammarWords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"Light": {"turn on the light"}})
	results, err := Recognize(g, Tokenize("completely unrelated words here"), Options{Fuzzy: true})
	require.NoError(err)
	for _, r := range results {
		assert.NotEmpty(r.Tokens)
	}
}

func Test_Recognize_converterAppliesToTaggedEntity(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := compileText(t, map[string][]string{"SetVolume": {"set volume to 5!int{level}"}})
	results, err := Recognize(g, Tokenize("set volume to 5"), Options{})
	require.NoError(err)
	require.Len(results, 1)
	require.Len(results[0].Entities, 1)
	assert.Equal(IntValue(5), results[0].Entities[0].Value)
}

func Test_Tokenize_splitsOnWhitespace(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{"turn", "on", "the", "light"}, Tokenize("  turn  on the light "))
}
