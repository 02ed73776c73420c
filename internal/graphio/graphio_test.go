package graphio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/voxgraph/internal/grammar"
	"github.com/dekarrin/voxgraph/internal/graph"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	s, err := grammar.ParseSentence("turn (on | off) the light", 1)
	require.NoError(t, err)
	intents := &grammar.Intents{
		Order:        []string{"Light"},
		Sentences:    map[string][]*grammar.Sentence{"Light": {s}},
		Replacements: grammar.NewReplacements(),
	}
	g, err := graph.Compile(intents, graph.Options{Weighted: true})
	require.NoError(t, err)
	return g
}

func Test_ToJSON_FromJSON_roundTrips(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := buildTestGraph(t)
	data, err := ToJSON(g)
	require.NoError(err)

	g2, err := FromJSON(data)
	require.NoError(err)

	assert.Equal(g.NumNodes(), g2.NumNodes())
	assert.Equal(g.NumEdges(), g2.NumEdges())
	assert.Equal(g.Start(), g2.Start())
	assert.Equal(g.Final(), g2.Final())

	for i, e := range g.Edges() {
		e2 := g2.Edge(i)
		assert.Equal(e.ILabel, e2.ILabel)
		assert.Equal(e.OLabel, e2.OLabel)
	}
}

func Test_EncodeBinary_DecodeBinary_roundTrips(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := buildTestGraph(t)
	data, err := EncodeBinary(g)
	require.NoError(err)
	require.NotEmpty(data)

	g2, err := DecodeBinary(data)
	require.NoError(err)

	assert.Equal(g.NumNodes(), g2.NumNodes())
	assert.Equal(g.NumEdges(), g2.NumEdges())
	assert.Equal(g.Start(), g2.Start())
	assert.Equal(g.Final(), g2.Final())

	for i, e := range g.Edges() {
		e2 := g2.Edge(i)
		assert.Equal(e.ILabel, e2.ILabel)
		assert.Equal(e.OLabel, e2.OLabel)
		assert.Equal(e.Weight, e2.Weight)
		assert.Equal(e.HasWeight, e2.HasWeight)
	}
}

func Test_FromJSON_unknownNodeReference(t *testing.T) {
	assert := assert.New(t)

	_, err := FromJSON([]byte(`{"directed":true,"multigraph":true,"graph":{},"nodes":[{"id":0}],"links":[{"source":0,"target":5}]}`))
	assert.Error(err)
}
