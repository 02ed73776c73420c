package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Replacements_SetRuleAndLookup(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repl := NewReplacements()
	body := NewWord("on")
	repl.SetRule("ChangeLightState", "state", body)

	require.True(repl.HasRule("state"))
	bare := repl.Rule("", "state")
	require.Len(bare, 1)
	assert.Same(body, bare[0])

	qualified := repl.Rule("ChangeLightState", "state")
	require.Len(qualified, 1)
	assert.Same(body, qualified[0])
}

func Test_Replacements_RuleQualified_fallsBackToBare(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repl := NewReplacements()
	body := NewWord("on")
	repl.SetRule("", "state", body)

	got := repl.RuleQualified("", "state", "SomeOtherIntent")
	require.Len(got, 1)
	assert.Same(body, got[0])
}

func Test_Replacements_RuleQualified_prefersIntentQualified(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repl := NewReplacements()
	bareBody := NewWord("bare")
	qualifiedBody := NewWord("qualified")
	repl.SetRule("", "state", bareBody)
	repl.SetRule("Intent", "state", qualifiedBody)

	got := repl.RuleQualified("", "state", "Intent")
	require.Len(got, 1)
	assert.Same(qualifiedBody, got[0])
}

func Test_Replacements_Slot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repl := NewReplacements()
	values := []*Sentence{NewWord("red"), NewWord("blue")}
	repl.SetSlot("color", values)

	require.True(repl.HasSlot("color"))
	got := repl.Slot("color")
	assert.Equal(values, got)
}

func Test_ResolveEntries_separatesRulesFromSentences(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	raw := map[string][]RawEntry{
		"ChangeLightState": {
			{IsRule: true, RuleName: "state", Text: "on | off", Line: 1},
			{Text: "turn <state> the light", Line: 2},
		},
	}
	order := []string{"ChangeLightState"}

	intents, err := ResolveEntries(order, raw, nil)
	require.NoError(err)
	assert.Equal(order, intents.Order)

	sentences := intents.Sentences["ChangeLightState"]
	require.Len(sentences, 1)
	assert.Equal(KindGroup, sentences[0].Kind)

	require.True(intents.Replacements.HasRule("state"))
	stateBodies := intents.Replacements.Rule("ChangeLightState", "state")
	require.Len(stateBodies, 1)
	assert.Equal(KindAlternative, stateBodies[0].Kind)
}

func Test_ResolveEntries_propagatesParseErrors(t *testing.T) {
	assert := assert.New(t)

	raw := map[string][]RawEntry{
		"Broken": {
			{Text: "turn on the (light", Line: 1},
		},
	}
	_, err := ResolveEntries([]string{"Broken"}, raw, nil)
	assert.Error(err)
}
