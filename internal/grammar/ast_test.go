package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Kind_String(t *testing.T) {
	testCases := []struct {
		input  Kind
		expect string
	}{
		{KindWord, "word"},
		{KindGroup, "group"},
		{KindAlternative, "alternative"},
		{KindRuleRef, "rule-reference"},
		{KindSlotRef, "slot-reference"},
		{Kind(99), "unknown"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expect, tc.input.String())
	}
}

func Test_unwrapSequence_collapsesNestedSingleItemGroups(t *testing.T) {
	assert := assert.New(t)

	leaf := NewWord("hello")
	inner := NewGroup(leaf)
	middle := NewGroup(inner)
	outer := NewGroup(middle)

	result := unwrapSequence(outer)
	assert.Equal(KindWord, result.Kind)
	assert.Equal("hello", result.Text)
}

func Test_unwrapSequence_stopsAtMultiItemNode(t *testing.T) {
	assert := assert.New(t)

	multi := NewGroup(NewWord("a"), NewWord("b"))
	outer := NewGroup(multi)

	result := unwrapSequence(outer)
	assert.Equal(KindGroup, result.Kind)
	assert.Len(result.Items, 2)
}

func Test_unwrapSequence_adoptsChildTagAndSubstitution(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	inner := NewGroup(NewWord("hello"))
	inner.Tag = &Tag{Text: "greeting"}
	inner.HasSub = true
	inner.Substitution = "hi"

	outer := NewGroup(inner)
	result := unwrapSequence(outer)

	require.NotNil(result.Tag)
	assert.Equal("greeting", result.Tag.Text)
	assert.True(result.HasSub)
	assert.Equal("hi", result.Substitution)
}
