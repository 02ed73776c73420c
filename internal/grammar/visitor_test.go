package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Walk_visitsEveryWord(t *testing.T) {
	assert := assert.New(t)

	g := NewGroup(NewWord("turn"), NewAlternative(NewWord("on"), NewWord("off")))

	var seen []string
	Walk(g, nil, func(n *Node) (*Node, VisitResult) {
		if n.Kind == KindWord {
			seen = append(seen, n.Text)
		}
		return nil, VisitContinue
	})

	assert.Equal([]string{"turn", "on", "off"}, seen)
}

func Test_Walk_replacesNode(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g := NewGroup(NewWord("hello"))
	result := Walk(g, nil, func(n *Node) (*Node, VisitResult) {
		if n.Kind == KindWord && n.Text == "hello" {
			return NewWord("goodbye"), VisitContinue
		}
		return nil, VisitContinue
	})

	require.Len(result.Items, 1)
	assert.Equal("goodbye", result.Items[0].Text)
}

func Test_Walk_skipStopsDescent(t *testing.T) {
	assert := assert.New(t)

	inner := NewAlternative(NewWord("on"), NewWord("off"))
	g := NewGroup(NewWord("turn"), inner)

	var seen []string
	Walk(g, nil, func(n *Node) (*Node, VisitResult) {
		seen = append(seen, n.Kind.String())
		if n == inner {
			return nil, VisitSkip
		}
		return nil, VisitContinue
	})

	assert.NotContains(seen, "word") // never descended into inner's children
}

func Test_Walk_descendsIntoRuleReferenceBodyOnce(t *testing.T) {
	assert := assert.New(t)

	repl := NewReplacements()
	body := NewWord("on")
	repl.SetRule("", "state", body)

	ref1 := &Node{Kind: KindRuleRef, RuleName: "state"}
	ref2 := &Node{Kind: KindRuleRef, RuleName: "state"}
	g := NewGroup(ref1, ref2)

	visits := 0
	Walk(g, repl, func(n *Node) (*Node, VisitResult) {
		if n == body {
			visits++
		}
		return nil, VisitContinue
	})

	assert.Equal(1, visits)
}

func Test_Walk_descendsIntoSlotValues(t *testing.T) {
	assert := assert.New(t)

	repl := NewReplacements()
	repl.SetSlot("color", []*Sentence{NewWord("red"), NewWord("blue")})

	ref := &Node{Kind: KindSlotRef, SlotName: "color"}

	var seen []string
	Walk(ref, repl, func(n *Node) (*Node, VisitResult) {
		if n.Kind == KindWord {
			seen = append(seen, n.Text)
		}
		return nil, VisitContinue
	})

	assert.Equal([]string{"red", "blue"}, seen)
}
