package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SplitINI_basic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := `[GetTime]
what time is it
tell me the time

[ChangeLightState]
state = on | off
turn <state> the light
`

	sections, order, err := SplitINI(strings.NewReader(input), SplitOptions{})
	require.NoError(err)
	assert.Equal([]string{"GetTime", "ChangeLightState"}, order)

	require.Len(sections["GetTime"], 2)
	assert.False(sections["GetTime"][0].IsRule)
	assert.Equal("what time is it", sections["GetTime"][0].Text)

	require.Len(sections["ChangeLightState"], 2)
	assert.True(sections["ChangeLightState"][0].IsRule)
	assert.Equal("state", sections["ChangeLightState"][0].RuleName)
	assert.Equal("on | off", sections["ChangeLightState"][0].Text)
	assert.False(sections["ChangeLightState"][1].IsRule)
}

func Test_SplitINI_commentsAndBlankLinesIgnored(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := `# a comment
[Intent]
; another comment

hello there
`
	sections, order, err := SplitINI(strings.NewReader(input), SplitOptions{})
	require.NoError(err)
	assert.Equal([]string{"Intent"}, order)
	require.Len(sections["Intent"], 1)
	assert.Equal("hello there", sections["Intent"][0].Text)
}

func Test_SplitINI_escapedBracket(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := "[Intent]\n\\[bracketed\\] sentence\n"
	sections, _, err := SplitINI(strings.NewReader(input), SplitOptions{})
	require.NoError(err)
	require.Len(sections["Intent"], 1)
	assert.Equal("[bracketed] sentence", sections["Intent"][0].Text)
}

func Test_SplitINI_sentenceWithEqualsIsNotARule(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := "[Intent]\nset x = 1 on the display\n"
	sections, _, err := SplitINI(strings.NewReader(input), SplitOptions{})
	require.NoError(err)
	require.Len(sections["Intent"], 1)
	assert.False(sections["Intent"][0].IsRule)
}

func Test_SplitINI_intentFilterExcludesSection(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := "[Keep]\nhello\n[Drop]\nbye\n"
	opts := SplitOptions{IntentFilter: func(name string) bool { return name == "Keep" }}
	sections, order, err := SplitINI(strings.NewReader(input), opts)
	require.NoError(err)
	assert.Equal([]string{"Keep"}, order)
	assert.NotContains(sections, "Drop")
}

func Test_SplitINI_sentenceOutsideSectionIsError(t *testing.T) {
	assert := assert.New(t)

	_, _, err := SplitINI(strings.NewReader("hello\n"), SplitOptions{})
	assert.Error(err)
}

func Test_SplitINI_sentenceTransformApplied(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := "[Intent]\nHELLO\n"
	opts := SplitOptions{SentenceTransform: strings.ToLower}
	sections, _, err := SplitINI(strings.NewReader(input), opts)
	require.NoError(err)
	require.Len(sections["Intent"], 1)
	assert.Equal("hello", sections["Intent"][0].Text)
}
