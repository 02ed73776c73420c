package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Get_callsLoaderOnceThenCaches(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	calls := 0
	loader := func(name string) ([]string, error) {
		calls++
		return []string{"alice", "bob"}, nil
	}

	c, err := Open(":memory:", loader)
	require.NoError(err)
	defer c.Close()

	first, err := c.Get("name")
	require.NoError(err)
	assert.Equal([]string{"alice", "bob"}, first)

	second, err := c.Get("name")
	require.NoError(err)
	assert.Equal([]string{"alice", "bob"}, second)
	assert.Equal(1, calls, "second Get should be served from cache, not the loader")
}

func Test_Refresh_overwritesCachedValue(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	values := []string{"one"}
	loader := func(name string) ([]string, error) {
		return values, nil
	}

	c, err := Open(":memory:", loader)
	require.NoError(err)
	defer c.Close()

	_, err = c.Get("n")
	require.NoError(err)

	values = []string{"one", "two"}
	refreshed, err := c.Refresh("n")
	require.NoError(err)
	assert.Equal([]string{"one", "two"}, refreshed)

	cached, err := c.Get("n")
	require.NoError(err)
	assert.Equal([]string{"one", "two"}, cached)
}

func Test_Open_nilLoaderIsError(t *testing.T) {
	assert := assert.New(t)
	_, err := Open(":memory:", nil)
	assert.Error(err)
}
