package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, c.List())

	for _, e := range c.List() {
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Title)
		assert.NotEmpty(t, e.Audio)
	}
}

func TestGet(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	e, ok := c.Get("3")
	require.True(t, ok)
	assert.Equal(t, "Sunset", e.Title)

	_, ok = c.Get("999")
	assert.False(t, ok)
}

func TestList_Copies(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	list := c.List()
	list[0].Title = "mutated"

	fresh := c.List()
	assert.NotEqual(t, "mutated", fresh[0].Title, "List returns a copy")
}
