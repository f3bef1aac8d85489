package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBlankIDResolvesDefault(t *testing.T) {
	store := NewMemoryStore(Seed())

	for _, id := range []string{"", "  ", DefaultID} {
		p, ok := store.FindByID(id)
		require.True(t, ok, "id %q", id)
		assert.Equal(t, DefaultID, p.ID)
	}

	_, ok := store.FindByID("forecastAgent")
	assert.False(t, ok)
}

func TestMemoryStoreWithStructuredOverridesSeed(t *testing.T) {
	store := NewMemoryStore(Seed(), WithStructured(false))

	p, ok := store.FindByID(DefaultID)
	require.True(t, ok)
	assert.False(t, p.Structured)
	assert.True(t, Seed()[0].Structured)
}

func TestMemoryStoreListKeepsLoadOrder(t *testing.T) {
	store := NewMemoryStore([]Profile{
		{ID: DefaultID, Name: "Weather Chat"},
		{ID: "marineAgent", Name: "Marine"},
		{ID: DefaultID, Name: "Weather Chat v2"},
	})

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Weather Chat v2", list[0].Name)
	assert.Equal(t, "marineAgent", list[1].ID)

	list[0].Name = "changed"
	p, _ := store.FindByID(DefaultID)
	assert.Equal(t, "Weather Chat v2", p.Name)
}
