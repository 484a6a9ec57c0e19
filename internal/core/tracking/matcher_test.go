package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearMatcherRegistersDistantEmbeddings(t *testing.T) {
	m := NewLinearMatcher(0.6)

	id1, registered := m.Match([]float64{0, 0, 0})
	require.True(t, registered)
	assert.Equal(t, 1, id1)

	// Distanz 10 liegt weit über dem Schwellenwert
	id2, registered := m.Match([]float64{10, 0, 0})
	require.True(t, registered)
	assert.Equal(t, 2, id2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, m.Count())
}

func TestLinearMatcherMatchesCloseEmbeddingWithoutMutation(t *testing.T) {
	m := NewLinearMatcher(0.6)

	id1, _ := m.Match([]float64{0, 0, 0})

	// Distanz 0.1 < 0.6: bestehende Identität, kein neuer Eintrag
	id, registered := m.Match([]float64{0.1, 0, 0})
	assert.False(t, registered)
	assert.Equal(t, id1, id)
	assert.Equal(t, 1, m.Count())
}

func TestLinearMatcherAssignsMonotonicIDs(t *testing.T) {
	m := NewLinearMatcher(0.6)

	// Neue und wiedererkannte Embeddings gemischt; die vergebenen IDs müssen
	// trotzdem lückenlos ab 1 aufsteigen.
	embeddings := [][]float64{
		{0, 0, 0},
		{10, 0, 0},
		{0.1, 0, 0}, // Treffer auf ID 1
		{20, 0, 0},
		{10.1, 0, 0}, // Treffer auf ID 2
		{30, 0, 0},
	}

	var newIDs []int
	for _, emb := range embeddings {
		if id, registered := m.Match(emb); registered {
			newIDs = append(newIDs, id)
		}
	}

	assert.Equal(t, []int{1, 2, 3, 4}, newIDs)
	assert.Equal(t, 4, m.Count())
}

func TestLinearMatcherFirstMatchWins(t *testing.T) {
	m := NewLinearMatcher(10.0)

	id1, registered := m.Match([]float64{0, 0, 0})
	require.True(t, registered)
	id2, registered := m.Match([]float64{15, 0, 0})
	require.True(t, registered)
	require.Equal(t, 2, m.Count())

	// Der Kandidat liegt unter dem Schwellenwert zu beiden Identitäten und
	// ist näher an ID 2; es gewinnt trotzdem die zuerst registrierte ID 1.
	id, registered := m.Match([]float64{9, 0, 0})
	assert.False(t, registered)
	assert.Equal(t, id1, id)
	assert.NotEqual(t, id2, id)
}

func TestLinearMatcherIdempotentMatch(t *testing.T) {
	m := NewLinearMatcher(0.6)

	emb := []float64{1, 2, 3}
	first, registered := m.Match(emb)
	require.True(t, registered)

	second, registered := m.Match(emb)
	assert.False(t, registered)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Count())
}

func TestLinearMatcherStoresCopy(t *testing.T) {
	m := NewLinearMatcher(0.6)

	emb := []float64{0, 0, 0}
	m.Match(emb)

	// Mutation des Eingabe-Slices darf den Bestand nicht verändern
	emb[0] = 100
	id, registered := m.Match([]float64{0, 0, 0})
	assert.False(t, registered)
	assert.Equal(t, 1, id)
}
