package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionThreeVisitorsEnterAndExit(t *testing.T) {
	s := NewSession(0.6, 20)

	// Drei weit auseinander liegende Embeddings in Tick 1
	result := s.Process(1, [][]float64{
		{0, 0, 0},
		{10, 0, 0},
		{20, 0, 0},
	})

	require.Len(t, result.Observations, 3)
	for i, obs := range result.Observations {
		assert.Equal(t, i, obs.DetectionIndex)
		assert.Equal(t, i+1, obs.ID)
		assert.True(t, obs.Registered)
	}
	assert.Equal(t, []int{1, 2, 3}, result.Entered)
	assert.Empty(t, result.Exited)
	assert.Equal(t, 3, s.KnownCount())
	assert.Equal(t, 3, s.ActiveCount())

	// Ticks 2-21 ohne Detektionen: Abwesenheit bis 20 Ticks wird toleriert
	for tick := int64(2); tick <= 21; tick++ {
		result = s.Process(tick, nil)
		require.Empty(t, result.Exited, "tick %d", tick)
	}

	// Tick 22: 22-1 = 21 > 20, alle drei treten aus
	result = s.Process(22, nil)
	assert.Empty(t, result.Entered)
	assert.Equal(t, []int{1, 2, 3}, result.Exited)
	assert.Equal(t, 0, s.ActiveCount())

	// Die Identitäten selbst bleiben registriert
	assert.Equal(t, 3, s.KnownCount())
}

func TestSessionRecognizedVisitorIsNotReentered(t *testing.T) {
	s := NewSession(0.6, 20)

	result := s.Process(1, [][]float64{{0, 0, 0}})
	require.Equal(t, []int{1}, result.Entered)

	// Leicht verschobenes Embedding derselben Person im nächsten Tick
	result = s.Process(2, [][]float64{{0.1, 0, 0}})
	require.Len(t, result.Observations, 1)
	assert.Equal(t, 1, result.Observations[0].ID)
	assert.False(t, result.Observations[0].Registered)
	assert.Empty(t, result.Entered)
	assert.Empty(t, result.Exited)
	assert.Equal(t, 1, s.KnownCount())
}

func TestSessionReentryReusesIdentity(t *testing.T) {
	s := NewSession(0.6, 20)

	s.Process(1, [][]float64{{0, 0, 0}})
	result := s.Process(30, nil)
	require.Equal(t, []int{1}, result.Exited)

	// Das gespeicherte Embedding liegt noch unter dem Schwellenwert: die
	// Rückkehr wird derselben ID zugeordnet und als neuer Eintritt gemeldet.
	result = s.Process(40, [][]float64{{0.05, 0, 0}})
	require.Len(t, result.Observations, 1)
	assert.Equal(t, 1, result.Observations[0].ID)
	assert.False(t, result.Observations[0].Registered)
	assert.Equal(t, []int{1}, result.Entered)
	assert.Equal(t, 1, s.KnownCount())
}

func TestSessionEmptyTickAdvancesExitDetectionOnly(t *testing.T) {
	s := NewSession(0.6, 3)

	s.Process(1, [][]float64{{0, 0, 0}})

	result := s.Process(5, nil)
	assert.Empty(t, result.Observations)
	assert.Empty(t, result.Entered)
	assert.Equal(t, []int{1}, result.Exited)
}
