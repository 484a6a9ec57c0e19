package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceTrackerExitBoundary(t *testing.T) {
	tr := NewPresenceTracker(20)

	entered, exited := tr.Tick(10, []int{1})
	require.Equal(t, []int{1}, entered)
	require.Empty(t, exited)

	// Tick 29: 29-10 = 19, innerhalb der Toleranz
	entered, exited = tr.Tick(29, nil)
	assert.Empty(t, entered)
	assert.Empty(t, exited)
	assert.Equal(t, 1, tr.ActiveCount())

	// Tick 30: 30-10 = 20, noch nicht strikt größer als der Schwellenwert
	entered, exited = tr.Tick(30, nil)
	assert.Empty(t, exited)

	// Tick 31: 31-10 = 21 > 20, Austritt
	entered, exited = tr.Tick(31, nil)
	assert.Empty(t, entered)
	assert.Equal(t, []int{1}, exited)
	assert.Equal(t, 0, tr.ActiveCount())
}

func TestPresenceTrackerObservedNeverExits(t *testing.T) {
	tr := NewPresenceTracker(20)

	tr.Tick(1, []int{1})

	// Die letzte Sichtung liegt weit zurück, aber die ID ist in diesem Tick
	// beobachtet und darf nicht ausgetragen werden.
	entered, exited := tr.Tick(500, []int{1})
	assert.Empty(t, entered)
	assert.Empty(t, exited)
	assert.Equal(t, 1, tr.ActiveCount())
}

func TestPresenceTrackerGracePeriod(t *testing.T) {
	tr := NewPresenceTracker(20)

	tr.Tick(1, []int{1})

	// Innerhalb der Toleranz bleibt der Eintrag unberührt
	for tick := int64(2); tick <= 21; tick++ {
		_, exited := tr.Tick(tick, nil)
		require.Empty(t, exited, "tick %d", tick)
	}
	assert.Equal(t, map[int]int64{1: 1}, tr.Active())

	// Erneute Sichtung frischt den Zeitstempel auf, ohne entered zu melden
	entered, _ := tr.Tick(22, []int{1})
	assert.Empty(t, entered)
	assert.Equal(t, map[int]int64{1: 22}, tr.Active())
}

func TestPresenceTrackerExactlyOneExitPerAbsence(t *testing.T) {
	tr := NewPresenceTracker(20)

	tr.Tick(1, []int{1})
	_, exited := tr.Tick(30, nil)
	require.Equal(t, []int{1}, exited)

	// Die Identität ist ausgetragen; weitere Leerticks melden keinen
	// zweiten Austritt.
	for tick := int64(31); tick <= 60; tick++ {
		_, exited := tr.Tick(tick, nil)
		assert.Empty(t, exited)
	}
}

func TestPresenceTrackerReentryAfterExit(t *testing.T) {
	tr := NewPresenceTracker(20)

	tr.Tick(1, []int{7})
	_, exited := tr.Tick(30, nil)
	require.Equal(t, []int{7}, exited)

	// Gleiche ID taucht wieder auf: neuer Besuch, erneut entered
	entered, _ := tr.Tick(40, []int{7})
	assert.Equal(t, []int{7}, entered)
	assert.Equal(t, 1, tr.ActiveCount())
}

func TestPresenceTrackerDeduplicatesObservations(t *testing.T) {
	tr := NewPresenceTracker(20)

	// Zwei Detektionen desselben Gesichts in einem Tick
	entered, exited := tr.Tick(1, []int{3, 3})
	assert.Equal(t, []int{3}, entered)
	assert.Empty(t, exited)
	assert.Equal(t, 1, tr.ActiveCount())
}

func TestPresenceTrackerMixedObservations(t *testing.T) {
	tr := NewPresenceTracker(5)

	tr.Tick(1, []int{1, 2, 3})

	// ID 2 bleibt sichtbar, 1 und 3 verschwinden
	for tick := int64(2); tick <= 7; tick++ {
		entered, exited := tr.Tick(tick, []int{2})
		require.Empty(t, entered)
		if tick < 7 {
			require.Empty(t, exited)
		} else {
			// Tick 7: 7-1 = 6 > 5
			require.Equal(t, []int{1, 3}, exited)
		}
	}
	assert.Equal(t, 1, tr.ActiveCount())
}
