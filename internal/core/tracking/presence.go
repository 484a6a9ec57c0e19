package tracking

import (
	"sort"
)

// PresenceTracker verwaltet pro Identität den Tick-Index der letzten
// Sichtung und meldet Eintritte und Austritte.
//
// Zustandsmaschine pro Identität:
//
//	unbekannt -> aktiv   (erste Sichtung, "entered")
//	aktiv     -> aktiv   (erneute Sichtung, Zeitstempel aufgefrischt)
//	aktiv     -> beendet (Abwesenheit > exitThreshold, "exited")
//
// Eine beendete Identität kann bei erneuter Sichtung wieder aktiv werden und
// wird dann erneut als "entered" gemeldet (gleiche ID, neuer Besuch).
type PresenceTracker struct {
	exitThreshold int
	active        map[int]int64 // Identitäts-ID -> zuletzt gesehener Tick
}

// NewPresenceTracker erstellt einen PresenceTracker. ExitThreshold ist die
// Anzahl Ticks, die eine Identität unbeobachtet bleiben darf, bevor sie als
// ausgetreten gilt (Toleranz für übersprungene Detektions-Frames).
func NewPresenceTracker(exitThreshold int) *PresenceTracker {
	return &PresenceTracker{
		exitThreshold: exitThreshold,
		active:        make(map[int]int64),
	}
}

// Tick gleicht die in diesem Tick beobachteten Identitäten mit dem aktiven
// Bestand ab.
//
// Jede beobachtete ID bekommt tickIndex als letzte Sichtung (Einfügen oder
// Überschreiben); IDs, die vorher nicht aktiv waren, werden als entered
// gemeldet. Jede aktive, in diesem Tick NICHT beobachtete ID wird entfernt
// und als exited gemeldet, sobald tickIndex - letzteSichtung den
// Schwellenwert überschreitet; innerhalb der Toleranz bleibt sie unberührt.
// Eine in diesem Tick beobachtete ID wird nie im selben Tick ausgetragen.
//
// Beide Ergebnislisten sind aufsteigend sortiert.
func (t *PresenceTracker) Tick(tickIndex int64, observed []int) (entered, exited []int) {
	seen := make(map[int]struct{}, len(observed))
	for _, id := range observed {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, active := t.active[id]; !active {
			entered = append(entered, id)
		}
		t.active[id] = tickIndex
	}

	for id, lastSeen := range t.active {
		if _, ok := seen[id]; ok {
			continue
		}
		if tickIndex-lastSeen > int64(t.exitThreshold) {
			delete(t.active, id)
			exited = append(exited, id)
		}
	}

	sort.Ints(entered)
	sort.Ints(exited)
	return entered, exited
}

// ActiveCount gibt die Anzahl der aktuell aktiven Identitäten zurück
func (t *PresenceTracker) ActiveCount() int {
	return len(t.active)
}

// Active gibt eine Kopie des aktiven Bestands zurück (ID -> letzter Tick)
func (t *PresenceTracker) Active() map[int]int64 {
	out := make(map[int]int64, len(t.active))
	for id, tick := range t.active {
		out[id] = tick
	}
	return out
}
