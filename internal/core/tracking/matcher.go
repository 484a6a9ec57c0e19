package tracking

import (
	"gonum.org/v1/gonum/floats"
)

// Identity repräsentiert eine registrierte Besucher-Identität.
// Das Embedding der ersten Sichtung bleibt die kanonische Referenz und wird
// bei späteren Sichtungen nicht aktualisiert oder gemittelt.
type Identity struct {
	ID        int
	Embedding []float64
}

// Matcher ordnet ein Embedding einer bekannten oder neuen Identität zu.
// Die Schnittstelle kapselt die Suchstrategie, damit der lineare Scan später
// gegen eine indizierte Struktur getauscht werden kann, ohne die Aufrufer
// zu ändern.
type Matcher interface {
	// Match gibt die Identitäts-ID für das Embedding zurück. Registered ist
	// true, wenn keine bekannte Identität unter dem Schwellenwert lag und
	// eine neue Identität angelegt wurde.
	Match(embedding []float64) (id int, registered bool)

	// Count gibt die Anzahl der registrierten Identitäten zurück
	Count() int
}

// LinearMatcher implementiert Matcher als linearen Scan über alle bekannten
// Embeddings in Registrierungsreihenfolge. Es gewinnt der ERSTE Treffer
// unter dem Schwellenwert, nicht der nächstgelegene. Kosten pro Embedding
// sind O(Anzahl Identitäten); der Speicher wächst unbegrenzt, es gibt keine
// Entfernen-Operation.
type LinearMatcher struct {
	threshold  float64
	nextID     int
	identities []Identity // aufsteigend nach ID
}

// NewLinearMatcher erstellt einen neuen LinearMatcher mit dem angegebenen
// Distanz-Schwellenwert
func NewLinearMatcher(threshold float64) *LinearMatcher {
	return &LinearMatcher{
		threshold: threshold,
		nextID:    1,
	}
}

// Match vergleicht das Embedding per euklidischer Distanz mit allen
// registrierten Identitäten. Ohne Treffer wird die nächste fortlaufende ID
// vergeben und das Embedding als neue Identität gespeichert; bei einem
// Treffer wird der Bestand nicht verändert.
func (m *LinearMatcher) Match(embedding []float64) (int, bool) {
	for _, known := range m.identities {
		if floats.Distance(known.Embedding, embedding, 2) < m.threshold {
			return known.ID, false
		}
	}

	id := m.nextID
	m.nextID++

	// Kopie speichern, damit der Aufrufer das Embedding weiterverwenden kann
	stored := make([]float64, len(embedding))
	copy(stored, embedding)
	m.identities = append(m.identities, Identity{ID: id, Embedding: stored})

	return id, true
}

// Count gibt die Anzahl der registrierten Identitäten zurück
func (m *LinearMatcher) Count() int {
	return len(m.identities)
}

// Identities gibt eine Kopie der registrierten Identitäten in
// Registrierungsreihenfolge zurück
func (m *LinearMatcher) Identities() []Identity {
	out := make([]Identity, len(m.identities))
	copy(out, m.identities)
	return out
}
