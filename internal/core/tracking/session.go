package tracking

// Observation verbindet eine Detektion eines Ticks mit der zugeordneten
// Identität. DetectionIndex verweist auf die Position in der Eingabeliste
// des Ticks, damit der Aufrufer Bounding-Box und Crop zuordnen kann.
type Observation struct {
	DetectionIndex int
	ID             int
	Registered     bool // true, wenn die Identität in diesem Tick neu angelegt wurde
}

// TickResult enthält das Ergebnis eines verarbeiteten Ticks
type TickResult struct {
	Observations []Observation
	Entered      []int // IDs, die in diesem Tick in den aktiven Bestand aufgenommen wurden
	Exited       []int // IDs, deren Abwesenheit den Schwellenwert überschritten hat
}

// Session bündelt Matcher und PresenceTracker zu einem Tick-Schritt.
// Der gesamte Zustand (Embedding-Bestand, aktiver Bestand, ID-Zähler) lebt
// in dieser Struktur und gehört exklusiv der aufrufenden Verarbeitungs-
// schleife; es gibt keine Paket-Globals und keine Synchronisation.
type Session struct {
	matcher  Matcher
	presence *PresenceTracker
}

// NewSession erstellt eine Session mit LinearMatcher und PresenceTracker
func NewSession(matchThreshold float64, exitThreshold int) *Session {
	return &Session{
		matcher:  NewLinearMatcher(matchThreshold),
		presence: NewPresenceTracker(exitThreshold),
	}
}

// NewSessionWithMatcher erstellt eine Session mit einem eigenen Matcher
func NewSessionWithMatcher(m Matcher, exitThreshold int) *Session {
	return &Session{
		matcher:  m,
		presence: NewPresenceTracker(exitThreshold),
	}
}

// Process führt einen Tick aus: jedes Embedding wird gematcht oder neu
// registriert, anschließend gleicht der PresenceTracker die beobachteten
// IDs mit dem aktiven Bestand ab. Ein leerer Embedding-Slice ist gültig und
// treibt nur die Exit-Erkennung voran.
func (s *Session) Process(tickIndex int64, embeddings [][]float64) TickResult {
	var result TickResult

	observed := make([]int, 0, len(embeddings))
	for i, emb := range embeddings {
		id, registered := s.matcher.Match(emb)
		result.Observations = append(result.Observations, Observation{
			DetectionIndex: i,
			ID:             id,
			Registered:     registered,
		})
		observed = append(observed, id)
	}

	result.Entered, result.Exited = s.presence.Tick(tickIndex, observed)
	return result
}

// KnownCount gibt die Anzahl der registrierten Identitäten zurück
func (s *Session) KnownCount() int {
	return s.matcher.Count()
}

// ActiveCount gibt die Anzahl der aktuell aktiven Identitäten zurück
func (s *Session) ActiveCount() int {
	return s.presence.ActiveCount()
}
