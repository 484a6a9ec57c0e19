package facedetect

import (
	"context"
	"image"
)

// ProviderType definiert den Typ des Gesichtserkennungsdiensts
type ProviderType string

const (
	// ProviderInsightFace steht für den InsightFace-Dienst
	ProviderInsightFace ProviderType = "insightface"
)

// Detection repräsentiert ein erkanntes Gesicht in einem Frame
type Detection struct {
	// BoundingBox enthält die Koordinaten des Gesichts im Bild
	BoundingBox image.Rectangle `json:"bounding_box"`

	// Confidence ist die Konfidenz der Detektion (0-1)
	Confidence float64 `json:"confidence"`

	// Embedding ist der Gesichtsvektor für den Identitätsabgleich
	Embedding []float64 `json:"embedding,omitempty"`
}

// Provider definiert die Schnittstelle für Gesichtsdetektoren. Der Tracker
// behandelt Detektion und Embedding-Extraktion als externe Fähigkeit; die
// Implementierung des Modells ist nicht Teil dieses Systems.
type Provider interface {
	// Name gibt den Namen des Providers zurück
	Name() ProviderType

	// IsAvailable prüft, ob der Dienst erreichbar ist
	IsAvailable(ctx context.Context) bool

	// Detect erkennt Gesichter in einem Frame und extrahiert pro Gesicht
	// ein Embedding. Null Detektionen sind kein Fehler.
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}
