package insightface

import (
	"context"
	"fmt"
	"image"

	"visitor-track-go/config"
	"visitor-track-go/internal/integrations/facedetect"
)

// Service implementiert das facedetect.Provider-Interface für InsightFace
type Service struct {
	client *APIClient
	config config.InsightFaceConfig
}

// NewService erstellt einen neuen InsightFace-Service
func NewService(cfg config.InsightFaceConfig) *Service {
	return &Service{
		client: NewAPIClient(cfg),
		config: cfg,
	}
}

// Name gibt den Namen des Providers zurück
func (s *Service) Name() facedetect.ProviderType {
	return facedetect.ProviderInsightFace
}

// IsAvailable prüft, ob der InsightFace-Dienst verfügbar ist
func (s *Service) IsAvailable(ctx context.Context) bool {
	available, _ := s.client.Ping(ctx)
	return available
}

// Detect erkennt Gesichter in einem Frame und konvertiert die Antwort in
// unser generisches Format. Detektionen ohne Embedding werden verworfen,
// da der Tracker ohne Embedding keinen Identitätsabgleich durchführen kann.
func (s *Service) Detect(ctx context.Context, img image.Image) ([]facedetect.Detection, error) {
	apiResp, err := s.client.DetectFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("fehler bei der Gesichtserkennung: %w", err)
	}

	detections := make([]facedetect.Detection, 0, len(apiResp.Faces))
	for _, face := range apiResp.Faces {
		if len(face.BoundingBox) != 4 || len(face.Embedding) == 0 {
			continue
		}
		detections = append(detections, facedetect.Detection{
			BoundingBox: image.Rect(
				face.BoundingBox[0], face.BoundingBox[1],
				face.BoundingBox[2], face.BoundingBox[3],
			),
			Confidence: face.Confidence,
			Embedding:  face.Embedding,
		})
	}

	return detections, nil
}
