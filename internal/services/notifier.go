package services

import (
	"context"
	"fmt"

	"visitor-track-go/internal/core/models"
	"visitor-track-go/internal/db/repository"
	"visitor-track-go/internal/integrations/mqtt"
	"visitor-track-go/internal/server/sse"
)

// Notifier verteilt Ereignisse an den Event-Store und optionale Abnehmer
// (MQTT, SSE). Das Schreiben in den Store ist verbindlich; die Verteilung an
// die Abnehmer ist best-effort und blockiert die Verarbeitungsschleife nicht.
type Notifier struct {
	repo      repository.EventRepository
	publisher *mqtt.Publisher // optional
	hub       *sse.Hub        // optional
}

// NewNotifier erstellt einen Notifier. Publisher und Hub dürfen nil sein.
func NewNotifier(repo repository.EventRepository, publisher *mqtt.Publisher, hub *sse.Hub) *Notifier {
	return &Notifier{
		repo:      repo,
		publisher: publisher,
		hub:       hub,
	}
}

// Record schreibt das Ereignis in den Store und verteilt es anschließend.
// Schlägt der Insert fehl, wird nicht verteilt.
func (n *Notifier) Record(ctx context.Context, event *models.VisitorEvent) error {
	if err := n.repo.RecordEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	if n.publisher != nil {
		n.publisher.PublishEvent(event)
	}
	if n.hub != nil {
		n.hub.BroadcastEvent(event, "/snapshots/"+event.ImagePath)
	}

	return nil
}
