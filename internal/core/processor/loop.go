package processor

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"visitor-track-go/config"
	"visitor-track-go/internal/core/models"
	"visitor-track-go/internal/core/tracking"
	"visitor-track-go/internal/integrations/facedetect"
	"visitor-track-go/internal/storage"
	"visitor-track-go/internal/util/timezone"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// FrameSource liefert Frames auf Abruf. Ok ist false bei Stream-Ende; das
// ist reguläres Ende der Verarbeitung, kein Fehler.
type FrameSource interface {
	NextFrame() (image.Image, bool)
	Close() error
}

// EventSink nimmt Ereignisse entgegen. Die Schnittstelle ist append-only:
// ein Insert pro Ereignis, keine Updates, keine Löschungen.
type EventSink interface {
	Record(ctx context.Context, event *models.VisitorEvent) error
}

// lastCrop hält den zuletzt beobachteten Gesichts-Crop einer aktiven
// Identität, damit beim Austritt das letzte sichtbare Gesicht gespeichert
// werden kann statt des aktuellen Frames, in dem das Gesicht fehlt.
type lastCrop struct {
	img image.Image
	box image.Rectangle
}

// Loop ist die einkanalige, synchrone Verarbeitungsschleife: Frame lesen,
// detektieren, matchen, Anwesenheit abgleichen, Ereignisse schreiben. Der
// gesamte Tracking-Zustand gehört exklusiv dieser Schleife; es gibt keine
// nebenläufigen Zugriffe und daher keine Synchronisation.
type Loop struct {
	cfg       *config.Config
	source    FrameSource
	detector  facedetect.Provider
	session   *tracking.Session
	snapshots *storage.SnapshotStore
	sink      EventSink

	frameCount int64
	lastCrops  map[int]lastCrop
}

// NewLoop erstellt die Verarbeitungsschleife
func NewLoop(cfg *config.Config, source FrameSource, detector facedetect.Provider, snapshots *storage.SnapshotStore, sink EventSink) *Loop {
	return &Loop{
		cfg:       cfg,
		source:    source,
		detector:  detector,
		session:   tracking.NewSession(cfg.Tracker.MatchThreshold, cfg.Tracker.ExitThreshold),
		snapshots: snapshots,
		sink:      sink,
		lastCrops: make(map[int]lastCrop),
	}
}

// Run führt die Schleife aus, bis die Quelle keine Frames mehr liefert oder
// der Kontext abgebrochen wird. Ein laufender Tick wird bei Abbruch noch zu
// Ende geführt; die Quelle wird in jedem Fall geschlossen.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.source.Close(); err != nil {
			log.Errorf("Failed to close video source: %v", err)
		}
		log.Info("Video source released")
	}()

	log.Info("Visitor tracking loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Interrupted, shutting down tracking loop")
			return nil
		default:
		}

		frame, ok := l.source.NextFrame()
		if !ok {
			log.Info("No frame returned, end of stream")
			return nil
		}

		l.frameCount++

		// Periodischer Frame-Snapshot zur Sichtkontrolle (headless)
		if every := int64(l.cfg.Tracker.SaveFramesEvery); every > 0 && l.frameCount%every == 0 {
			if path, err := l.snapshots.SaveFrame(l.frameCount, frame); err != nil {
				log.Errorf("Failed to save inspection frame: %v", err)
			} else {
				log.Infof("Saved frame for inspection: %s", path)
			}
		}

		// Detektion nur auf jedem n-ten Frame, um CPU zu sparen
		if skip := int64(l.cfg.Tracker.DetectionSkipFrames); skip > 1 && l.frameCount%skip != 0 {
			continue
		}

		l.processTick(ctx, frame)
	}
}

// processTick führt einen Detektions-Tick aus. Der Tick-Index ist der
// Frame-Zähler, damit der Exit-Schwellenwert in Frames gemessen wird.
func (l *Loop) processTick(ctx context.Context, frame image.Image) {
	detections, err := l.detector.Detect(ctx, frame)
	if err != nil {
		// Kein Retry; der Tick wird übersprungen und die Anwesenheits-
		// Toleranz fängt den Aussetzer ab
		log.Errorf("Face detection failed: %v", err)
		return
	}

	embeddings := make([][]float64, len(detections))
	for i := range detections {
		embeddings[i] = detections[i].Embedding
	}

	result := l.session.Process(l.frameCount, embeddings)
	now := timezone.Now()

	// Letzte Crops aller beobachteten Identitäten auffrischen
	for _, obs := range result.Observations {
		box := clampBox(detections[obs.DetectionIndex].BoundingBox, frame.Bounds())
		l.lastCrops[obs.ID] = lastCrop{
			img: cropFrame(frame, box),
			box: box,
		}
	}

	for _, id := range result.Entered {
		l.recordEntry(ctx, id, now)
	}
	for _, id := range result.Exited {
		l.recordExit(ctx, id, now, frame)
	}
}

// recordEntry speichert den Gesichts-Crop und schreibt das Eintrittsereignis
func (l *Loop) recordEntry(ctx context.Context, id int, now time.Time) {
	crop := l.lastCrops[id]

	imagePath, err := l.snapshots.SaveEntryImage(id, now, crop.img)
	if err != nil {
		log.Errorf("Failed to save entry image for ID %d: %v", id, err)
	}

	event := &models.VisitorEvent{
		FaceID:      id,
		Timestamp:   now,
		Event:       models.EventEntry,
		ImagePath:   imagePath,
		Source:      l.cfg.Video.Source,
		BoundingBox: boxJSON(crop.box),
	}
	if err := l.sink.Record(ctx, event); err != nil {
		log.Errorf("Failed to record entry event for ID %d: %v", id, err)
		return
	}

	log.Infof("[ENTRY] ID=%d image=%s", id, imagePath)
}

// recordExit speichert den zuletzt beobachteten Crop und schreibt das
// Austrittsereignis. Fällt der Crop weg, wird ersatzweise der aktuelle
// Frame gespeichert.
func (l *Loop) recordExit(ctx context.Context, id int, now time.Time, frame image.Image) {
	img := frame
	if crop, ok := l.lastCrops[id]; ok {
		img = crop.img
	}
	delete(l.lastCrops, id)

	imagePath, err := l.snapshots.SaveExitImage(id, now, img)
	if err != nil {
		log.Errorf("Failed to save exit image for ID %d: %v", id, err)
	}

	event := &models.VisitorEvent{
		FaceID:    id,
		Timestamp: now,
		Event:     models.EventExit,
		ImagePath: imagePath,
		Source:    l.cfg.Video.Source,
	}
	if err := l.sink.Record(ctx, event); err != nil {
		log.Errorf("Failed to record exit event for ID %d: %v", id, err)
		return
	}

	log.Infof("[EXIT] ID=%d image=%s", id, imagePath)
}

// FrameCount gibt die Anzahl der bisher gelesenen Frames zurück
func (l *Loop) FrameCount() int64 {
	return l.frameCount
}

// KnownCount gibt die Anzahl der registrierten Besucher-Identitäten zurück
func (l *Loop) KnownCount() int {
	return l.session.KnownCount()
}

// ActiveCount gibt die Anzahl der aktuell anwesenden Besucher zurück
func (l *Loop) ActiveCount() int {
	return l.session.ActiveCount()
}

// clampBox schneidet die Bounding-Box auf die Frame-Grenzen zu
func clampBox(box, bounds image.Rectangle) image.Rectangle {
	return box.Intersect(bounds)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropFrame schneidet die Box aus dem Frame aus. Bei degenerierter Box oder
// einem Bildtyp ohne SubImage wird der vollständige Frame verwendet.
func cropFrame(frame image.Image, box image.Rectangle) image.Image {
	if box.Empty() {
		return frame
	}
	if si, ok := frame.(subImager); ok {
		return si.SubImage(box)
	}
	return frame
}

// boxJSON serialisiert eine Bounding-Box für die Ereignis-Zeile
func boxJSON(box image.Rectangle) datatypes.JSON {
	if box.Empty() {
		return nil
	}
	data, err := json.Marshal(map[string]int{
		"x_min": box.Min.X,
		"y_min": box.Min.Y,
		"x_max": box.Max.X,
		"y_max": box.Max.Y,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
