package storage

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"visitor-track-go/internal/util/timezone"
)

// Unterordner des Snapshot-Verzeichnisses
const (
	entriesDir = "entries"
	exitsDir   = "exits"
	framesDir  = "frames"
)

// SnapshotStore persistiert Gesichts-Crops und Diagnose-Frames als JPEG
// unterhalb eines Basisverzeichnisses. Rückgabewerte sind Pfade relativ zum
// Basisverzeichnis, damit sie direkt in Ereignissen gespeichert und über
// die API ausgeliefert werden können. Schreibfehler werden nicht wiederholt.
type SnapshotStore struct {
	baseDir string
}

// NewSnapshotStore erstellt einen SnapshotStore und legt die Unterordner an
func NewSnapshotStore(baseDir string) (*SnapshotStore, error) {
	for _, dir := range []string{entriesDir, exitsDir, framesDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	return &SnapshotStore{baseDir: baseDir}, nil
}

// BaseDir gibt das Basisverzeichnis zurück
func (s *SnapshotStore) BaseDir() string {
	return s.baseDir
}

// SaveEntryImage speichert den Gesichts-Crop eines Eintritts
func (s *SnapshotStore) SaveEntryImage(faceID int, ts time.Time, img image.Image) (string, error) {
	return s.saveFace(entriesDir, faceID, ts, img)
}

// SaveExitImage speichert den zuletzt beobachteten Gesichts-Crop eines Austritts
func (s *SnapshotStore) SaveExitImage(faceID int, ts time.Time, img image.Image) (string, error) {
	return s.saveFace(exitsDir, faceID, ts, img)
}

// SaveFrame speichert einen vollständigen Frame zur Sichtkontrolle
func (s *SnapshotStore) SaveFrame(frameCount int64, img image.Image) (string, error) {
	relPath := filepath.Join(framesDir, fmt.Sprintf("frame_%d.jpg", frameCount))
	if err := s.writeJPEG(relPath, img); err != nil {
		return "", err
	}
	return relPath, nil
}

func (s *SnapshotStore) saveFace(dir string, faceID int, ts time.Time, img image.Image) (string, error) {
	relPath := filepath.Join(dir, fmt.Sprintf("face_%d_%s.jpg", faceID, timezone.Stamp(ts)))
	if err := s.writeJPEG(relPath, img); err != nil {
		return "", err
	}
	return relPath, nil
}

func (s *SnapshotStore) writeJPEG(relPath string, img image.Image) error {
	fullPath := filepath.Join(s.baseDir, relPath)
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, nil); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}
