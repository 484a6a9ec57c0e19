package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"visitor-track-go/internal/core/models"

	"gonum.org/v1/gonum/stat"
	"gorm.io/gorm"
)

// EventRepository definiert die Schnittstelle für den Ereignis-Store.
// Der Store ist append-only: es gibt keine Update-Operation, gelöscht wird
// ausschließlich über die Aufbewahrungs-Bereinigung.
type EventRepository interface {
	// RecordEvent fügt ein Ereignis ein (ein Insert, ein Commit)
	RecordEvent(ctx context.Context, event *models.VisitorEvent) error

	// GetEventByID holt ein Ereignis anhand seiner ID
	GetEventByID(id uint) (*models.VisitorEvent, error)

	// GetEvents holt Ereignisse absteigend nach Zeitstempel mit Pagination
	GetEvents(limit, offset int) ([]models.VisitorEvent, int64, error)

	// GetEventsByFaceID holt alle Ereignisse einer Besucher-ID
	GetEventsByFaceID(faceID int) ([]models.VisitorEvent, error)

	// FindEventsBefore holt alle Ereignisse vor dem Stichtag (für die Bereinigung)
	FindEventsBefore(cutoff time.Time) ([]models.VisitorEvent, error)

	// DeleteEventsBefore löscht alle Ereignisse vor dem Stichtag endgültig
	DeleteEventsBefore(cutoff time.Time) (int64, error)

	// GetStatistics gibt Statistiken über die gespeicherten Ereignisse zurück
	GetStatistics() (models.Statistics, error)
}

// SQLiteEventRepository implementiert EventRepository für SQLite
type SQLiteEventRepository struct {
	db *gorm.DB
}

// NewSQLiteEventRepository erstellt eine neue Repository-Instanz
func NewSQLiteEventRepository(db *gorm.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

// RecordEvent fügt ein Ereignis ein
func (r *SQLiteEventRepository) RecordEvent(ctx context.Context, event *models.VisitorEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEventByID holt ein Ereignis anhand seiner ID
func (r *SQLiteEventRepository) GetEventByID(id uint) (*models.VisitorEvent, error) {
	var event models.VisitorEvent
	result := r.db.First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &event, nil
}

// GetEvents holt Ereignisse mit Pagination
func (r *SQLiteEventRepository) GetEvents(limit, offset int) ([]models.VisitorEvent, int64, error) {
	var events []models.VisitorEvent
	var total int64

	if err := r.db.Model(&models.VisitorEvent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	result := r.db.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&events)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return events, total, nil
}

// GetEventsByFaceID holt alle Ereignisse einer Besucher-ID in zeitlicher Reihenfolge
func (r *SQLiteEventRepository) GetEventsByFaceID(faceID int) ([]models.VisitorEvent, error) {
	var events []models.VisitorEvent
	result := r.db.Where("face_id = ?", faceID).Order("timestamp ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// FindEventsBefore holt alle Ereignisse vor dem Stichtag
func (r *SQLiteEventRepository) FindEventsBefore(cutoff time.Time) ([]models.VisitorEvent, error) {
	var events []models.VisitorEvent
	result := r.db.Where("timestamp < ?", cutoff).Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// DeleteEventsBefore löscht alle Ereignisse vor dem Stichtag endgültig
func (r *SQLiteEventRepository) DeleteEventsBefore(cutoff time.Time) (int64, error) {
	result := r.db.Unscoped().Where("timestamp < ?", cutoff).Delete(&models.VisitorEvent{})
	return result.RowsAffected, result.Error
}

// GetStatistics gibt Statistiken über die gespeicherten Ereignisse zurück
func (r *SQLiteEventRepository) GetStatistics() (models.Statistics, error) {
	var stats models.Statistics
	stats.BusiestHour = -1

	// Zähle Ereignisse gesamt sowie nach Art
	if err := r.db.Model(&models.VisitorEvent{}).Count(&stats.TotalEvents).Error; err != nil {
		return stats, err
	}
	if err := r.db.Model(&models.VisitorEvent{}).
		Where("event = ?", models.EventEntry).Count(&stats.EntryCount).Error; err != nil {
		return stats, err
	}
	if err := r.db.Model(&models.VisitorEvent{}).
		Where("event = ?", models.EventExit).Count(&stats.ExitCount).Error; err != nil {
		return stats, err
	}

	// Zähle unterschiedliche Besucher-IDs
	if err := r.db.Model(&models.VisitorEvent{}).
		Distinct("face_id").Count(&stats.UniqueVisitors).Error; err != nil {
		return stats, err
	}

	// Ermittle anwesende Besucher: das jüngste Ereignis der ID ist ein
	// Eintritt. Das leitet die Anwesenheit allein aus dem Ereignis-Strom ab
	// und braucht keinen Zugriff auf den Zustand der Verarbeitungsschleife.
	if err := r.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT face_id, event FROM visitors v1
			WHERE id = (SELECT MAX(id) FROM visitors v2 WHERE v2.face_id = v1.face_id)
		) latest WHERE latest.event = ?`, models.EventEntry).
		Scan(&stats.CurrentlyActive).Error; err != nil {
		return stats, err
	}

	// Ermittle das neueste Ereignis
	var latest models.VisitorEvent
	if err := r.db.Order("timestamp DESC").First(&latest).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, err
		}
	} else {
		stats.LatestEvent = latest.Timestamp
	}

	// Stunde mit den meisten Eintritten über den Modus der Eintrittsstunden
	var entries []models.VisitorEvent
	if err := r.db.Where("event = ?", models.EventEntry).Find(&entries).Error; err != nil {
		return stats, err
	}
	if len(entries) > 0 {
		hours := make([]float64, len(entries))
		for i, e := range entries {
			hours[i] = float64(e.Timestamp.Hour())
		}
		sort.Float64s(hours) // stat.Mode erwartet sortierte Eingabe
		mode, _ := stat.Mode(hours, nil)
		stats.BusiestHour = int(mode)
	}

	// Hole die letzten 10 Ereignisse
	if err := r.db.Order("timestamp DESC").Limit(10).Find(&stats.RecentEvents).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, err
		}
	}

	return stats, nil
}
