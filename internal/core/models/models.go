package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ereignisarten für VisitorEvent
const (
	EventEntry = "entry"
	EventExit  = "exit"
)

// VisitorEvent repräsentiert ein Eintritts- oder Austrittsereignis eines
// Besuchers. Der Event-Store ist append-only: Einträge werden nie
// aktualisiert oder gelöscht (Ausnahme: optionale Bereinigung nach
// Aufbewahrungsfrist).
type VisitorEvent struct {
	gorm.Model
	FaceID      int            `gorm:"index;not null"` // Fortlaufende Besucher-ID aus dem Matcher
	Timestamp   time.Time      `gorm:"index"`          // Zeitpunkt des Ereignisses
	Event       string         `gorm:"index;not null"` // "entry" oder "exit"
	ImagePath   string         // Pfad zum gespeicherten Gesichts-Crop
	Source      string         `gorm:"index"`          // Videoquelle
	BoundingBox datatypes.JSON `gorm:"type:json;null"` // x_min, y_min, x_max, y_max (nur bei entry)
}

// TableName behält den Tabellennamen des ursprünglichen Schemas bei
func (VisitorEvent) TableName() string {
	return "visitors"
}

// Statistics repräsentiert Statistiken über die aufgezeichneten Ereignisse
type Statistics struct {
	TotalEvents     int64          // Gesamtzahl der Ereignisse
	EntryCount      int64          // Anzahl der Eintritte
	ExitCount       int64          // Anzahl der Austritte
	UniqueVisitors  int64          // Anzahl unterschiedlicher Besucher-IDs
	CurrentlyActive int64          // Besucher, deren letztes Ereignis ein Eintritt ist
	LatestEvent     time.Time      // Zeitstempel des neuesten Ereignisses
	BusiestHour     int            // Stunde (0-23) mit den meisten Eintritten, -1 ohne Daten
	RecentEvents    []VisitorEvent // Die letzten Ereignisse
}
