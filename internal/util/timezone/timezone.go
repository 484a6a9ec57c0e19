package timezone

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// StampLayout ist das kompakte Zeitstempel-Format für Bilddateinamen
const StampLayout = "20060102-150405"

var currentLocation *time.Location

// Initialize setzt die Zeitzone basierend auf der TZ-Umgebungsvariable.
// Diese Funktion sollte beim Programmstart aufgerufen werden.
func Initialize() {
	tzName := "UTC"
	if envTZ := os.Getenv("TZ"); envTZ != "" {
		tzName = envTZ
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Warnf("Failed to load timezone %s from environment: %v. Falling back to UTC.", tzName, err)
		currentLocation = time.UTC
		return
	}

	log.Infof("Successfully initialized timezone to %s", tzName)
	currentLocation = loc
}

// Now gibt die aktuelle Zeit in der konfigurierten Zeitzone zurück
func Now() time.Time {
	if currentLocation == nil {
		Initialize()
	}
	return time.Now().In(currentLocation)
}

// Stamp formatiert eine Zeit als kompakten Dateinamens-Zeitstempel
func Stamp(t time.Time) string {
	if currentLocation == nil {
		Initialize()
	}
	return t.In(currentLocation).Format(StampLayout)
}
