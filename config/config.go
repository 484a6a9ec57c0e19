package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config repräsentiert die Hauptkonfiguration der Anwendung
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Video       VideoConfig       `mapstructure:"video"`
	Tracker     TrackerConfig     `mapstructure:"tracker"`
	InsightFace InsightFaceConfig `mapstructure:"insightface"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Cleanup     CleanupConfig     `mapstructure:"cleanup"`
}

// ServerConfig enthält Einstellungen für die Lese-API
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LogConfig enthält Log-Einstellungen
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DBConfig enthält Datenbankeinstellungen (SQLite)
type DBConfig struct {
	File string `mapstructure:"file"`
}

// VideoConfig enthält Einstellungen für die Videoquelle.
// Source ist ein Geräteindex ("0"), ein Dateipfad oder eine RTSP-URL.
type VideoConfig struct {
	Source string `mapstructure:"source"`
}

// TrackerConfig enthält die Kernparameter der Besucher-Verfolgung
type TrackerConfig struct {
	DetectionSkipFrames int     `mapstructure:"detection_skip_frames"` // Nur jeder n-te Frame wird detektiert
	SaveFramesEvery     int     `mapstructure:"save_frames_every"`     // Periodischer Diagnose-Snapshot
	MatchThreshold      float64 `mapstructure:"match_threshold"`       // Euklidische Distanz für Embedding-Match
	ExitThreshold       int     `mapstructure:"exit_threshold"`        // Ticks ohne Sichtung bis zum Exit
	LogFolder           string  `mapstructure:"log_folder"`            // Basisverzeichnis für entries/exits/frames
}

// InsightFaceConfig enthält Einstellungen für den InsightFace-Dienst
type InsightFaceConfig struct {
	URL                string  `mapstructure:"url"`
	Timeout            int     `mapstructure:"timeout"` // Sekunden
	DetectionThreshold float64 `mapstructure:"detection_threshold"`
}

// MQTTConfig enthält die Konfiguration für den MQTT-Publisher
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// CleanupConfig enthält Bereinigungseinstellungen.
// RetentionDays 0 deaktiviert die Bereinigung; der Event-Store bleibt dann
// strikt append-only.
type CleanupConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// Load lädt die Konfiguration aus Datei, Umgebungsvariablen und Standardwerten
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Standardwerte festlegen
	setDefaults(v)

	// Konfigurationsdatei laden, wenn vorhanden
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Infof("Config loaded from %s", configPath)
		}
	}

	// Umgebungsvariablen überlagern die Konfiguration
	v.AutomaticEnv()
	v.SetEnvPrefix("VISITOR_TRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Konfiguration in Struct umwandeln
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Sicherstellen, dass erforderliche Verzeichnisse existieren
	if err := ensureDirectories(&cfg); err != nil {
		return nil, fmt.Errorf("failed to create required directories: %w", err)
	}

	return &cfg, nil
}

// setDefaults legt Standardwerte für die Konfiguration fest
func setDefaults(v *viper.Viper) {
	// Server-Standardwerte
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)

	// Log-Standardwerte
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// DB-Standardwerte
	v.SetDefault("db.file", "database/faces.db")

	// Video-Standardwerte
	v.SetDefault("video.source", "0")

	// Tracker-Standardwerte
	v.SetDefault("tracker.detection_skip_frames", 5)
	v.SetDefault("tracker.save_frames_every", 30)
	v.SetDefault("tracker.match_threshold", 0.6)
	v.SetDefault("tracker.exit_threshold", 20)
	v.SetDefault("tracker.log_folder", "logs")

	// InsightFace-Standardwerte
	v.SetDefault("insightface.url", "http://localhost:18081")
	v.SetDefault("insightface.timeout", 30)
	v.SetDefault("insightface.detection_threshold", 0.5)

	// MQTT-Standardwerte
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "visitor-track-go")
	v.SetDefault("mqtt.topic", "visitor-track/events")

	// Cleanup-Standardwerte
	v.SetDefault("cleanup.retention_days", 0)
}

// ensureDirectories stellt sicher, dass alle erforderlichen Verzeichnisse existieren
func ensureDirectories(cfg *Config) error {
	// Log-Basisverzeichnis mit Unterordnern für Bilder
	for _, dir := range []string{
		cfg.Tracker.LogFolder,
		filepath.Join(cfg.Tracker.LogFolder, "entries"),
		filepath.Join(cfg.Tracker.LogFolder, "exits"),
		filepath.Join(cfg.Tracker.LogFolder, "frames"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	// Datenbank-Verzeichnis (für SQLite)
	if cfg.DB.File != "" {
		dbDir := filepath.Dir(cfg.DB.File)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Log-Datei-Verzeichnis, falls in eine Datei geloggt wird
	if cfg.Log.File != "" {
		logDir := filepath.Dir(cfg.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log file directory: %w", err)
		}
	}

	return nil
}
