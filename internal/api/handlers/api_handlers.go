package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"visitor-track-go/config"
	"visitor-track-go/internal/db/repository"
	"visitor-track-go/internal/server/sse"
	"visitor-track-go/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// APIHandler behandelt die Lese-API des Trackers. Die API ist strikt
// lesend; Ereignisse entstehen ausschließlich in der Verarbeitungsschleife.
type APIHandler struct {
	cfg       *config.Config
	repo      repository.EventRepository
	hub       *sse.Hub
	startTime time.Time
}

// NewAPIHandler erstellt einen neuen API-Handler
func NewAPIHandler(cfg *config.Config, repo repository.EventRepository, hub *sse.Hub) *APIHandler {
	return &APIHandler{
		cfg:       cfg,
		repo:      repo,
		hub:       hub,
		startTime: time.Now(),
	}
}

// NewRouter baut den Gin-Router mit allen Routen auf
func (h *APIHandler) NewRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/events", h.ListEvents)
		api.GET("/events/:id", h.GetEvent)
		api.GET("/visitors/:face_id/events", h.ListVisitorEvents)
		api.GET("/stats", h.GetStats)
		api.GET("/config", h.GetConfig)
		api.GET("/stream", h.StreamEvents)
	}

	// Gespeicherte Bilder (entries/exits/frames) ausliefern
	router.StaticFS("/snapshots", http.Dir(h.cfg.Tracker.LogFolder))

	return router
}

// Health gibt den Dienststatus zurück
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// ListEvents gibt Ereignisse mit Pagination zurück
func (h *APIHandler) ListEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	events, total, err := h.repo.GetEvents(limit, offset)
	if err != nil {
		log.Errorf("Failed to list events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetEvent gibt ein einzelnes Ereignis zurück
func (h *APIHandler) GetEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.repo.GetEventByID(uint(id))
	if err != nil {
		log.Errorf("Failed to get event %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get event"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListVisitorEvents gibt alle Ereignisse einer Besucher-ID zurück
func (h *APIHandler) ListVisitorEvents(c *gin.Context) {
	faceID, err := strconv.Atoi(c.Param("face_id"))
	if err != nil || faceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return
	}

	events, err := h.repo.GetEventsByFaceID(faceID)
	if err != nil {
		log.Errorf("Failed to list events for visitor %d: %v", faceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"face_id": faceID,
		"events":  events,
	})
}

// GetStats gibt Ereignis- und Systemstatistiken zurück
func (h *APIHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStatistics()
	if err != nil {
		log.Errorf("Failed to get statistics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": gin.H{
			"total":            stats.TotalEvents,
			"entries":          stats.EntryCount,
			"exits":            stats.ExitCount,
			"unique_visitors":  stats.UniqueVisitors,
			"currently_active": stats.CurrentlyActive,
			"latest":           stats.LatestEvent,
			"busiest_hour":     stats.BusiestHour,
			"recent":           stats.RecentEvents,
		},
		"system": utils.CollectSystemStats(),
	})
}

// GetConfig gibt die effektive Konfiguration zurück (ohne Zugangsdaten)
func (h *APIHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tracker": gin.H{
			"detection_skip_frames": h.cfg.Tracker.DetectionSkipFrames,
			"save_frames_every":     h.cfg.Tracker.SaveFramesEvery,
			"match_threshold":       h.cfg.Tracker.MatchThreshold,
			"exit_threshold":        h.cfg.Tracker.ExitThreshold,
			"log_folder":            h.cfg.Tracker.LogFolder,
		},
		"video": gin.H{
			"source": h.cfg.Video.Source,
		},
		"insightface": gin.H{
			"url": h.cfg.InsightFace.URL,
		},
		"mqtt": gin.H{
			"enabled": h.cfg.MQTT.Enabled,
			"topic":   h.cfg.MQTT.Topic,
		},
		"cleanup": gin.H{
			"retention_days": h.cfg.Cleanup.RetentionDays,
		},
	})
}

// StreamEvents liefert Ereignisse als Server-Sent-Events-Stream
func (h *APIHandler) StreamEvents(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream not available"})
		return
	}

	client := h.hub.Register()
	defer h.hub.Unregister(client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("visitor", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
