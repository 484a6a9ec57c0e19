package sse

import (
	"encoding/json"
	"sync"
	"time"

	"visitor-track-go/internal/core/models"

	log "github.com/sirupsen/logrus"
)

// Client repräsentiert einen einzelnen verbundenen SSE-Client
type Client chan []byte

// Hub verwaltet die Menge der aktiven Clients und sendet Broadcasts an sie
type Hub struct {
	// Registrierte Clients
	clients map[Client]bool

	// Eingehende Nachrichten von der Anwendung
	broadcast chan []byte

	// Registrierungs- und Abmeldeanfragen von Clients
	register   chan Client
	unregister chan Client

	// Mutex zum Schutz des simultanen Zugriffs auf die Clients-Map
	mu sync.Mutex
}

// EventData definiert die Struktur der Daten, die über SSE gesendet werden
type EventData struct {
	ID        uint      `json:"id"`
	FaceID    int       `json:"face_id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	ImageURL  string    `json:"image_url,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// NewHub erstellt eine neue Hub-Instanz
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 100), // Puffer für 100 Nachrichten
		register:   make(chan Client),
		unregister: make(chan Client),
		clients:    make(map[Client]bool),
	}
}

// Run startet die Verarbeitungsschleife des Hubs.
// Dies sollte in einer separaten Goroutine ausgeführt werden.
func (h *Hub) Run() {
	log.Info("SSE Hub started and running")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			log.Infof("SSE client registered. Total clients: %d", clientCount)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client)
				log.Infof("SSE client unregistered. Total clients: %d", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			log.Debugf("Broadcasting message to %d SSE clients", len(h.clients))
			for client := range h.clients {
				select {
				case client <- message:
					// Nachricht erfolgreich gesendet
				default:
					// Client hängt, Verbindung aufgeben
					delete(h.clients, client)
					close(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register meldet einen neuen Client an und gibt seinen Kanal zurück
func (h *Hub) Register() Client {
	client := make(Client, 10)
	h.register <- client
	return client
}

// Unregister meldet einen Client ab
func (h *Hub) Unregister(client Client) {
	h.unregister <- client
}

// BroadcastEvent sendet ein Besucher-Ereignis an alle verbundenen Clients
func (h *Hub) BroadcastEvent(event *models.VisitorEvent, imageURL string) {
	data := EventData{
		ID:        event.ID,
		FaceID:    event.FaceID,
		Event:     event.Event,
		Timestamp: event.Timestamp,
		ImageURL:  imageURL,
		Source:    event.Source,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		log.Errorf("Failed to marshal SSE event data: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		log.Warn("SSE broadcast buffer full, dropping event")
	}
}
