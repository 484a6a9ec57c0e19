package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"visitor-track-go/config"
	"visitor-track-go/internal/core/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Publisher veröffentlicht Besucher-Ereignisse auf einem MQTT-Broker
type Publisher struct {
	config config.MQTTConfig
	client mqtt.Client
}

// eventPayload ist die JSON-Struktur der veröffentlichten Nachrichten
type eventPayload struct {
	FaceID    int       `json:"face_id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	ImagePath string    `json:"image_path,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// NewPublisher erstellt einen neuen MQTT-Publisher und verbindet sich mit
// dem Broker
func NewPublisher(cfg config.MQTTConfig) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Infof("Connected to MQTT broker %s:%d", cfg.Broker, cfg.Port)
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timeout connecting to MQTT broker %s:%d", cfg.Broker, cfg.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return &Publisher{config: cfg, client: client}, nil
}

// PublishEvent veröffentlicht ein Ereignis auf <topic>/<event-art>.
// Fehler werden geloggt, aber nicht wiederholt.
func (p *Publisher) PublishEvent(event *models.VisitorEvent) {
	payload, err := json.Marshal(eventPayload{
		FaceID:    event.FaceID,
		Event:     event.Event,
		Timestamp: event.Timestamp,
		ImagePath: event.ImagePath,
		Source:    event.Source,
	})
	if err != nil {
		log.Errorf("Failed to marshal MQTT event payload: %v", err)
		return
	}

	topic := fmt.Sprintf("%s/%s", p.config.Topic, event.Event)
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Errorf("Failed to publish event to %s: %v", topic, token.Error())
		}
	}()
}

// Stop trennt die Verbindung zum Broker
func (p *Publisher) Stop() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Info("Disconnected from MQTT broker")
	}
}
