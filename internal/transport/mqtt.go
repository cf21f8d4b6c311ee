package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/pkg/dedup"
	"github.com/wardsense/roommonitor/pkg/mqttconn"
)

// MQTTConfig describes the broker subscription for devices that publish raw
// frame lines through MQTT instead of a direct serial link.
type MQTTConfig struct {
	Conn  mqttconn.Config
	Topic string // one raw frame line per message payload
	QoS   byte
}

// MQTTSource bridges an MQTT topic into the line stream contract. QoS 1
// redeliveries are deduplicated by payload hash so a broker retry cannot
// double-count a frame.
type MQTTSource struct {
	cfg MQTTConfig
	log *zap.Logger
}

func NewMQTTSource(cfg MQTTConfig, log *zap.Logger) *MQTTSource {
	return &MQTTSource{cfg: cfg, log: log}
}

func (s *MQTTSource) Connect(ctx context.Context) (Stream, error) {
	stream := &mqttStream{
		lines:   make(chan string, 64),
		deduper: dedup.New(2*time.Minute, 10000),
	}

	client, err := mqttconn.NewConn(ctx, s.cfg.Conn, func(_ mqtt.Client, err error) {
		stream.fail(err)
	})
	if err != nil {
		return nil, err
	}
	stream.client = client

	token := client.Subscribe(s.cfg.Topic, s.cfg.QoS, stream.handle)
	if token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("mqtt subscribe %s: %w", s.cfg.Topic, token.Error())
	}
	s.log.Info("mqtt transport connected", zap.String("topic", s.cfg.Topic))
	return stream, nil
}

type mqttStream struct {
	client  mqtt.Client
	lines   chan string
	deduper *dedup.Deduper

	mu     sync.Mutex
	err    error
	closed bool
}

func (m *mqttStream) handle(_ mqtt.Client, msg mqtt.Message) {
	h := sha256.Sum256(append([]byte(fmt.Sprintf("%d:", msg.MessageID())), msg.Payload()...))
	if !m.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.lines <- string(msg.Payload()):
	default:
		// The loop is behind; dropping the frame here is safer than
		// blocking the paho router.
	}
}

// fail records the transport error and ends the stream.
func (m *mqttStream) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.err = err
	close(m.lines)
}

func (m *mqttStream) Lines() <-chan string { return m.lines }

func (m *mqttStream) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *mqttStream) Close() error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.lines)
	}
	m.mu.Unlock()
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	return nil
}
