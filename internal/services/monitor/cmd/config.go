package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wardsense/roommonitor/internal/persistence"
	"github.com/wardsense/roommonitor/internal/pipeline"
	"github.com/wardsense/roommonitor/internal/transport"
	"github.com/wardsense/roommonitor/pkg/mqttconn"
)

type Config struct {
	HTTPPort int
	RoomID   string

	// Transport selects the frame source: "sim", "serial" or "mqtt".
	Transport  string
	SerialAddr string
	MQTT       transport.MQTTConfig

	ReconnectDelay time.Duration

	Influx persistence.Config

	// MLServiceURL enables the statistical classifier when non-empty.
	MLServiceURL string

	SimInterval time.Duration
	SimSeed     int64

	Thresholds pipeline.Thresholds

	LogLevel  string
	LogFormat string
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func loadConfig() Config {
	th := pipeline.DefaultThresholds()
	th.FallMotionHigh = envInt("FALL_MOTION_HIGH", th.FallMotionHigh)
	th.FallMotionLow = envInt("FALL_MOTION_LOW", th.FallMotionLow)
	th.ImpactSound = envInt("IMPACT_SOUND", th.ImpactSound)
	th.ErraticDelta = envInt("ERRATIC_DELTA", th.ErraticDelta)
	th.RestlessDelta = envInt("RESTLESS_DELTA", th.RestlessDelta)
	th.ElevatedSound = envInt("ELEVATED_SOUND", th.ElevatedSound)
	th.StillMotion = envInt("STILL_MOTION", th.StillMotion)
	th.StillAlert = time.Duration(envInt("STILL_ALERT_MIN", int(th.StillAlert.Minutes()))) * time.Minute
	th.FallHold = time.Duration(envInt("FALL_HOLD_SEC", int(th.FallHold.Seconds()))) * time.Second
	th.NightStart = envInt("NIGHT_START_HOUR", th.NightStart)
	th.NightEnd = envInt("NIGHT_END_HOUR", th.NightEnd)
	th.MotionWindow = envInt("MOTION_WINDOW", th.MotionWindow)

	roomID := envStr("ROOM_ID", "room-101")

	return Config{
		HTTPPort: envInt("HTTP_PORT", 8080),
		RoomID:   roomID,

		Transport:  envStr("TRANSPORT", "sim"),
		SerialAddr: envStr("SERIAL_ADDR", "/dev/ttyUSB0"),
		MQTT: transport.MQTTConfig{
			Conn: mqttconn.Config{
				Host:     envStr("MQTT_HOST", "localhost"),
				Port:     envInt("MQTT_PORT", 1883),
				User:     envStr("MQTT_USER", "guest"),
				Password: envStr("MQTT_PASSWORD", "guest"),
				ClientID: envStr("HOSTNAME", "room-monitor"),
			},
			Topic: envStr("FRAME_TOPIC", "sensor/frames/"+roomID),
			QoS:   1,
		},

		ReconnectDelay: time.Duration(envInt("RECONNECT_DELAY_MS", 2000)) * time.Millisecond,

		Influx: persistence.Config{
			URL:    envStr("INFLUX_URL", ""),
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    envStr("INFLUX_ORG", "ward"),
			Bucket: envStr("INFLUX_BUCKET", "observations"),
		},

		MLServiceURL: envStr("ML_SERVICE_URL", ""),

		SimInterval: time.Duration(envInt("SIM_INTERVAL_MS", 1000)) * time.Millisecond,
		SimSeed:     int64(envInt("SIM_SEED", 1)),

		Thresholds: th,

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),
	}
}
