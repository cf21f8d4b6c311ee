package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	sensor_simulator "github.com/wardsense/roommonitor/internal/sensor-simulator"
	"github.com/wardsense/roommonitor/pkg/mqttconn"
)

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

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := mqttconn.Config{
		Host:     envStr("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     envStr("MQTT_USER", "guest"),
		Password: envStr("MQTT_PASSWORD", "guest"),
		ClientID: envStr("HOSTNAME", "sensor-simulator"),
	}
	topic := envStr("FRAME_TOPIC", "sensor/frames/room-101")
	interval := time.Duration(envInt("FRAME_INTERVAL_MS", 1000)) * time.Millisecond
	seed := int64(envInt("SIM_SEED", int(time.Now().UnixNano())))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	client, err := mqttconn.NewConn(ctx, cfg, nil)
	if err != nil {
		log.Fatal("mqtt connection failed", zap.Error(err))
	}
	pub := mqttconn.NewPublisher(client, topic, 1)

	log.Info("sensor simulator started",
		zap.String("topic", topic), zap.Duration("interval", interval))

	sim := sensor_simulator.NewSimulator(sensor_simulator.NewGenerator(seed), pub, log)
	sim.Start(ctx, interval)
}
