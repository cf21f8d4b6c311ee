package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/hub"
	"github.com/wardsense/roommonitor/internal/mlclient"
	"github.com/wardsense/roommonitor/internal/persistence"
	"github.com/wardsense/roommonitor/internal/pipeline"
	sensor_simulator "github.com/wardsense/roommonitor/internal/sensor-simulator"
	"github.com/wardsense/roommonitor/internal/services/monitor"
	"github.com/wardsense/roommonitor/internal/transform"
	"github.com/wardsense/roommonitor/internal/transport"
	"github.com/wardsense/roommonitor/pkg/logger"
)

func main() {
	cfg := loadConfig()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "room-monitor")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutdown requested")
		cancel()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Terminology table: the one hard startup failure of the pipeline.
	transformer, err := transform.New(transform.DefaultCodeTable())
	if err != nil {
		log.Fatal("invalid terminology code table", zap.Error(err))
	}

	broadcast := hub.New(8, registry, log)
	defer broadcast.Close()

	var sink pipeline.Sink
	var storageHealth monitor.StorageHealth
	if cfg.Influx.URL != "" {
		influx, err := persistence.NewSink(cfg.Influx, registry, log)
		if err != nil {
			log.Fatal("influx sink", zap.Error(err))
		}
		defer influx.Close()
		sink = influx
		storageHealth = influx
	} else {
		log.Warn("no INFLUX_URL configured, observations will not be persisted")
		noop := persistence.Noop{}
		sink = noop
		storageHealth = noop
	}

	var enricher pipeline.Enricher
	if cfg.MLServiceURL != "" {
		ml := mlclient.New(cfg.MLServiceURL, 10*time.Second, registry, log)
		if ml.Available(ctx) {
			log.Info("statistical classifier available", zap.String("url", cfg.MLServiceURL))
		} else {
			log.Warn("statistical classifier not reachable, continuing without it",
				zap.String("url", cfg.MLServiceURL))
		}
		enricher = ml
	}

	var source transport.Source
	switch cfg.Transport {
	case "serial":
		source = transport.NewLineSource(cfg.SerialAddr)
	case "mqtt":
		source = transport.NewMQTTSource(cfg.MQTT, log)
	default:
		source = &sensor_simulator.Source{Interval: cfg.SimInterval, Seed: cfg.SimSeed}
	}

	tracker := pipeline.NewTracker(cfg.Thresholds)
	classifier := pipeline.NewClassifier(cfg.Thresholds)
	metrics := pipeline.NewMetrics(registry)

	loop := pipeline.NewLoop(
		pipeline.LoopConfig{RoomID: cfg.RoomID, ReconnectDelay: cfg.ReconnectDelay},
		source, tracker, classifier, transformer, sink, broadcast, enricher,
		cfg.Thresholds, metrics, log,
	)

	mux := monitor.NewHTTPMux(monitor.Deps{
		Hub:      broadcast,
		Tracker:  tracker,
		Loop:     loop,
		Sink:     storageHealth,
		Registry: registry,
		Log:      log,
	})
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.Int("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			cancel()
		}
	}()

	log.Info("ingestion starting",
		zap.String("room", cfg.RoomID), zap.String("transport", cfg.Transport))
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ingestion loop stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
