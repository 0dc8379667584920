// Inlet Core - Resource Assignment Consistency Service
//
// This is the main entry point for the Inlet Core application. Inlet Core
// keeps the device/pipeline/endpoint topology consistent:
//   - Devices feed exactly one pipeline at a time
//   - Pipelines fan out to a bounded set of delivery endpoints
//   - Every membership change is atomic and observable
//
// Topology changes are served over HTTP, broadcast over WebSocket and MQTT,
// and archived to InfluxDB when enabled.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/inletworks/inlet-core/migrations"

	"github.com/inletworks/inlet-core/internal/api"
	"github.com/inletworks/inlet-core/internal/assignment"
	"github.com/inletworks/inlet-core/internal/audit"
	"github.com/inletworks/inlet-core/internal/device"
	"github.com/inletworks/inlet-core/internal/endpoint"
	"github.com/inletworks/inlet-core/internal/infrastructure/config"
	"github.com/inletworks/inlet-core/internal/infrastructure/database"
	"github.com/inletworks/inlet-core/internal/infrastructure/influxdb"
	"github.com/inletworks/inlet-core/internal/infrastructure/logging"
	"github.com/inletworks/inlet-core/internal/infrastructure/mqtt"
	"github.com/inletworks/inlet-core/internal/observability/metrics"
	"github.com/inletworks/inlet-core/internal/pipeline"
	"github.com/inletworks/inlet-core/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// watchBuffer is the event buffer size for each registry watch stream.
// Large enough to absorb bursts of membership changes without dropping.
const watchBuffer = 64

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// .env is optional; environment overrides still apply without one
	_ = godotenv.Load() //nolint:errcheck // Missing .env is not an error

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Inlet Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise registries from their repositories
	devices := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	devices.SetLogger(log)
	if err := devices.Load(ctx); err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}

	endpoints := endpoint.NewRegistry(endpoint.NewSQLiteRepository(db.DB))
	endpoints.SetLogger(log)
	if err := endpoints.Load(ctx); err != nil {
		return fmt.Errorf("loading endpoint registry: %w", err)
	}

	pipelines := pipeline.NewRegistry(pipeline.NewSQLiteRepository(db.DB))
	pipelines.SetLogger(log)
	if err := pipelines.Load(ctx); err != nil {
		return fmt.Errorf("loading pipeline registry: %w", err)
	}

	log.Info("registries initialised",
		"devices", devices.Count(),
		"endpoints", endpoints.Count(),
		"pipelines", pipelines.Count(),
	)

	// Assignment coordinator enforces membership invariants across registries
	coord := assignment.NewCoordinator(devices, endpoints, pipelines)
	coord.SetLogger(log)

	// Prometheus metrics, including DB-backed topology gauges
	metrics.Init(db.DB, log)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub, shared between the API server and the event fan-out
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Fan topology events out to WebSocket, MQTT, InfluxDB and metrics
	fanout := &eventFanout{
		log:    log,
		hub:    hub,
		mqtt:   mqttClient,
		influx: influxClient,
		qos:    byte(cfg.MQTT.QoS),
	}
	fanout.start(ctx, devices, endpoints, pipelines)

	// Start HTTP API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Devices:     devices,
		Endpoints:   endpoints,
		Pipelines:   pipelines,
		Coordinator: coord,
		Audit:       audit.NewSQLiteRepository(db.DB),
		MQTT:        mqttClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Announce availability on the system status topic
	if mqttClient != nil {
		publishSystemStatus(mqttClient, byte(cfg.MQTT.QoS), "online", log)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	if mqttClient != nil {
		publishSystemStatus(mqttClient, byte(cfg.MQTT.QoS), "offline", log)
	}

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Inlet Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses INLET_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INLET_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB are skipped when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// publishSystemStatus announces service availability on the retained
// system status topic so consumers joining later still see current state.
func publishSystemStatus(client *mqtt.Client, qos byte, status string, log *logging.Logger) {
	topics := mqtt.Topics{}
	payload, err := json.Marshal(map[string]string{
		"status":    status,
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := client.Publish(topics.SystemStatus(), payload, qos, true); err != nil {
		log.Warn("failed to publish system status", "status", status, "error", err)
	}
}

// eventFanout relays registry change events to every configured consumer:
// the WebSocket hub, the MQTT topology topics, the InfluxDB archive and
// the Prometheus counters. MQTT and InfluxDB may be nil when disabled.
type eventFanout struct {
	log    *logging.Logger
	hub    *api.Hub
	mqtt   *mqtt.Client
	influx *influxdb.Client
	qos    byte
}

// topologyEvent is the JSON shape published for every topology change.
type topologyEvent struct {
	Kind   string `json:"kind"`
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Data   any    `json:"data,omitempty"`
}

// start launches one relay goroutine per registry. The goroutines exit
// when the watch streams close, which happens on context cancellation.
func (f *eventFanout) start(ctx context.Context, devices *device.Registry, endpoints *endpoint.Registry, pipelines *pipeline.Registry) {
	topics := mqtt.Topics{}

	deviceEvents, cancelDevices := devices.Watch(watchBuffer)
	go func() {
		defer cancelDevices()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-deviceEvents:
				if !ok {
					return
				}
				f.relay("device", ev.Entity.ID, string(ev.Kind), topics.Device(ev.Entity.ID), ev.Entity)
			}
		}
	}()

	endpointEvents, cancelEndpoints := endpoints.Watch(watchBuffer)
	go func() {
		defer cancelEndpoints()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-endpointEvents:
				if !ok {
					return
				}
				f.relay("endpoint", ev.Entity.ID, string(ev.Kind), topics.Endpoint(ev.Entity.ID), ev.Entity)
			}
		}
	}()

	pipelineEvents, cancelPipelines := pipelines.Watch(watchBuffer)
	go func() {
		defer cancelPipelines()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-pipelineEvents:
				if !ok {
					return
				}
				f.relay("pipeline", ev.Entity.ID, string(ev.Kind), topics.Pipeline(ev.Entity.ID), ev.Entity)
				f.recordPipelineLoad(ev)
			}
		}
	}()
}

// relay pushes one topology change to every consumer.
func (f *eventFanout) relay(entity, id, kind, topic string, data any) {
	metrics.IncTopologyEvent(entity, kind)

	payload := topologyEvent{
		Kind:   kind,
		Entity: entity,
		ID:     id,
		Data:   data,
	}

	f.hub.Broadcast(entity+"s", payload)

	if f.mqtt != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			f.log.Error("failed to marshal topology event", "entity", entity, "id", id, "error", err)
			return
		}
		if err := f.mqtt.Publish(topic, body, f.qos, false); err != nil {
			f.log.Warn("failed to publish topology event", "topic", topic, "error", err)
		}
	}

	if f.influx != nil {
		f.influx.WriteTopologyEvent(entity, id, kind)
	}
}

// recordPipelineLoad archives the membership counts of a pipeline after
// each change, giving the archive a queryable load series per pipeline.
func (f *eventFanout) recordPipelineLoad(ev store.Event[pipeline.Pipeline]) {
	if f.influx == nil || ev.Kind == store.EventDeleted {
		return
	}
	f.influx.WritePipelineLoad(ev.Entity.ID, len(ev.Entity.DeviceIDs), len(ev.Entity.EndpointIDs))
}
