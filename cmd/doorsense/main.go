// Doorsense - entrance sensor backend
//
// This is the main entry point for the Doorsense server. It serves the
// tRPC-compatible procedure API over users, devices and entrance logs,
// accepts sensor reports over HTTP and optionally MQTT, and mirrors
// entrance events to InfluxDB when configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/nerrad567/doorsense/migrations"

	"github.com/nerrad567/doorsense/internal/api"
	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/infrastructure/config"
	"github.com/nerrad567/doorsense/internal/infrastructure/database"
	"github.com/nerrad567/doorsense/internal/infrastructure/influxdb"
	"github.com/nerrad567/doorsense/internal/infrastructure/logging"
	"github.com/nerrad567/doorsense/internal/infrastructure/metrics"
	"github.com/nerrad567/doorsense/internal/infrastructure/mqtt"
	"github.com/nerrad567/doorsense/internal/rpc"
	"github.com/nerrad567/doorsense/internal/user"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// sensorHandlerTimeout bounds the database work for one MQTT sensor report.
const sensorHandlerTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Doorsense",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := loadDotEnv(); err != nil {
		return err
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open and migrate the database exactly once; every repository shares it.
	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := user.NewSQLiteRepository(db.DB)
	devices := device.NewSQLiteRepository(db.DB)
	logs := entrance.NewSQLiteRepository(db.DB)

	if cfg.Database.SeedSampleLogs > 0 {
		seeded, seedErr := logs.SeedSamples(ctx, cfg.Database.SeedSampleLogs)
		if seedErr != nil {
			return fmt.Errorf("seeding sample logs: %w", seedErr)
		}
		if seeded > 0 {
			log.Info("seeded sample entrance logs", "count", seeded)
		}
	}

	recorder := entrance.NewRecorder(logs, log.With("component", "entrance"))

	devicesOn := metrics.CounterFunc(func(ctx context.Context) (int, error) {
		counts, countErr := devices.CountByStatus(ctx)
		return counts[device.StatusOn], countErr
	})
	entrancesToday := metrics.CounterFunc(func(ctx context.Context) (int, error) {
		live, liveErr := logs.LiveStats(ctx)
		if liveErr != nil {
			return 0, liveErr
		}
		return live.Count, nil
	})
	metrics.Init(metrics.Gauges{
		Users:           users,
		DevicesOn:       devicesOn,
		EntrancesStored: logs,
		EntrancesToday:  entrancesToday,
	}, log)
	recorder.AddObserver(entrance.ObserverFunc(func(_ context.Context, ev entrance.Event) error {
		metrics.ObserveEntrance(string(ev.Source), ev.Log.Duration)
		return nil
	}))

	// Optional integrations
	mqttClient, err := startMQTT(cfg.MQTT, recorder, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	influxClient, err := startInfluxDB(cfg.InfluxDB, recorder, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	server, err := api.New(api.Deps{
		Config: cfg.API,
		Logger: log,
		Router: rpc.NewAppRouter(rpc.Deps{
			Users:    users,
			Devices:  devices,
			Logs:     logs,
			Recorder: recorder,
		}),
		Recorder: recorder,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	recorder.AddObserver(server.Hub())

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, server, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.

	log.Info("Doorsense stopped")
	return nil
}

// loadDotEnv reads .env from the working directory when present.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DOORSENSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOORSENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startMQTT connects to the broker, subscribes to sensor reports and
// republishes recorded entrances. It returns nil when MQTT is disabled.
func startMQTT(cfg config.MQTTConfig, recorder *entrance.Recorder, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.With("component", "mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected", "subscriptions", client.SubscriptionCount())
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	topics := mqtt.Topics{}
	qos := byte(cfg.QoS) //nolint:gosec // validated to 0..2 by config
	if err := client.Subscribe(topics.AllSensorEntrances(), qos, recorder.SensorHandler(sensorHandlerTimeout)); err != nil {
		_ = client.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("subscribing to sensor reports: %w", err)
	}
	log.Info("subscribed to sensor reports", "topic", topics.AllSensorEntrances())

	recorder.AddObserver(entrance.MQTTRepublisher(client, topics.EventEntrance(), qos))
	return client, nil
}

// startInfluxDB connects the entrance mirror. It returns nil when disabled.
func startInfluxDB(cfg config.InfluxDBConfig, recorder *entrance.Recorder, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)

	recorder.AddObserver(entrance.InfluxMirror(client))
	return client, nil
}

// healthCheck verifies all started components are healthy.
// MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
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
