// Gray Logic Shutter - roller shutter automation service
//
// shutterd decides the position of every configured roller shutter from
// schedules, outside illuminance, sun position, temperatures and window
// contacts, and drives the actuators through the protocol bridges on MQTT.
//
// Startup order: config, logging, database and migrations, MQTT, InfluxDB
// (optional), then the shutter controllers. Shutdown runs in reverse.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-shutter/internal/controller"
	"github.com/nerrad567/gray-logic-shutter/internal/history"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shutter/migrations"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// pruneInterval is how often expired history is deleted.
	pruneInterval = 24 * time.Hour
	pruneTimeout  = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled.
// Every component opened here is closed again, in reverse order, by the
// deferred cleanups.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Shutter", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "shutters", len(cfg.Shutters))

	loc, err := cfg.Site.Location()
	if err != nil {
		return err
	}

	deps := controller.Deps{
		Location: loc,
		QoS:      byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0-2
	}

	repo, closeDB, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	if repo != nil {
		deps.History = repo
	}

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	defer closeWith(log, "MQTT", mqttClient.Close)
	deps.MQTT = mqttClient

	influxClient, err := connectInflux(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer closeWith(log, "InfluxDB", influxClient.Close)
		deps.Telemetry = influxClient
	}

	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	manager := controller.NewManager(cfg.Shutters, deps, log)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("starting shutter controllers: %w", err)
	}
	defer manager.Stop()

	if repo != nil {
		go pruneHistory(ctx, repo, cfg.History.Retention(), log)
	}

	log.Info("shutters running", "ids", manager.IDs())
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openHistory opens and migrates the history database when history is
// enabled. The returned cleanup is always safe to call.
func openHistory(ctx context.Context, cfg *config.Config, log *logging.Logger) (*history.SQLiteRepository, func(), error) {
	if !cfg.History.Enabled {
		log.Info("history disabled")
		return nil, func() {}, nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	cleanup := func() { closeWith(log, "database", db.Close) }

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())
	return history.NewSQLiteRepository(db.DB), cleanup, nil
}

func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttLog := log.ForComponent("mqtt")
	client.SetLogger(mqttLog)
	client.SetOnDisconnect(func(err error) {
		mqttLog.Warn("MQTT disconnected", "error", err)
	})
	mqttLog.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client, nil
}

// connectInflux returns a nil client when telemetry is disabled.
func connectInflux(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	influxLog := log.ForComponent("influxdb")
	client.SetOnError(func(err error) {
		influxLog.Error("InfluxDB write error", "error", err)
	})
	influxLog.Info("InfluxDB connected", "url", cfg.URL, "bucket", cfg.Bucket)
	return client, nil
}

// closeWith runs a shutdown step and logs its failure.
func closeWith(log *logging.Logger, what string, closeFn func() error) {
	log.Info("closing " + what)
	if err := closeFn(); err != nil {
		log.Error("error closing "+what, "error", err)
	}
}

// getConfigPath returns SHUTTER_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("SHUTTER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the broker and, when enabled, InfluxDB.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// historyPruner is the part of the history repository the prune loop uses.
type historyPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// pruneHistory deletes expired history once at startup and then daily
// until ctx is cancelled. A non-positive retention keeps everything.
func pruneHistory(ctx context.Context, repo historyPruner, retention time.Duration, log *logging.Logger) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		pruneOnce(ctx, repo, retention, log)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func pruneOnce(ctx context.Context, repo historyPruner, retention time.Duration, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	n, err := repo.Prune(ctx, retention)
	if err != nil {
		log.Error("pruning history", "error", err)
		return
	}
	if n > 0 {
		log.Info("history pruned", "deleted", n, "retention", retention)
	}
}
