// Screener Core - live scene composition engine
//
// This is the main entry point for the screener daemon. It owns the
// authoritative stage state (slices, components, scenes, playbacks), serves
// it over HTTP and WebSocket, mirrors it onto MQTT and persists it to SQLite.
//
// Usage:
//
//	screener                      run the daemon (SCREENER_CONFIG selects the config file)
//	screener hash-password [pw]   print an Argon2id hash for security.accounts
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/screener-core/internal/api"
	"github.com/nerrad567/screener-core/internal/audit"
	"github.com/nerrad567/screener-core/internal/auth"
	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/infrastructure/config"
	"github.com/nerrad567/screener-core/internal/infrastructure/database"
	"github.com/nerrad567/screener-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/screener-core/internal/infrastructure/logging"
	"github.com/nerrad567/screener-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/screener-core/internal/manager"
	"github.com/nerrad567/screener-core/internal/media"
	"github.com/nerrad567/screener-core/internal/project"
	"github.com/nerrad567/screener-core/internal/relay"
	"github.com/nerrad567/screener-core/internal/scene"
	"github.com/nerrad567/screener-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/screener.yaml"

// relayQueueSize bounds notifications waiting for the sinks.
const relayQueueSize = 1024

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the daemon, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting screener",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	db, err := database.Open(ctx, database.FromConfig(cfg.Database))
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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	mqttClient, err := connectMQTT(cfg.MQTT, log)
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

	influxClient, err := connectInfluxDB(ctx, cfg.InfluxDB, log)
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

	// Notifications fan out to the WebSocket hub and, when connected, to
	// MQTT retained state and InfluxDB telemetry.
	hub := api.NewHub(cfg.WebSocket, log)
	sinks := []relay.Sink{relay.NewHubSink(hub)}
	if mqttClient != nil {
		sinks = append(sinks, relay.NewMQTTPublisher(mqttClient, log.Component("mqtt-relay")))
	}
	if influxClient != nil {
		sinks = append(sinks, relay.NewTelemetry(influxClient, log.Component("telemetry")))
	}
	fanout := relay.NewFanout(relayQueueSize, log.Component("relay"), sinks...)

	resolver := media.NewDiskResolver(
		cfg.Media.CacheDir,
		time.Duration(cfg.Media.FetchTimeout)*time.Second,
		cfg.Media.MaxBytes,
	)

	mgr := manager.New(manager.Options{
		Notifier:        fanout,
		Media:           media.NewCache(resolver, log.Component("media")),
		Logger:          log.Component("manager"),
		HistoryDebounce: time.Duration(cfg.History.DebounceMS) * time.Millisecond,
		MaxHistory:      cfg.History.MaxLength,
		Slices:          stageSlices(cfg.Stage),
	})
	defer mgr.Close()

	saver, err := restoreProject(ctx, cfg.Autosave, db, mgr, log)
	if err != nil {
		return err
	}
	defer shutdown(log, mgr, saver)

	auditRepo := audit.NewSQLiteRepository(db)

	var listener *relay.CommandListener
	if mqttClient != nil {
		listener = relay.NewCommandListener(mgr, mqttClient, log.Component("commands"))
		listener.SetOnExecuted(func(name string, cmd relay.Command) {
			if recErr := auditRepo.Record(ctx, commandEntry(name, cmd)); recErr != nil {
				log.Warn("audit write failed", "error", recErr, "command", name)
			}
		})
		if startErr := listener.Start(); startErr != nil {
			return fmt.Errorf("starting command listener: %w", startErr)
		}
	}

	accounts, err := auth.NewAuthenticator(configAccounts(cfg.Security.Accounts))
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	if cfg.Security.JWT.Secret == "" {
		log.Warn("authentication disabled, every API caller acts as an operator")
	}

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Manager:  mgr,
		Accounts: accounts,
		Hub:      hub,
		Audit:    auditRepo,
		DB:       db,
		Relay:    fanout,
		Version:  version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if influxClient != nil {
		deps.InfluxDB = influxClient
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fanout.Run(gctx) })
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if err := server.Start(gctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-gctx.Done()
	log.Info("shutdown signal received, cleaning up")

	log.Info("stopping API server")
	if closeErr := server.Close(); closeErr != nil {
		log.Error("error stopping API server", "error", closeErr)
	}
	if listener != nil {
		log.Info("stopping command listener")
		if stopErr := listener.Stop(); stopErr != nil {
			log.Warn("error stopping command listener", "error", stopErr)
		}
	}
	shutdown(log, mgr, saver)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("background worker: %w", err)
	}

	log.Info("screener stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SCREENER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SCREENER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT connects to the broker, or returns nil when MQTT is disabled.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if errors.Is(err, mqtt.ErrDisabled) {
		log.Info("MQTT disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	return client, nil
}

// connectInfluxDB connects to InfluxDB, or returns nil when telemetry is
// disabled.
func connectInfluxDB(ctx context.Context, cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(ctx, cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	return client, nil
}

// stageSlices builds the initial output regions from config.
func stageSlices(cfg config.StageConfig) []*scene.Slice {
	slices := make([]*scene.Slice, 0, len(cfg.Slices))
	for _, s := range cfg.Slices {
		slices = append(slices, scene.NewSlice(s.Name, geometry.Rect{
			X:      s.X,
			Y:      s.Y,
			Width:  s.Width,
			Height: s.Height,
		}))
	}
	return slices
}

// configAccounts converts configured logins to auth accounts.
func configAccounts(cfg []config.AccountConfig) []auth.Account {
	accounts := make([]auth.Account, 0, len(cfg))
	for _, a := range cfg {
		accounts = append(accounts, auth.Account{
			Name:         a.Name,
			Role:         auth.Role(a.Role),
			PasswordHash: a.PasswordHash,
		})
	}
	return accounts
}

// commandEntry describes a remote command for the audit trail, using the
// entity names of the REST routes ("scene.activate" -> activate scenes).
func commandEntry(name string, cmd relay.Command) *audit.Entry {
	entity, action, _ := strings.Cut(name, ".")
	if entity != "history" {
		entity += "s"
	}
	if action == "action" {
		action = "invoke"
	}

	e := &audit.Entry{
		Action:     action,
		EntityType: entity,
		EntityID:   cmd.ID,
		Source:     audit.SourceMQTT,
		Details:    map[string]any{"command": name},
	}
	if cmd.Action != "" {
		e.Details["componentAction"] = cmd.Action
	}
	return e
}

// restoreProject loads the newest snapshot into mgr and, when autosave is
// enabled, returns a saver hooked to every history commit.
//
// Returns:
//   - *project.Autosaver: saver to run, or nil when autosave is disabled
//   - error: if the stored snapshot could not be restored
func restoreProject(ctx context.Context, cfg config.AutosaveConfig, db *database.DB, mgr *manager.Manager, log *logging.Logger) (*project.Autosaver, error) {
	repo := project.NewSQLiteRepository(db)

	snap, err := project.Restore(ctx, repo, mgr)
	if err != nil {
		return nil, fmt.Errorf("restoring project: %w", err)
	}
	if snap != nil {
		log.Info("project restored", "snapshot", snap.ID, "saved_at", snap.CreatedAt)
	} else {
		log.Info("no saved project, starting empty")
	}

	if !cfg.Enabled {
		log.Info("autosave disabled")
		return nil, nil
	}

	saver := project.NewAutosaver(repo, project.AutosaveOptions{
		Interval: time.Duration(cfg.IntervalMS) * time.Millisecond,
		Keep:     cfg.Keep,
		Logger:   log.Component("autosave"),
	})
	if data, snapErr := mgr.ToJSON(); snapErr == nil {
		saver.Seed(data)
	}
	mgr.History().OnCommit(saver.Enqueue)
	return saver, nil
}

// shutdown flushes pending history into the autosaver and writes it. Every
// source of mutations must be stopped first, or its edits miss the final
// save. Safe to call more than once.
func shutdown(log *logging.Logger, mgr *manager.Manager, saver *project.Autosaver) {
	mgr.Close()
	if saver != nil {
		log.Info("writing final autosave")
		saver.Close()
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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

// hashPassword prints the Argon2id hash of the password given as the first
// argument, or of the first line read from in.
func hashPassword(args []string, in io.Reader, out io.Writer) error {
	var password string
	if len(args) > 0 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Fprintln(out, hash)
	return nil
}
