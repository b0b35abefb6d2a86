package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"controme_bridge/internal/device"
	"controme_bridge/internal/handlers"
	"controme_bridge/internal/logger"
	"controme_bridge/internal/repository"
	"controme_bridge/internal/server"
	"controme_bridge/internal/service"

	"github.com/spf13/viper"
)

// @title           Controme Bridge API
// @description     Snapshot, metrics and command dispatch for a Controme Smart-Heat-OS gateway.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.Get(logger.InfoLevel)

	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	client, err := newGatewayClient()
	if err != nil {
		log.Fatalw("invalid gateway configuration", "err", err)
	}

	repos := repository.NewRepository(db)
	services := service.NewService(repos, client,
		viper.GetString("gateway.host"),
		viper.GetString("auth.signing_key"),
		log)
	apiHandler := handlers.NewHandler(services, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first refresh must succeed; without a snapshot nothing downstream
	// can answer.
	if err := services.Coordinator.Refresh(ctx); err != nil {
		log.Fatalw("initial gateway refresh failed", "host", viper.GetString("gateway.host"), "err", err)
	}
	log.Infow("initial snapshot loaded", "host", viper.GetString("gateway.host"))

	go services.Coordinator.Run(ctx, pollInterval())

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// newGatewayClient builds the HTTP client from configuration. Credentials
// and house id are validated once here, not per request.
func newGatewayClient() (device.Client, error) {
	return device.NewHTTPClient(
		viper.GetString("gateway.host"),
		viper.GetString("gateway.username"),
		viper.GetString("gateway.password"),
		viper.GetInt("gateway.house_id"),
	)
}

func pollInterval() time.Duration {
	if d := viper.GetDuration("gateway.poll_interval"); d > 0 {
		return d
	}
	return service.DefaultPollInterval
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "bridge.db")
		dbPath = "bridge.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
