package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"room-lab/auth"
	"room-lab/infrastructure/http/server"
	"room-lab/notifier"
	"room-lab/repositories"
	"room-lab/runtime/workers"
	"room-lab/services"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the shutdown sequence, so deferred
// cleanups run before the process exits.
func run() error {
	// 1. Configuration & Logger
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB), in memory when no path is configured
	options := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
	if config.BadgerFilepath == "" {
		options = options.WithInMemory(true)
	}
	db, err := badger.Open(options)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Fill notification fan-out under supervision
	dispatcher := notifier.NewDispatcher(
		notifier.NewHTTPDeliverer(&http.Client{}),
		notifier.Config{
			Timeout:     config.DeliveryTimeout,
			Retries:     config.DeliveryRetries,
			RetryDelay:  config.DeliveryRetryDelay,
			Concurrency: config.DeliveryConcurrency,
		}, log)
	roomRepository := repositories.NewRoomRepository(db, log)
	reporter := workers.NewReporterWorker(roomRepository, config.ReportInterval, log)
	fillNotifier := workers.NewFillNotifierWorker(dispatcher, config.FillQueueSize, config.DrainTimeout, log).
		OnReport(reporter.Record)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(fillNotifier, reporter)

	// 4. Room engine
	roomService := services.NewRoomService(roomRepository, fillNotifier, log).
		WithScheduleTimeout(config.ScheduleTimeout)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Workers outlive the signal until the HTTP server stopped accepting joins
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(workersCtx)
		close(supervisorDone)
	}()

	// 6. HTTP Server Setup
	gin.SetMode(config.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	server.NewRoomServer(log, roomService, auth.NewJWTResolver([]byte(config.JWTSecret))).Register(router)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		stopWorkers()
		<-supervisorDone
		return err
	}

	// 8. Final Cleanup: stop accepting joins, then drain pending notifications
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server forced to shutdown", "error", err)
	}
	stopWorkers()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
