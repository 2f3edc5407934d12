package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"room-lab/receiver"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	Host           string        `env:"RECEIVER_HOST,default=localhost"`
	Port           int           `env:"RECEIVER_PORT,default=9000"`
	Token          string        `env:"RECEIVER_TOKEN"`
	ReceiveTimeout time.Duration `env:"RECEIVE_TIMEOUT,default=10m"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run waits for the roster of the room this participant joined and prints it
// as JSON on stdout.
func run() error {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.ReceiveTimeout)
	defer cancel()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	notification, err := receiver.NewReceiver(config.Token, log).Serve(ctx, listener)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(notification)
}
