package main

import "time"

type Config struct {
	Host                string        `env:"HOST,default=localhost"`
	Port                int           `env:"PORT,default=8080"`
	LogLevel            string        `env:"LOG_LEVEL,default=INFO"`
	GinMode             string        `env:"GIN_MODE,default=release"`
	BadgerFilepath      string        `env:"BADGER_FILEPATH"`
	JWTSecret           string        `env:"JWT_SECRET,required=true"`
	DeliveryTimeout     time.Duration `env:"DELIVERY_TIMEOUT,default=5s"`
	DeliveryRetries     int           `env:"DELIVERY_RETRIES,default=2"`
	DeliveryRetryDelay  time.Duration `env:"DELIVERY_RETRY_DELAY,default=500ms"`
	DeliveryConcurrency int           `env:"DELIVERY_CONCURRENCY,default=16"`
	FillQueueSize       int           `env:"FILL_QUEUE_SIZE,default=1024"`
	ScheduleTimeout     time.Duration `env:"SCHEDULE_TIMEOUT,default=1s"`
	DrainTimeout        time.Duration `env:"DRAIN_TIMEOUT,default=10s"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=1s"`
	ReportInterval      time.Duration `env:"REPORT_INTERVAL,default=1m"`
}
