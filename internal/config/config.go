package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	JWTSecret  string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Monitoring `yaml:"monitoring"`
	RabbitMQ   `yaml:"rabbitmq"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	SMTP       `yaml:"smtp"`
}

type Monitoring struct {
	CheckInterval   time.Duration `yaml:"check_interval" env:"CHECK_INTERVAL" env-default:"30m"`
	AdapterTimeout  time.Duration `yaml:"adapter_timeout" env:"ADAPTER_TIMEOUT" env-default:"30s"`
	PriceAPIBaseURL string        `yaml:"price_api_base_url" env:"PRICE_API_BASE_URL" env-default:"http://localhost:9090"`
	FetchRetry      Retry         `yaml:"fetch_retry"`
	PersistRetry    Retry         `yaml:"persist_retry"`
	EnqueueRetry    Retry         `yaml:"enqueue_retry"`
}

type Retry struct {
	Attempts  int           `yaml:"attempts" env-default:"3"`
	BaseDelay time.Duration `yaml:"base_delay" env-default:"1s"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type RabbitMQ struct {
	URL            string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName      string `yaml:"queue_name" env-default:"price_check_queue"`
	WorkerPoolSize int    `yaml:"worker_pool_size" env-default:"10"`
}

type Redis struct {
	Addr       string        `yaml:"addr" env-default:"redis:6379"`
	Db         int           `yaml:"db" env-default:"1"`
	DefaultTTL time.Duration `yaml:"default_ttl" env-default:"1m"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASS"`
	From     string `yaml:"from" env:"SMTP_FROM"`
	To       string `yaml:"to" env:"NOTIFICATION_EMAIL"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", configPath)
	}

	return &cfg
}
