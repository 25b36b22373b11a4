package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YelzhanWeb/tableside/internal/domain"
)

const envPrefix = "TABLESIDE_"

// Broker names accepted by events.broker
const (
	BrokerNone     = "none"
	BrokerRabbitMQ = "rabbitmq"
	BrokerNATS     = "nats"
	BrokerBoth     = "both"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	NATS        NATSConfig        `yaml:"nats"`
	Events      EventsConfig      `yaml:"events"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Logging     LoggingConfig     `yaml:"logging"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Seed        SeedConfig        `yaml:"seed"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Prefetch int    `yaml:"prefetch"`

	// Intake enables the order intake consumer in server mode.
	Intake bool `yaml:"intake"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	Broker string `yaml:"broker"`
	Buffer int    `yaml:"buffer"`
}

type SchedulerConfig struct {
	Period              time.Duration `yaml:"period"`
	PendingToPreparing  time.Duration `yaml:"pending_to_preparing"`
	PreparingToReady    time.Duration `yaml:"preparing_to_ready"`
	CounterReadyToDone  time.Duration `yaml:"counter_ready_to_done"`
	DeliveryReadyToDone time.Duration `yaml:"delivery_ready_to_done"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PersistenceConfig struct {
	Enabled bool `yaml:"enabled"`
}

type SeedConfig struct {
	Tables []SeedTable `yaml:"tables"`
}

type SeedTable struct {
	Number   string `yaml:"number"`
	Capacity int    `yaml:"capacity"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	policy := domain.DefaultTransitionPolicy()

	return &Config{
		Server: ServerConfig{Port: 3000},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "tableside",
			Password: "tableside",
			Database: "tableside",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			Prefetch: 10,
		},
		NATS:   NATSConfig{URL: "nats://localhost:4222"},
		Events: EventsConfig{Broker: BrokerNone, Buffer: 256},
		Scheduler: SchedulerConfig{
			Period:              5 * time.Second,
			PendingToPreparing:  policy.PendingToPreparing,
			PreparingToReady:    policy.PreparingToReady,
			CounterReadyToDone:  policy.CounterReadyToDone,
			DeliveryReadyToDone: policy.DeliveryReadyToDone,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// TABLESIDE_* overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DB_HOST":       &c.Database.Host,
		"DB_USER":       &c.Database.User,
		"DB_PASSWORD":   &c.Database.Password,
		"DB_NAME":       &c.Database.Database,
		"RABBITMQ_HOST": &c.RabbitMQ.Host,
		"RABBITMQ_USER": &c.RabbitMQ.User,
		"RABBITMQ_PASS": &c.RabbitMQ.Password,
		"NATS_URL":      &c.NATS.URL,
		"BROKER":        &c.Events.Broker,
		"LOG_LEVEL":     &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":          &c.Server.Port,
		"DB_PORT":       &c.Database.Port,
		"RABBITMQ_PORT": &c.RabbitMQ.Port,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "SCHEDULER_PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSCHEDULER_PERIOD: %w", envPrefix, err)
		}
		c.Scheduler.Period = d
	}

	if v, ok := os.LookupEnv(envPrefix + "PERSISTENCE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sPERSISTENCE: %w", envPrefix, err)
		}
		c.Persistence.Enabled = b
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	durations := map[string]time.Duration{
		"scheduler.period":                 c.Scheduler.Period,
		"scheduler.pending_to_preparing":   c.Scheduler.PendingToPreparing,
		"scheduler.preparing_to_ready":     c.Scheduler.PreparingToReady,
		"scheduler.counter_ready_to_done":  c.Scheduler.CounterReadyToDone,
		"scheduler.delivery_ready_to_done": c.Scheduler.DeliveryReadyToDone,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	switch c.Events.Broker {
	case BrokerNone, BrokerRabbitMQ, BrokerNATS, BrokerBoth:
	default:
		return fmt.Errorf("unknown events.broker %q", c.Events.Broker)
	}

	if c.Events.Buffer < 1 {
		return fmt.Errorf("events.buffer must be positive")
	}

	for i, t := range c.Seed.Tables {
		if t.Number == "" || t.Capacity < 1 {
			return fmt.Errorf("seed.tables[%d]: number and positive capacity required", i)
		}
	}

	return nil
}

func (c *Config) UsesRabbitMQ() bool {
	return c.Events.Broker == BrokerRabbitMQ || c.Events.Broker == BrokerBoth || c.RabbitMQ.Intake
}

func (c *Config) UsesNATS() bool {
	return c.Events.Broker == BrokerNATS || c.Events.Broker == BrokerBoth
}
