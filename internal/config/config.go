package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix префикс переменных окружения, например BOOKING_DATABASE_PASSWORD
const EnvPrefix = "BOOKING"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var (
	// ErrLoad не удалось прочитать файл или окружение
	ErrLoad = errors.New("config: failed to load")

	// ErrInvalid значения не проходят проверку
	ErrInvalid = errors.New("config: invalid value")
)

type Config struct {
	Server      ServerConfig      `toml:"server" envconfig:"SERVER"`
	Database    DatabaseConfig    `toml:"database" envconfig:"DATABASE"`
	Storage     StorageConfig     `toml:"storage" envconfig:"STORAGE"`
	Booking     BookingConfig     `toml:"booking" envconfig:"BOOKING"`
	Logs        LogsConfig        `toml:"logs" envconfig:"LOGS"`
	Metrics     MetricsConfig     `toml:"metrics" envconfig:"METRICS"`
	UserService UserServiceConfig `toml:"userservice" envconfig:"USERSERVICE"`
	Payments    PaymentsConfig    `toml:"payments" envconfig:"PAYMENTS"`
	Events      EventsConfig      `toml:"events" envconfig:"EVENTS"`
	Management  ManagementConfig  `toml:"management" envconfig:"MANAGEMENT"`
}

// ServerConfig таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port" split_words:"true"`
	ReadTimeout     int `toml:"read_timeout" split_words:"true"`
	WriteTimeout    int `toml:"write_timeout" split_words:"true"`
	IdleTimeout     int `toml:"idle_timeout" split_words:"true"`
	ShutdownTimeout int `toml:"shutdown_timeout" split_words:"true"`
}

type DatabaseConfig struct {
	Host            string `toml:"host" split_words:"true"`
	Port            int    `toml:"port" split_words:"true"`
	User            string `toml:"user" split_words:"true"`
	Password        string `toml:"password" split_words:"true"`
	DBName          string `toml:"dbname" split_words:"true"`
	SSLMode         string `toml:"sslmode" split_words:"true"`
	MaxOpenConns    int    `toml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `toml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" split_words:"true"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// StorageConfig memory или postgres
type StorageConfig struct {
	Driver string `toml:"driver" split_words:"true"`
}

type BookingConfig struct {
	Timezone                  string `toml:"timezone" split_words:"true"`
	LockTimeoutMS             int    `toml:"lock_timeout_ms" split_words:"true"`
	UrgentWindowMinutes       int    `toml:"urgent_window_minutes" split_words:"true"`
	MaxRetries                int    `toml:"max_retries" split_words:"true"`
	CalendarDays              int    `toml:"calendar_days" split_words:"true"`
	CompletionIntervalSeconds int    `toml:"completion_interval_seconds" split_words:"true"`
	RetryAfterSeconds         int    `toml:"retry_after_seconds" split_words:"true"`
}

func (c BookingConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

func (c BookingConfig) UrgentWindow() time.Duration {
	return time.Duration(c.UrgentWindowMinutes) * time.Minute
}

func (c BookingConfig) CompletionInterval() time.Duration {
	return time.Duration(c.CompletionIntervalSeconds) * time.Second
}

// Location часовой пояс, в котором считается "сегодня"
func (c BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type LogsConfig struct {
	File  string `toml:"file" split_words:"true"`
	Level string `toml:"level" split_words:"true"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" split_words:"true"`
	ServiceName string `toml:"service_name" split_words:"true"`
	Path        string `toml:"path" split_words:"true"`
}

// UserServiceConfig URL == "" - встроенный справочник, все пользователи
// одобрены и с абонементом (для разработки)
type UserServiceConfig struct {
	URL     string `toml:"url" split_words:"true"`
	Timeout int    `toml:"timeout" split_words:"true"` // секунды
}

type PaymentsConfig struct {
	Enabled          bool    `toml:"enabled" split_words:"true"`
	SingleGameAmount float64 `toml:"single_game_amount" split_words:"true"`
	Timeout          int     `toml:"timeout" split_words:"true"` // секунды
}

type EventsConfig struct {
	Enabled  bool   `toml:"enabled" split_words:"true"`
	URL      string `toml:"url" split_words:"true"`
	Exchange string `toml:"exchange" split_words:"true"`
}

// ManagementConfig Token == "" - маршруты управления справочниками выключены
type ManagementConfig struct {
	Token string `toml:"token" split_words:"true"`
}

// Load читает TOML файл, поверх него переменные окружения BOOKING_*,
// затем проставляет значения по умолчанию и проверяет результат.
// Отсутствующий файл не ошибка: конфиг может прийти целиком из окружения
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: decode %s: %v", ErrLoad, path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", ErrLoad, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	setInt(&c.Server.HTTPPort, 8080)
	setInt(&c.Server.ReadTimeout, 15)
	setInt(&c.Server.WriteTimeout, 15)
	setInt(&c.Server.IdleTimeout, 60)
	setInt(&c.Server.ShutdownTimeout, 10)

	setString(&c.Database.Host, "localhost")
	setInt(&c.Database.Port, 5432)
	setString(&c.Database.SSLMode, "disable")
	setInt(&c.Database.MaxOpenConns, 25)
	setInt(&c.Database.MaxIdleConns, 5)
	setInt(&c.Database.ConnMaxLifetime, 300)

	setString(&c.Storage.Driver, StorageMemory)

	setString(&c.Booking.Timezone, "UTC")
	setInt(&c.Booking.LockTimeoutMS, 2000)
	setInt(&c.Booking.UrgentWindowMinutes, 60)
	setInt(&c.Booking.MaxRetries, 3)
	setInt(&c.Booking.CalendarDays, 30)
	setInt(&c.Booking.CompletionIntervalSeconds, 3600)
	setInt(&c.Booking.RetryAfterSeconds, 1)

	setString(&c.Logs.Level, "info")

	setString(&c.Metrics.ServiceName, "facility_booking")
	setString(&c.Metrics.Path, "/metrics")

	setInt(&c.UserService.Timeout, 5)

	if c.Payments.SingleGameAmount == 0 {
		c.Payments.SingleGameAmount = 100.00
	}
	setInt(&c.Payments.Timeout, 5)

	setString(&c.Events.Exchange, "facility_booking")
}

// Validate отклоняет бессмысленные значения
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalid, c.Server.HTTPPort)
	}
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("%w: storage.driver=%q, expected memory or postgres", ErrInvalid, c.Storage.Driver)
	}
	if c.Storage.Driver == StoragePostgres && c.Database.DBName == "" {
		return fmt.Errorf("%w: database.dbname is required for postgres storage", ErrInvalid)
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("%w: booking.timezone=%q: %v", ErrInvalid, c.Booking.Timezone, err)
	}
	if c.Booking.LockTimeoutMS <= 0 {
		return fmt.Errorf("%w: booking.lock_timeout_ms must be positive", ErrInvalid)
	}
	if c.Booking.UrgentWindowMinutes < 0 {
		return fmt.Errorf("%w: booking.urgent_window_minutes must not be negative", ErrInvalid)
	}
	if c.Booking.CalendarDays <= 0 {
		return fmt.Errorf("%w: booking.calendar_days must be positive", ErrInvalid)
	}
	if c.Payments.SingleGameAmount < 0 {
		return fmt.Errorf("%w: payments.single_game_amount must not be negative", ErrInvalid)
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("%w: events.url is required when events are enabled", ErrInvalid)
	}
	return nil
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
