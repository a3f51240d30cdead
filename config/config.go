package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type GRPC struct {
	Addr string `yaml:"addr"`
}

type HTTP struct {
	Addr           string        `yaml:"addr"`           // ":8080"
	ReadTimeout    time.Duration `yaml:"readTimeout"`    // "10s"
	WriteTimeout   time.Duration `yaml:"writeTimeout"`   // "15s"
	IdleTimeout    time.Duration `yaml:"idleTimeout"`    // "60s"
	RequestTimeout time.Duration `yaml:"requestTimeout"` // "30s"
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // interview-room-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Redis struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"poolSize"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type Room struct {
	TTL             time.Duration `yaml:"ttl"`       // 0: комнаты не истекают
	OpTimeout       time.Duration `yaml:"opTimeout"` // таймаут одной операции с Redis
	MaxCASAttempts  int           `yaml:"maxCasAttempts"`
	StoreRetries    int           `yaml:"storeRetries"`
	RetryBackoff    time.Duration `yaml:"retryBackoff"`
	MaxCapacity     int           `yaml:"maxCapacity"`
	DefaultPageSize int           `yaml:"defaultPageSize"`
	MaxPageSize     int           `yaml:"maxPageSize"`
}

// Postgres опционален: архив завершённых интервью. Пустой DSN отключает архив.
type Postgres struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
}

type WS struct {
	PingPeriod time.Duration `yaml:"pingPeriod"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Redis    Redis    `yaml:"redis"`
	Room     Room     `yaml:"room"`
	Postgres Postgres `yaml:"postgres"`
	WS       WS       `yaml:"ws"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Room.TTL < 0 {
		return errors.New("room.ttl must not be negative")
	}
	if c.Room.StoreRetries < 0 {
		return errors.New("room.storeRetries must not be negative")
	}
	if c.Room.MaxCapacity < 0 || c.Room.DefaultPageSize < 0 || c.Room.MaxPageSize < 0 {
		return errors.New("room limits must not be negative")
	}

	// установка дефолтов, если значения не указаны
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "interview-room-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 2 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = time.Second
	}
	if c.Room.OpTimeout == 0 {
		c.Room.OpTimeout = 2 * time.Second
	}
	if c.Room.MaxCASAttempts == 0 {
		c.Room.MaxCASAttempts = 32
	}
	if c.Room.StoreRetries == 0 {
		c.Room.StoreRetries = 3
	}
	if c.Room.RetryBackoff == 0 {
		c.Room.RetryBackoff = 50 * time.Millisecond
	}
	if c.Room.MaxCapacity == 0 {
		c.Room.MaxCapacity = 10
	}
	if c.Room.DefaultPageSize == 0 {
		c.Room.DefaultPageSize = 10
	}
	if c.Room.MaxPageSize == 0 {
		c.Room.MaxPageSize = 50
	}
	if c.WS.PingPeriod == 0 {
		c.WS.PingPeriod = 15 * time.Second
	}
	return nil
}
