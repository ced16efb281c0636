package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LogLevel  string
	LogFormat string

	ExpiringThresholdDays int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("mysql.host", "mysql")
	v.SetDefault("mysql.port", "3306")
	v.SetDefault("mysql.db", "lifecycle")
	v.SetDefault("mysql.user", "lifecycle")
	v.SetDefault("mysql.pass", "lifecycle")
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("idempotency.ttl_seconds", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("lifecycle.expiring_threshold_days", 30)
}

// Load reads an optional config.yaml from the working directory, then lets environment
// variables override it (mysql.host -> MYSQL_HOST).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppPort:               v.GetString("app.port"),
		MySQLHost:             v.GetString("mysql.host"),
		MySQLPort:             v.GetString("mysql.port"),
		MySQLDB:               v.GetString("mysql.db"),
		MySQLUser:             v.GetString("mysql.user"),
		MySQLPass:             v.GetString("mysql.pass"),
		RedisAddr:             v.GetString("redis.addr"),
		RedisDB:               v.GetInt("redis.db"),
		IdempTTLSecs:          v.GetInt("idempotency.ttl_seconds"),
		LogLevel:              v.GetString("log.level"),
		LogFormat:             v.GetString("log.format"),
		ExpiringThresholdDays: v.GetInt("lifecycle.expiring_threshold_days"),
	}, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive, got %d", c.IdempTTLSecs)
	}
	if c.ExpiringThresholdDays <= 0 {
		return fmt.Errorf("LIFECYCLE_EXPIRING_THRESHOLD_DAYS must be positive, got %d", c.ExpiringThresholdDays)
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) ExpiringThreshold() time.Duration {
	return time.Duration(c.ExpiringThresholdDays) * 24 * time.Hour
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime is needed for DATETIME; loc=UTC keeps calendar dates stable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
