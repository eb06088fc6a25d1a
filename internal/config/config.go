package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort string `yaml:"app_port"`

	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LoanCacheTTLSecs int `yaml:"loan_cache_ttl_seconds"`
	IdempTTLSecs     int `yaml:"idempotency_ttl_seconds"`

	KafkaBrokers        []string `yaml:"kafka_brokers"`
	KafkaTopicDisbursed string   `yaml:"kafka_topic_disbursed"`

	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`

	MigrationsDir  string `yaml:"migrations_dir"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`

	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	DBLogLevel string `yaml:"db_log_level"`

	MaxActiveLoans int `yaml:"max_active_loans"`
}

func defaults() *Config {
	return &Config{
		AppPort:   "8080",
		MySQLHost: "mysql",
		MySQLPort: "3306",
		MySQLDB:   "loans",
		MySQLUser: "loans",
		MySQLPass: "loans",

		RedisAddr: "redis:6379",

		LoanCacheTTLSecs: 600,
		IdempTTLSecs:     300,

		KafkaTopicDisbursed: "loan.disbursed",
		MinioBucket:         "loan-documents",
		MigrationsDir:       "file://migrations",

		LogLevel:       "info",
		LogFormat:      "text",
		DBLogLevel:     "warn",
		MaxActiveLoans: 5,
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	str(&c.AppPort, "APP_PORT")
	str(&c.MySQLHost, "MYSQL_HOST")
	str(&c.MySQLPort, "MYSQL_PORT")
	str(&c.MySQLDB, "MYSQL_DB")
	str(&c.MySQLUser, "MYSQL_USER")
	str(&c.MySQLPass, "MYSQL_PASS")
	str(&c.RedisAddr, "REDIS_ADDR")
	str(&c.RedisPassword, "REDIS_PASSWORD")
	num(&c.RedisDB, "REDIS_DB")
	num(&c.LoanCacheTTLSecs, "LOAN_CACHE_TTL_SECONDS")
	num(&c.IdempTTLSecs, "IDEMPOTENCY_TTL_SECONDS")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	str(&c.KafkaTopicDisbursed, "KAFKA_TOPIC_DISBURSED")
	str(&c.MinioEndpoint, "MINIO_ENDPOINT")
	str(&c.MinioAccessKey, "MINIO_ACCESS_KEY")
	str(&c.MinioSecretKey, "MINIO_SECRET_KEY")
	str(&c.MinioBucket, "MINIO_BUCKET")
	flag(&c.MinioUseSSL, "MINIO_USE_SSL")
	str(&c.MigrationsDir, "MIGRATIONS_DIR")
	flag(&c.MigrateOnStart, "MIGRATE_ON_START")
	str(&c.LogLevel, "LOG_LEVEL")
	str(&c.LogFormat, "LOG_FORMAT")
	str(&c.DBLogLevel, "DB_LOG_LEVEL")
	num(&c.MaxActiveLoans, "MAX_ACTIVE_LOANS")
}

func str(dst *string, k string) {
	if v := os.Getenv(k); v != "" {
		*dst = v
	}
}

// unparsable values keep the previous setting
func num(dst *int, k string) {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func flag(dst *bool, k string) {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.LoanCacheTTLSecs <= 0 || c.IdempTTLSecs <= 0 {
		return errors.New("LOAN_CACHE_TTL_SECONDS and IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.MaxActiveLoans <= 0 {
		return errors.New("MAX_ACTIVE_LOANS must be positive")
	}
	if c.MinioEndpoint != "" && c.MinioBucket == "" {
		return errors.New("MINIO_BUCKET required when MINIO_ENDPOINT is set")
	}
	return nil
}

func (c *Config) LoanCacheTTL() time.Duration { return time.Duration(c.LoanCacheTTLSecs) * time.Second }
func (c *Config) IdempTTL() time.Duration     { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATE/DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// MigrateDSN is the golang-migrate form; multiStatements lets one file hold
// several statements.
func (c *Config) MigrateDSN() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s)/%s?multiStatements=true",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
