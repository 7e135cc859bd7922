// Package config assembles the application configuration from a JSON config
// file, environment variables and CLI flags, with CLI taking precedence over
// environment and environment over the file. The result is validated before use.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr                   string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel                  string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName                string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DatabaseDSN               string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout       time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	MigrationsDir             string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	AuthCookieName            string        `env:"AUTH_COOKIE_NAME" json:"auth_cookie_name"`
	AuthTokenSigningSecretKey string        `env:"AUTH_TOKEN_SIGNING_SECRET_KEY" json:"auth_token_signing_secret_key" validate:"required"`
	AuthTokenTTL              time.Duration `env:"AUTH_TOKEN_TTL" json:"auth_token_ttl"`
	BcryptCost                int           `env:"BCRYPT_COST" json:"bcrypt_cost"`
	TrustedSubnet             string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	ChannelCapacity           int           `env:"CHANNEL_CAPACITY" json:"channel_capacity"`
	DelayBetweenQueueFetches  time.Duration `env:"DELAY_BETWEEN_QUEUE_FETCHES" json:"delay_between_queue_fetches"`
}

var defaultConfig = Config{
	RunAddr:                   ":8080",
	LogLevel:                  "info",
	DBFileName:                "",
	DatabaseDSN:               "",
	DBConnectionTimeout:       10 * time.Second,
	MigrationsDir:             "migrations",
	AuthCookieName:            "access_token",
	AuthTokenSigningSecretKey: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
	AuthTokenTTL:              0,
	BcryptCost:                0,
	TrustedSubnet:             "",
	ChannelCapacity:           100,
	DelayBetweenQueueFetches:  5 * time.Second,
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips CLI flag parsing. Intended for tests,
// where the flag set is owned by the test binary.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.DBFileName == "" {
		values.DBFileName = defaults.DBFileName
	}
	if values.DatabaseDSN == "" {
		values.DatabaseDSN = defaults.DatabaseDSN
	}
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if values.MigrationsDir == "" {
		values.MigrationsDir = defaults.MigrationsDir
	}
	if values.AuthCookieName == "" {
		values.AuthCookieName = defaults.AuthCookieName
	}
	if values.AuthTokenSigningSecretKey == "" {
		values.AuthTokenSigningSecretKey = defaults.AuthTokenSigningSecretKey
	}
	if values.AuthTokenTTL == 0 {
		values.AuthTokenTTL = defaults.AuthTokenTTL
	}
	if values.BcryptCost == 0 {
		values.BcryptCost = defaults.BcryptCost
	}
	if values.TrustedSubnet == "" {
		values.TrustedSubnet = defaults.TrustedSubnet
	}
	if values.ChannelCapacity == 0 {
		values.ChannelCapacity = defaults.ChannelCapacity
	}
	if values.DelayBetweenQueueFetches == 0 {
		values.DelayBetweenQueueFetches = defaults.DelayBetweenQueueFetches
	}
}

// getConfigFilePath finds the JSON config file path from the -c/-config CLI
// flag or the CONFIG environment variable. CLI wins.
func getConfigFilePath() string {
	args := os.Args[1:]
	for i, arg := range args {
		if (arg == "-c" || arg == "-config") && i+1 < len(args) {
			return args[i+1]
		}
	}

	return os.Getenv("CONFIG")
}

func loadJSONConfig(values *Config) error {
	configFilePath := getConfigFilePath()
	if configFilePath == "" {
		return nil
	}

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, values)
}

// New assembles and validates the configuration.
// Source priority: CLI flags > environment variables > JSON config file > defaults.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}

	if err := loadJSONConfig(values); err != nil {
		return nil, err
	}

	applyDefaults(values, defaultConfig)

	if err := env.Parse(values); err != nil {
		return nil, err
	}

	if !options.disableFlagsParsing {
		var configFilePath string
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON file name with database")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "A string with the database connection details")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with goose migrations")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet allowed to query internal stats")
		flag.StringVar(&configFilePath, "c", "", "path to a JSON config file")
		flag.StringVar(&configFilePath, "config", "", "path to a JSON config file")
		flag.Parse()
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
