// Package config assembles the service configuration from, in increasing
// priority: built-in defaults, a JSON config file, environment variables
// and command line flags. The result is validated before use.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the notes service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBHost              string        `env:"DB_HOST" json:"db_host"`
	DBPort              int           `env:"DB_PORT" json:"db_port"`
	DBUser              string        `env:"DB_USER" json:"db_user"`
	DBPassword          string        `env:"DB_PASSWORD" json:"db_password"`
	DBName              string        `env:"DB_NAME" json:"db_name"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	JWTSigningSecret    string        `env:"JWT_SECRET" json:"jwt_secret" validate:"required"`
	TokenTTL            time.Duration `env:"JWT_EXPIRES_IN" json:"jwt_expires_in"`
	ClientOrigin        string        `env:"CLIENT_ORIGIN" json:"client_origin"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBHost:              "localhost",
	DBPort:              5432,
	DBName:              "notes_app",
	DBConnectionTimeout: 10 * time.Second,
	JWTSigningSecret:    "insecure-dev-secret",
	TokenTTL:            24 * time.Hour,
	ClientOrigin:        "*",
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
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}

	return validate.Struct(c)
}

// ResolveDatabaseDSN returns the explicit DATABASE_DSN when set and
// otherwise composes one from the discrete DB_* settings. An empty result
// means Postgres is not configured.
func (c *Config) ResolveDatabaseDSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}

	if c.DBUser == "" {
		return ""
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
	)
}

func applyDefaults(target *Config, defaults Config) {
	if target.RunAddr == "" {
		target.RunAddr = defaults.RunAddr
	}
	if target.LogLevel == "" {
		target.LogLevel = defaults.LogLevel
	}
	if target.DBHost == "" {
		target.DBHost = defaults.DBHost
	}
	if target.DBPort == 0 {
		target.DBPort = defaults.DBPort
	}
	if target.DBName == "" {
		target.DBName = defaults.DBName
	}
	if target.DBConnectionTimeout == 0 {
		target.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if target.JWTSigningSecret == "" {
		target.JWTSigningSecret = defaults.JWTSigningSecret
	}
	if target.TokenTTL == 0 {
		target.TokenTTL = defaults.TokenTTL
	}
	if target.ClientOrigin == "" {
		target.ClientOrigin = defaults.ClientOrigin
	}
}

func applyNonZero(target *Config, source Config) {
	if source.RunAddr != "" {
		target.RunAddr = source.RunAddr
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.DatabaseDSN != "" {
		target.DatabaseDSN = source.DatabaseDSN
	}
	if source.DBHost != "" {
		target.DBHost = source.DBHost
	}
	if source.DBPort != 0 {
		target.DBPort = source.DBPort
	}
	if source.DBUser != "" {
		target.DBUser = source.DBUser
	}
	if source.DBPassword != "" {
		target.DBPassword = source.DBPassword
	}
	if source.DBName != "" {
		target.DBName = source.DBName
	}
	if source.DBConnectionTimeout != 0 {
		target.DBConnectionTimeout = source.DBConnectionTimeout
	}
	if source.DBFileName != "" {
		target.DBFileName = source.DBFileName
	}
	if source.JWTSigningSecret != "" {
		target.JWTSigningSecret = source.JWTSigningSecret
	}
	if source.TokenTTL != 0 {
		target.TokenTTL = source.TokenTTL
	}
	if source.ClientOrigin != "" {
		target.ClientOrigin = source.ClientOrigin
	}
	if source.TrustedSubnet != "" {
		target.TrustedSubnet = source.TrustedSubnet
	}
}

func loadJSONConfig(fileName string, target *Config) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSONConfig(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromJSON Config
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSONConfig(): error while `json.Unmarshal()` calling: %w", err)
	}

	applyNonZero(target, fromJSON)

	return nil
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command line parsing; used by tests.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}

	var fromFlags Config
	var configFile string
	setFlags := map[string]bool{}
	if !options.disableFlagsParsing {
		flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
		flags.StringVar(&fromFlags.RunAddr, "a", "", "address and port to run server")
		flags.StringVar(&fromFlags.LogLevel, "l", "", "logger level")
		flags.StringVar(&fromFlags.DatabaseDSN, "d", "", "a string with the database connection details")
		flags.StringVar(&fromFlags.DBFileName, "f", "", "JSON file name with database")
		flags.StringVar(&fromFlags.TrustedSubnet, "t", "", "trusted subnet for the debug listings in CIDR notation")
		flags.StringVar(&configFile, "c", "", "path to a JSON config file")
		if err := flags.Parse(os.Args[1:]); err != nil {
			return nil, err
		}
		flags.Visit(func(f *flag.Flag) {
			setFlags[f.Name] = true
		})
	}

	if configFile == "" {
		configFile = os.Getenv("CONFIG")
	}
	if configFile != "" {
		if err := loadJSONConfig(configFile, values); err != nil {
			return nil, err
		}
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}
	applyNonZero(values, fromEnv)

	if len(setFlags) > 0 {
		applyNonZero(values, fromFlags)
	}

	applyDefaults(values, defaultConfig)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
