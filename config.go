package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported store drivers.
const (
	SupabaseDriver = "supabase"
	SQLiteDriver   = "sqlite"
	MySQLDriver    = "mysql"
	RedisDriver    = "redis"
	BoltDBDriver   = "boltdb"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" envconfig:"BOOKS_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" envconfig:"BOOKS_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" envconfig:"BOOKS_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" envconfig:"BOOKS_IS_PRODUCTION"`
	LogLevel           zapcore.Level `yaml:"log_level" envconfig:"BOOKS_LOG_LEVEL"`
	LogFolder          string        `yaml:"log_folder" envconfig:"BOOKS_LOG_FOLDER"`
	LogMaxSize         int           `yaml:"log_max_size" envconfig:"BOOKS_LOG_MAX_SIZE"` // in megabytes
	ProfilerEnable     bool          `yaml:"profiler_enable" envconfig:"BOOKS_PROFILER_ENABLE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" envconfig:"BOOKS_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig  `yaml:"server"`
	Store              StoreConfig   `yaml:"store"`
	Pages              PagesConfig   `yaml:"pages"`
	Redis              RedisConfig   `yaml:"redis"`
	BoltDB             BoltDBConfig  `yaml:"boltdb"`
	Mirror             MirrorConfig  `yaml:"mirror"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BOOKS_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BOOKS_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BOOKS_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BOOKS_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BOOKS_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BOOKS_SERVER_SHUTDOWN_TIMEOUT"`
}

// StoreConfig selects and configures the books backend. URL and Key are the
// secrets of the managed store. For sql drivers URL holds the data source name.
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"BOOKS_STORE_DRIVER"`
	URL    string `yaml:"url" json:"-" envconfig:"BOOKS_STORE_URL"`
	Key    string `yaml:"key" json:"-" envconfig:"BOOKS_STORE_KEY"`
	Schema string `yaml:"schema" envconfig:"BOOKS_STORE_SCHEMA"`
	Table  string `yaml:"table" envconfig:"BOOKS_STORE_TABLE"`
}

type PagesConfig struct {
	FetchFromAPI bool          `yaml:"fetch_from_api" envconfig:"BOOKS_PAGES_FETCH_FROM_API"`
	APIBaseURL   string        `yaml:"api_base_url" envconfig:"BOOKS_PAGES_API_BASE_URL"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"BOOKS_PAGES_FETCH_TIMEOUT"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BOOKS_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BOOKS_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BOOKS_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BOOKS_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BOOKS_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BOOKS_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BOOKS_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BOOKS_REDIS_USERNAME"`
	Password      string        `yaml:"password" json:"-" envconfig:"BOOKS_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BOOKS_REDIS_DATABASE_INDEX"`
	HashKey       string        `yaml:"hash_key" envconfig:"BOOKS_REDIS_HASH_KEY"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BOOKS_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BOOKS_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BOOKS_BOLTDB_BUCKET_NAME"`
}

// MirrorConfig enables the replay of book changes into a local boltdb file.
type MirrorConfig struct {
	Enable bool `yaml:"enable" envconfig:"BOOKS_MIRROR_ENABLE"`
}

// ConfigError reports a required configuration value which was not provided.
type ConfigError struct {
	Field string
	Env   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration %q (env %s)", e.Field, e.Env)
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters, configures
// build tags values to be used if provided and checks required settings.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if len(config.Store.Driver) == 0 {
		config.Store.Driver = SupabaseDriver
	}

	if len(config.Store.Table) == 0 {
		config.Store.Table = "books"
	}

	if len(config.Store.Schema) == 0 {
		config.Store.Schema = "public"
	}

	if len(config.Redis.HashKey) == 0 {
		config.Redis.HashKey = "books"
	}

	if len(config.BoltDB.BucketName) == 0 {
		config.BoltDB.BucketName = "books"
	}

	if config.Pages.FetchTimeout == 0 {
		config.Pages.FetchTimeout = 10 * time.Second
	}

	switch config.Store.Driver {
	case SupabaseDriver:
		if len(config.Store.URL) == 0 {
			return &ConfigError{Field: "store.url", Env: "BOOKS_STORE_URL"}
		}
		if len(config.Store.Key) == 0 {
			return &ConfigError{Field: "store.key", Env: "BOOKS_STORE_KEY"}
		}
	case SQLiteDriver, MySQLDriver:
		if len(config.Store.URL) == 0 {
			return &ConfigError{Field: "store.url", Env: "BOOKS_STORE_URL"}
		}
	case RedisDriver:
	case BoltDBDriver:
		if config.Mirror.Enable {
			return errors.New("mirror cannot be enabled when boltdb is the books store")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", config.Store.Driver)
	}

	if config.Store.Driver == RedisDriver || config.Mirror.Enable {
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	}

	if config.Store.Driver == BoltDBDriver || config.Mirror.Enable {
		if len(config.BoltDB.FilePath) == 0 {
			return &ConfigError{Field: "boltdb.filepath", Env: "BOOKS_BOLTDB_FILE_PATH"}
		}
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The environment file is optional since
// secrets are usually injected by the runtime environment.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %w", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %w", err)
	}

	// Use environment variables with prefix `BOOKS`.
	err = LoadConfigEnvs("BOOKS", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %w", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %w", err)
	}
	return config, nil
}
