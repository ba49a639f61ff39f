package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Client   ClientConfig   `mapstructure:"client"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
}

// ClientConfig configures the CLI client flows.
type ClientConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollMaxFailures int           `mapstructure:"poll_max_failures"`
	PageSize        int           `mapstructure:"page_size"`
	OutputDir       string        `mapstructure:"output_dir"`
}

// ServerConfig configures the local development backend.
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

// StorageConfig selects where uploaded files and result bundles live.
// Type "fs" keeps everything on the local filesystem; "s3" targets any
// S3-compatible service.
type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Root      string `mapstructure:"root"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

// PipelineConfig tunes the simulated generation pipeline of the dev
// backend. StageDuration is how long each stage takes before the next
// progress snapshot is written.
type PipelineConfig struct {
	StageDuration time.Duration `mapstructure:"stage_duration"`
	Model         string        `mapstructure:"model"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Environment string `mapstructure:"environment"`
	File        string `mapstructure:"file"`
	FileOnly    bool   `mapstructure:"file_only"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("client.base_url", "http://localhost:7071/api")
	v.SetDefault("client.poll_interval", 10*time.Second)
	v.SetDefault("client.poll_max_failures", 5)
	v.SetDefault("client.page_size", 10)
	v.SetDefault("client.output_dir", ".")
	v.SetDefault("server.port", 7071)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/specgen.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("storage.type", "fs")
	v.SetDefault("storage.root", "./data/blobs")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "specgen")
	v.SetDefault("pipeline.stage_duration", 3*time.Second)
	v.SetDefault("pipeline.model", "claude-haiku-4-5")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.environment", "local")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for endpoints and credentials
	v.BindEnv("client.base_url", "SPECGEN_BASE_URL")
	v.BindEnv("client.output_dir", "SPECGEN_OUTPUT_DIR")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("database.password", "DATABASE_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
