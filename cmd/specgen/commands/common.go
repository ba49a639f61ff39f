package commands

import (
	"fmt"

	"github.com/takumi/specgen/internal/client"
	"github.com/takumi/specgen/internal/config"
	"github.com/takumi/specgen/internal/logger"
)

// AppContext holds the shared dependencies of every command.
type AppContext struct {
	Config *config.Config
	Client *client.Client
	Logger *logger.Logger
}

// NewAppContext loads configuration and builds the API client. A
// non-empty serverURL overrides the configured base URL.
func NewAppContext(configPath, serverURL string) (*AppContext, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "specgen",
		Environment: cfg.Log.Environment,
		LogFile:     cfg.Log.File,
		LogFileOnly: cfg.Log.FileOnly,
	})
	logger.SetDefaultLogger(log)

	baseURL := cfg.Client.BaseURL
	if serverURL != "" {
		baseURL = serverURL
	}

	return &AppContext{
		Config: cfg,
		Client: client.New(&client.Config{BaseURL: baseURL}),
		Logger: log,
	}, nil
}

// Close flushes held resources.
func (ac *AppContext) Close() {
	_ = logger.Sync()
}
