package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/utils"
)

// ClientApp holds the identity the client acts as.
type ClientApp struct {
	// Token is the bearer token sent with every request.
	Token string
	// UserID is the subject of Token.
	UserID int64
	// Version is the client version.
	Version string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// BaseURL is the document server base URL, e.g. "http://localhost:8080".
	BaseURL string
	// GRPCAddress is the gRPC health endpoint; empty disables the gRPC probe.
	GRPCAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// Path is the SQLite database file.
	Path string
}

// ClientSync holds the sync core tuning.
type ClientSync struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	AttemptTimeout time.Duration
	UndoWindow     time.Duration
	ProbeInterval  time.Duration
	DrainInterval  time.Duration
}

// ClientLog holds the client log file settings.
type ClientLog struct {
	FilePath  string
	MaxSizeMB int
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Sync    ClientSync
	Log     ClientLog
}

// GetClientConfig builds and validates the client view of the configuration.
//
// overrides carries values set through command-line flags of the client CLI;
// they win over environment variables, which win over the JSON file, which
// wins over built-in defaults.
func GetClientConfig(overrides *StructuredConfig) (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withOverrides(overrides).
		withEnv().
		withJSON().
		withDefaults().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newClientConfig(cfg)
}

func newClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	clientCfg := &ClientConfig{
		App: ClientApp{
			Token:   cfg.App.Token,
			Version: cfg.App.Version,
		},
		Adapter: ClientAdapter{
			BaseURL:        baseURL(cfg.Adapter.HTTPAddress),
			GRPCAddress:    cfg.Adapter.GRPCAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			Path: cfg.Storage.Local.Path,
		},
		Sync: ClientSync{
			MaxAttempts:    cfg.Sync.MaxAttempts,
			BackoffBase:    cfg.Sync.BackoffBase,
			BackoffMax:     cfg.Sync.BackoffMax,
			AttemptTimeout: cfg.Sync.AttemptTimeout,
			UndoWindow:     cfg.Sync.UndoWindow,
			ProbeInterval:  cfg.Sync.ProbeInterval,
			DrainInterval:  cfg.Sync.DrainInterval,
		},
		Log: ClientLog{
			FilePath:  cfg.Log.FilePath,
			MaxSizeMB: cfg.Log.MaxSizeMB,
		},
	}

	if clientCfg.App.Token != "" {
		userID, err := utils.ParseUserIDFromJWT(clientCfg.App.Token)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAppConfigs, err)
		}
		clientCfg.App.UserID = userID
	}

	return clientCfg, clientCfg.validate()
}

// baseURL accepts "host:port" as well as a full URL.
func baseURL(address string) string {
	if address == "" {
		return ""
	}
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return strings.TrimSuffix(address, "/")
	}
	return "http://" + address
}
