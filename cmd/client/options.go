package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-habit-tracker/internal/client"
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

// globalOptions holds the persistent flags shared by every session command.
// Unset flags fall through to environment variables, the JSON file and the
// built-in defaults.
type globalOptions struct {
	server      string
	grpcAddress string
	token       string
	dbPath      string
	configPath  string
	logFile     string
}

func (o *globalOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.server, "server", "s", "", "document server address, host:port or URL")
	flags.StringVar(&o.grpcAddress, "grpc-address", "", "grpc health address of the document server")
	flags.StringVarP(&o.token, "token", "t", "", "bearer token issued for your user")
	flags.StringVar(&o.dbPath, "db", "", "local database file")
	flags.StringVarP(&o.configPath, "config", "c", "", "JSON config file path")
	flags.StringVar(&o.logFile, "log-file", "", "client log file")
}

func (o *globalOptions) overrides() *config.StructuredConfig {
	return &config.StructuredConfig{
		App: config.App{Token: o.token},
		Storage: config.Storage{
			Local: config.Local{Path: o.dbPath},
		},
		Adapter: config.Adapter{
			HTTPAddress: o.server,
			GRPCAddress: o.grpcAddress,
		},
		Log:          config.Log{FilePath: o.logFile},
		JSONFilePath: o.configPath,
	}
}

// openSession loads the configuration and opens the local session of the
// configured user. The caller closes the returned app.
func openSession(ctx context.Context, opts *globalOptions) (*client.App, *logger.Logger, error) {
	cfg, err := config.GetClientConfig(opts.overrides())
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewClientLogger("habits-client", logger.FileOptions{
		Path:      cfg.Log.FilePath,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	log.Debug().
		Str("server", cfg.Adapter.BaseURL).
		Str("db", cfg.Storage.Path).
		Int64("user_id", cfg.App.UserID).
		Msg("client config loaded")

	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		log.Err(err).Msg("error opening client session")
		return nil, nil, err
	}
	return app, log, nil
}
