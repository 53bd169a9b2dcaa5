// Command wbctl runs WB API resources from the command line or serves them
// over a small HTTP proxy.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/wb-api-client/pkg/client"
	"github.com/Sternrassler/wb-api-client/pkg/config"
	"github.com/Sternrassler/wb-api-client/pkg/credentials"
	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds the dependencies shared by all subcommands.
type app struct {
	cfg    *config.Config
	exec   *client.Client
	source credentials.Source
	redis  *redis.Client
	logger zerolog.Logger
}

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "wbctl",
		Short:         "Query the Wildberries seller API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", getEnv("WB_CONFIG", ""), "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty-logs", false, "human-readable log output")

	root.AddCommand(
		newResourcesCmd(),
		newFetchCmd(opts),
		newServeCmd(opts),
		newCredentialsCmd(opts),
	)

	return root
}

// newApp loads configuration and builds the executor and credential source.
func newApp(opts *rootOptions) (*app, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	logCfg := cfg.LoggingConfig()
	if opts.logLevel != "" {
		logCfg.Level = logging.LogLevel(opts.logLevel)
	}
	if opts.pretty {
		logCfg.Pretty = true
	}
	logging.Setup(logCfg)

	exec, err := client.New(cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create WB client: %w", err)
	}

	a := &app{
		cfg:    &cfg,
		exec:   exec,
		logger: logging.NewLogger("wbctl"),
	}

	switch {
	case cfg.Credentials.Redis.Addr != "":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Credentials.Redis.Addr,
			Password: cfg.Credentials.Redis.Password,
			DB:       cfg.Credentials.Redis.DB,
		})
		a.source = credentials.NewRedisSource(a.redis, cfg.Credentials.Redis.Profile)
	case cfg.Credentials.APIKey != "":
		a.source = credentials.Static{APIKey: cfg.Credentials.APIKey, Scopes: cfg.Credentials.Scopes}
	default:
		a.source = credentials.Env{Prefix: "WB"}
	}

	return a, nil
}

func (a *app) connector(ctx context.Context) (credentials.Connector, error) {
	conn, err := a.source.Connector(ctx)
	if err != nil {
		return credentials.Connector{}, fmt.Errorf("load credentials: %w", err)
	}
	return conn, nil
}

// Close releases the Redis connection, if any.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the available resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResources(cmd.OutOrStdout())
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
