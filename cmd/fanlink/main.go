// Package main provides the fanlink service entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"fanlink/internal/assemble"
	"fanlink/internal/core"
	httpserver "fanlink/internal/http"
	"fanlink/internal/spotify"
	"fanlink/internal/store"
	"fanlink/pkg/deezer"
	"fanlink/pkg/itunes"
	"fanlink/pkg/songlink"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fanlink",
	Short: "fanlink - one smart link for every music platform",
	Long: `fanlink resolves a pasted music streaming URL into canonical metadata and
equivalent links on every platform, enriches it with an audio preview and album
tracklist, and publishes the result as a shareable smart link page.`,
	RunE: runFanlink,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().String("store-driver", "sqlite", "store driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("store-dsn", "./fanlink.db", "store DSN (file path for sqlite, connection string for postgres)")
	rootCmd.PersistentFlags().String("catalog-base-url", "", "iTunes Search API base URL override")
	rootCmd.PersistentFlags().String("odesli-base-url", "", "Odesli aggregation API base URL override")
	rootCmd.PersistentFlags().String("deezer-base-url", "", "Deezer API base URL override")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID (enables the metadata fallback)")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("FANLINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(&config.Log)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	if driver := viper.GetString("store-driver"); driver != "" {
		cfg.Store.Driver = driver
	}
	if dsn := viper.GetString("store-dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}

	if base := viper.GetString("catalog-base-url"); base != "" {
		cfg.Catalog.BaseURL = base
	}
	if base := viper.GetString("odesli-base-url"); base != "" {
		cfg.Odesli.BaseURL = base
	}
	if base := viper.GetString("deezer-base-url"); base != "" {
		cfg.Deezer.BaseURL = base
	}

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	if level := viper.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format := viper.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	return cfg
}

func buildLogger(cfg *core.LogConfig) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runFanlink(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting fanlink",
		zap.String("store_driver", config.Store.Driver),
		zap.Bool("spotify_fallback", config.Spotify.ClientID != ""))

	linkStore, err := store.Open(&config.Store, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	catalog := itunes.NewClient(config.Catalog.BaseURL)
	previews := deezer.NewClient(config.Deezer.BaseURL)
	resolver := songlink.NewResolver(config.Odesli.BaseURL, songlink.NewLastFMTranslator(catalog))
	assembler := assemble.New(catalog, previews, logger.Named("assemble"))

	var metadata httpserver.MetadataFetcher
	if config.Spotify.ClientID != "" && config.Spotify.ClientSecret != "" {
		spotifyClient, err := spotify.NewClient(ctx, &config.Spotify, logger.Named("spotify"))
		if err != nil {
			return fmt.Errorf("failed to initialize Spotify client: %w", err)
		}
		metadata = spotifyClient
	}

	server := httpserver.NewServer(
		&config.Server,
		logger.Named("http"),
		core.NewSongLinkResolver(resolver),
		assembler,
		linkStore,
		metadata,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Start(groupCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("fanlink stopped")
	return nil
}
