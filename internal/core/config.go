package core

import (
	"time"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Catalog CatalogConfig
	Odesli  OdesliConfig
	Deezer  DeezerConfig
	Spotify SpotifyConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	// Driver is "postgres" for the hosted store or "sqlite" for local development.
	Driver string
	DSN    string
	// DedupCapacity sizes the bloom filter and LRU cache used to short-circuit
	// duplicate checks and slug lookups.
	DedupCapacity          int
	BloomFalsePositiveRate float64
}

type CatalogConfig struct {
	BaseURL string
}

type OdesliConfig struct {
	BaseURL string
}

type DeezerConfig struct {
	BaseURL string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:                 "sqlite",
			DSN:                    "./fanlink.db",
			DedupCapacity:          10000,
			BloomFalsePositiveRate: 0.01,
		},
		Catalog: CatalogConfig{
			BaseURL: "https://itunes.apple.com",
		},
		Odesli: OdesliConfig{
			BaseURL: "https://api.song.link/v1-alpha.1",
		},
		Deezer: DeezerConfig{
			BaseURL: "https://api.deezer.com",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
