package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the typed view of the viper settings used by the services.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Spotify SpotifyConfig `mapstructure:"spotify"`
	Riot    RiotConfig    `mapstructure:"riot"`
	Cookie  CookieConfig  `mapstructure:"cookie"`
	Session SessionConfig `mapstructure:"session"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type AppConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SpotifyConfig struct {
	ClientID          string   `mapstructure:"client_id"`
	ClientSecret      string   `mapstructure:"client_secret"`
	RedirectURI       string   `mapstructure:"redirect_uri"`
	Scopes            []string `mapstructure:"scopes"`
	AuthURL           string   `mapstructure:"auth_url"`
	TokenURL          string   `mapstructure:"token_url"`
	APIURL            string   `mapstructure:"api_url"`
	TopLimit          int      `mapstructure:"top_limit"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
}

// Configured reports whether client credentials are present. Without them the
// dashboard serves demo data only.
func (s SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

type RiotConfig struct {
	APIKey string `mapstructure:"api_key"`
	Region string `mapstructure:"region"`
	// BaseURL replaces both the platform and regional hosts when set.
	BaseURL           string  `mapstructure:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type CookieConfig struct {
	HashKey  string `mapstructure:"hash_key"`
	BlockKey string `mapstructure:"block_key"`
}

type SessionConfig struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Secure reports whether cookies should carry the Secure attribute.
func (c *Config) Secure() bool {
	return !strings.EqualFold(c.Server.Env, "development")
}

// MissingSpotify lists the Spotify settings that are not set. Used for the
// startup warning and the debug endpoint.
func (c *Config) MissingSpotify() []string {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "spotify.client_id")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "spotify.client_secret")
	}
	return missing
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("app.base_url", "http://localhost:8080")
	viper.SetDefault("db.path", "./data/playstats.db")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	viper.SetDefault("spotify.client_id", "")
	viper.SetDefault("spotify.client_secret", "")
	viper.SetDefault("spotify.redirect_uri", "")
	viper.SetDefault("spotify.scopes", "user-read-private user-read-email user-top-read user-read-recently-played playlist-read-private playlist-read-collaborative")
	viper.SetDefault("spotify.auth_url", "https://accounts.spotify.com/authorize")
	viper.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	viper.SetDefault("spotify.api_url", "https://api.spotify.com/v1")
	viper.SetDefault("spotify.top_limit", 50)
	viper.SetDefault("spotify.requests_per_second", 10)

	viper.SetDefault("riot.api_key", "")
	viper.SetDefault("riot.region", "euw1")
	viper.SetDefault("riot.base_url", "")
	// development keys allow 20 requests every second
	viper.SetDefault("riot.requests_per_second", 20)

	viper.SetDefault("cookie.hash_key", "")
	viper.SetDefault("cookie.block_key", "")
	viper.SetDefault("session.ttl_hours", 24)
}

// Load initializes the configuration with viper and returns the typed view.
// Missing Spotify credentials are not an error: the caller decides whether to
// run in demo mode.
func Load() (*Config, error) {
	// a missing .env is fine, environment variables and defaults still apply
	_ = godotenv.Load()

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	// scopes may arrive as one space separated string from the environment
	if len(cfg.Spotify.Scopes) == 1 {
		cfg.Spotify.Scopes = strings.Fields(cfg.Spotify.Scopes[0])
	}
	if cfg.Spotify.RedirectURI == "" {
		cfg.Spotify.RedirectURI = strings.TrimSuffix(cfg.App.BaseURL, "/") + "/api/auth/spotify/callback"
	}
	if cfg.Spotify.TopLimit < 1 || cfg.Spotify.TopLimit > 50 {
		cfg.Spotify.TopLimit = 50
	}
	if cfg.Session.TTLHours <= 0 {
		cfg.Session.TTLHours = 24
	}

	return &cfg, nil
}
