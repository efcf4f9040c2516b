package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Cache       CacheConfig       `toml:"cache"`
	Credentials CredentialsConfig `toml:"credentials"`
	Player      PlayerConfig      `toml:"player"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	MusicDir      string `toml:"music_dir"`
	SessionSecret string `toml:"session_secret"`
	BaseURL       string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig selects the search cache store.
//
// An empty RedisURL selects the in-process store.
type CacheConfig struct {
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
	MaxEntries int    `toml:"max_entries"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
	Google  GoogleConfig  `toml:"google"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// YouTubeConfig contains YouTube Data API settings.
type YouTubeConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	StreamBaseURL     string  `toml:"stream_base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// GoogleConfig contains the OAuth client used for sign-in.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	UserInfoURL  string `toml:"userinfo_url"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	APIBaseURL   string `toml:"api_base_url"`
}

// PlayerConfig contains settings for the terminal player and its embedded-player bridge.
type PlayerConfig struct {
	BridgeAddr  string `toml:"bridge_addr"`
	OpenBrowser bool   `toml:"open_browser"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// TTL returns the configured cache lifetime, defaulting to five minutes.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// ApplyEnv overrides secrets with values found through lookup.
//
// Pass [os.LookupEnv] to read the process environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"YOUTUBE_API_KEY":       &c.Credentials.YouTube.APIKey,
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"GOOGLE_CLIENT_ID":      &c.Credentials.Google.ClientID,
		"GOOGLE_CLIENT_SECRET":  &c.Credentials.Google.ClientSecret,
		"SESSION_SECRET":        &c.Server.SessionSecret,
		"REDIS_URL":             &c.Cache.RedisURL,
	}
	for key, field := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
