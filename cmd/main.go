package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p, ok := os.LookupEnv("KARAOKE_CONFIG"); ok && p != "" {
		configPath = p
	}
	config := loadConfig(configPath, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "karaoke",
		Usage:    "Search songs, sing along, and serve the karaoke API",
		Version:  "0.1.0",
		Commands: r.register(),
	}
}

// loadConfig reads path when it exists and falls back to defaults, then applies environment overrides.
func loadConfig(path string, logger *log.Logger) *shared.Config {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}
	config.ApplyEnv(os.LookupEnv)
	return config
}

func newYouTube(config *shared.Config, client *http.Client) *services.YouTubeService {
	yt := config.Credentials.YouTube
	return services.NewYouTubeService(services.YouTubeOpts{
		BaseURL:           yt.BaseURL,
		APIKey:            yt.APIKey,
		HTTPClient:        client,
		RequestsPerSecond: yt.RequestsPerSecond,
	})
}
