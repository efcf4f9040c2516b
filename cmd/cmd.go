// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Spotify access token (see: karaoke spotify auth)",
		Sources: cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the karaoke HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Refresh the local catalog when the music directory changes",
				Value: true,
			},
		},
		Action: r.Serve,
	}
}

// searchCommand runs one aggregated search
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search local songs and YouTube karaoke videos",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Search,
	}
}

// ytmusicCommand handles YouTube Music catalog operations
func ytmusicCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ytmusic",
		Aliases: []string{"ytm"},
		Usage:   "YouTube Music catalog operations",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search music videos",
				ArgsUsage: "<query>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: append(outputFlags(), &cli.StringFlag{
					Name:  "page-token",
					Usage: "Continue from a previous page",
				}),
				Action: r.YTMusicSearch,
			},
			{
				Name:   "recommend",
				Usage:  "List the most popular music videos",
				Flags:  outputFlags(),
				Action: r.YTMusicRecommend,
			},
			{
				Name:      "stream",
				Usage:     "Resolve a stream URL for a video",
				ArgsUsage: "<video-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "video-id"},
				},
				Flags:  outputFlags(),
				Action: r.YTMusicStream,
			},
		},
	}
}

// spotifyCommand handles Spotify Connect operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify Connect playback",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authorize with Spotify and print an access token",
				Action: r.SpotifyAuth,
			},
			{
				Name:   "devices",
				Usage:  "List available playback devices",
				Flags:  append(outputFlags(), tokenFlag()),
				Action: r.SpotifyDevices,
			},
			{
				Name:   "state",
				Usage:  "Show the current playback state",
				Flags:  append(outputFlags(), tokenFlag()),
				Action: r.SpotifyState,
			},
			{
				Name:      "play",
				Usage:     "Play a track on a device",
				ArgsUsage: "<track-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track-id"},
				},
				Flags: []cli.Flag{
					tokenFlag(),
					&cli.StringFlag{
						Name:    "device",
						Aliases: []string{"d"},
						Usage:   "Device ID (defaults to the active device)",
					},
				},
				Action: r.SpotifyPlay,
			},
		},
	}
}

// playlistCommand reads and exports saved playlists
func playlistCommand(r *Runner) *cli.Command {
	userFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "Email of the playlist owner",
		}
	}
	return &cli.Command{
		Name:  "playlist",
		Usage: "Saved playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a user's playlists",
				Flags:  append(outputFlags(), userFlag()),
				Action: r.PlaylistList,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist to files",
				ArgsUsage: "<slug>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "slug"},
				},
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (defaults to the playlist slug)",
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every playlist of a user concurrently",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown or text",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to karaoke_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 4,
					},
				},
				Action: r.PlaylistExportAll,
			},
		},
	}
}

// playCommand launches the terminal player
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Launch the interactive terminal player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the player owns the terminal",
				Value: "./tmp/karaoke-player.log",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the embedded player page in a browser (overrides player.open_browser)",
			},
		},
		Action: r.Play,
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and storage",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config if missing, open the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
