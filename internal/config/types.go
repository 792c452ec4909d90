package config

type Config struct {
	DiscordToken          string `env:"DISCORD_TOKEN"`
	SpotifyClientID       string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret   string `env:"SPOTIFY_CLIENT_SECRET"`
	DataDir               string `env:"DATA_DIR, default=./data"`
	BotStatus             string `env:"BOT_STATUS, default=online"` // online/dnd/idle
	BotActivity           string `env:"BOT_ACTIVITY, default=music"`
	RegisterCommandsOnBot bool   `env:"REGISTER_COMMANDS_ON_BOT, default=false"`
	YouTubeCookiesPath    string `env:"YOUTUBE_COOKIES_PATH"`
	YouTubePOToken        string `env:"YOUTUBE_PO_TOKEN"`
	FFmpegPath            string `env:"FFMPEG_PATH, default=ffmpeg"`
	LogLevel              string `env:"LOG_LEVEL, default=info"`

	// Custom emoji markup shown in front of track names, per provider.
	YouTubeEmoji    string `env:"YOUTUBE_EMOJI"`
	SoundCloudEmoji string `env:"SOUNDCLOUD_EMOJI"`
	SpotifyEmoji    string `env:"SPOTIFY_EMOJI"`
	BandcampEmoji   string `env:"BANDCAMP_EMOJI"`
}

func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}
