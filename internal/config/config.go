package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	LogLevel   string `mapstructure:"log_level"`
	ServerID   string `mapstructure:"server_id"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret"`

	TCPAddr   string `mapstructure:"tcp_addr"`
	VideoAddr string `mapstructure:"video_addr"`
	AudioAddr string `mapstructure:"audio_addr"`
	HTTPAddr  string `mapstructure:"http_addr"`

	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
	FrameTimeout     time.Duration `mapstructure:"frame_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`

	SendQueue    int    `mapstructure:"send_queue"`
	MediaQueue   int    `mapstructure:"media_queue"`
	ChatHistory  int    `mapstructure:"chat_history"`
	MaxDatagram  int    `mapstructure:"max_datagram"`
	Backpressure string `mapstructure:"backpressure"`

	JoinRateLimit  int           `mapstructure:"join_rate_limit"`
	JoinRateWindow time.Duration `mapstructure:"join_rate_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("server_id", "")
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "lanmeet-dev-secret")
	v.SetDefault("tcp_addr", ":8888")
	v.SetDefault("video_addr", ":8889")
	v.SetDefault("audio_addr", ":8890")
	v.SetDefault("http_addr", ":9000")
	v.SetDefault("heartbeat_timeout", "30s")
	v.SetDefault("frame_timeout", "10s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("send_queue", 64)
	v.SetDefault("media_queue", 2)
	v.SetDefault("chat_history", 100)
	v.SetDefault("max_datagram", 65507)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("join_rate_limit", 10)
	v.SetDefault("join_rate_window", "10s")
}

// New returns a viper instance with defaults and LANMEET_* env overrides,
// ready for flag binding before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LANMEET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads file, or config/config.<CONFIG_ENV>.yaml when file is empty.
// A missing file is not an error; defaults apply.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		file = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(file)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		log.Warn().Str("module", "config").Str("file", file).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Str("tcp", cfg.TCPAddr).
		Str("video", cfg.VideoAddr).
		Str("audio", cfg.AudioAddr).
		Str("http", cfg.HTTPAddr).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.TCPAddr == "":
		return errors.New("config: tcp_addr is required")
	case c.MediaQueue < 1 || c.MediaQueue > 2:
		return fmt.Errorf("config: media_queue must be 1 or 2, got %d", c.MediaQueue)
	case c.SendQueue < 1:
		return fmt.Errorf("config: send_queue must be positive, got %d", c.SendQueue)
	case c.MaxDatagram < 12 || c.MaxDatagram > 65507:
		return fmt.Errorf("config: max_datagram out of range: %d", c.MaxDatagram)
	case c.HeartbeatTimeout < 0 || c.FrameTimeout < 0 || c.WriteTimeout < 0:
		return errors.New("config: timeouts must not be negative")
	}
	return nil
}
