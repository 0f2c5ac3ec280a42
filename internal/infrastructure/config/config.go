package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Upstream  UpstreamConfig  `toml:"upstream"`
	Render    RenderConfig    `toml:"render"`
	Store     StoreConfig     `toml:"store"`
	Agent     AgentConfig     `toml:"agent"`
	Run       RunConfig       `toml:"run"`
	Helpers   HelperConfig    `toml:"helpers"`
	Screen    ScreenConfig    `toml:"screen"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string `envconfig:"HOST" default:"127.0.0.1" toml:"host"`
	Port          string `envconfig:"PORT" default:"1234" toml:"port"`
	InferencePath string   `envconfig:"INFERENCE_PATH" default:"/v1/chat/completions" toml:"inference_path"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"*" toml:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// UpstreamConfig holds the model backend settings.
type UpstreamConfig struct {
	URL     string   `envconfig:"UPSTREAM_URL" default:"http://127.0.0.1:1235/v1/chat/completions" toml:"url"`
	Timeout Duration `envconfig:"UPSTREAM_TIMEOUT" default:"5m" toml:"timeout"`
}

// RenderConfig bounds the render rendezvous.
type RenderConfig struct {
	Timeout      Duration `envconfig:"RENDER_TIMEOUT" default:"10s" toml:"timeout"`
	AttachWindow Duration `envconfig:"RENDER_ATTACH_WINDOW" default:"5s" toml:"attach_window"`
	Width        int      `envconfig:"RENDER_W" default:"512" toml:"width"`
	Height       int      `envconfig:"RENDER_H" default:"288" toml:"height"`
}

// StoreConfig holds turn history and dashboard stream limits.
type StoreConfig struct {
	TurnCapacity int      `envconfig:"TURN_STORE_CAPACITY" default:"200" toml:"turn_capacity"`
	SSEQueueSize int      `envconfig:"SSE_QUEUE_SIZE" default:"2000" toml:"sse_queue_size"`
	SSEKeepalive Duration `envconfig:"SSE_KEEPALIVE" default:"15s" toml:"sse_keepalive"`
}

// AgentConfig describes the supervised agent process.
type AgentConfig struct {
	Enabled      bool     `envconfig:"AGENT_ENABLED" default:"true" toml:"enabled"`
	Command      string   `envconfig:"AGENT_CMD" default:"python" toml:"command"`
	Args         []string `envconfig:"AGENT_ARGS" default:"main.py" toml:"args"`
	Dir          string   `envconfig:"AGENT_DIR" toml:"dir"`
	RunDirEnv    string   `envconfig:"RUN_DIR_ENV" default:"FRANZ_RUN_DIR" toml:"run_dir_env"`
	InitialDelay Duration `envconfig:"AGENT_INITIAL_DELAY" default:"3s" toml:"initial_delay"`
	RestartDelay Duration `envconfig:"AGENT_RESTART_DELAY" default:"3s" toml:"restart_delay"`
	StopTimeout  Duration `envconfig:"AGENT_STOP_TIMEOUT" default:"10s" toml:"stop_timeout"`
	KillWait     Duration `envconfig:"AGENT_KILL_WAIT" default:"5s" toml:"kill_wait"`
}

// RunConfig holds per-run filesystem settings.
type RunConfig struct {
	LogBase       string `envconfig:"LOG_BASE" default:"panel_log" toml:"log_base"`
	AutoPause     bool   `envconfig:"AUTO_PAUSE" default:"true" toml:"auto_pause"`
	DashboardFile string `envconfig:"DASHBOARD_FILE" default:"panel.html" toml:"dashboard_file"`
	CanvasFile    string `envconfig:"CANVAS_FILE" default:"canvas.html" toml:"canvas_file"`
}

// HelperConfig holds the companion command settings. Empty commands
// disable the feature.
type HelperConfig struct {
	PreviewCmd     string   `envconfig:"PREVIEW_CMD" toml:"preview_cmd"`
	PreviewArgs    []string `envconfig:"PREVIEW_ARGS" toml:"preview_args"`
	PreviewWidth   int      `envconfig:"PREVIEW_WIDTH" default:"960" toml:"preview_width"`
	PreviewTimeout Duration `envconfig:"PREVIEW_TIMEOUT" default:"15s" toml:"preview_timeout"`
	ExecuteCmd     string   `envconfig:"EXECUTE_CMD" toml:"execute_cmd"`
	ExecuteArgs    []string `envconfig:"EXECUTE_ARGS" toml:"execute_args"`
	ExecuteTimeout Duration `envconfig:"EXECUTE_TIMEOUT" default:"120s" toml:"execute_timeout"`
}

// ScreenConfig reports the agent's screen size to the dashboard.
type ScreenConfig struct {
	Width  int `envconfig:"SCREEN_W" default:"1920" toml:"width"`
	Height int `envconfig:"SCREEN_H" default:"1080" toml:"height"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
	FileEnabled bool   `envconfig:"LOG_FILE_ENABLED" default:"true" toml:"file_enabled"`
}

// RateLimitConfig holds rate limiting configuration for control endpoints.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// Load reads defaults and environment variables, then overlays the TOML
// file at path when path is non-empty.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("parse %s at %d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          "1234",
			InferencePath: "/v1/chat/completions",
			CORSOrigins:   []string{"*"},
		},
		Upstream: UpstreamConfig{
			URL:     "http://127.0.0.1:1235/v1/chat/completions",
			Timeout: Duration(5 * time.Minute),
		},
		Render: RenderConfig{
			Timeout:      Duration(10 * time.Second),
			AttachWindow: Duration(5 * time.Second),
			Width:        512,
			Height:       288,
		},
		Store: StoreConfig{
			TurnCapacity: 200,
			SSEQueueSize: 2000,
			SSEKeepalive: Duration(15 * time.Second),
		},
		Agent: AgentConfig{
			Enabled:      true,
			Command:      "python",
			Args:         []string{"main.py"},
			RunDirEnv:    "FRANZ_RUN_DIR",
			InitialDelay: Duration(3 * time.Second),
			RestartDelay: Duration(3 * time.Second),
			StopTimeout:  Duration(10 * time.Second),
			KillWait:     Duration(5 * time.Second),
		},
		Run: RunConfig{
			LogBase:       "panel_log",
			AutoPause:     true,
			DashboardFile: "panel.html",
			CanvasFile:    "canvas.html",
		},
		Helpers: HelperConfig{
			PreviewWidth:   960,
			PreviewTimeout: Duration(15 * time.Second),
			ExecuteTimeout: Duration(120 * time.Second),
		},
		Screen: ScreenConfig{
			Width:  1920,
			Height: 1080,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			FileEnabled: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
