package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything marquee needs to reach the catalogue API.
type Config struct {
	ServerURL    string
	PageSize     int
	PollInterval time.Duration
	SessionPath  string
	LogPath      string
}

const (
	defaultConfigPath   = "~/.config/marquee/config.toml"
	defaultSessionPath  = "~/.config/marquee/session.toml"
	defaultLogPath      = "~/.local/state/marquee/marquee.log"
	defaultServerURL    = "http://127.0.0.1:5000"
	defaultPageSize     = 100
	defaultPollInterval = time.Second

	envFile      = ".env"
	envServerURL = "MARQUEE_SERVER_URL"
	envPageSize  = "MARQUEE_PAGE_SIZE"
)

// Load reads the TOML config at path (or the default location), then applies
// overrides from ./.env and the process environment, in that order.
func Load(path string) (Config, error) {
	return load(path, envFile)
}

func load(path, dotenvPath string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServerURL:    defaultServerURL,
		PageSize:     defaultPageSize,
		PollInterval: defaultPollInterval,
		SessionPath:  defaultSessionPath,
		LogPath:      defaultLogPath,
	}

	if err := cfg.readFile(resolved); err != nil {
		return Config{}, err
	}

	dotenv, err := readDotenv(dotenvPath)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(dotenv[key])
	}

	if server := lookup(envServerURL); server != "" {
		cfg.ServerURL = server
	}
	if raw := lookup(envPageSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return Config{}, fmt.Errorf("parse %s %q: must be a positive integer", envPageSize, raw)
		}
		cfg.PageSize = size
	}

	cfg.SessionPath = mustExpand(cfg.SessionPath)
	cfg.LogPath = mustExpand(cfg.LogPath)
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL    string `toml:"server_url"`
		PageSize     int    `toml:"page_size"`
		PollInterval string `toml:"poll_interval"`
		SessionPath  string `toml:"session_path"`
		LogPath      string `toml:"log_path"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.ServerURL); v != "" {
		c.ServerURL = v
	}
	if raw.PageSize > 0 {
		c.PageSize = raw.PageSize
	}
	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("parse config: poll_interval %q is not a positive duration", v)
		}
		c.PollInterval = d
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		c.SessionPath = v
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		c.LogPath = v
	}
	return nil
}

// ServerHost returns the host portion of ServerURL for display.
func (c Config) ServerHost() string {
	host := strings.TrimSpace(c.ServerURL)
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// readDotenv parses a .env file without mutating the process environment.
func readDotenv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
