// Package config loads client settings from optional .env files and GOMOKU_*
// environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/logger"
	"github.com/cyberinferno/gomoku-client/match"
	"github.com/cyberinferno/gomoku-client/roomcache"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GOMOKU_"

// Config holds all client settings.
type Config struct {
	ServerURL string

	BoardRows int
	BoardCols int
	WinLength int

	LogLevel   string
	LogDir     string
	LogConsole bool

	RoomCacheTTL time.Duration
	RedisAddr    string

	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	AutoReconnect     bool
	ReconnectInterval time.Duration

	// StatusAddr is the listen address of the status API; empty disables it.
	StatusAddr string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ServerURL:         "ws://localhost:8686",
		BoardRows:         board.DefaultRows,
		BoardCols:         board.DefaultCols,
		WinLength:         match.DefaultWinLength,
		LogLevel:          "info",
		LogConsole:        true,
		RoomCacheTTL:      roomcache.DefaultTTL,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		ReconnectInterval: 5 * time.Second,
	}
}

// Load reads the given .env files, skipping any that do not exist, and then
// applies GOMOKU_* variables to the defaults. Variables already present in the
// process environment win over .env values. The result is not validated, so
// callers can apply overrides first and then call Validate.
//
// Parameters:
//   - files: .env files to read; ".env" when none are given
//
// Returns:
//   - The loaded Config
//   - An error if a file cannot be parsed or a value is malformed
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	p := envParser{lookup: lookup}

	p.str("SERVER_URL", &c.ServerURL)
	p.integer("BOARD_ROWS", &c.BoardRows)
	p.integer("BOARD_COLS", &c.BoardCols)
	p.integer("WIN_LENGTH", &c.WinLength)
	p.str("LOG_LEVEL", &c.LogLevel)
	p.str("LOG_DIR", &c.LogDir)
	p.boolean("LOG_CONSOLE", &c.LogConsole)
	p.duration("ROOM_CACHE_TTL", &c.RoomCacheTTL)
	p.str("REDIS_ADDR", &c.RedisAddr)
	p.duration("WRITE_TIMEOUT", &c.WriteTimeout)
	p.duration("HANDSHAKE_TIMEOUT", &c.HandshakeTimeout)
	p.boolean("AUTO_RECONNECT", &c.AutoReconnect)
	p.duration("RECONNECT_INTERVAL", &c.ReconnectInterval)
	p.str("STATUS_ADDR", &c.StatusAddr)

	return errors.Join(p.errs...)
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.ServerURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("server url: %w", err))
	case u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("server url %q: scheme must be ws or wss", c.ServerURL))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("server url %q: missing host", c.ServerURL))
	}

	if c.BoardRows <= 0 || c.BoardCols <= 0 {
		errs = append(errs, fmt.Errorf("board size %dx%d: must be positive", c.BoardRows, c.BoardCols))
	}
	if longest := max(c.BoardRows, c.BoardCols); c.WinLength < 1 || c.WinLength > longest {
		errs = append(errs, fmt.Errorf("win length %d: must be between 1 and %d", c.WinLength, longest))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.RoomCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("room cache ttl %s: must be positive", c.RoomCacheTTL))
	}
	if c.WriteTimeout < 0 || c.HandshakeTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.AutoReconnect && c.ReconnectInterval <= 0 {
		errs = append(errs, fmt.Errorf("reconnect interval %s: must be positive", c.ReconnectInterval))
	}

	return errors.Join(errs...)
}

type envParser struct {
	lookup lookupFunc
	errs   []error
}

func (p *envParser) get(name string) (string, bool) {
	v, ok := p.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(v), true
}

func (p *envParser) str(name string, dst *string) {
	if v, ok := p.get(name); ok {
		*dst = v
	}
}

func (p *envParser) integer(name string, dst *int) {
	v, ok := p.get(name)
	if !ok {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = n
}

func (p *envParser) boolean(name string, dst *bool) {
	v, ok := p.get(name)
	if !ok {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = b
}

func (p *envParser) duration(name string, dst *time.Duration) {
	v, ok := p.get(name)
	if !ok {
		return
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = d
}
