// Command gomoku is a line-oriented gomoku client. It connects to a game
// server, shows the lobby and the board as text and reads commands from
// standard input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/cyberinferno/gomoku-client/client"
	"github.com/cyberinferno/gomoku-client/config"
	"github.com/cyberinferno/gomoku-client/logger"
	"github.com/cyberinferno/gomoku-client/roomcache"
	"github.com/cyberinferno/gomoku-client/session"
	"github.com/cyberinferno/gomoku-client/statusapi"
	"github.com/cyberinferno/gomoku-client/wsclient"
)

const appName = "gomoku"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gomoku:", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env", ".env", "dotenv file with GOMOKU_* settings")
	serverURL := flag.String("server", "", "game server websocket URL (overrides GOMOKU_SERVER_URL)")
	logLevel := flag.String("log-level", "", "log level (overrides GOMOKU_LOG_LEVEL)")
	statusAddr := flag.String("status", "", "status API listen address (overrides GOMOKU_STATUS_ADDR)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *statusAddr != "" {
		cfg.StatusAddr = *statusAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.Open(logger.Options{
		Name:    appName,
		Level:   cfg.LogLevel,
		Console: cfg.LogConsole,
		Dir:     cfg.LogDir,
	})
	if err != nil {
		return fmt.Errorf("open logger: %w", err)
	}
	defer log.Close()

	cache, closeCache := newRoomCache(cfg)
	defer closeCache()

	conn := wsclient.New(wsclient.Config{
		URL:               cfg.ServerURL,
		AutoReconnect:     cfg.AutoReconnect,
		ReconnectInterval: cfg.ReconnectInterval,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadLimit:         wsclient.DefaultConfig(cfg.ServerURL).ReadLimit,
	})
	c := client.New(conn, client.Options{
		Session: session.Options{
			Rows:      cfg.BoardRows,
			Cols:      cfg.BoardCols,
			WinLength: cfg.WinLength,
		},
		Cache:  cache,
		Logger: log,
	})
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Connect(ctx); err != nil {
		log.Warn("initial connect failed", logger.F("url", cfg.ServerURL), logger.F("err", err))
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.StatusAddr != "" {
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           statusapi.Routes(c, log.With(logger.F("component", "statusapi"))),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("status API listening", logger.F("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	sh := newShell(c, os.Stdin, os.Stdout)
	g.Go(func() error {
		err := sh.run(ctx)
		stop()
		return err
	})

	return g.Wait()
}

// newRoomCache picks the shared redis cache when an address is configured.
func newRoomCache(cfg config.Config) (roomcache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return roomcache.NewMemory(cfg.ServerURL, cfg.RoomCacheTTL), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	return roomcache.NewRedis(rdb, cfg.ServerURL, cfg.RoomCacheTTL), func() { _ = rdb.Close() }
}
