package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hexa-arcade/internal/config"
	"hexa-arcade/internal/cooldown"
	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/games"
	"hexa-arcade/internal/ledger"
	"hexa-arcade/internal/logging"
	"hexa-arcade/internal/mcpserver"
	"hexa-arcade/internal/present"
	"hexa-arcade/internal/present/platforms"
	"hexa-arcade/internal/stats"
	"hexa-arcade/internal/store"
	"hexa-arcade/internal/store/sqlite"
	"hexa-arcade/internal/stream"
	httptransport "hexa-arcade/internal/transport/http"
	"hexa-arcade/internal/ws"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// arcadeStore is what the server needs from either storage driver.
type arcadeStore interface {
	stats.Writer
	stats.Reader
	ledger.Accounts
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	st, closeStore, err := openStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer closeStore()

	cooldowns, closeCooldowns := openCooldowns(ctx, cfg.Server)
	defer closeCooldowns()

	feed := stream.NewFeed(cfg.Game.SessionRetention)
	defer feed.Close()
	led := ledger.New(st, cfg.Server.WinRewardCoins)

	coord := engine.NewCoordinator(games.Rulesets(cfg.Game), engine.Options{
		InviteTimeout: cfg.Game.InviteTimeout,
		LobbyTimeout:  cfg.Game.LobbyTimeout,
		BotThinkDelay: cfg.Game.BotThinkDelay,
		Retention:     cfg.Game.SessionRetention,
		Presenter:     buildPresenter(cfg.Server, feed),
		Recorder:      stats.NewRecorder(st, led),
		Observer:      feed,
		Cooldowns:     cooldowns,
	})
	coord.StartJanitor(ctx, janitorInterval)

	statsSvc := stats.NewService(st)
	r := httptransport.NewRouter(httptransport.Deps{
		Arcade:      coord,
		Stats:       statsSvc,
		Economy:     led,
		Feed:        feed,
		WS:          ws.NewServer(coord, feed),
		DB:          st,
		MCP:         mcpserver.New(coord, statsSvc).Handler(),
		AdminAPIKey: cfg.Server.AdminAPIKey,
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("store", cfg.Server.StoreDriver).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.ServerConfig) (arcadeStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		st, err := store.New(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, nil, err
		}
		return st, st.Close, nil
	}
}

// openCooldowns prefers Redis so several processes share start cooldowns. A Redis that
// cannot be reached falls back to process memory.
func openCooldowns(ctx context.Context, cfg config.ServerConfig) (engine.CooldownStore, func()) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return cooldown.NewMemory(), func() {}
	}
	rc, err := cooldown.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Error().Err(err).Msg("redis cooldown store unavailable; using memory")
		return cooldown.NewMemory(), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

func buildPresenter(cfg config.ServerConfig, feed *stream.Feed) engine.Presenter {
	var primary engine.Presenter = engine.NopPresenter{}
	if url := strings.TrimSpace(cfg.DiscordWebhookURL); url != "" {
		client := platforms.NewHTTPClient(time.Duration(cfg.PushTimeoutMS) * time.Millisecond)
		primary = present.NewDiscord(platforms.NewDiscord(client, url))
	}
	return present.NewFanout(primary, feed)
}
