package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"thirteen/internal/config"
	"thirteen/internal/ports/postgres"
	"thirteen/internal/ports/redisstore"
	"thirteen/internal/ports/ws"
	"thirteen/internal/session"
	"thirteen/internal/tournament"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.Logger
	if os.Getenv("THIRTEEN_PRETTY_LOG") != "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	cfg := config.FromEnv()
	if path := os.Getenv("THIRTEEN_TIER_FILE"); path != "" {
		if err := cfg.LoadTiers(path); err != nil {
			logger.Fatal().Err(err).Msg("load tier table")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping postgres")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	clock := clockwork.NewRealClock()
	ledger := postgres.NewLedger(pool)
	store := redisstore.NewGameStore(rdb)
	seed := rand.New(rand.NewSource(time.Now().UnixNano()))

	rooms := session.NewRegistry(clock, cfg, ledger, store, seed, logger)
	supervisor := session.NewSupervisor(clock, cfg.GraceDuration(), store, rooms, logger)
	manager := tournament.NewManager(clock, ledger, rooms, logger)

	// Settlement fans out to the supervisor (drop pending grace timers) and,
	// for tournament rooms, back into the bracket.
	rooms.OnSettled(func(roomID, gameID, tournamentID, winnerUserID string, abandoned bool) {
		supervisor.ClearGame(gameID)
		if tournamentID != "" {
			manager.ReportMatchResult(tournamentID, roomID, winnerUserID)
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewGateway(cfg, rooms, supervisor, manager, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
