package main

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	betsvc "github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/config"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/bet/cashout"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/bet/get"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/bet/list"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/bet/place"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/bet/preview"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/bet/resolve"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/event"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/fairness/seed"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/fairness/verify"
	gamesindex "github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/games/index"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/job"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/mysql"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/wallet/balance"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/wallet/entries"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/wallet/faucet"
	mwlogger "github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/middleware/logger"
	infra "github.com/cryptomagiciian/casino-backend-sub001/internal/infra/redis"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/ledger"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/handler/slogpretty"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/repository"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const jobQueueSize = 128
const jobWorkers = 4

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting api server", slog.String("env", cfg.Env))

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)

	walletRepo := repository.NewWalletRepository(handler)
	ledgerRepo := repository.NewLedgerRepository(handler)
	betRepo := repository.NewBetRepository(handler)
	seedRepo := repository.NewSeedRepository(handler)

	ledgerSvc := ledger.NewService(ledgerRepo, log)
	walletCoord := wallet.NewCoordinator(walletRepo, ledgerSvc, log)
	seedSvc := fair.NewSeedService(seedRepo, log)

	queue := make(job.JobQueue, jobQueueSize)
	job.NewWorkerPool(jobWorkers, queue).Start()

	var publisher betsvc.Publisher
	if inner := setupPublisher(cfg, log); inner != nil {
		publisher = job.NewAsyncPublisher(log, inner, queue)
	}

	betService := betsvc.NewService(betRepo, seedSvc, walletCoord, publisher, log)

	var idempotency place.Idempotency
	if cfg.Redis.Address != "" {
		idempotency = infra.New(cfg.Redis.Address)
	}

	placeBet := place.NewBet(log, betService, idempotency)
	resolveBet := resolve.NewBet(log, betService)
	cashoutBet := cashout.NewBet(log, betService)
	getBet := get.NewBet(log, betService)
	listBets := list.NewBets(log, betService)
	previewOdds := preview.New(log, betService)
	seedHandler := seed.New(log, seedSvc)
	verifyDraw := verify.New(log)
	walletBalance := balance.New(log, walletCoord)
	walletEntries := entries.New(log, walletCoord, ledgerSvc)
	walletFaucet := faucet.New(log, walletCoord)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Get("/games", gamesindex.New())
	router.Post("/bets/preview", previewOdds.New())
	router.Post("/bets", placeBet.New())
	router.Get("/bets", listBets.New())
	router.Get("/bets/{uuid}", getBet.New())
	router.Post("/bets/{uuid}/resolve", resolveBet.New())
	router.Post("/bets/{uuid}/cashout", cashoutBet.New())

	router.Get("/fairness/seed", seedHandler.Current())
	router.Post("/fairness/seed/rotate", seedHandler.Rotate())
	router.Get("/fairness/seeds/{id}/reveal", seedHandler.Reveal())
	router.Post("/fairness/verify", verifyDraw.New())

	router.Get("/wallet/balance", walletBalance.New())
	router.Get("/wallet/entries", walletEntries.New())
	router.Post("/wallet/faucet", walletFaucet.New())

	router.Handle("/metrics", promhttp.Handler())

	log.Info("server started", slog.String("address", cfg.Address))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err = srv.ListenAndServe(); err != nil {
		log.Error("server failed", sl.Err(err))
	}

	log.Error("server stopped")
}

// setupPublisher prefers Pusher when credentials are configured and falls
// back to the in-house websocket hub.
func setupPublisher(cfg *config.Config, log *slog.Logger) betsvc.Publisher {
	if cfg.Pusher.AppID != "" {
		return event.NewPusherEvent(log, cfg.Pusher.AppID, cfg.Pusher.Key, cfg.Pusher.Secret, cfg.Pusher.Cluster)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+cfg.WS.Address+"/ws", nil)
	if err != nil {
		log.Error("failed to dial ws hub, events disabled", sl.Err(err))

		return nil
	}

	return event.NewWSEvent(log, conn)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
