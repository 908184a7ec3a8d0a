package main

import (
	"net/http"
	"os"

	"golang.org/x/exp/slog"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/config"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/ws/handler"
)

func main() {
	cfg := config.MustLoad()

	log := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	hub := handler.NewHub(log)
	hub.RunServer()

	http.HandleFunc("/ws", hub.HandleConnection)

	log.Info("ws server started", slog.String("address", cfg.WS.Address))

	if err := http.ListenAndServe(cfg.WS.Address, nil); err != nil {
		log.Error("ws server failed", sl.Err(err))
	}
}
