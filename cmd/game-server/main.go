package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"reversi-arena/internal/ai"
	"reversi-arena/internal/config"
	"reversi-arena/internal/logging"
	"reversi-arena/internal/session"
	"reversi-arena/internal/store"
	"reversi-arena/internal/ws"
)

func main() {
	appCfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(appCfg.Log)
	cfg := appCfg.Server

	st, err := store.Open(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	seed := cfg.AISeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	selector := ai.NewSelector(seed)

	srv := ws.NewServer(st)
	reg := session.NewRegistry(session.Config{
		TurnSeconds: cfg.TurnSeconds,
		AIMoveDelay: time.Duration(cfg.AIMoveDelayMS) * time.Millisecond,
	}, st, selector, srv)
	srv.SetRegistry(reg)
	reg.StartJanitor(context.Background(),
		time.Duration(cfg.JanitorSeconds)*time.Second,
		time.Duration(cfg.RoomIdleMinutes)*time.Minute)

	r := newRouter(st, srv, reg)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
