package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"reversi-arena/internal/session"
	"reversi-arena/internal/store"
	"reversi-arena/internal/ws"
)

func writeHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}

func healthHandler(st store.PlayerStore, srv *ws.Server, reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := st.Count(r.Context()); err != nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "store_unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"playerCount": srv.PlayerCount(),
			"activeRooms": reg.Count(),
		})
	}
}

func playerHandler(st store.PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nickname := chi.URLParam(r, "nickname")
		player, err := st.Get(r.Context(), nickname)
		if errors.Is(err, store.ErrNotFound) {
			writeHTTPError(w, http.StatusNotFound, "player_not_found")
			return
		}
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(player)
	}
}

func leaderboardHandler(st store.PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeHTTPError(w, http.StatusBadRequest, "bad_limit")
				return
			}
			limit = n
		}
		if limit > 100 {
			limit = 100
		}
		players, err := st.Leaderboard(r.Context(), limit)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": players,
			"limit": limit,
		})
	}
}
