// Package settings serves the exchange with the settings page: opening it
// with the saved options and accepting what it hands back on close.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/relay"
)

const closePrefix = "pebblejs://close#"

const maxBodySize = 16 << 10

type Relay interface {
	SettingsURL(ctx context.Context) (string, error)
	OnSettingsClosed(ctx context.Context, response string) (bool, error)
}

type Handler struct {
	log   *slog.Logger
	relay Relay
}

func NewHandler(log *slog.Logger, r Relay) *Handler {
	return &Handler{log: log, relay: r}
}

// Routes returns a router meant to be mounted at /settings.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.handleOpen)
	r.Post("/close", h.handleClose)
	return r
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	target, err := h.relay.SettingsURL(r.Context())
	if err != nil {
		h.log.Error("failed to build settings url", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	response := rawQueryValue(r.URL.RawQuery, "response")
	if response == "" {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		response = string(body)
	}
	response = strings.TrimPrefix(strings.TrimSpace(response), closePrefix)

	saved, err := h.relay.OnSettingsClosed(r.Context(), response)
	switch {
	case errors.Is(err, relay.ErrMalformedSettings):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("failed to save settings", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !saved {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "unchanged"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rawQueryValue returns the still-escaped value of key. The close payload is
// URL-component encoded and decoded once by the relay, whether it arrives in
// the body or the query.
func rawQueryValue(rawQuery, key string) string {
	for _, pair := range strings.Split(rawQuery, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			return v
		}
	}
	return ""
}
