package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/cola-explorer/internal/colas"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
	"github.com/EmpoweredVote/cola-explorer/internal/present"
	"github.com/EmpoweredVote/cola-explorer/internal/utils"
)

// Handlers serves the COLA endpoints.
type Handlers struct {
	Store        *colas.Store
	DisplayLimit int
	Logger       *zap.Logger
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

// Health pings the database.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	addNoStore(w)
	if err := db.Ping(ctx, h.Store.DB()); err != nil {
		h.logError(r, "health check failed", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// Search runs a search from query parameters and returns the rendered page.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	t0 := time.Now()

	f, err := colas.ParseFilters(r.URL.Query(), h.DisplayLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Store.Search(r.Context(), f)
	if err != nil {
		h.logError(r, "search failed", err)
		http.Error(w, "Failed to search colas", http.StatusInternalServerError)
		return
	}
	dbDone := time.Now()

	page := present.BuildPage(res)

	addServerTiming(w,
		[2]string{"db", ms(dbDone.Sub(t0))},
		[2]string{"render", ms(time.Since(dbDone))},
	)
	addNoStore(w)
	writeJSON(w, page)
}

// Options returns the filter options.
func (h *Handlers) Options(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.Options(r.Context())
	if err != nil {
		h.logError(r, "options failed", err)
		http.Error(w, "Failed to load filter options", http.StatusInternalServerError)
		return
	}
	addCacheHeaders(w, 60)
	writeJSON(w, o)
}

// Stats returns the summary views.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.Stats(r.Context())
	if err != nil {
		h.logError(r, "stats failed", err)
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	addCacheHeaders(w, 60)
	writeJSON(w, st)
}

// ColaResponse is one record with its card.
type ColaResponse struct {
	Record colas.Record `json:"record"`
	Card   present.Card `json:"card"`
}

// GetCola returns one record.
func (h *Handlers) GetCola(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cola_id")

	rec, err := h.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, colas.ErrInvalidColaID):
		http.Error(w, "Invalid COLA ID", http.StatusBadRequest)
		return
	case errors.Is(err, colas.ErrNotFound):
		http.Error(w, "Cola not found", http.StatusNotFound)
		return
	case err != nil:
		h.logError(r, "get cola failed", err)
		http.Error(w, "Failed to fetch cola", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ColaResponse{Record: *rec, Card: present.NewCard(*rec, "")})
}

// RefreshViews recreates the views.
func (h *Handlers) RefreshViews(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.RefreshViews(r.Context()); err != nil {
		h.logError(r, "refresh views failed", err)
		http.Error(w, "Failed to refresh views", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "refreshed"})
}

// PurgeCache drops cached filter options.
func (h *Handlers) PurgeCache(w http.ResponseWriter, r *http.Request) {
	h.Store.PurgeCache()
	writeJSON(w, map[string]string{"status": "purged"})
}

func (h *Handlers) logError(r *http.Request, msg string, err error) {
	id, _ := utils.GetRequestIDFromContext(r.Context())
	h.Logger.Error(msg, zap.Error(err), zap.String("request_id", id), zap.String("path", r.URL.Path))
}
