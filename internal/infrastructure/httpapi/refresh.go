// Package httpapi exposes the manual refresh endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"NewsDigest/internal/domain"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, trigger domain.Trigger) (domain.RunResult, error)
}

type refreshResponse struct {
	Success       bool   `json:"success"`
	ArticlesAdded *int   `json:"articlesAdded,omitempty"`
	Message       string `json:"message"`
}

// RefreshHandler triggers a manual pipeline run. The digest is never sent
// for manual runs.
type RefreshHandler struct {
	runner Runner
	logger *slog.Logger
}

// NewRefreshHandler wires the pipeline runner.
func NewRefreshHandler(runner Runner, log *slog.Logger) *RefreshHandler {
	return &RefreshHandler{runner: runner, logger: log}
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	// a client giving up must not abort the batch
	result, err := h.runner.Run(context.WithoutCancel(r.Context()), domain.TriggerManual)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("manual refresh failed", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, refreshResponse{
			Success: false,
			Message: "Refresh failed. Please try again.",
		})
		return
	}

	added := result.ArticlesAdded
	writeJSON(w, http.StatusOK, refreshResponse{
		Success:       true,
		ArticlesAdded: &added,
		Message:       RefreshMessage(added),
	})
}

// RefreshMessage is the user facing summary of a manual run.
func RefreshMessage(added int) string {
	if added > 0 {
		return fmt.Sprintf("%d new article(s) added.", added)
	}
	return "No new articles found. Check back later."
}

// NewMux mounts the refresh handler.
func NewMux(refresh http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/news/refresh", refresh)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
