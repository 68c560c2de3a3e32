package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"doo-bots/poll"
)

// Poller runs one highlight polling cycle.
type Poller interface {
	Run(ctx context.Context, date string) poll.Result
}

// PollResponse mirrors the scheduler-facing response of the home run bot.
type PollResponse struct {
	StatusCode int      `json:"statusCode"`
	Body       PollBody `json:"body"`
}

// PollBody summarizes the cycle.
type PollBody struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Dingers returns the router for the home run bot.
func Dingers(poller Poller, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth(logger))
	mux.HandleFunc("/pollz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		date := r.URL.Query().Get("date")
		if date != "" {
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"}, logger)
				return
			}
		}

		logger.Info("Poll endpoint triggered", "date", date)
		res := poller.Run(r.Context(), date)

		writeJSON(w, http.StatusOK, PollResponse{
			StatusCode: http.StatusOK,
			Body: PollBody{
				Message:   fmt.Sprintf("Checked %d games", res.Games),
				Timestamp: res.Timestamp.UTC().Format(time.RFC3339),
			},
		}, logger)
	})
	return mux
}
