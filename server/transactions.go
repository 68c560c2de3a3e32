package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"doo-bots/inbox"
)

const maxBodyBytes = 1 << 20

// Inbox runs one pass over the labeled messages.
type Inbox interface {
	Process(ctx context.Context) (*inbox.Result, error)
}

// Renewer refreshes the Gmail watch.
type Renewer interface {
	Renew(ctx context.Context) (int64, error)
}

type pushRequest struct {
	Action  string       `json:"action"`
	Message *pushMessage `json:"message"`
}

type pushMessage struct {
	Data      string `json:"data"`
	MessageID string `json:"messageId"`
}

// Transactions handles scheduler and Pub/Sub push requests for the transactions bot.
type Transactions struct {
	inbox   Inbox
	renewer Renewer
	logger  *slog.Logger
}

// NewTransactions creates the transactions bot handler.
func NewTransactions(in Inbox, renewer Renewer, logger *slog.Logger) *Transactions {
	return &Transactions{inbox: in, renewer: renewer, logger: logger}
}

// Handler returns the router.
func (t *Transactions) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth(t.logger))
	mux.HandleFunc("/", t.handleRoot)
	return mux
}

// HandleNotification runs an inbox pass for a decoded notification payload.
// Push requests and pull messages both land here.
func (t *Transactions) HandleNotification(ctx context.Context, data []byte) (*inbox.Result, error) {
	n, err := inbox.DecodeNotification(data)
	if err != nil {
		return nil, err
	}
	t.logger.Info("Gmail notification received", "email", n.EmailAddress, "history_id", n.HistoryID)

	res, err := t.inbox.Process(ctx)
	if err != nil {
		return nil, fmt.Errorf("process inbox: %w", err)
	}
	return res, nil
}

func (t *Transactions) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pushRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || json.Unmarshal(body, &req) != nil {
		t.invalid(w)
		return
	}

	switch {
	case req.Action == "renew_watch":
		t.renew(w, r)
	case req.Message != nil:
		t.push(w, r, req.Message)
	default:
		t.invalid(w)
	}
}

func (t *Transactions) renew(w http.ResponseWriter, r *http.Request) {
	exp, err := t.renewer.Renew(r.Context())
	if err != nil {
		t.logger.Error("Gmail watch renewal failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()}, t.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "expiration": exp}, t.logger)
}

// push always answers 200 once the request is well formed so Pub/Sub stops redelivering.
func (t *Transactions) push(w http.ResponseWriter, r *http.Request, msg *pushMessage) {
	res, err := t.decodeAndHandle(r.Context(), msg)
	if err != nil {
		t.logger.Error("Email processing failed", "message_id", msg.MessageID, "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "error": err.Error()}, t.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "result": res}, t.logger)
}

func (t *Transactions) decodeAndHandle(ctx context.Context, msg *pushMessage) (*inbox.Result, error) {
	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("decode message data: %w", err)
	}
	return t.HandleNotification(ctx, data)
}

func (t *Transactions) invalid(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request format"}, t.logger)
}
