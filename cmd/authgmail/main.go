// Command authgmail runs the OAuth installed-app flow and prints the
// GMAIL_CREDENTIALS_JSON bundle used by the transactions bot.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"doo-bots/mailbox"
)

func main() {
	clientFile := flag.String("credentials", "credentials.json", "OAuth desktop client file downloaded from the Cloud console")
	addr := flag.String("listen", "127.0.0.1:8085", "loopback address for the OAuth redirect")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	data, err := os.ReadFile(*clientFile)
	if err != nil {
		logger.Error("Failed to read OAuth client file", "path", *clientFile, "error", err)
		os.Exit(1)
	}

	cfg, err := google.ConfigFromJSON(data, gmail.GmailModifyScope)
	if err != nil {
		logger.Error("Failed to parse OAuth client file", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tok, err := authorize(ctx, cfg, *addr, logger)
	if err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(bundle(cfg, tok), "", "  ")
	if err != nil {
		logger.Error("Failed to encode credentials", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// authorize waits for the browser redirect on addr and exchanges the code.
func authorize(ctx context.Context, cfg *oauth2.Config, addr string, logger *slog.Logger) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/"

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			switch {
			case q.Get("state") != state:
				http.Error(w, "State mismatch", http.StatusBadRequest)
				return
			case q.Get("error") != "":
				errs <- fmt.Errorf("consent denied: %s", q.Get("error"))
			case q.Get("code") == "":
				http.Error(w, "Missing code", http.StatusBadRequest)
				return
			default:
				codes <- q.Get("code")
			}
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
		}),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("Failed to close redirect listener", "error", err)
		}
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	logger.Info("Open this URL in a browser to authorize Gmail access", "url", authURL)

	select {
	case code := <-codes:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange code: %w", err)
		}
		return tok, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for redirect: %w", ctx.Err())
	}
}

// bundle converts an exchanged token into the bot's credential format.
func bundle(cfg *oauth2.Config, tok *oauth2.Token) mailbox.Credentials {
	return mailbox.Credentials{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
