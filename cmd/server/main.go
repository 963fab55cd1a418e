package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hire-genai/Hire-genAi-sub000/internal/agent"
	"github.com/hire-genai/Hire-genAi-sub000/internal/api"
	"github.com/hire-genai/Hire-genAi-sub000/internal/config"
	"github.com/hire-genai/Hire-genAi-sub000/internal/health"
	"github.com/hire-genai/Hire-genAi-sub000/internal/livews"
	"github.com/hire-genai/Hire-genAi-sub000/internal/questions"
	"github.com/hire-genai/Hire-genAi-sub000/internal/session"
	"github.com/hire-genai/Hire-genAi-sub000/internal/store"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	st := store.New()
	bank := questions.NewHTTPBank(cfg.QuestionBank.BaseURL, cfg.QuestionBank.APIKey)

	reg := livews.NewRegistry(st)
	wss := livews.NewServer(st, reg, cfg.Agent.TokenSecret, cfg.Agent.TokenSkewSec)

	dial := func(sessionID, channelToken string) (session.Transport, <-chan agent.Event) {
		c := agent.Connect(context.Background(), agent.Config{
			URL:          agentWSURL(cfg.Agent.WSURL, sessionID),
			ChannelToken: channelToken,
		})
		return c, c.Events
	}

	h := api.NewHandlers(cfg, st, bank, reg, dial)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.HandleFunc("/ws/observer", wss.HandleObserverWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		status := health.CheckAll(ctx, cfg)
		w.Header().Set("Content-Type", "application/json")
		if !status.OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		// Finish running interviews before draining HTTP
		h.Shutdown(10 * time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

// agentWSURL appends the session id to the configured agent endpoint.
func agentWSURL(base, sessionID string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
