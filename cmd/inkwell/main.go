package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/inkwellhq/inkwell/agent"
	"github.com/inkwellhq/inkwell/audit"
	"github.com/inkwellhq/inkwell/blocks"
	"github.com/inkwellhq/inkwell/dbopen"
	"github.com/inkwellhq/inkwell/docstore"
	"github.com/inkwellhq/inkwell/kit"
	"github.com/inkwellhq/inkwell/llm"
	"github.com/inkwellhq/inkwell/session"
	"github.com/inkwellhq/inkwell/shield"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig(env("CONFIG", "inkwell.yaml"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Service DB: sessions + audit trail.
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if _, err := db.Exec(session.Schema); err != nil {
		slog.Error("session schema", "error", err)
		os.Exit(1)
	}

	auditLogger := audit.NewSQLiteLogger(db)
	if err := auditLogger.Init(); err != nil {
		slog.Error("audit init", "error", err)
		os.Exit(1)
	}
	defer auditLogger.Close()

	// Session store.
	var sessions session.Store
	switch cfg.Session.Backend {
	case "memory":
		m := session.NewMemoryStore(cfg.Session.TTL)
		defer m.Close()
		sessions = m
	default:
		s := session.NewSQLiteStore(db, cfg.Session.TTL)
		go s.SweepLoop(ctx, cfg.Session.TTL/2)
		sessions = s
	}

	// Document store.
	var store docstore.Store
	if cfg.Docstore.BaseURL != "" {
		store = docstore.NewHTTPStore(cfg.Docstore.BaseURL, cfg.Docstore.Token,
			docstore.WithLogger(logger))
	} else {
		slog.Warn("no docstore configured, using in-memory store")
		store = docstore.NewMemoryStore()
	}

	synth := blocks.NewSynthesizer(
		blocks.WithLogger(logger),
		blocks.WithTitleFetcher(blocks.NewHTTPTitleFetcher(3*time.Second)),
	)

	agentOpts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithSynthesizer(synth),
	}
	if cfg.LLM.Enabled() {
		agentOpts = append(agentOpts, agent.WithCompleter(llm.New(cfg.LLM, llm.WithLogger(logger))))
		slog.Info("llm strategy enabled", "model", cfg.LLM.Model)
	}
	ag := agent.New(store, sessions, agentOpts...)

	// Optional MCP over stdio.
	if cfg.MCP.Transport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "inkwell",
			Version: "1.0.0",
		}, nil)
		ag.RegisterMCP(mcpSrv)
		go func() {
			t := &mcp.IOTransport{Reader: os.Stdin, Writer: os.Stdout}
			slog.Info("MCP stdio transport starting")
			if err := mcpSrv.Run(ctx, t); err != nil && ctx.Err() == nil {
				slog.Error("MCP transport", "error", err)
			}
		}()
	}

	chatEndpoint := audit.Middleware(auditLogger, "chat")(
		func(ctx context.Context, req any) (any, error) {
			r := req.(*chatRequest)
			return ag.Chat(ctx, r.SessionID, r.Input, r.Confirm)
		})

	rateLimiter := shield.NewRateLimiter(cfg.RateLimits, "/healthz")
	rateLimiter.StartGC(ctx.Done())

	// Router.
	r := chi.NewRouter()
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxBody(cfg.MaxBodyBytes))
	r.Use(shield.RequestID)
	r.Use(shield.HeadToGet)
	r.Use(rateLimiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireToken(cfg.AuthTokenHash))

		r.Post("/v1/chat", func(w http.ResponseWriter, req *http.Request) {
			var body chatRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, 400, err)
				return
			}
			ctx := req.Context()
			if body.SessionID != "" {
				ctx = kit.WithSessionID(ctx, body.SessionID)
			}
			resp, err := chatEndpoint(ctx, &body)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, resp)
		})
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

type chatRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
	Confirm   bool   `json:"confirm,omitempty"`
}

// requireToken checks the Authorization bearer token against the configured
// bcrypt hash. An empty hash disables the check.
func requireToken(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
				writeJSON(w, 401, map[string]string{"error": "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
