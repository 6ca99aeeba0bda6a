// ABOUTME: Entry point for the ideahub API server
// ABOUTME: Serves credential, team, and idea-generation endpoints over HTTP

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/Animus004/ideahub/internal/activity"
	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/authz"
	"github.com/Animus004/ideahub/internal/config"
	"github.com/Animus004/ideahub/internal/genai"
	"github.com/Animus004/ideahub/internal/httpapi"
	"github.com/Animus004/ideahub/internal/ideas"
	"github.com/Animus004/ideahub/internal/store"
	"github.com/Animus004/ideahub/internal/team"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _     _            _           _
 (_) __| | ___  __ _| |__  _   _| |__
 | |/ _' |/ _ \/ _' | '_ \| | | | '_ \
 | | (_| |  __/ (_| | | | | |_| | |_) |
 |_|\__,_|\___|\__,_|_| |_|\__,_|_.__/
`

// getConfigPath returns the path to the server config file.
// Priority: IDEAHUB_CONFIG env var > XDG_CONFIG_HOME/ideahub/config.yaml > ~/.config/ideahub/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("IDEAHUB_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "ideahub", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ideahub-server <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the API server")
		fmt.Println("  init     Create a starter config file")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	// Env first so ${VAR} expansion in the config file can see .env values
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	if cfg.SMTP.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("SMTP:     %s:%d\n", cfg.SMTP.Host, cfg.SMTP.Port)
	}
	fmt.Println()

	logger.Info("starting ideahub-server",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Path,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	sessions := auth.NewSessionManager(st, cfg.Auth.SessionTTL)
	authSvc := auth.NewService(st, sessions, cfg.Auth.PBKDF2Iterations)
	recorder := activity.NewRecorder(st)
	gate := authz.NewGate(sessions, st, recorder)

	var mailer team.Mailer
	if cfg.SMTP.Enabled {
		mailer = team.NewSMTPMailer(team.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	teams := team.NewDirectory(st, team.NewTokenCodec([]byte(cfg.Auth.TokenSecret)), mailer, recorder)

	gen := genai.NewGeminiClient(cfg.GenAI.APIKey, cfg.GenAI.Endpoint, cfg.GenAI.Models())
	ideaSvc := ideas.NewService(st, gen)

	api := httpapi.NewServer(httpapi.Deps{
		Store:    st,
		Auth:     authSvc,
		Sessions: sessions,
		Gate:     gate,
		Teams:    teams,
		Ideas:    ideaSvc,
		Recorder: recorder,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/", api.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		interval := cfg.Auth.SweepInterval
		if interval <= 0 {
			interval = time.Hour
		}
		sessions.RunSweeper(gctx, interval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()

	// Drain in-flight activity writes before the store closes
	recorder.Flush()
	return err
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generating token secret: %w", err)
	}

	starter := fmt.Sprintf(`server:
  http_addr: "localhost:8080"

database:
  path: "ideahub.db"

auth:
  token_secret: "%s"
  pbkdf2_iterations: 100000
  session_ttl: "168h"
  sweep_interval: "1h"

genai:
  api_key: "${GEMINI_API_KEY}"
  model: "gemini-2.0-flash-exp"
  fallback_models:
    - "gemini-1.5-flash"

smtp:
  enabled: false

logging:
  level: "info"
  format: "text"
`, hex.EncodeToString(secret))

	if err := os.WriteFile(configPath, []byte(starter), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
