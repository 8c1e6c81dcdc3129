// Entry point for the fiskal snapshot service — chi router, cron-driven
// schedule execution, optional MCP over stdio.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hazyhaar/fiskal/dbopen"
	"github.com/hazyhaar/fiskal/snapbook"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"
)

func main() {
	logLevel := env("LOG_LEVEL", "info")
	var lvl slog.Level
	switch logLevel {
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

	// Config file is optional; env vars override.
	cfg := snapbook.DefaultConfig()
	if path := os.Getenv("CONFIG"); path != "" {
		loaded, err := snapbook.LoadConfig(path)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if spec := os.Getenv("SCHEDULE_CRON"); spec != "" {
		cfg.ScheduleCron = spec
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := snapbook.New(db, cfg, logger)
	if err != nil {
		slog.Error("snapbook service", "error", err)
		os.Exit(1)
	}

	// Periodic trigger for due schedules. The engine itself is pure
	// request/response; this cron entry is the external caller.
	c := cron.New()
	if _, err := c.AddFunc(cfg.ScheduleCron, func() {
		report, err := svc.ExecuteDue(ctx, time.Now())
		if err != nil {
			slog.Error("execute due schedules", "error", err)
			return
		}
		if len(report.Executed) > 0 || len(report.Errors) > 0 {
			slog.Info("schedule run", "executed", len(report.Executed), "errors", len(report.Errors))
		}
	}); err != nil {
		slog.Error("cron spec", "spec", cfg.ScheduleCron, "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// Optional MCP over stdio.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "fiskal",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/fiscal-book/{bookID}", func(r chi.Router) {
		r.Post("/snapshots", func(w http.ResponseWriter, r *http.Request) {
			var req snapbook.CaptureRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			req.CreationSource = snapbook.SourceManual
			snap, err := svc.Capture(r.Context(), chi.URLParam(r, "bookID"), req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 201, snap)
		})

		r.Get("/snapshots", func(w http.ResponseWriter, r *http.Request) {
			var tags []string
			if raw := r.URL.Query().Get("tags"); raw != "" {
				tags = strings.Split(raw, ",")
			}
			snaps, err := svc.ListSnapshots(r.Context(), chi.URLParam(r, "bookID"),
				tags, queryInt(r, "limit", 0), queryInt(r, "skip", 0))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if snaps == nil {
				snaps = []*snapbook.Snapshot{}
			}
			writeJSON(w, 200, snaps)
		})

		r.Delete("/snapshots", func(w http.ResponseWriter, r *http.Request) {
			deleted, err := svc.DeleteBookSnapshots(r.Context(), chi.URLParam(r, "bookID"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, map[string]int{"deleted": deleted})
		})

		r.Get("/snapshots/schedule", func(w http.ResponseWriter, r *http.Request) {
			sc, err := svc.GetSchedule(r.Context(), chi.URLParam(r, "bookID"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, sc)
		})

		r.Put("/snapshots/schedule", func(w http.ResponseWriter, r *http.Request) {
			var req snapbook.ScheduleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			sc, err := svc.UpsertSchedule(r.Context(), chi.URLParam(r, "bookID"), req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, sc)
		})
	})

	r.Route("/snapshots/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			snap, err := svc.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, snap)
		})

		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.DeleteSnapshot(r.Context(), chi.URLParam(r, "id")); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "deleted"})
		})

		r.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
			items, err := svc.ListSnapshotTransactions(r.Context(), chi.URLParam(r, "id"),
				queryInt(r, "limit", 0), queryInt(r, "skip", 0))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if items == nil {
				items = []*snapbook.SnapshotTransaction{}
			}
			writeJSON(w, 200, items)
		})

		r.Get("/compare", func(w http.ResponseWriter, r *http.Request) {
			result, err := svc.Compare(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, result)
		})

		r.Put("/tags", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Tags *[]string `json:"tags"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Tags == nil {
				writeError(w, 400, errors.New("tags must be an array"))
				return
			}
			snap, err := svc.UpdateTags(r.Context(), chi.URLParam(r, "id"), *body.Tags)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, snap)
		})

		r.Put("/protection", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				IsProtected *bool `json:"is_protected"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsProtected == nil {
				writeError(w, 400, errors.New("is_protected must be a boolean"))
				return
			}
			snap, err := svc.SetProtection(r.Context(), chi.URLParam(r, "id"), *body.IsProtected)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, snap)
		})

		r.Post("/annotations", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Content   string `json:"content"`
				CreatedBy string `json:"created_by"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, 400, err)
				return
			}
			snap, err := svc.AddAnnotation(r.Context(), chi.URLParam(r, "id"), body.Content, body.CreatedBy)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 201, snap)
		})

		r.Get("/export", func(w http.ResponseWriter, r *http.Request) {
			format := r.URL.Query().Get("format")
			if format == "" {
				format = "json"
			}
			data, contentType, err := svc.Export(r.Context(), chi.URLParam(r, "id"), format)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(200)
			w.Write(data)
		})

		r.Post("/clone", func(w http.ResponseWriter, r *http.Request) {
			var ov snapbook.CloneOverrides
			if r.ContentLength > 0 {
				if err := json.NewDecoder(r.Body).Decode(&ov); err != nil {
					writeError(w, 400, err)
					return
				}
			}
			book, err := svc.Clone(r.Context(), chi.URLParam(r, "id"), ov)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 201, book)
		})

		r.Post("/rollback", func(w http.ResponseWriter, r *http.Request) {
			body := struct {
				CreatePreRollbackSnapshot *bool `json:"create_pre_rollback_snapshot"`
			}{}
			if r.ContentLength > 0 {
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					writeError(w, 400, err)
					return
				}
			}
			createPre := body.CreatePreRollbackSnapshot == nil || *body.CreatePreRollbackSnapshot
			result, err := svc.Rollback(r.Context(), chi.URLParam(r, "id"), createPre)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, 200, result)
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

// writeServiceError maps snapbook sentinel errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, snapbook.ErrNotFound):
		writeError(w, 404, err)
	case errors.Is(err, snapbook.ErrProtected), errors.Is(err, snapbook.ErrInvalidInput):
		writeError(w, 400, err)
	default:
		writeError(w, 500, err)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
