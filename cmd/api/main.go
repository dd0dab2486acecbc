package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/shramsathi/shramsathi-backend-go/internal/app"
	"github.com/shramsathi/shramsathi-backend-go/internal/config"
	appHTTP "github.com/shramsathi/shramsathi-backend-go/internal/handler/http"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/cron"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "shramsathi"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Error starting services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	a.SyncQueue.Start(ctx)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	scheduler := cron.NewScheduler()
	cron.NewSyncJobs(a.SyncQueue, a.Storage).RegisterJobs(scheduler, cfg.Sync.Interval)
	scheduler.AddJob(cron.Job{
		Name:     "prune_revoked_tokens",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			if n := JWTService.PruneRevoked(time.Now()); n > 0 {
				slog.InfoContext(ctx, "Cron: revoked tokens pruned", "count", n)
			}
			return nil
		},
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(JWTService, logger, cfg.App.CORSAllowedOrigins, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(JWTService, a.Users, a.Sessions),
		Attendance: appHTTP.NewAttendanceHandler(a.Attendance),
		Contractor: appHTTP.NewContractorHandler(a.Users, a.Relations, a.Attendance),
		System:     appHTTP.NewSystemHandler(a.Storage, a.SyncQueue),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server", "port", cfg.App.Port, "remote_driver", cfg.Remote.Driver, "remote_first", cfg.Remote.RemoteFirst)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server stopped", "error", err)
	}
}
