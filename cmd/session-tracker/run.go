package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/bridge"
	"Mansoor88-6/session-tracker/internal/clock"
	"Mansoor88-6/session-tracker/internal/config"
	"Mansoor88-6/session-tracker/internal/handler"
	"Mansoor88-6/session-tracker/internal/logger"
	"Mansoor88-6/session-tracker/internal/notifier"
	"Mansoor88-6/session-tracker/internal/platform"
	"Mansoor88-6/session-tracker/internal/repository"
	"Mansoor88-6/session-tracker/internal/router"
	"Mansoor88-6/session-tracker/internal/scheduler"
	"Mansoor88-6/session-tracker/internal/service"
	"Mansoor88-6/session-tracker/internal/storage"
	"Mansoor88-6/session-tracker/internal/tabs"
	"Mansoor88-6/session-tracker/internal/timer"
	"Mansoor88-6/session-tracker/internal/tracker"
	"Mansoor88-6/session-tracker/internal/tray"
)

const shutdownTimeout = 3 * time.Second

func runAgent(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting session tracker",
		zap.String("env", cfg.Env),
		zap.String("config_path", configPath),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	lock, err := platform.AcquireLock(cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("Failed to release instance lock", zap.Error(err))
		}
	}()

	openCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.Open(openCtx, cfg.Storage, log.Logger)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", zap.Error(err))
		}
	}()

	repo := repository.NewStateRepository(store, cfg.Tracking.HistoryLimit)
	registry := tabs.NewRegistry(log.Logger)
	hub := bridge.NewHub(log.Logger)
	defer hub.Close()

	timers := timer.NewRealtime(log.Logger)
	defer timers.Stop()
	clk := clock.System{}

	sessionTracker := tracker.NewSessionTracker(
		repo,
		registry,
		hub,
		notifier.Multi{notifier.NewLogNotifier(log.Logger), hub},
		timers,
		clk,
		time.Duration(cfg.Tracking.BlockedReminderSeconds)*time.Second,
		log.Logger,
	)
	sched := scheduler.NewScheduler(repo, sessionTracker, timers, clk, log.Logger)

	trackingService := service.NewTrackingService(
		repo,
		sessionTracker,
		sched,
		registry,
		timers,
		clk,
		service.Options{
			FlushInterval: time.Duration(cfg.Tracking.FlushInterval) * time.Second,
			PruneInterval: time.Duration(cfg.Tracking.PruneInterval) * time.Hour,
		},
		log.Logger,
	)

	if err := trackingService.Init(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize tracking service: %w", err)
	}
	hub.SetEventSink(trackingService.HandleRawEvent)

	if err := trackingService.Start(); err != nil {
		return fmt.Errorf("failed to start tracking service: %w", err)
	}

	var httpServer *http.Server
	if cfg.Server.Enabled {
		addr := fmt.Sprintf("localhost:%d", cfg.Server.Port)
		httpServer = &http.Server{
			Addr:         addr,
			Handler:      router.New(handler.NewMessageHandler(trackingService, log.Logger), hub, log.Logger),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		}

		go func() {
			log.Info("Starting extension API", zap.String("address", addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Extension API error", zap.Error(err))
			}
		}()
	} else {
		log.Info("Extension API disabled in configuration")
	}

	log.Info("Session tracker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Tray.Enabled {
		icon := tray.NewTray(trackingService, cfg.Tray.OptionsURL, platform.OpenBrowser, nil, log.Logger)
		go func() {
			sig := <-quit
			log.Info("Received shutdown signal", zap.String("signal", sig.String()))
			icon.Quit()
		}()
		icon.Run()
	} else {
		sig := <-quit
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	log.Info("Shutting down session tracker...")

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("Extension API shutdown error", zap.Error(err))
		} else {
			log.Info("Extension API stopped")
		}
	}

	done := make(chan struct{})
	go func() {
		trackingService.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		log.Warn("Shutdown timeout reached, session may not be saved")
	}

	log.Info("Session tracker stopped")
	return nil
}
