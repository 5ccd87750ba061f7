package main

import (
	"os"
	"time"

	"greenstash/internal/backend"
	"greenstash/internal/backup"
	"greenstash/internal/cli"
	applog "greenstash/internal/log"
	"greenstash/internal/prefs"
	"greenstash/internal/reminder"
	"greenstash/internal/services"
	"greenstash/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	logger.Info("Starting greenstashd")

	cfg := cli.LoadAndValidateConfig(logger)

	result, err := backend.Build(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to build data backend", "error", err)
		os.Exit(1)
	}

	prefStore, err := prefs.Open(cfg.PrefsDir)
	if err != nil {
		logger.Error("Failed to open preferences", "error", err)
		os.Exit(1)
	}
	appLock := session.NewLock(prefStore.AppLockEnabled())
	if appLock.Locked() {
		logger.Info("App lock enabled, session starts locked")
	}

	// Reminders go through the broker when one is configured, otherwise
	// they are just logged.
	var notifier reminder.Notifier = reminder.LogNotifier{}
	if result.Events != nil {
		notifier = result.Events
	}
	reminders, err := reminder.NewManager(result.Store, notifier, cfg.ReminderTime)
	if err != nil {
		logger.Error("Failed to create reminder manager", "error", err)
		os.Exit(1)
	}

	var events services.EventPublisher
	if result.Events != nil {
		events = result.Events
	}

	goalService := services.NewGoalService(result.Store, reminders, events)
	backupManager := backup.NewManager(result.Store)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		reminders.Close()
		if err := result.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", "error", err)
		}
	})

	goalService.SetFilter(ctx, prefStore.GoalFilter())
	if err := goalService.RestoreReminders(ctx); err != nil {
		logger.Error("Failed to restore reminders", "error", err)
	}

	// Log every published snapshot so operators can follow mutations.
	snapshots, unsubscribe := goalService.Feed().Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				logger.Debug("Goal snapshot published",
					"active", len(snap.Active),
					"archived", len(snap.Archived))
			}
		}
	}()

	// Periodic safety-net backup into the configured directory.
	go func() {
		backupLogger := logger.WithComponent(applog.ComponentBackup)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				path, err := backupManager.ExportJSONToFile(ctx, cfg.BackupDir)
				if err != nil {
					backupLogger.Error("Scheduled backup failed", "error", err)
					continue
				}
				backupLogger.Info("Scheduled backup written", applog.FieldBackupPath, path)
			}
		}
	}()

	logger.Info("greenstashd ready",
		"backend", cfg.DataBackend,
		"events_enabled", result.Events != nil,
		"reminder_time", cfg.ReminderTime)

	cli.WaitForShutdown(ctx, done)
}
