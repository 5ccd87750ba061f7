// The reminder worker consumes goal events from the broker. It delivers
// due reminders, refreshes widget snapshots and mirrors goals into the
// configured spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"greenstash/internal/amqp"
	"greenstash/internal/backup"
	"greenstash/internal/backup/sheets"
	"greenstash/internal/cli"
	"greenstash/internal/core"
	applog "greenstash/internal/log"
	"greenstash/internal/storage"
	"greenstash/internal/widget"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentReminder)
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the reminder worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Spreadsheet export is optional.
	var exporter *sheets.Client
	if cfg.SheetsExportEnabled() {
		exporter, err = sheets.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	widgetService := widget.NewService(repo, nil)
	backupManager := backup.NewManager(repo)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	handler := func(msg *amqp.GoalEventMessage) error {
		return handleEvent(ctx, logger, repo, widgetService, msg)
	}
	go func() {
		if err := amqpClient.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	if exporter != nil {
		go func() {
			sheetsLogger := logger.WithComponent(applog.ComponentSheets)
			ticker := time.NewTicker(cfg.SheetsSyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := exportGoals(ctx, backupManager, exporter); err != nil {
						sheetsLogger.Error("Spreadsheet export failed", "error", err)
					}
				}
			}
		}()
	}

	logger.Info("reminder-worker ready",
		"queue", cfg.AMQPQueue,
		"sheets_export", exporter != nil)

	cli.WaitForShutdown(ctx, done)
}

func handleEvent(ctx context.Context, logger *applog.Logger, repo *storage.SQLiteRepository, widgets *widget.Service, msg *amqp.GoalEventMessage) error {
	switch msg.Kind {
	case amqp.EventReminderDue:
		item, err := repo.GetGoalWithTransactions(ctx, msg.GoalID)
		if err != nil {
			if errors.Is(err, core.ErrGoalNotFound) {
				logger.Warn("Reminder for deleted goal, dropping", applog.FieldGoalID, msg.GoalID)
				return nil
			}
			return fmt.Errorf("load goal %d: %w", msg.GoalID, err)
		}
		// Delivery target is deployment specific, the log line is the
		// default notification channel.
		logger.Info("Reminder due",
			applog.FieldGoalID, item.Goal.ID,
			"title", item.Goal.Title,
			"saved", item.SavedAmount().Decimal(),
			"remaining", item.RemainingAmount().Decimal(),
			"last_entry", lastEntryDate(item))
		return nil

	case amqp.EventWidgetRefresh, amqp.EventGoalDeleted:
		return refreshWidgets(ctx, logger, widgets, msg.GoalID)

	default:
		logger.Warn("Unknown event kind, dropping", applog.FieldEventKind, msg.Kind)
		return nil
	}
}

// refreshWidgets re-renders the snapshot of every bound widget. A deleted
// goal cascades its widget rows away, so the sweep only sees live mappings.
func refreshWidgets(ctx context.Context, logger *applog.Logger, widgets *widget.Service, goalID int64) error {
	snaps, err := widgets.Snapshots(ctx)
	if err != nil {
		return fmt.Errorf("refresh widgets: %w", err)
	}
	for appWidgetID, snap := range snaps {
		logger.Debug("Widget snapshot refreshed",
			applog.FieldAppWidgetID, appWidgetID,
			applog.FieldGoalID, snap.GoalID,
			"saved", snap.SavedAmount.Float64(),
			"progress", snap.ProgressPercent)
	}
	logger.Info("Widgets refreshed", applog.FieldGoalID, goalID, "count", len(snaps))
	return nil
}

// lastEntryDate is the calendar date of the most recent ledger entry, or
// "never" for a goal without any.
func lastEntryDate(item core.GoalWithTransactions) string {
	if len(item.Transactions) == 0 {
		return "never"
	}
	last := item.Transactions[0]
	for _, tx := range item.Transactions[1:] {
		if tx.Timestamp > last.Timestamp {
			last = tx
		}
	}
	return last.TransactionDate()
}

func exportGoals(ctx context.Context, backupManager *backup.Manager, exporter *sheets.Client) error {
	items, err := backupManager.Collect(ctx)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, items)
}
