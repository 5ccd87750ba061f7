// Package reminder schedules the recurring per-goal reminder. It is the
// local stand-in for the platform alarm service: one scheduled entry per
// goal, firing daily at a fixed wall-clock time, delivered through a
// pluggable Notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"greenstash/internal/core"
)

// DefaultReminderTime is when reminders fire unless configured otherwise.
const DefaultReminderTime = "09:30"

// Notifier delivers a due reminder. Implementations publish to the
// notification queue or just log.
type Notifier interface {
	NotifyReminderDue(ctx context.Context, item core.GoalWithTransactions) error
}

// GoalSource is the slice of the store the manager needs.
type GoalSource interface {
	GetGoalWithTransactions(ctx context.Context, goalID int64) (core.GoalWithTransactions, error)
	GoalsWithReminder(ctx context.Context) ([]core.Goal, error)
}

// Manager keeps one scheduling goroutine per goal. Schedule and Stop are
// idempotent; scheduling an already-scheduled goal is a no-op.
type Manager struct {
	source   GoalSource
	notifier Notifier
	hour     int
	minute   int

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
	// now is swapped in tests to control the clock.
	now func() time.Time
}

func NewManager(source GoalSource, notifier Notifier, at string) (*Manager, error) {
	hour, minute, err := parseClockTime(at)
	if err != nil {
		return nil, err
	}
	return &Manager{
		source:   source,
		notifier: notifier,
		hour:     hour,
		minute:   minute,
		cancels:  make(map[int64]context.CancelFunc),
		now:      time.Now,
	}, nil
}

// Schedule arranges the daily reminder for the goal. Idempotent.
func (m *Manager) Schedule(goalID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cancels[goalID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[goalID] = cancel
	go m.run(ctx, goalID)

	slog.Debug("Scheduled reminder", "goal_id", goalID,
		"at", fmt.Sprintf("%02d:%02d", m.hour, m.minute))
}

// Stop cancels the goal's reminder. Idempotent.
func (m *Manager) Stop(goalID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.cancels[goalID]
	if !ok {
		slog.Debug("No reminder to stop", "goal_id", goalID)
		return
	}
	cancel()
	delete(m.cancels, goalID)
	slog.Debug("Stopped reminder", "goal_id", goalID)
}

// IsSet reports whether a reminder is currently scheduled for the goal.
func (m *Manager) IsSet(goalID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cancels[goalID]
	return ok
}

// RescheduleAll schedules reminders for every goal whose flag is set.
// Called once on boot, timers do not survive a restart.
func (m *Manager) RescheduleAll(ctx context.Context) error {
	goals, err := m.source.GoalsWithReminder(ctx)
	if err != nil {
		return fmt.Errorf("list reminder goals: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)
	for _, goal := range goals {
		g.Go(func() error {
			m.Schedule(goal.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Rescheduled reminders", "count", len(goals))
	return nil
}

// Close stops every scheduled reminder.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for goalID, cancel := range m.cancels {
		cancel()
		delete(m.cancels, goalID)
	}
}

func (m *Manager) run(ctx context.Context, goalID int64) {
	for {
		wait := time.Until(m.nextTrigger(m.now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		item, err := m.source.GetGoalWithTransactions(ctx, goalID)
		if err != nil {
			if errors.Is(err, core.ErrGoalNotFound) {
				slog.Warn("Reminder goal no longer exists, stopping", "goal_id", goalID)
				m.Stop(goalID)
				return
			}
			slog.Error("Failed to load goal for reminder", "goal_id", goalID, "error", err)
			continue
		}

		// An achieved goal no longer needs nudging.
		if item.IsAchieved() {
			slog.Info("Goal achieved, skipping reminder", "goal_id", goalID)
			continue
		}

		if err := m.notifier.NotifyReminderDue(ctx, item); err != nil {
			slog.Error("Failed to deliver reminder", "goal_id", goalID, "error", err)
		}
	}
}

// nextTrigger returns the next occurrence of the configured wall-clock
// time: today if it has not passed yet, otherwise tomorrow.
func (m *Manager) nextTrigger(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), m.hour, m.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func parseClockTime(at string) (hour, minute int, err error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid reminder time %q: want HH:MM", at)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid reminder hour %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid reminder minute %q", parts[1])
	}
	return hour, minute, nil
}

// LogNotifier writes due reminders to the log. Used when no notification
// queue is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyReminderDue(ctx context.Context, item core.GoalWithTransactions) error {
	slog.InfoContext(ctx, "Reminder due",
		"goal_id", item.Goal.ID,
		"title", item.Goal.Title,
		"saved", item.SavedAmount().Decimal(),
		"remaining", item.RemainingAmount().Decimal(),
		"deadline", item.Goal.Deadline)
	return nil
}
