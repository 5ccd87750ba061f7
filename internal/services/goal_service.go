package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"greenstash/internal/core"
)

// GoalInput is the user-form shape of a goal. The target amount arrives
// as the raw text the user typed and is parsed and rounded here, before
// anything touches the store.
type GoalInput struct {
	Title           string
	TargetAmount    string
	Deadline        string
	AdditionalNotes string
	Priority        string // "High", "Normal" or "Low"
	Reminder        bool
	GoalIconID      string
	GoalImage       []byte
}

// GoalService owns the goal lifecycle: create, edit, archive, restore,
// delete, and the observable goal feed. Reminder scheduling side effects
// happen here so no caller can forget them.
type GoalService struct {
	store     Store
	reminders ReminderScheduler
	events    EventPublisher // optional
	feed      *GoalFeed

	mu     sync.Mutex
	filter core.GoalFilter
}

func NewGoalService(store Store, reminders ReminderScheduler, events EventPublisher) *GoalService {
	return &GoalService{
		store:     store,
		reminders: reminders,
		events:    events,
		feed:      NewGoalFeed(),
		filter:    core.DefaultGoalFilter(),
	}
}

// Feed returns the observable goal feed for the presentation layer.
func (s *GoalService) Feed() *GoalFeed { return s.feed }

// Filter returns the current goal list ordering.
func (s *GoalService) Filter() core.GoalFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter changes the list ordering and republishes the feed.
func (s *GoalService) SetFilter(ctx context.Context, filter core.GoalFilter) {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	s.refreshFeed(ctx)
}

// CreateGoal validates the form input, stores the goal and schedules its
// reminder when requested. Returns the assigned goal id.
func (s *GoalService) CreateGoal(ctx context.Context, in GoalInput) (int64, error) {
	target, err := core.ParseMoney(in.TargetAmount)
	if err != nil {
		return 0, fmt.Errorf("parse target amount: %w", err)
	}

	goal := core.Goal{
		Title:           in.Title,
		TargetAmount:    target,
		Deadline:        in.Deadline,
		GoalImage:       in.GoalImage,
		AdditionalNotes: in.AdditionalNotes,
		Priority:        core.ParseGoalPriority(in.Priority),
		Reminder:        in.Reminder,
		GoalIconID:      in.GoalIconID,
	}
	if err := goal.Validate(); err != nil {
		return 0, err
	}

	goalID, err := s.store.InsertGoal(ctx, goal)
	if err != nil {
		return 0, fmt.Errorf("create goal: %w", err)
	}

	if goal.Reminder {
		s.reminders.Schedule(goalID)
	}

	s.refreshFeed(ctx)
	return goalID, nil
}

// EditGoal replaces the stored record with the new form values. The goal
// image is kept when the form does not carry a new one. Reminder
// scheduling is reconciled against the new flag.
func (s *GoalService) EditGoal(ctx context.Context, goalID int64, in GoalInput) error {
	existing, err := s.store.GetGoalByID(ctx, goalID)
	if err != nil {
		return err
	}

	target, err := core.ParseMoney(in.TargetAmount)
	if err != nil {
		return fmt.Errorf("parse target amount: %w", err)
	}

	updated := core.Goal{
		ID:              goalID,
		Title:           in.Title,
		TargetAmount:    target,
		Deadline:        in.Deadline,
		GoalImage:       in.GoalImage,
		AdditionalNotes: in.AdditionalNotes,
		Priority:        core.ParseGoalPriority(in.Priority),
		Reminder:        in.Reminder,
		GoalIconID:      in.GoalIconID,
		Archived:        existing.Archived,
	}
	if updated.GoalImage == nil {
		updated.GoalImage = existing.GoalImage
	}
	if updated.GoalIconID == "" {
		updated.GoalIconID = existing.GoalIconID
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateGoal(ctx, updated); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	if updated.Reminder {
		if !s.reminders.IsSet(goalID) {
			s.reminders.Schedule(goalID)
		}
	} else if s.reminders.IsSet(goalID) {
		s.reminders.Stop(goalID)
	}

	s.refreshFeed(ctx)
	return nil
}

// ArchiveGoal hides the goal from the active list, keeping its history.
// Any active reminder is stopped while archived.
func (s *GoalService) ArchiveGoal(ctx context.Context, goalID int64) error {
	goal, err := s.store.GetGoalByID(ctx, goalID)
	if err != nil {
		return err
	}

	goal.Archived = true
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return fmt.Errorf("archive goal: %w", err)
	}

	if s.reminders.IsSet(goalID) {
		s.reminders.Stop(goalID)
	}

	s.refreshFeed(ctx)
	return nil
}

// RestoreGoal moves an archived goal back to the active list and
// reschedules its reminder if the flag was set.
func (s *GoalService) RestoreGoal(ctx context.Context, goalID int64) error {
	goal, err := s.store.GetGoalByID(ctx, goalID)
	if err != nil {
		return err
	}

	goal.Archived = false
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return fmt.Errorf("restore goal: %w", err)
	}

	if goal.Reminder {
		s.reminders.Schedule(goalID)
	}

	s.refreshFeed(ctx)
	return nil
}

// DeleteGoal removes the goal, its transactions and widget rows in one
// cascade, stops any reminder and notifies out-of-process consumers.
func (s *GoalService) DeleteGoal(ctx context.Context, goalID int64) error {
	if err := s.store.DeleteGoal(ctx, goalID); err != nil {
		return err
	}

	if s.reminders.IsSet(goalID) {
		s.reminders.Stop(goalID)
	}

	if s.events != nil {
		if err := s.events.PublishGoalDeleted(ctx, goalID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish goal deleted event",
				"goal_id", goalID, "error", err)
			// Goal is gone locally either way.
		}
	}

	s.refreshFeed(ctx)
	return nil
}

// Goals returns the active list ordered by the current filter.
func (s *GoalService) Goals(ctx context.Context) ([]core.GoalWithTransactions, error) {
	return s.store.ListGoals(ctx, s.Filter())
}

// ArchivedGoals returns the archived list.
func (s *GoalService) ArchivedGoals(ctx context.Context) ([]core.GoalWithTransactions, error) {
	return s.store.ListArchivedGoals(ctx)
}

// GoalProgress loads one goal with its ledger for the info screen.
func (s *GoalService) GoalProgress(ctx context.Context, goalID int64) (core.GoalWithTransactions, error) {
	return s.store.GetGoalWithTransactions(ctx, goalID)
}

// RestoreReminders schedules reminders for every active goal with the
// flag set. Called once on boot.
func (s *GoalService) RestoreReminders(ctx context.Context) error {
	goals, err := s.store.GoalsWithReminder(ctx)
	if err != nil {
		return fmt.Errorf("list reminder goals: %w", err)
	}
	for _, g := range goals {
		if !s.reminders.IsSet(g.ID) {
			s.reminders.Schedule(g.ID)
		}
	}
	slog.InfoContext(ctx, "Restored goal reminders", "count", len(goals))
	return nil
}

func (s *GoalService) refreshFeed(ctx context.Context) {
	active, err := s.store.ListGoals(ctx, s.Filter())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to re-query active goals for feed", "error", err)
		return
	}
	archived, err := s.store.ListArchivedGoals(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to re-query archived goals for feed", "error", err)
		return
	}
	s.feed.publish(ctx, Snapshot{Active: active, Archived: archived})
}
