// Package widget maintains the mapping between home screen widget
// instances and goals, and renders the compact progress snapshot a
// widget shows.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"greenstash/internal/core"
	"greenstash/internal/services"
)

// Snapshot is the data a bound widget renders.
type Snapshot struct {
	GoalID          int64
	Title           string
	SavedAmount     core.Money
	TargetAmount    core.Money
	RemainingAmount core.Money
	ProgressPercent float64
	Achieved        bool
}

type Service struct {
	store  services.Store
	events services.EventPublisher
}

// NewService creates the widget service. events may be nil when no broker
// is configured.
func NewService(store services.Store, events services.EventPublisher) *Service {
	return &Service{store: store, events: events}
}

// Bind associates a widget instance with a goal. Rebinding an existing
// widget to another goal replaces the mapping.
func (s *Service) Bind(ctx context.Context, appWidgetID int, goalID int64) error {
	if _, err := s.store.GetGoalByID(ctx, goalID); err != nil {
		return fmt.Errorf("bind widget %d: %w", appWidgetID, err)
	}
	if err := s.store.SetWidgetData(ctx, appWidgetID, goalID); err != nil {
		return fmt.Errorf("bind widget %d: %w", appWidgetID, err)
	}

	slog.InfoContext(ctx, "Bound widget", "app_widget_id", appWidgetID, "goal_id", goalID)
	s.publishRefresh(ctx, goalID)
	return nil
}

// Unbind removes the widget's mapping. Unbinding an unknown widget is
// not an error, widget hosts delete instances we may never have seen.
func (s *Service) Unbind(ctx context.Context, appWidgetID int) error {
	if err := s.store.DeleteWidgetData(ctx, appWidgetID); err != nil {
		return fmt.Errorf("unbind widget %d: %w", appWidgetID, err)
	}
	slog.InfoContext(ctx, "Unbound widget", "app_widget_id", appWidgetID)
	return nil
}

// Snapshot loads the bound goal and computes the display state for the
// widget. Returns core.ErrGoalNotFound when the widget is unbound or its
// goal has been deleted.
func (s *Service) Snapshot(ctx context.Context, appWidgetID int) (Snapshot, error) {
	goalID, err := s.store.GetWidgetGoalID(ctx, appWidgetID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("widget %d: %w", appWidgetID, err)
	}

	item, err := s.store.GetGoalWithTransactions(ctx, goalID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("widget %d goal %d: %w", appWidgetID, goalID, err)
	}

	return Snapshot{
		GoalID:          item.Goal.ID,
		Title:           item.Goal.Title,
		SavedAmount:     item.SavedAmount(),
		TargetAmount:    item.Goal.TargetAmount,
		RemainingAmount: item.RemainingAmount(),
		ProgressPercent: item.ProgressPercent(),
		Achieved:        item.IsAchieved(),
	}, nil
}

// Snapshots renders the current state of every bound widget. Widgets
// whose goal disappeared between listing and loading are skipped.
func (s *Service) Snapshots(ctx context.Context) (map[int]Snapshot, error) {
	bindings, err := s.store.ListWidgetBindings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}

	out := make(map[int]Snapshot, len(bindings))
	for appWidgetID := range bindings {
		snap, err := s.Snapshot(ctx, appWidgetID)
		if err != nil {
			if errors.Is(err, core.ErrGoalNotFound) {
				continue
			}
			return nil, err
		}
		out[appWidgetID] = snap
	}
	return out, nil
}

func (s *Service) publishRefresh(ctx context.Context, goalID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishWidgetRefresh(ctx, goalID); err != nil {
		slog.WarnContext(ctx, "Failed to publish widget refresh", "goal_id", goalID, "error", err)
	}
}
