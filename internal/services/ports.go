package services

import (
	"context"

	"greenstash/internal/core"
)

// Ports for the stores and outbound collaborators. Both the SQLite
// repository and the in-memory store satisfy Store.
type (
	GoalStore interface {
		InsertGoal(ctx context.Context, g core.Goal) (int64, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, goalID int64) error
		GetGoalByID(ctx context.Context, goalID int64) (core.Goal, error)
		GetGoalWithTransactions(ctx context.Context, goalID int64) (core.GoalWithTransactions, error)
		ListGoals(ctx context.Context, filter core.GoalFilter) ([]core.GoalWithTransactions, error)
		ListArchivedGoals(ctx context.Context) ([]core.GoalWithTransactions, error)
		InsertGoalWithTransactions(ctx context.Context, items []core.GoalWithTransactions) error
		GoalsWithReminder(ctx context.Context) ([]core.Goal, error)
	}

	LedgerStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		TransactionsForGoal(ctx context.Context, goalID int64) ([]core.Transaction, error)
	}

	WidgetStore interface {
		SetWidgetData(ctx context.Context, appWidgetID int, goalID int64) error
		GetWidgetGoalID(ctx context.Context, appWidgetID int) (int64, error)
		DeleteWidgetData(ctx context.Context, appWidgetID int) error
		ListWidgetBindings(ctx context.Context) (map[int]int64, error)
	}

	Store interface {
		GoalStore
		LedgerStore
		WidgetStore
		Close() error
	}

	// ReminderScheduler is the platform reminder collaborator. All three
	// operations are idempotent.
	ReminderScheduler interface {
		Schedule(goalID int64)
		Stop(goalID int64)
		IsSet(goalID int64) bool
	}

	// EventPublisher pushes best-effort notifications about committed
	// mutations to out-of-process consumers (widget refreshes, the
	// reminder delivery worker). Publish failures never fail the local
	// operation.
	EventPublisher interface {
		PublishGoalDeleted(ctx context.Context, goalID int64) error
		PublishWidgetRefresh(ctx context.Context, goalID int64) error
	}
)
