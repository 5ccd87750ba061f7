// Package memory is an in-memory implementation of the goal, ledger and
// widget stores. It backs tests and lets the app run without a database
// file, mirroring the SQLite repository's semantics including the
// delete cascade.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"greenstash/internal/core"
)

type Store struct {
	mu         sync.Mutex
	nextGoalID int64
	nextTxID   int64
	goals      []core.Goal        // insertion order
	txs        []core.Transaction // append-only
	widgets    map[int]int64      // appWidgetId -> goalId
}

func New() *Store {
	return &Store{
		nextGoalID: 1,
		nextTxID:   1,
		widgets:    make(map[int]int64),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertGoal(_ context.Context, g core.Goal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.nextGoalID
	s.nextGoalID++
	s.goals = append(s.goals, g)
	return g.ID, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i] = g
			return nil
		}
	}
	return core.ErrGoalNotFound
}

func (s *Store) DeleteGoal(_ context.Context, goalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.goals {
		if s.goals[i].ID == goalID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.ErrGoalNotFound
	}
	s.goals = append(s.goals[:idx], s.goals[idx+1:]...)

	kept := s.txs[:0]
	for _, t := range s.txs {
		if t.OwnerGoalID != goalID {
			kept = append(kept, t)
		}
	}
	s.txs = kept

	for widgetID, gid := range s.widgets {
		if gid == goalID {
			delete(s.widgets, widgetID)
		}
	}
	return nil
}

func (s *Store) GetGoalByID(_ context.Context, goalID int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == goalID {
			return g, nil
		}
	}
	return core.Goal{}, core.ErrGoalNotFound
}

func (s *Store) GetGoalWithTransactions(ctx context.Context, goalID int64) (core.GoalWithTransactions, error) {
	goal, err := s.GetGoalByID(ctx, goalID)
	if err != nil {
		return core.GoalWithTransactions{}, err
	}
	txs, err := s.TransactionsForGoal(ctx, goalID)
	if err != nil {
		return core.GoalWithTransactions{}, err
	}
	return core.GoalWithTransactions{Goal: goal, Transactions: txs}, nil
}

func (s *Store) ListGoals(ctx context.Context, filter core.GoalFilter) ([]core.GoalWithTransactions, error) {
	s.mu.Lock()
	goals := make([]core.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		if !g.Archived {
			goals = append(goals, g)
		}
	}
	s.mu.Unlock()

	sortGoals(goals, filter)

	out := make([]core.GoalWithTransactions, 0, len(goals))
	for _, g := range goals {
		txs, _ := s.TransactionsForGoal(ctx, g.ID)
		out = append(out, core.GoalWithTransactions{Goal: g, Transactions: txs})
	}
	return out, nil
}

func (s *Store) ListArchivedGoals(ctx context.Context) ([]core.GoalWithTransactions, error) {
	s.mu.Lock()
	goals := make([]core.Goal, 0)
	for _, g := range s.goals {
		if g.Archived {
			goals = append(goals, g)
		}
	}
	s.mu.Unlock()

	out := make([]core.GoalWithTransactions, 0, len(goals))
	for _, g := range goals {
		txs, _ := s.TransactionsForGoal(ctx, g.ID)
		out = append(out, core.GoalWithTransactions{Goal: g, Transactions: txs})
	}
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if t.Type != core.TypeDeposit && t.Type != core.TypeWithdraw {
		return 0, core.ErrInvalidTransactionType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextTxID
	s.nextTxID++
	s.txs = append(s.txs, t)
	return t.ID, nil
}

func (s *Store) TransactionsForGoal(_ context.Context, goalID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.OwnerGoalID == goalID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

func (s *Store) SetWidgetData(_ context.Context, appWidgetID int, goalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets[appWidgetID] = goalID
	return nil
}

func (s *Store) GetWidgetGoalID(_ context.Context, appWidgetID int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	goalID, ok := s.widgets[appWidgetID]
	if !ok {
		return 0, core.ErrGoalNotFound
	}
	return goalID, nil
}

func (s *Store) DeleteWidgetData(_ context.Context, appWidgetID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.widgets, appWidgetID)
	return nil
}

func (s *Store) ListWidgetBindings(_ context.Context) (map[int]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bindings := make(map[int]int64, len(s.widgets))
	for appWidgetID, goalID := range s.widgets {
		bindings[appWidgetID] = goalID
	}
	return bindings, nil
}

func (s *Store) InsertGoalWithTransactions(ctx context.Context, items []core.GoalWithTransactions) error {
	for _, item := range items {
		goalID, err := s.InsertGoal(ctx, item.Goal)
		if err != nil {
			return err
		}
		for _, t := range item.Transactions {
			t.OwnerGoalID = goalID
			if _, err := s.InsertTransaction(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) GoalsWithReminder(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.Reminder && !g.Archived {
			out = append(out, g)
		}
	}
	return out, nil
}

func sortGoals(goals []core.Goal, filter core.GoalFilter) {
	asc := filter.Order != core.Descending
	less := func(i, j int) bool { return goals[i].ID < goals[j].ID }
	switch filter.Field {
	case core.SortByTitle:
		less = func(i, j int) bool {
			return strings.ToLower(goals[i].Title) < strings.ToLower(goals[j].Title)
		}
	case core.SortByAmount:
		less = func(i, j int) bool {
			return goals[i].TargetAmount.Cents < goals[j].TargetAmount.Cents
		}
	case core.SortByPriority:
		less = func(i, j int) bool {
			return goals[i].Priority < goals[j].Priority
		}
	}
	if asc {
		sort.SliceStable(goals, less)
	} else {
		sort.SliceStable(goals, func(i, j int) bool { return less(j, i) })
	}
}
