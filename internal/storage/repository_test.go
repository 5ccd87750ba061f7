package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"greenstash/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testGoal(title string, targetCents int64) core.Goal {
	return core.Goal{
		Title:        title,
		TargetAmount: core.Money{Cents: targetCents},
		Deadline:     "20/12/2026",
		Priority:     core.PriorityNormal,
	}
}

func TestInsertAndGetGoal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	goal := testGoal("New Bike", 20_000)
	goal.AdditionalNotes = "mountain bike"
	goal.GoalIconID = "bike"
	goal.Reminder = true

	id, err := repo.InsertGoal(ctx, goal)
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("InsertGoal() id = %d, want positive", id)
	}

	got, err := repo.GetGoalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetGoalByID() error = %v", err)
	}
	if got.Title != goal.Title || got.TargetAmount != goal.TargetAmount ||
		got.Deadline != goal.Deadline || got.AdditionalNotes != goal.AdditionalNotes ||
		got.GoalIconID != goal.GoalIconID || !got.Reminder || got.Archived {
		t.Errorf("GetGoalByID() = %+v, fields do not round trip", got)
	}
}

func TestGetGoalNotFound(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.GetGoalByID(context.Background(), 99); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("GetGoalByID() error = %v, want ErrGoalNotFound", err)
	}
}

func TestUpdateGoal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertGoal(ctx, testGoal("Trip", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}

	updated := testGoal("Longer Trip", 25_000)
	updated.ID = id
	updated.Priority = core.PriorityHigh
	updated.Archived = true
	if err := repo.UpdateGoal(ctx, updated); err != nil {
		t.Fatalf("UpdateGoal() error = %v", err)
	}

	got, err := repo.GetGoalByID(ctx, id)
	if err != nil {
		t.Fatalf("GetGoalByID() error = %v", err)
	}
	if got.Title != "Longer Trip" || got.TargetAmount.Cents != 25_000 ||
		got.Priority != core.PriorityHigh || !got.Archived {
		t.Errorf("GetGoalByID() after update = %+v", got)
	}

	missing := testGoal("Ghost", 1_000)
	missing.ID = 999
	if err := repo.UpdateGoal(ctx, missing); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("UpdateGoal() of missing goal error = %v, want ErrGoalNotFound", err)
	}
}

func TestDeleteGoalCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertGoal(ctx, testGoal("Trip", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	other, err := repo.InsertGoal(ctx, testGoal("Other", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}

	for _, goalID := range []int64{id, other} {
		if _, err := repo.InsertTransaction(ctx, core.Transaction{
			OwnerGoalID: goalID,
			Type:        core.TypeDeposit,
			Timestamp:   1700000000000,
			Amount:      core.Money{Cents: 2_500},
		}); err != nil {
			t.Fatalf("InsertTransaction() error = %v", err)
		}
	}
	if err := repo.SetWidgetData(ctx, 7, id); err != nil {
		t.Fatalf("SetWidgetData() error = %v", err)
	}

	if err := repo.DeleteGoal(ctx, id); err != nil {
		t.Fatalf("DeleteGoal() error = %v", err)
	}

	if _, err := repo.GetGoalByID(ctx, id); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("GetGoalByID() after delete error = %v, want ErrGoalNotFound", err)
	}
	txs, err := repo.TransactionsForGoal(ctx, id)
	if err != nil {
		t.Fatalf("TransactionsForGoal() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("transactions after delete = %d, want 0", len(txs))
	}
	if _, err := repo.GetWidgetGoalID(ctx, 7); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("GetWidgetGoalID() after delete error = %v, want ErrGoalNotFound", err)
	}

	// The other goal's ledger is untouched.
	otherTxs, err := repo.TransactionsForGoal(ctx, other)
	if err != nil {
		t.Fatalf("TransactionsForGoal() error = %v", err)
	}
	if len(otherTxs) != 1 {
		t.Errorf("other goal transactions = %d, want 1", len(otherTxs))
	}

	if err := repo.DeleteGoal(ctx, id); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("DeleteGoal() of missing goal error = %v, want ErrGoalNotFound", err)
	}
}

func TestListGoalsOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	type seed struct {
		title    string
		cents    int64
		priority core.GoalPriority
	}
	for _, s := range []seed{
		{"banana", 30_000, core.PriorityLow},
		{"Apple", 10_000, core.PriorityHigh},
		{"cherry", 20_000, core.PriorityNormal},
	} {
		g := testGoal(s.title, s.cents)
		g.Priority = s.priority
		if _, err := repo.InsertGoal(ctx, g); err != nil {
			t.Fatalf("InsertGoal() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter core.GoalFilter
		want   []string
	}{
		{
			name:   "title ascending is case insensitive",
			filter: core.GoalFilter{Field: core.SortByTitle, Order: core.Ascending},
			want:   []string{"Apple", "banana", "cherry"},
		},
		{
			name:   "amount descending",
			filter: core.GoalFilter{Field: core.SortByAmount, Order: core.Descending},
			want:   []string{"banana", "cherry", "Apple"},
		},
		{
			name:   "priority descending puts high first",
			filter: core.GoalFilter{Field: core.SortByPriority, Order: core.Descending},
			want:   []string{"Apple", "cherry", "banana"},
		},
		{
			name:   "creation order",
			filter: core.GoalFilter{Field: core.SortByCreation, Order: core.Ascending},
			want:   []string{"banana", "Apple", "cherry"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goals, err := repo.ListGoals(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListGoals() error = %v", err)
			}
			var titles []string
			for _, g := range goals {
				titles = append(titles, g.Goal.Title)
			}
			if len(titles) != len(tt.want) {
				t.Fatalf("ListGoals() returned %v, want %v", titles, tt.want)
			}
			for i := range tt.want {
				if titles[i] != tt.want[i] {
					t.Fatalf("ListGoals() order = %v, want %v", titles, tt.want)
				}
			}
		})
	}
}

func TestArchivedGoalsAreSeparate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	activeID, err := repo.InsertGoal(ctx, testGoal("Active", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	archived := testGoal("Archived", 10_000)
	archived.Archived = true
	if _, err := repo.InsertGoal(ctx, archived); err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}

	active, err := repo.ListGoals(ctx, core.DefaultGoalFilter())
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(active) != 1 || active[0].Goal.ID != activeID {
		t.Errorf("ListGoals() = %+v, want only the active goal", active)
	}

	arch, err := repo.ListArchivedGoals(ctx)
	if err != nil {
		t.Fatalf("ListArchivedGoals() error = %v", err)
	}
	if len(arch) != 1 || arch[0].Goal.Title != "Archived" {
		t.Errorf("ListArchivedGoals() = %+v, want only the archived goal", arch)
	}
}

func TestTransactionsOrderedAndTyped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertGoal(ctx, testGoal("Trip", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}

	// Inserted out of chronological order on purpose.
	for _, ts := range []int64{1700000002000, 1700000000000, 1700000001000} {
		if _, err := repo.InsertTransaction(ctx, core.Transaction{
			OwnerGoalID: id,
			Type:        core.TypeDeposit,
			Timestamp:   ts,
			Amount:      core.Money{Cents: 100},
		}); err != nil {
			t.Fatalf("InsertTransaction() error = %v", err)
		}
	}

	txs, err := repo.TransactionsForGoal(ctx, id)
	if err != nil {
		t.Fatalf("TransactionsForGoal() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("len(txs) = %d, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i-1].Timestamp > txs[i].Timestamp {
			t.Errorf("transactions not ordered by timestamp: %v", txs)
		}
	}

	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		OwnerGoalID: id,
		Type:        core.TypeInvalid,
		Timestamp:   1700000003000,
		Amount:      core.Money{Cents: 100},
	}); !errors.Is(err, core.ErrInvalidTransactionType) {
		t.Errorf("InsertTransaction() with invalid type error = %v, want ErrInvalidTransactionType", err)
	}
}

func TestWidgetDataUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.InsertGoal(ctx, testGoal("First", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	second, err := repo.InsertGoal(ctx, testGoal("Second", 10_000))
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}

	if err := repo.SetWidgetData(ctx, 42, first); err != nil {
		t.Fatalf("SetWidgetData() error = %v", err)
	}
	if err := repo.SetWidgetData(ctx, 42, second); err != nil {
		t.Fatalf("SetWidgetData() rebind error = %v", err)
	}

	goalID, err := repo.GetWidgetGoalID(ctx, 42)
	if err != nil {
		t.Fatalf("GetWidgetGoalID() error = %v", err)
	}
	if goalID != second {
		t.Errorf("GetWidgetGoalID() = %d, want %d", goalID, second)
	}

	if err := repo.SetWidgetData(ctx, 7, first); err != nil {
		t.Fatalf("SetWidgetData() error = %v", err)
	}
	bindings, err := repo.ListWidgetBindings(ctx)
	if err != nil {
		t.Fatalf("ListWidgetBindings() error = %v", err)
	}
	if len(bindings) != 2 || bindings[42] != second || bindings[7] != first {
		t.Errorf("ListWidgetBindings() = %v, want {7:%d 42:%d}", bindings, first, second)
	}

	if err := repo.DeleteWidgetData(ctx, 42); err != nil {
		t.Fatalf("DeleteWidgetData() error = %v", err)
	}
	if _, err := repo.GetWidgetGoalID(ctx, 42); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("GetWidgetGoalID() after delete error = %v, want ErrGoalNotFound", err)
	}
}

func TestGoalsWithReminder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	withReminder := testGoal("Remind me", 10_000)
	withReminder.Reminder = true
	id, err := repo.InsertGoal(ctx, withReminder)
	if err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	if _, err := repo.InsertGoal(ctx, testGoal("Quiet", 10_000)); err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	archived := testGoal("Archived reminder", 10_000)
	archived.Reminder = true
	archived.Archived = true
	if _, err := repo.InsertGoal(ctx, archived); err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}

	goals, err := repo.GoalsWithReminder(ctx)
	if err != nil {
		t.Fatalf("GoalsWithReminder() error = %v", err)
	}
	if len(goals) != 1 || goals[0].ID != id {
		t.Errorf("GoalsWithReminder() = %+v, want only the active flagged goal", goals)
	}
}

func TestInsertGoalWithTransactionsReattachesLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	goal := testGoal("Restored", 10_000)
	goal.ID = 42 // stale id from the backup file
	items := []core.GoalWithTransactions{{
		Goal: goal,
		Transactions: []core.Transaction{
			{OwnerGoalID: 42, Type: core.TypeDeposit, Timestamp: 1700000000000, Amount: core.Money{Cents: 3_000}},
			{OwnerGoalID: 42, Type: core.TypeWithdraw, Timestamp: 1700000001000, Amount: core.Money{Cents: 1_000}},
		},
	}}

	if err := repo.InsertGoalWithTransactions(ctx, items); err != nil {
		t.Fatalf("InsertGoalWithTransactions() error = %v", err)
	}

	goals, err := repo.ListGoals(ctx, core.DefaultGoalFilter())
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("len(goals) = %d, want 1", len(goals))
	}
	restored := goals[0]
	if restored.Goal.ID == 42 {
		t.Error("restored goal kept its backup id, want a fresh id")
	}
	if restored.SavedAmount().Cents != 2_000 {
		t.Errorf("SavedAmount() = %d, want 2000", restored.SavedAmount().Cents)
	}
	for _, tx := range restored.Transactions {
		if tx.OwnerGoalID != restored.Goal.ID {
			t.Errorf("transaction owner = %d, want %d", tx.OwnerGoalID, restored.Goal.ID)
		}
	}
}
