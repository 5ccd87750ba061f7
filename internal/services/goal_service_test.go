package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"greenstash/internal/core"
	"greenstash/internal/storage/memory"
)

type fakeReminders struct {
	mu        sync.Mutex
	scheduled map[int64]bool
}

func newFakeReminders() *fakeReminders {
	return &fakeReminders{scheduled: make(map[int64]bool)}
}

func (f *fakeReminders) Schedule(goalID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[goalID] = true
}

func (f *fakeReminders) Stop(goalID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, goalID)
}

func (f *fakeReminders) IsSet(goalID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scheduled[goalID]
}

type fakeEvents struct {
	deleted []int64
	widget  []int64
}

func (f *fakeEvents) PublishGoalDeleted(_ context.Context, goalID int64) error {
	f.deleted = append(f.deleted, goalID)
	return nil
}

func (f *fakeEvents) PublishWidgetRefresh(_ context.Context, goalID int64) error {
	f.widget = append(f.widget, goalID)
	return nil
}

func newTestGoalService() (*GoalService, *fakeReminders, *fakeEvents) {
	reminders := newFakeReminders()
	events := &fakeEvents{}
	return NewGoalService(memory.New(), reminders, events), reminders, events
}

func validInput() GoalInput {
	return GoalInput{
		Title:        "Winter Trip",
		TargetAmount: "1500.00",
		Deadline:     "20/12/2026",
		Priority:     "Normal",
	}
}

func TestCreateGoal(t *testing.T) {
	ctx := context.Background()
	svc, reminders, _ := newTestGoalService()

	in := validInput()
	in.Reminder = true
	goalID, err := svc.CreateGoal(ctx, in)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if goalID == 0 {
		t.Fatal("expected a non-zero goal id")
	}
	if !reminders.IsSet(goalID) {
		t.Fatal("reminder flag should schedule a reminder")
	}

	got, err := svc.GoalProgress(ctx, goalID)
	if err != nil {
		t.Fatalf("goal progress: %v", err)
	}
	if got.Goal.TargetAmount.Cents != 150_000 {
		t.Fatalf("expected 150000 cents, got %d", got.Goal.TargetAmount.Cents)
	}
}

func TestCreateGoalValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestGoalService()

	in := validInput()
	in.Title = "   "
	if _, err := svc.CreateGoal(ctx, in); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}

	in = validInput()
	in.TargetAmount = "not-a-number"
	if _, err := svc.CreateGoal(ctx, in); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if goals, _ := svc.Goals(ctx); len(goals) != 0 {
		t.Fatal("rejected inputs must not create goals")
	}
}

func TestEditGoalReconcilesReminder(t *testing.T) {
	ctx := context.Background()
	svc, reminders, _ := newTestGoalService()

	goalID, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if reminders.IsSet(goalID) {
		t.Fatal("no reminder requested yet")
	}

	in := validInput()
	in.Reminder = true
	if err := svc.EditGoal(ctx, goalID, in); err != nil {
		t.Fatalf("edit goal: %v", err)
	}
	if !reminders.IsSet(goalID) {
		t.Fatal("enabling the flag should schedule the reminder")
	}

	in.Reminder = false
	if err := svc.EditGoal(ctx, goalID, in); err != nil {
		t.Fatalf("edit goal: %v", err)
	}
	if reminders.IsSet(goalID) {
		t.Fatal("disabling the flag should stop the reminder")
	}
}

func TestEditGoalNotFound(t *testing.T) {
	svc, _, _ := newTestGoalService()
	err := svc.EditGoal(context.Background(), 42, validInput())
	if !errors.Is(err, core.ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
}

func TestArchiveAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, reminders, _ := newTestGoalService()

	in := validInput()
	in.Reminder = true
	goalID, err := svc.CreateGoal(ctx, in)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if err := svc.ArchiveGoal(ctx, goalID); err != nil {
		t.Fatalf("archive goal: %v", err)
	}
	if reminders.IsSet(goalID) {
		t.Fatal("archiving should stop the reminder")
	}

	active, _ := svc.Goals(ctx)
	archived, _ := svc.ArchivedGoals(ctx)
	if len(active) != 0 || len(archived) != 1 {
		t.Fatalf("expected 0 active / 1 archived, got %d / %d", len(active), len(archived))
	}

	if err := svc.RestoreGoal(ctx, goalID); err != nil {
		t.Fatalf("restore goal: %v", err)
	}
	if !reminders.IsSet(goalID) {
		t.Fatal("restore should reschedule the reminder when the flag is set")
	}

	active, _ = svc.Goals(ctx)
	archived, _ = svc.ArchivedGoals(ctx)
	if len(active) != 1 || len(archived) != 0 {
		t.Fatalf("expected 1 active / 0 archived, got %d / %d", len(active), len(archived))
	}
}

func TestDeleteGoalCascade(t *testing.T) {
	ctx := context.Background()
	svc, reminders, events := newTestGoalService()
	ledger := NewLedgerService(svc.store, svc)

	in := validInput()
	in.Reminder = true
	first, err := svc.CreateGoal(ctx, in)
	if err != nil {
		t.Fatalf("create first goal: %v", err)
	}
	second, err := svc.CreateGoal(ctx, validInput())
	if err != nil {
		t.Fatalf("create second goal: %v", err)
	}

	if _, err := ledger.Deposit(ctx, first, "10.00", "", testTime()); err != nil {
		t.Fatalf("deposit first: %v", err)
	}
	if _, err := ledger.Deposit(ctx, second, "20.00", "", testTime()); err != nil {
		t.Fatalf("deposit second: %v", err)
	}

	if err := svc.DeleteGoal(ctx, first); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if reminders.IsSet(first) {
		t.Fatal("delete should stop the reminder")
	}
	if len(events.deleted) != 1 || events.deleted[0] != first {
		t.Fatalf("expected one delete event for goal %d, got %v", first, events.deleted)
	}

	if txs, _ := ledger.Transactions(ctx, first); len(txs) != 0 {
		t.Fatal("cascade should remove the deleted goal's transactions")
	}
	if txs, _ := ledger.Transactions(ctx, second); len(txs) != 1 {
		t.Fatal("other goals' transactions must be untouched")
	}

	if err := svc.DeleteGoal(ctx, first); !errors.Is(err, core.ErrGoalNotFound) {
		t.Fatalf("deleting again should report not found, got %v", err)
	}
}

func TestFeedPublishesOnMutation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestGoalService()

	updates, cancel := svc.Feed().Subscribe()
	defer cancel()

	if _, err := svc.CreateGoal(ctx, validInput()); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	snap := <-updates
	if len(snap.Active) != 1 {
		t.Fatalf("expected 1 active goal in snapshot, got %d", len(snap.Active))
	}
	if len(snap.Archived) != 0 {
		t.Fatalf("expected no archived goals, got %d", len(snap.Archived))
	}
}

func TestSetFilterOrdersGoals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestGoalService()

	a := validInput()
	a.Title = "Bike"
	a.TargetAmount = "300.00"
	b := validInput()
	b.Title = "Apartment"
	b.TargetAmount = "90000.00"
	if _, err := svc.CreateGoal(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateGoal(ctx, b); err != nil {
		t.Fatal(err)
	}

	svc.SetFilter(ctx, core.GoalFilter{Field: core.SortByTitle, Order: core.Ascending})
	goals, err := svc.Goals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if goals[0].Goal.Title != "Apartment" {
		t.Fatalf("title sort: expected Apartment first, got %q", goals[0].Goal.Title)
	}

	svc.SetFilter(ctx, core.GoalFilter{Field: core.SortByAmount, Order: core.Descending})
	goals, err = svc.Goals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if goals[0].Goal.Title != "Apartment" {
		t.Fatalf("amount desc sort: expected Apartment first, got %q", goals[0].Goal.Title)
	}
}

func TestRestoreReminders(t *testing.T) {
	ctx := context.Background()
	svc, reminders, _ := newTestGoalService()

	in := validInput()
	in.Reminder = true
	goalID, err := svc.CreateGoal(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a restart: scheduler state is gone, the flag survives.
	reminders.Stop(goalID)

	if err := svc.RestoreReminders(ctx); err != nil {
		t.Fatalf("restore reminders: %v", err)
	}
	if !reminders.IsSet(goalID) {
		t.Fatal("boot-time restore should schedule flagged goals")
	}
}
