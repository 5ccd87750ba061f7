package core

import "testing"

func tx(kind TransactionType, cents int64) Transaction {
	return Transaction{
		OwnerGoalID: 1,
		Type:        kind,
		Timestamp:   1700000000000,
		Amount:      Money{Cents: cents},
	}
}

func TestSavedAmountReplay(t *testing.T) {
	g := GoalWithTransactions{
		Goal: Goal{ID: 1, Title: "Trip", TargetAmount: Money{Cents: 10_000}},
		Transactions: []Transaction{
			tx(TypeDeposit, 6000),
			tx(TypeDeposit, 4000),
			tx(TypeWithdraw, 3000),
		},
	}
	if got := g.SavedAmount().Cents; got != 7000 {
		t.Fatalf("expected 7000 cents, got %d", got)
	}
}

func TestSavedAmountIgnoresInvalidEntries(t *testing.T) {
	g := GoalWithTransactions{
		Goal: Goal{TargetAmount: Money{Cents: 1000}},
		Transactions: []Transaction{
			tx(TypeDeposit, 500),
			tx(TypeInvalid, 9999),
		},
	}
	if got := g.SavedAmount().Cents; got != 500 {
		t.Fatalf("invalid entries must not count, got %d", got)
	}
}

// Mirrors the documented scenario: target 100.00, deposit 60 then 40,
// overdraw rejected upstream, withdraw 30.
func TestProgressScenario(t *testing.T) {
	goal := Goal{ID: 1, Title: "Laptop", TargetAmount: Money{Cents: 10_000}}
	g := GoalWithTransactions{Goal: goal}

	g.Transactions = append(g.Transactions, tx(TypeDeposit, 6000))
	if g.IsAchieved() {
		t.Fatal("60.00 of 100.00 should not be achieved")
	}
	if got := g.RemainingAmount().Cents; got != 4000 {
		t.Fatalf("expected 4000 remaining, got %d", got)
	}

	g.Transactions = append(g.Transactions, tx(TypeDeposit, 4000))
	if !g.IsAchieved() {
		t.Fatal("100.00 of 100.00 should be achieved")
	}
	if got := g.RemainingAmount().Cents; got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}

	g.Transactions = append(g.Transactions, tx(TypeWithdraw, 3000))
	if got := g.SavedAmount().Cents; got != 7000 {
		t.Fatalf("expected 7000 after withdrawal, got %d", got)
	}
	if g.IsAchieved() {
		t.Fatal("goal should no longer be achieved after withdrawal")
	}
}

func TestProgressPercentClamping(t *testing.T) {
	g := GoalWithTransactions{
		Goal:         Goal{TargetAmount: Money{Cents: 1000}},
		Transactions: []Transaction{tx(TypeDeposit, 2500)},
	}
	if got := g.ProgressPercent(); got != 100 {
		t.Fatalf("overfunded goal should clamp to 100, got %f", got)
	}

	empty := GoalWithTransactions{Goal: Goal{TargetAmount: Money{Cents: 1000}}}
	if got := empty.ProgressPercent(); got != 0 {
		t.Fatalf("empty ledger should be 0%%, got %f", got)
	}
}
