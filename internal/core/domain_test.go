package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"Deposit", TypeDeposit, true},
		{"Withdraw", TypeWithdraw, true},
		{"Invalid", TypeInvalid, false},
		{"deposit", TypeInvalid, false},
		{"", TypeInvalid, false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidTransactionType) {
			t.Fatalf("%q: expected ErrInvalidTransactionType, got %v", tc.in, err)
		}
	}
}

func TestParseGoalPriority(t *testing.T) {
	if ParseGoalPriority("High") != PriorityHigh {
		t.Fatal("High should parse to PriorityHigh")
	}
	if ParseGoalPriority("Low") != PriorityLow {
		t.Fatal("Low should parse to PriorityLow")
	}
	// Unknown names fall back to Normal.
	if ParseGoalPriority("whatever") != PriorityNormal {
		t.Fatal("unknown priority should fall back to Normal")
	}
}

func TestGoalValidate(t *testing.T) {
	valid := Goal{
		Title:        "New Car",
		TargetAmount: Money{Cents: 500_000},
		Deadline:     "20/10/2026",
		Priority:     PriorityNormal,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid goal rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Goal)
		want   error
	}{
		{"empty title", func(g *Goal) { g.Title = "  " }, ErrEmptyTitle},
		{"zero target", func(g *Goal) { g.TargetAmount = Money{} }, ErrInvalidAmount},
		{"empty deadline", func(g *Goal) { g.Deadline = "" }, ErrInvalidDeadline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := valid
			tc.mutate(&g)
			if err := g.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		OwnerGoalID: 1,
		Type:        TypeDeposit,
		Timestamp:   1700000000000,
		Amount:      Money{Cents: 1000},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	invalid := valid
	invalid.Type = TypeInvalid
	if err := invalid.Validate(); !errors.Is(err, ErrInvalidTransactionType) {
		t.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}

	invalid = valid
	invalid.Amount = Money{}
	if err := invalid.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransactionDate(t *testing.T) {
	tx := Transaction{Timestamp: time.Date(2026, time.December, 20, 12, 0, 0, 0, time.Local).UnixMilli()}
	if got := tx.TransactionDate(); got != "Dec 20, 2026" {
		t.Fatalf("expected %q, got %q", "Dec 20, 2026", got)
	}
}
