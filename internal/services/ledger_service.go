package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"greenstash/internal/core"
)

// DepositResult reports the outcome of a deposit. Achieved is true only
// for the deposit that carried the balance from below the target to at
// or above it; it is a one-time signal, never stored.
type DepositResult struct {
	TransactionID int64
	NewBalance    core.Money
	Achieved      bool
}

// WithdrawResult reports the outcome of an accepted withdrawal.
type WithdrawResult struct {
	TransactionID int64
	NewBalance    core.Money
}

// LedgerService runs the deposit and withdraw state transitions against
// a goal's ledger. It shares the goal service's feed so the UI sees
// balance changes immediately.
type LedgerService struct {
	store Store
	goals *GoalService
}

func NewLedgerService(store Store, goals *GoalService) *LedgerService {
	return &LedgerService{store: store, goals: goals}
}

// Deposit validates and rounds the amount, appends a Deposit entry with
// the user-selected instant and reports whether this deposit achieved
// the goal.
func (s *LedgerService) Deposit(ctx context.Context, goalID int64, amount, notes string, when time.Time) (DepositResult, error) {
	money, err := core.ParseMoney(amount)
	if err != nil {
		return DepositResult{}, fmt.Errorf("parse deposit amount: %w", err)
	}

	item, err := s.store.GetGoalWithTransactions(ctx, goalID)
	if err != nil {
		return DepositResult{}, err
	}
	before := item.SavedAmount()

	txID, err := s.appendTransaction(ctx, goalID, core.TypeDeposit, money, notes, when)
	if err != nil {
		return DepositResult{}, err
	}

	newBalance := core.Money{Cents: before.Cents + money.Cents}
	achieved := before.Cents < item.Goal.TargetAmount.Cents &&
		newBalance.Cents >= item.Goal.TargetAmount.Cents

	if achieved {
		slog.InfoContext(ctx, "Goal achieved",
			"goal_id", goalID,
			"title", item.Goal.Title,
			"balance_cents", newBalance.Cents)
	}

	s.goals.refreshFeed(ctx)
	return DepositResult{TransactionID: txID, NewBalance: newBalance, Achieved: achieved}, nil
}

// Withdraw validates the amount and rejects the operation with
// core.ErrInsufficientFunds when it exceeds the currently saved amount.
// Nothing is persisted on rejection.
func (s *LedgerService) Withdraw(ctx context.Context, goalID int64, amount, notes string, when time.Time) (WithdrawResult, error) {
	money, err := core.ParseMoney(amount)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("parse withdrawal amount: %w", err)
	}

	item, err := s.store.GetGoalWithTransactions(ctx, goalID)
	if err != nil {
		return WithdrawResult{}, err
	}
	balance := item.SavedAmount()

	if money.Cents > balance.Cents {
		return WithdrawResult{}, core.ErrInsufficientFunds
	}

	txID, err := s.appendTransaction(ctx, goalID, core.TypeWithdraw, money, notes, when)
	if err != nil {
		return WithdrawResult{}, err
	}

	s.goals.refreshFeed(ctx)
	return WithdrawResult{
		TransactionID: txID,
		NewBalance:    core.Money{Cents: balance.Cents - money.Cents},
	}, nil
}

// Transactions returns the goal's ledger ordered by timestamp.
func (s *LedgerService) Transactions(ctx context.Context, goalID int64) ([]core.Transaction, error) {
	return s.store.TransactionsForGoal(ctx, goalID)
}

func (s *LedgerService) appendTransaction(ctx context.Context, goalID int64, kind core.TransactionType, amount core.Money, notes string, when time.Time) (int64, error) {
	tx := core.Transaction{
		OwnerGoalID: goalID,
		Type:        kind,
		Timestamp:   when.UnixMilli(),
		Amount:      amount,
		Notes:       notes,
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	txID, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", kind, err)
	}
	return txID, nil
}
