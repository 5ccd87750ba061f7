package core

// GoalWithTransactions pairs a goal with its full transaction history.
// Progress is always derived from the ledger here; no saved total is
// ever persisted, so the balance cannot drift from the transactions.
type GoalWithTransactions struct {
	Goal         Goal
	Transactions []Transaction
}

// SavedAmount is the derived balance: deposits minus withdrawals.
// Entries with an invalid type are ignored rather than counted.
func (g GoalWithTransactions) SavedAmount() Money {
	var cents int64
	for _, tx := range g.Transactions {
		switch tx.Type {
		case TypeDeposit:
			cents += tx.Amount.Cents
		case TypeWithdraw:
			cents -= tx.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// RemainingAmount is how much is still missing, floored at zero.
func (g GoalWithTransactions) RemainingAmount() Money {
	remaining := g.Goal.TargetAmount.Cents - g.SavedAmount().Cents
	if remaining < 0 {
		remaining = 0
	}
	return Money{Cents: remaining}
}

// IsAchieved reports whether the saved amount has reached the target.
func (g GoalWithTransactions) IsAchieved() bool {
	return g.SavedAmount().Cents >= g.Goal.TargetAmount.Cents
}

// ProgressPercent returns saved/target clamped to [0, 100], for widgets
// and progress bars.
func (g GoalWithTransactions) ProgressPercent() float64 {
	if g.Goal.TargetAmount.Cents <= 0 {
		return 0
	}
	pct := float64(g.SavedAmount().Cents) / float64(g.Goal.TargetAmount.Cents) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
