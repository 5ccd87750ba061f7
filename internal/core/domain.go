package core

import (
	"errors"
	"strings"
	"time"
)

// GoalPriority orders goals in the priority sort. Higher value sorts first.
type GoalPriority int

const (
	PriorityLow    GoalPriority = 1
	PriorityNormal GoalPriority = 2
	PriorityHigh   GoalPriority = 3
)

func (p GoalPriority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityLow:
		return "Low"
	default:
		return "Normal"
	}
}

// ParseGoalPriority maps a priority name to its value. Unknown names
// fall back to Normal, matching how older backups are imported.
func ParseGoalPriority(s string) GoalPriority {
	switch s {
	case "High":
		return PriorityHigh
	case "Low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// TransactionType is the kind of ledger entry. TypeInvalid is the zero
// value and must never reach the store.
type TransactionType int

const (
	TypeInvalid TransactionType = iota
	TypeDeposit
	TypeWithdraw
)

func (t TransactionType) String() string {
	switch t {
	case TypeDeposit:
		return "Deposit"
	case TypeWithdraw:
		return "Withdraw"
	default:
		return "Invalid"
	}
}

// ParseTransactionType parses a stored type string. Unrecognized values
// are an error rather than silently defaulting.
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "Deposit":
		return TypeDeposit, nil
	case "Withdraw":
		return TypeWithdraw, nil
	default:
		return TypeInvalid, ErrInvalidTransactionType
	}
}

type (
	// Goal is a savings target. TargetAmount is stored in cents.
	Goal struct {
		ID              int64
		Title           string
		TargetAmount    Money
		Deadline        string // display-format calendar date, e.g. "20/10/2026"
		GoalImage       []byte // optional
		AdditionalNotes string
		Priority        GoalPriority
		Reminder        bool
		GoalIconID      string // optional
		Archived        bool
	}

	// Transaction is an immutable deposit or withdrawal owned by one goal.
	Transaction struct {
		ID          int64
		OwnerGoalID int64
		Type        TransactionType
		Timestamp   int64 // epoch millis of the user-selected instant
		Amount      Money
		Notes       string
	}
)

var (
	ErrEmptyTitle             = errors.New("goal title cannot be empty")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidDeadline        = errors.New("invalid deadline")
	ErrInsufficientFunds      = errors.New("withdrawal exceeds currently saved amount")
	ErrGoalNotFound           = errors.New("goal not found")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if len(g.Title) > 200 {
		return errors.New("goal title too long (max 200 characters)")
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(g.Deadline) == "" {
		return ErrInvalidDeadline
	}
	switch g.Priority {
	case PriorityLow, PriorityNormal, PriorityHigh:
	default:
		return errors.New("invalid goal priority")
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.OwnerGoalID <= 0 {
		return ErrGoalNotFound
	}
	switch t.Type {
	case TypeDeposit, TypeWithdraw:
	default:
		return ErrInvalidTransactionType
	}
	if t.Timestamp <= 0 {
		return errors.New("transaction timestamp must be set")
	}
	return t.Amount.Validate()
}

// TransactionDate renders the transaction instant as a local calendar date.
func (t Transaction) TransactionDate() string {
	return time.UnixMilli(t.Timestamp).Format("Jan 2, 2006")
}
