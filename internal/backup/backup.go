// Package backup exports the goal and transaction data to portable JSON
// and CSV snapshots and restores them. Snapshots carry a schema version
// so future formats can keep reading old files.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"greenstash/internal/core"
	"greenstash/internal/services"
)

// SchemaVersion is the current backup schema version.
const SchemaVersion = 1

// Snapshot is the top level backup document.
type Snapshot struct {
	Version   int        `json:"version"`
	Timestamp int64      `json:"timestamp"`
	Data      []GoalItem `json:"data"`
}

// GoalItem pairs a goal with its full transaction history.
type GoalItem struct {
	Goal         GoalRecord          `json:"goal"`
	Transactions []TransactionRecord `json:"transactions"`
}

// GoalRecord is the serialized form of a goal. Amounts are integer cents.
type GoalRecord struct {
	GoalID          int64  `json:"goalId"`
	Title           string `json:"title"`
	TargetAmount    int64  `json:"targetAmount"`
	Deadline        string `json:"deadline"`
	GoalImage       []byte `json:"goalImage,omitempty"`
	AdditionalNotes string `json:"additionalNotes"`
	Priority        string `json:"priority"`
	Reminder        bool   `json:"reminder"`
	GoalIconID      string `json:"goalIconId,omitempty"`
	Archived        bool   `json:"archived"`
}

// TransactionRecord is the serialized form of a ledger entry.
type TransactionRecord struct {
	TransactionID int64  `json:"transactionId"`
	Type          string `json:"type"`
	Timestamp     int64  `json:"timeStamp"`
	Amount        int64  `json:"amount"`
	Notes         string `json:"notes"`
}

// Manager creates and restores backups against the goal store.
type Manager struct {
	store services.GoalStore
	now   func() time.Time
}

func NewManager(store services.GoalStore) *Manager {
	return &Manager{store: store, now: time.Now}
}

// ExportJSON serializes every goal, archived ones included, with its
// transactions into a versioned JSON document.
func (m *Manager) ExportJSON(ctx context.Context) ([]byte, error) {
	items, err := m.Collect(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot{
		Version:   SchemaVersion,
		Timestamp: m.now().UnixMilli(),
		Data:      items,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}

	slog.InfoContext(ctx, "Created JSON backup", "goals", len(items))
	return data, nil
}

// ExportJSONToFile writes the JSON backup into dir and returns its path.
func (m *Manager) ExportJSONToFile(ctx context.Context, dir string) (string, error) {
	data, err := m.ExportJSON(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("GreenStash-Backup(%d).json", m.now().UnixMilli())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup file: %w", err)
	}

	slog.InfoContext(ctx, "Wrote backup file", "path", path)
	return path, nil
}

// RestoreJSON parses a backup document and inserts its goals and
// transactions. Restored goals get fresh ids, the snapshot ids only tie
// transactions to their goal within the file.
func (m *Manager) RestoreJSON(ctx context.Context, data []byte) error {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}
	if snapshot.Version != SchemaVersion {
		return fmt.Errorf("unsupported backup version %d", snapshot.Version)
	}
	if snapshot.Data == nil {
		return fmt.Errorf("backup contains no data")
	}

	items, err := toDomain(snapshot.Data)
	if err != nil {
		return err
	}

	if err := m.store.InsertGoalWithTransactions(ctx, items); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	slog.InfoContext(ctx, "Restored JSON backup",
		"goals", len(items),
		"created_at", time.UnixMilli(snapshot.Timestamp))
	return nil
}

// Collect gathers every goal, archived ones included, in backup form.
// Alternate exporters build on this instead of re-reading the store.
func (m *Manager) Collect(ctx context.Context) ([]GoalItem, error) {
	active, err := m.store.ListGoals(ctx, core.DefaultGoalFilter())
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	archived, err := m.store.ListArchivedGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archived goals: %w", err)
	}

	items := make([]GoalItem, 0, len(active)+len(archived))
	for _, g := range append(active, archived...) {
		items = append(items, toRecord(g))
	}
	return items, nil
}

func toRecord(item core.GoalWithTransactions) GoalItem {
	out := GoalItem{
		Goal: GoalRecord{
			GoalID:          item.Goal.ID,
			Title:           item.Goal.Title,
			TargetAmount:    item.Goal.TargetAmount.Cents,
			Deadline:        item.Goal.Deadline,
			GoalImage:       item.Goal.GoalImage,
			AdditionalNotes: item.Goal.AdditionalNotes,
			Priority:        item.Goal.Priority.String(),
			Reminder:        item.Goal.Reminder,
			GoalIconID:      item.Goal.GoalIconID,
			Archived:        item.Goal.Archived,
		},
		Transactions: make([]TransactionRecord, 0, len(item.Transactions)),
	}
	for _, t := range item.Transactions {
		out.Transactions = append(out.Transactions, TransactionRecord{
			TransactionID: t.ID,
			Type:          t.Type.String(),
			Timestamp:     t.Timestamp,
			Amount:        t.Amount.Cents,
			Notes:         t.Notes,
		})
	}
	return out
}

func toDomain(items []GoalItem) ([]core.GoalWithTransactions, error) {
	out := make([]core.GoalWithTransactions, 0, len(items))
	for _, item := range items {
		goal := core.Goal{
			Title:           item.Goal.Title,
			TargetAmount:    core.Money{Cents: item.Goal.TargetAmount},
			Deadline:        item.Goal.Deadline,
			GoalImage:       item.Goal.GoalImage,
			AdditionalNotes: item.Goal.AdditionalNotes,
			Priority:        core.ParseGoalPriority(item.Goal.Priority),
			Reminder:        item.Goal.Reminder,
			GoalIconID:      item.Goal.GoalIconID,
			Archived:        item.Goal.Archived,
		}
		if err := goal.Validate(); err != nil {
			return nil, fmt.Errorf("invalid goal %q in backup: %w", item.Goal.Title, err)
		}

		txs := make([]core.Transaction, 0, len(item.Transactions))
		for _, t := range item.Transactions {
			txType, err := core.ParseTransactionType(t.Type)
			if err != nil {
				return nil, fmt.Errorf("invalid transaction in backup for goal %q: %w", item.Goal.Title, err)
			}
			tx := core.Transaction{
				// Owner is reassigned on insert; set so validation passes.
				OwnerGoalID: item.Goal.GoalID,
				Type:        txType,
				Timestamp:   t.Timestamp,
				Amount:      core.Money{Cents: t.Amount},
				Notes:       t.Notes,
			}
			if err := tx.Validate(); err != nil {
				return nil, fmt.Errorf("invalid transaction in backup for goal %q: %w", item.Goal.Title, err)
			}
			txs = append(txs, tx)
		}
		out = append(out, core.GoalWithTransactions{Goal: goal, Transactions: txs})
	}
	return out, nil
}
