package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
)

var csvHeader = []string{
	"Goal ID",
	"Title",
	"Target Amount",
	"Deadline",
	"Priority",
	"Reminder",
	"Goal Icon ID",
	"Archived",
	"Additional Notes",
	"Transaction ID",
	"Type",
	"Timestamp",
	"Amount",
	"Notes",
}

// ExportCSV serializes every goal into a flat CSV snapshot. A goal with
// transactions produces one row per transaction, a goal without any
// produces a single row with empty transaction columns. Amounts are
// integer cents.
func (m *Manager) ExportCSV(ctx context.Context) ([]byte, error) {
	items, err := m.Collect(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Schema Version", strconv.Itoa(SchemaVersion)},
		{"Timestamp", strconv.FormatInt(m.now().UnixMilli(), 10)},
		csvHeader,
	}
	for _, item := range items {
		goalCols := []string{
			strconv.FormatInt(item.Goal.GoalID, 10),
			item.Goal.Title,
			strconv.FormatInt(item.Goal.TargetAmount, 10),
			item.Goal.Deadline,
			item.Goal.Priority,
			strconv.FormatBool(item.Goal.Reminder),
			item.Goal.GoalIconID,
			strconv.FormatBool(item.Goal.Archived),
			item.Goal.AdditionalNotes,
		}
		if len(item.Transactions) == 0 {
			records = append(records, append(goalCols, "", "", "", "", ""))
			continue
		}
		for _, t := range item.Transactions {
			row := make([]string, 0, len(csvHeader))
			row = append(row, goalCols...)
			row = append(row,
				strconv.FormatInt(t.TransactionID, 10),
				t.Type,
				strconv.FormatInt(t.Timestamp, 10),
				strconv.FormatInt(t.Amount, 10),
				t.Notes)
			records = append(records, row)
		}
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	slog.InfoContext(ctx, "Created CSV backup", "goals", len(items))
	return buf.Bytes(), nil
}

// RestoreCSV parses a CSV snapshot and inserts its goals and transactions.
// Rows sharing a goal id are folded back into one goal with its ledger.
func (m *Manager) RestoreCSV(ctx context.Context, data []byte) error {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // preamble rows are shorter than data rows

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 3 {
		return fmt.Errorf("csv backup too short")
	}

	version, err := csvPreamble(records[0], "Schema Version")
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("unsupported backup version %d", version)
	}
	if _, err := csvPreamble(records[1], "Timestamp"); err != nil {
		return err
	}

	var order []int64
	byGoal := make(map[int64]*GoalItem)
	for i, row := range records[3:] {
		if len(row) != len(csvHeader) {
			return fmt.Errorf("csv row %d: got %d columns, want %d", i+4, len(row), len(csvHeader))
		}

		goalID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return fmt.Errorf("csv row %d: bad goal id %q", i+4, row[0])
		}

		item, ok := byGoal[goalID]
		if !ok {
			targetAmount, err := strconv.ParseInt(row[2], 10, 64)
			if err != nil {
				return fmt.Errorf("csv row %d: bad target amount %q", i+4, row[2])
			}
			item = &GoalItem{Goal: GoalRecord{
				GoalID:          goalID,
				Title:           row[1],
				TargetAmount:    targetAmount,
				Deadline:        row[3],
				Priority:        row[4],
				Reminder:        row[5] == "true",
				GoalIconID:      row[6],
				Archived:        row[7] == "true",
				AdditionalNotes: row[8],
			}}
			byGoal[goalID] = item
			order = append(order, goalID)
		}

		if row[9] == "" {
			continue // goal without transactions
		}
		txID, err := strconv.ParseInt(row[9], 10, 64)
		if err != nil {
			return fmt.Errorf("csv row %d: bad transaction id %q", i+4, row[9])
		}
		timestamp, err := strconv.ParseInt(row[11], 10, 64)
		if err != nil {
			return fmt.Errorf("csv row %d: bad timestamp %q", i+4, row[11])
		}
		amount, err := strconv.ParseInt(row[12], 10, 64)
		if err != nil {
			return fmt.Errorf("csv row %d: bad amount %q", i+4, row[12])
		}
		item.Transactions = append(item.Transactions, TransactionRecord{
			TransactionID: txID,
			Type:          row[10],
			Timestamp:     timestamp,
			Amount:        amount,
			Notes:         row[13],
		})
	}

	flat := make([]GoalItem, 0, len(order))
	for _, goalID := range order {
		flat = append(flat, *byGoal[goalID])
	}
	items, err := toDomain(flat)
	if err != nil {
		return err
	}

	if err := m.store.InsertGoalWithTransactions(ctx, items); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	slog.InfoContext(ctx, "Restored CSV backup", "goals", len(items))
	return nil
}

func csvPreamble(row []string, key string) (int64, error) {
	if len(row) != 2 || row[0] != key {
		return 0, fmt.Errorf("csv backup missing %q preamble", key)
	}
	v, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("csv backup: bad %q value %q", key, row[1])
	}
	return v, nil
}
