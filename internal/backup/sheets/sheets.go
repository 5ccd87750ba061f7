// Package sheets mirrors backup snapshots into a Google Sheets
// spreadsheet so goals can be inspected outside the app.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"greenstash/internal/backup"
	"greenstash/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	goalsSheet    string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Goals")
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	goalsSheet := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if goalsSheet == "" {
		goalsSheet = "Goals"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		goalsSheet:    goalsSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

var goalsHeader = []any{
	"Goal ID", "Title", "Target", "Saved", "Remaining", "Progress %",
	"Deadline", "Priority", "Reminder", "Archived", "Transactions",
}

// Export overwrites the goals sheet with one summary row per goal in the
// snapshot. Amounts are written as decimal strings.
func (c *Client) Export(ctx context.Context, items []backup.GoalItem) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(items)+1)
	values = append(values, goalsHeader)
	for _, item := range items {
		values = append(values, goalRow(item))
	}

	// Clear stale rows from a previous, longer export first.
	clearRange := fmt.Sprintf("%s!A:K", c.goalsSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.goalsSheet, err)
	}

	writeRange := fmt.Sprintf("%s!A1", c.goalsSheet)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", c.goalsSheet, err)
	}

	slog.InfoContext(ctx, "Exported goals to spreadsheet",
		"goals", len(items),
		"sheet", c.goalsSheet)
	return nil
}

func goalRow(item backup.GoalItem) []any {
	var saved int64
	for _, t := range item.Transactions {
		switch t.Type {
		case core.TypeDeposit.String():
			saved += t.Amount
		case core.TypeWithdraw.String():
			saved -= t.Amount
		}
	}
	remaining := item.Goal.TargetAmount - saved
	if remaining < 0 {
		remaining = 0
	}
	progress := 0.0
	if item.Goal.TargetAmount > 0 {
		progress = float64(saved) / float64(item.Goal.TargetAmount) * 100
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
	}

	return []any{
		item.Goal.GoalID,
		item.Goal.Title,
		core.Money{Cents: item.Goal.TargetAmount}.Decimal(),
		core.Money{Cents: saved}.Decimal(),
		core.Money{Cents: remaining}.Decimal(),
		fmt.Sprintf("%.1f", progress),
		item.Goal.Deadline,
		item.Goal.Priority,
		item.Goal.Reminder,
		item.Goal.Archived,
		len(item.Transactions),
	}
}
