package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"greenstash/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists goals, transactions and widget mappings in a
// single local database file. Single writer, as the app runs in one process.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// foreign_keys must be set per connection for the cascade constraints.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertGoal appends a new goal and returns its assigned id.
func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO saving_goal
		 (title, targetAmount, deadline, goalImage, additionalNotes, priority, reminder, goalIconId, archived)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Title, g.TargetAmount.Cents, g.Deadline, g.GoalImage, g.AdditionalNotes,
		int(g.Priority), g.Reminder, nullString(g.GoalIconID), g.Archived)
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("goal insert id: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved to SQLite",
		"id", id,
		"title", g.Title,
		"target_cents", g.TargetAmount.Cents)

	return id, nil
}

// UpdateGoal replaces the full record keyed by goal id.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE saving_goal
		 SET title = ?, targetAmount = ?, deadline = ?, goalImage = ?, additionalNotes = ?,
		     priority = ?, reminder = ?, goalIconId = ?, archived = ?
		 WHERE goalId = ?`,
		g.Title, g.TargetAmount.Cents, g.Deadline, g.GoalImage, g.AdditionalNotes,
		int(g.Priority), g.Reminder, nullString(g.GoalIconID), g.Archived, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal rows: %w", err)
	}
	if n == 0 {
		return core.ErrGoalNotFound
	}
	return nil
}

// DeleteGoal removes the goal together with all of its transactions and any
// widget rows pointing at it, in one database transaction. The explicit
// child deletes keep the cascade deterministic even on connections where
// the foreign_keys pragma was not applied.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, goalID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete goal: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM "transaction" WHERE ownerGoalId = ?`, goalID); err != nil {
		return fmt.Errorf("delete goal transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM widget_data WHERE goalId = ?`, goalID); err != nil {
		return fmt.Errorf("delete goal widget rows: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM saving_goal WHERE goalId = ?`, goalID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal rows: %w", err)
	}
	if n == 0 {
		return core.ErrGoalNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal deleted with cascade", "id", goalID)
	return nil
}

const goalColumns = `goalId, title, targetAmount, deadline, goalImage, additionalNotes,
	priority, reminder, goalIconId, archived`

// GetGoalByID returns core.ErrGoalNotFound when the id does not exist.
func (r *SQLiteRepository) GetGoalByID(ctx context.Context, goalID int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM saving_goal WHERE goalId = ?`, goalID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal by id: %w", err)
	}
	return g, nil
}

// GetGoalWithTransactions loads a goal and its full transaction history.
func (r *SQLiteRepository) GetGoalWithTransactions(ctx context.Context, goalID int64) (core.GoalWithTransactions, error) {
	goal, err := r.GetGoalByID(ctx, goalID)
	if err != nil {
		return core.GoalWithTransactions{}, err
	}
	txs, err := r.TransactionsForGoal(ctx, goalID)
	if err != nil {
		return core.GoalWithTransactions{}, err
	}
	return core.GoalWithTransactions{Goal: goal, Transactions: txs}, nil
}

// ListGoals returns active (non-archived) goals with their transactions,
// ordered according to the filter.
func (r *SQLiteRepository) ListGoals(ctx context.Context, filter core.GoalFilter) ([]core.GoalWithTransactions, error) {
	query := `SELECT ` + goalColumns + ` FROM saving_goal WHERE archived = 0 ORDER BY ` + orderClause(filter)
	return r.listGoalsWithTransactions(ctx, query)
}

// ListArchivedGoals returns archived goals in insertion order.
func (r *SQLiteRepository) ListArchivedGoals(ctx context.Context) ([]core.GoalWithTransactions, error) {
	query := `SELECT ` + goalColumns + ` FROM saving_goal WHERE archived = 1 ORDER BY goalId ASC`
	return r.listGoalsWithTransactions(ctx, query)
}

func (r *SQLiteRepository) listGoalsWithTransactions(ctx context.Context, query string) ([]core.GoalWithTransactions, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	result := make([]core.GoalWithTransactions, 0, len(goals))
	for _, g := range goals {
		txs, err := r.TransactionsForGoal(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, core.GoalWithTransactions{Goal: g, Transactions: txs})
	}
	return result, nil
}

func orderClause(filter core.GoalFilter) string {
	dir := "ASC"
	if filter.Order == core.Descending {
		dir = "DESC"
	}
	switch filter.Field {
	case core.SortByTitle:
		return "title COLLATE NOCASE " + dir
	case core.SortByAmount:
		return "targetAmount " + dir
	case core.SortByPriority:
		return "priority " + dir + ", goalId ASC"
	default:
		return "goalId " + dir
	}
}

// InsertTransaction appends an immutable ledger entry. Existing rows are
// never updated.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if t.Type != core.TypeDeposit && t.Type != core.TypeWithdraw {
		return 0, core.ErrInvalidTransactionType
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO "transaction" (ownerGoalId, type, timeStamp, amount, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		t.OwnerGoalID, t.Type.String(), t.Timestamp, t.Amount.Cents, t.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction appended",
		"id", id,
		"goal_id", t.OwnerGoalID,
		"type", t.Type.String(),
		"amount_cents", t.Amount.Cents)

	return id, nil
}

// TransactionsForGoal returns the goal's ledger ordered by timestamp.
func (r *SQLiteRepository) TransactionsForGoal(ctx context.Context, goalID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transactionId, ownerGoalId, type, timeStamp, amount, notes
		 FROM "transaction" WHERE ownerGoalId = ? ORDER BY timeStamp ASC, transactionId ASC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			typeStr string
		)
		if err := rows.Scan(&t.ID, &t.OwnerGoalID, &typeStr, &t.Timestamp, &t.Amount.Cents, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type, err = core.ParseTransactionType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// SetWidgetData maps a home-screen widget instance to a goal, replacing any
// previous mapping for that widget.
func (r *SQLiteRepository) SetWidgetData(ctx context.Context, appWidgetID int, goalID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO widget_data (appWidgetId, goalId) VALUES (?, ?)
		 ON CONFLICT (appWidgetId) DO UPDATE SET goalId = excluded.goalId`,
		appWidgetID, goalID)
	if err != nil {
		return fmt.Errorf("set widget data: %w", err)
	}
	return nil
}

// GetWidgetGoalID returns the goal a widget instance displays.
func (r *SQLiteRepository) GetWidgetGoalID(ctx context.Context, appWidgetID int) (int64, error) {
	var goalID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT goalId FROM widget_data WHERE appWidgetId = ?`, appWidgetID).Scan(&goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrGoalNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get widget data: %w", err)
	}
	return goalID, nil
}

// DeleteWidgetData removes a widget instance mapping.
func (r *SQLiteRepository) DeleteWidgetData(ctx context.Context, appWidgetID int) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM widget_data WHERE appWidgetId = ?`, appWidgetID); err != nil {
		return fmt.Errorf("delete widget data: %w", err)
	}
	return nil
}

// ListWidgetBindings returns every widget to goal mapping.
func (r *SQLiteRepository) ListWidgetBindings(ctx context.Context) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT appWidgetId, goalId FROM widget_data`)
	if err != nil {
		return nil, fmt.Errorf("list widget bindings: %w", err)
	}
	defer rows.Close()

	bindings := make(map[int]int64)
	for rows.Next() {
		var appWidgetID int
		var goalID int64
		if err := rows.Scan(&appWidgetID, &goalID); err != nil {
			return nil, fmt.Errorf("scan widget binding: %w", err)
		}
		bindings[appWidgetID] = goalID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate widget bindings: %w", err)
	}
	return bindings, nil
}

// InsertGoalWithTransactions restores a backup snapshot: each goal is
// inserted fresh and its transactions reattached to the new id.
func (r *SQLiteRepository) InsertGoalWithTransactions(ctx context.Context, items []core.GoalWithTransactions) error {
	for _, item := range items {
		goalID, err := r.InsertGoal(ctx, item.Goal)
		if err != nil {
			return err
		}
		for _, t := range item.Transactions {
			t.OwnerGoalID = goalID
			if _, err := r.InsertTransaction(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// GoalsWithReminder returns active goals whose reminder flag is set, used
// to restore platform reminders on boot.
func (r *SQLiteRepository) GoalsWithReminder(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM saving_goal WHERE reminder = 1 AND archived = 0 ORDER BY goalId ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reminder goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g        core.Goal
		priority int
		iconID   sql.NullString
	)
	err := row.Scan(&g.ID, &g.Title, &g.TargetAmount.Cents, &g.Deadline, &g.GoalImage,
		&g.AdditionalNotes, &priority, &g.Reminder, &iconID, &g.Archived)
	if err != nil {
		return core.Goal{}, err
	}
	g.Priority = core.GoalPriority(priority)
	if iconID.Valid {
		g.GoalIconID = iconID.String
	}
	return g, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
