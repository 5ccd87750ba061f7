package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldGoalID      = "goal_id"
	FieldAppWidgetID = "app_widget_id"
	FieldBackupPath  = "backup_path"
	FieldEventKind   = "event_kind"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentReminder = "reminder"
	ComponentBackup   = "backup"
	ComponentSheets   = "sheets"
)
