package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published to the goal events queue.
const (
	EventGoalDeleted   = "goal.deleted"
	EventWidgetRefresh = "widget.refresh"
	EventReminderDue   = "reminder.due"
)

// GoalEventMessage is a lightweight notification about a committed goal
// mutation. It carries only the kind and goal ID, consumers fetch whatever
// state they need from the database.
type GoalEventMessage struct {
	Kind      string    `json:"kind"`
	GoalID    int64     `json:"goal_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewGoalEventMessage creates an event message with the current timestamp
func NewGoalEventMessage(kind string, goalID int64) *GoalEventMessage {
	return &GoalEventMessage{
		Kind:      kind,
		GoalID:    goalID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *GoalEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// GoalEventMessageFromJSON creates a message from JSON bytes
func GoalEventMessageFromJSON(data []byte) (*GoalEventMessage, error) {
	var msg GoalEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
