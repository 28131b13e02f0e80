package model

import "time"

type Chore struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Freeform    bool      `json:"freeform"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ChoreLog struct {
	ID        int64     `json:"id"`
	ChoreID   int64     `json:"chore_id"`
	UserID    int64     `json:"user_id"`
	GroupID   int64     `json:"group_id"`
	UsedTimer *bool     `json:"used_timer"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry is a chore log joined with its chore and user for display.
type LogEntry struct {
	ID              int64     `json:"id"`
	ChoreID         int64     `json:"chore_id"`
	ChoreName       string    `json:"chore_name"`
	ChorePoints     int       `json:"chore_points"`
	Freeform        bool      `json:"freeform"`
	UserID          int64     `json:"user_id"`
	UserDisplayName string    `json:"user_display_name"`
	UsedTimer       *bool     `json:"used_timer"`
	CreatedAt       time.Time `json:"created_at"`
}

// PointsLog is the minimal log shape needed for point aggregation.
type PointsLog struct {
	UserID    int64
	Points    int
	CreatedAt time.Time
}

// UserPoints is one row of a leaderboard.
type UserPoints struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	TotalPoints int    `json:"total_points"`
}
