package model

import "time"

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SharingCode string    `json:"sharing_code"`
	Agreement   string    `json:"agreement"`
	CreatedBy   *int64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupSummary is the public view of a group returned by sharing-code lookups.
type GroupSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Membership struct {
	ID       int64     `json:"id"`
	GroupID  int64     `json:"group_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Member is a membership joined with its user, in join order.
type Member struct {
	MembershipID int64     `json:"membership_id"`
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	JoinedAt     time.Time `json:"joined_at"`
}

// JoinResult reports the outcome of joining a group. Joining a group the
// user already belongs to succeeds with AlreadyMember set.
type JoinResult struct {
	GroupID       int64 `json:"group_id"`
	AlreadyMember bool  `json:"already_member"`
}

// GroupDetail is a group with its members, chores and logs (newest first).
type GroupDetail struct {
	Group   Group      `json:"group"`
	Members []Member   `json:"members"`
	Chores  []Chore    `json:"chores"`
	Logs    []LogEntry `json:"logs"`
}
