// Package store persists users, groups, chores, chore logs and sessions.
//
// Lookups return (nil, nil) when the row does not exist. Errors are wrapped
// driver errors; callers that care about constraint failures check them with
// database.IsUniqueViolation.
package store

import "github.com/dukerupert/choretally/internal/database"

// Stores bundles every store over one database handle.
type Stores struct {
	Users    *UserStore
	Groups   *GroupStore
	Chores   *ChoreStore
	Logs     *ChoreLogStore
	Sessions *SessionStore
}

func New(db *database.DB) *Stores {
	return &Stores{
		Users:    NewUserStore(db),
		Groups:   NewGroupStore(db),
		Chores:   NewChoreStore(db),
		Logs:     NewChoreLogStore(db),
		Sessions: NewSessionStore(db),
	}
}
