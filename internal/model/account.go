package model

import "time"

// Account represents a player account stored in the database.
// LoggedIn holds the id of the world node that currently owns the
// session, 0 when nobody does.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	LoggedIn     int
	LoginTime    *time.Time
	BannedUntil  *time.Time
	MutedUntil   *time.Time
	StaffLevel   int
}

// Banned сообщает, действует ли бан на момент now.
func (a *Account) Banned(now time.Time) bool {
	return a.BannedUntil != nil && a.BannedUntil.After(now)
}
