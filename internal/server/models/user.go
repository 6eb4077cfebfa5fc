// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the pseudo-anonymous identity anchor. There is no password:
// PrivateToken is an opaque capability credential handed out on first visit.
type User struct {
	ID   string
	Name string
	// Slug is the globally unique URL handle, derived from Name once the
	// user confirms it. Starts out as a throwaway random slug.
	Slug string
	// PrivateToken authenticates every mutating call as this user.
	PrivateToken string
	// IsComplete flips to true once the user has confirmed their name.
	IsComplete bool
	CreatedAt  time.Time
}
