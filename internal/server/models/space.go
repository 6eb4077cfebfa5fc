package models

import "time"

// Visibility marks a space or content item as reachable by anyone or
// only by its owner.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityPublic  Visibility = "PUBLIC"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Space is a named, owned collection of content. Slug is globally unique.
type Space struct {
	ID         string
	UserID     string
	Name       string
	Slug       string
	Visibility Visibility
	CreatedAt  time.Time

	// Contents is populated on read paths that include the space's items.
	Contents []*Content
}
