package models

import "time"

// Content is the durable, user-visible artifact. It is immutable once
// created (only deletion is allowed) and always backed by a COMPLETED upload.
type Content struct {
	ID      string
	SpaceID string
	// UploadID references the originating upload; at most one content row
	// may exist per upload.
	UploadID string
	Type     ContentType
	// URL points at the stored object for binary types, empty for notes.
	URL string
	// Text holds the note body for NOTE type, empty otherwise.
	Text       string
	Size       int64
	Visibility Visibility
	CreatedAt  time.Time
}
