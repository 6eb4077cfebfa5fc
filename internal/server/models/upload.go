package models

import (
	"database/sql"
	"time"
)

// ContentType classifies what an upload (and its resulting content) holds.
type ContentType string

const (
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeFile  ContentType = "FILE"
	ContentTypeNote  ContentType = "NOTE"
)

func (t ContentType) Valid() bool {
	return t == ContentTypeImage || t == ContentTypeFile || t == ContentTypeNote
}

// Binary reports whether the type carries bytes in object storage
// (as opposed to inline note text).
func (t ContentType) Binary() bool {
	return t == ContentTypeImage || t == ContentTypeFile
}

// UploadStatus is the lifecycle state of an upload intent.
// PENDING is the only non-terminal state.
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "PENDING"
	UploadStatusCompleted UploadStatus = "COMPLETED"
	UploadStatusFailed    UploadStatus = "FAILED"
)

// Terminal reports whether no further transition may change the status.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// Upload tracks one write-to-storage-then-materialize operation.
// It is created PENDING and moves to exactly one of COMPLETED or FAILED.
type Upload struct {
	ID     string
	UserID string
	// SpaceID may be empty while the client has not picked a space yet.
	SpaceID sql.NullString
	Type    ContentType
	Status  UploadStatus
	// FileURL and Size are set on completion only. NOTE uploads keep an
	// empty URL and derive Size from the text length.
	FileURL   string
	Size      int64
	CreatedAt time.Time
}
