// Package storage abstracts the external object store behind a uniform
// interface so the upload/content pipeline stays provider-agnostic.
package storage

import (
	"context"
	"io"
)

// PutResult describes a successfully stored blob.
type PutResult struct {
	// Key is the provider-side object identifier, used for compensation deletes.
	Key string
	// URL is the publicly fetchable address of the object.
	URL string
	// Size is the confirmed stored byte length.
	Size int64
}

// BlobStore moves bytes to and from the object store. Two pathways exist:
// Put relays bytes through the server, PresignPut lets the client upload
// directly against a signed URL. Both address objects by the same
// deterministic key, so repeated writes for one upload overwrite.
type BlobStore interface {
	// Put stores the blob and returns its key, public URL and confirmed size.
	// Any provider failure (rejection, timeout, auth) is reported as
	// common.ErrStorage; there is no partial-success state.
	Put(ctx context.Context, ownerID, spaceID, uploadID, filename, contentType string, body io.Reader) (*PutResult, error)

	// Delete removes the object best-effort. "Already gone" is not an error;
	// deletion is a cleanup aid, not a consistency guarantee.
	Delete(ctx context.Context, key string, kind string) error

	// PresignPut returns the object key and a short-lived URL the client can
	// PUT bytes to directly.
	PresignPut(ctx context.Context, ownerID, spaceID, uploadID string) (key string, url string, err error)
}

// ObjectKey derives the deterministic storage key for an upload.
// Keyed by (owner, space, upload) so a retried put for the same upload id
// overwrites rather than duplicates.
func ObjectKey(ownerID, spaceID, uploadID string) string {
	return "users/" + ownerID + "/spaces/" + spaceID + "/" + uploadID
}
