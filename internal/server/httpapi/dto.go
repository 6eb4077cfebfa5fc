package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/services"
)

// Explicit request/response structs per operation; nothing reaches the
// service layer untyped.

type updateUserRequest struct {
	Name string `json:"name"`
}

type createSpaceRequest struct {
	Name       string            `json:"name"`
	Visibility models.Visibility `json:"visibility"`
}

type updateSpaceRequest struct {
	Name       string            `json:"name,omitempty"`
	Visibility models.Visibility `json:"visibility,omitempty"`
}

type openIntentRequest struct {
	SpaceID string             `json:"spaceId,omitempty"`
	Type    models.ContentType `json:"type"`
}

type finalizeRequest struct {
	URL        string            `json:"url"`
	Size       int64             `json:"size"`
	Visibility models.Visibility `json:"visibility"`
	Text       string            `json:"text,omitempty"`
}

type createDirectRequest struct {
	SpaceID    string             `json:"spaceId"`
	Type       models.ContentType `json:"type"`
	URL        string             `json:"url,omitempty"`
	Text       string             `json:"text,omitempty"`
	Size       int64              `json:"size,omitempty"`
	Visibility models.Visibility  `json:"visibility"`
}

type userResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	IsComplete   bool            `json:"isComplete"`
	PrivateToken string          `json:"privateToken,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	Spaces       []spaceResponse `json:"spaces,omitempty"`
}

type spaceResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	Visibility models.Visibility `json:"visibility"`
	CreatedAt  time.Time         `json:"createdAt"`
	Contents   []contentResponse `json:"contents,omitempty"`
}

type uploadResponse struct {
	ID        string              `json:"id"`
	SpaceID   string              `json:"spaceId,omitempty"`
	Type      models.ContentType  `json:"type"`
	Status    models.UploadStatus `json:"status"`
	URL       string              `json:"url,omitempty"`
	Size      int64               `json:"size"`
	CreatedAt time.Time           `json:"createdAt"`
}

type contentResponse struct {
	ID         string             `json:"id"`
	SpaceID    string             `json:"spaceId"`
	UploadID   string             `json:"uploadId"`
	Type       models.ContentType `json:"type"`
	URL        string             `json:"url,omitempty"`
	Text       string             `json:"text,omitempty"`
	Size       int64              `json:"size"`
	Visibility models.Visibility  `json:"visibility"`
	CreatedAt  time.Time          `json:"createdAt"`
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

type profileResponse struct {
	Name   string          `json:"name"`
	Slug   string          `json:"slug"`
	Spaces []spaceResponse `json:"spaces"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *models.User, includeToken bool) userResponse {
	resp := userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Slug:       u.Slug,
		IsComplete: u.IsComplete,
		CreatedAt:  u.CreatedAt,
	}
	if includeToken {
		resp.PrivateToken = u.PrivateToken
	}
	return resp
}

func toSpaceResponse(s *models.Space) spaceResponse {
	resp := spaceResponse{
		ID:         s.ID,
		Name:       s.Name,
		Slug:       s.Slug,
		Visibility: s.Visibility,
		CreatedAt:  s.CreatedAt,
	}
	for _, c := range s.Contents {
		resp.Contents = append(resp.Contents, toContentResponse(c))
	}
	return resp
}

func toSpaceResponses(spaces []*models.Space) []spaceResponse {
	result := make([]spaceResponse, 0, len(spaces))
	for _, s := range spaces {
		result = append(result, toSpaceResponse(s))
	}
	return result
}

func toUploadResponse(u *models.Upload) uploadResponse {
	return uploadResponse{
		ID:        u.ID,
		SpaceID:   u.SpaceID.String,
		Type:      u.Type,
		Status:    u.Status,
		URL:       u.FileURL,
		Size:      u.Size,
		CreatedAt: u.CreatedAt,
	}
}

func toContentResponse(c *models.Content) contentResponse {
	return contentResponse{
		ID:         c.ID,
		SpaceID:    c.SpaceID,
		UploadID:   c.UploadID,
		Type:       c.Type,
		URL:        c.URL,
		Text:       c.Text,
		Size:       c.Size,
		Visibility: c.Visibility,
		CreatedAt:  c.CreatedAt,
	}
}

func toProfileResponse(p *services.PublicProfile) profileResponse {
	return profileResponse{
		Name:   p.Name,
		Slug:   p.Slug,
		Spaces: toSpaceResponses(p.Spaces),
	}
}

// statusForError maps domain errors to HTTP status codes. Raw
// infrastructure errors become 500s with a generic message.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, common.ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
