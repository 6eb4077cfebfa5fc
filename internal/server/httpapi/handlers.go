package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/services"
)

// relayMemoryLimit bounds how much of a multipart body is held in memory
// before spilling to temp files.
const relayMemoryLimit = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "internal error", "error", err.Error())
		msg = "internal error"
	}
	writeJSONError(w, status, msg)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(common.ErrValidation, err)
	}
	return nil
}

// --- users ---

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.CreatePseudoUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// the one place the private token goes over the wire
	writeJSON(w, http.StatusCreated, toUserResponse(user, true))
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	spaces, err := s.users.GetUserSpaces(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := toUserResponse(user, false)
	resp.Spaces = toSpaceResponses(spaces)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.users.UpdateUser(r.Context(), user.ID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated, false))
}

// --- spaces ---

func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req createSpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	space, err := s.spaces.Create(r.Context(), user.ID, req.Name, req.Visibility)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSpaceResponse(space))
}

func (s *Server) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	spaces, err := s.spaces.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSpaceResponses(spaces))
}

func (s *Server) handleUpdateSpace(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req updateSpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	space, err := s.spaces.Update(r.Context(), chi.URLParam(r, "id"), user.ID, req.Name, req.Visibility)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSpaceResponse(space))
}

func (s *Server) handleDeleteSpace(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	if err := s.spaces.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{Deleted: true})
}

func (s *Server) handleSpaceContents(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	space, err := s.spaces.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result := make([]contentResponse, 0, len(space.Contents))
	for _, c := range space.Contents {
		result = append(result, toContentResponse(c))
	}
	writeJSON(w, http.StatusOK, result)
}

// --- uploads ---

func (s *Server) handleOpenIntent(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req openIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	upload, err := s.uploads.OpenIntent(r.Context(), user.ID, req.SpaceID, req.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUploadResponse(upload))
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	content, err := s.uploads.Finalize(r.Context(), chi.URLParam(r, "id"), req.URL, req.Size, req.Visibility, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(content))
}

func (s *Server) handleMarkFailed(w http.ResponseWriter, r *http.Request) {
	upload, err := s.uploads.MarkFailed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUploadResponse(upload))
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	uploads, err := s.uploads.ListPending(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result := make([]uploadResponse, 0, len(uploads))
	for _, u := range uploads {
		result = append(result, toUploadResponse(u))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePresign(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	key, url, err := s.uploads.PresignPut(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{Key: key, URL: url})
}

// handleRelay accepts a multipart form (file, spaceId, type, visibility)
// and runs the full storage-then-database pipeline in one request.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	if err := r.ParseMultipartForm(relayMemoryLimit); err != nil {
		s.writeError(w, r, errors.Join(common.ErrValidation, err))
		return
	}

	spaceID := r.FormValue("spaceId")
	if spaceID == "" {
		writeJSONError(w, http.StatusBadRequest, "spaceId is required")
		return
	}

	ctype := models.ContentType(r.FormValue("type"))
	if ctype == "" {
		ctype = models.ContentTypeFile
	}

	visibility := models.Visibility(r.FormValue("visibility"))
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := s.uploads.Relay(r.Context(), user.ID, spaceID, ctype,
		header.Filename, header.Header.Get("Content-Type"), file, visibility, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContentResponse(content))
}

// --- contents ---

func (s *Server) handleCreateDirect(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req createDirectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	content, err := s.contents.CreateDirect(r.Context(), services.DirectContentArgs{
		UserID:     user.ID,
		SpaceID:    req.SpaceID,
		Type:       req.Type,
		URL:        req.URL,
		Text:       req.Text,
		Size:       req.Size,
		Visibility: req.Visibility,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContentResponse(content))
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := s.contents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{Deleted: true})
}

// --- public read surface ---

func (s *Server) handleSpaceBySlug(w http.ResponseWriter, r *http.Request) {
	// a viewer holding a valid token sees their own private spaces too
	viewerID := ""
	if user, err := s.users.Authenticate(r.Context(), bearerToken(r)); err == nil {
		viewerID = user.ID
	}

	space, err := s.spaces.GetBySlug(r.Context(), chi.URLParam(r, "slug"), viewerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSpaceResponse(space))
}

func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.users.GetPublicProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}
