package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"learnlens/internal/filter"
	"learnlens/internal/logger"
	"learnlens/internal/models"
	"learnlens/internal/service"
)

// KidHandler serves a parent's children, their activity history and the
// filtered views over it
type KidHandler struct {
	kidService    *service.KidService
	viewService   *service.ViewService
	digestService *service.DigestService
	log           *logger.Logger
}

// NewKidHandler creates a new kid handler
func NewKidHandler(kidService *service.KidService, viewService *service.ViewService, digestService *service.DigestService, log *logger.Logger) *KidHandler {
	return &KidHandler{
		kidService:    kidService,
		viewService:   viewService,
		digestService: digestService,
		log:           log,
	}
}

// Assistants lists the known assistants with their colors and the active
// filter profile
func (h *KidHandler) Assistants(w http.ResponseWriter, r *http.Request) {
	tables := h.viewService.Tables()
	names := make([]string, 0, len(tables.AssistantColors))
	for name := range tables.AssistantColors {
		names = append(names, name)
	}
	sort.Strings(names)

	assistants := make([]assistantInfo, len(names))
	for i, name := range names {
		assistants[i] = assistantInfo{Name: name, Color: tables.AssistantColor(name)}
	}

	cfg := h.viewService.Config()
	respondJSON(w, http.StatusOK, profileResponse{
		Assistants:      assistants,
		AssistantFilter: cfg.Assistants || cfg.Cascade,
		CascadeFilters:  cfg.Cascade,
		ScoreFilter:     cfg.ScoreRange,
		UnlockAssistant: cfg.UnlockAssistant,
	})
}

// ListKids lists the parent's children with activity stats
func (h *KidHandler) ListKids(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	kids, err := h.kidService.GetUserKids(user.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Error listing kids", err)
		return
	}
	respondJSON(w, http.StatusOK, kids)
}

// CreateKid adds a child profile
func (h *KidHandler) CreateKid(w http.ResponseWriter, r *http.Request) {
	var req createKidRequest
	if err := decodeJSON(w, r, maxCommandBody, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	user := GetUserFromContext(r.Context())
	kid, err := h.kidService.CreateKid(user.ID, req.Name, req.AvatarColor)
	if err != nil {
		respondWithServiceError(w, h.log, "Error creating kid", err)
		return
	}
	respondJSON(w, http.StatusCreated, kid)
}

// ReplaceActivities stores the request body as the child's history and
// refreshes every open view of that child
func (h *KidHandler) ReplaceActivities(w http.ResponseWriter, r *http.Request) {
	kid, ok := h.ownedKid(w, r)
	if !ok {
		return
	}

	var activities []models.Activity
	if err := decodeJSON(w, r, maxActivitiesBody, &activities); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}

	if err := h.kidService.ReplaceActivities(kid.ID, activities); err != nil {
		respondWithServiceError(w, h.log, "Error storing activities", err)
		return
	}
	h.viewService.Reload(kid.ID, activities)
	respondJSON(w, http.StatusOK, importResponse{Imported: len(activities)})
}

// GetView returns the session's current view of the child's activities
func (h *KidHandler) GetView(w http.ResponseWriter, r *http.Request) {
	kid, ok := h.ownedKid(w, r)
	if !ok {
		return
	}

	v, err := h.viewService.View(sessionID(r), kid.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading view", err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// GetActivity returns one enriched activity by key
func (h *KidHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	kid, ok := h.ownedKid(w, r)
	if !ok {
		return
	}

	a, err := h.viewService.Lookup(sessionID(r), kid.ID, r.PathValue("key"))
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading activity", err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// DispatchFilters applies one command, or a JSON array of commands, to the
// session's view
func (h *KidHandler) DispatchFilters(w http.ResponseWriter, r *http.Request) {
	kid, ok := h.ownedKid(w, r)
	if !ok {
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(w, r, maxCommandBody, &raw); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	cmds, err := decodeCommands(raw)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	v, err := h.viewService.DispatchAll(sessionID(r), kid.ID, cmds)
	if err != nil {
		respondWithServiceError(w, h.log, "Error applying filters", err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// ResetFilters clears every filter of the session's view
func (h *KidHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	kid, ok := h.ownedKid(w, r)
	if !ok {
		return
	}

	v, err := h.viewService.Reset(sessionID(r), kid.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Error resetting filters", err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// SendDigest emails a digest of the current view to the parent
func (h *KidHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	kid, ok := h.ownedKid(w, r)
	if !ok {
		return
	}

	activities, _, err := h.viewService.Filtered(sessionID(r), kid.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading view", err)
		return
	}

	user := GetUserFromContext(r.Context())
	d, err := h.digestService.SendView(r.Context(), user, kid, activities)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadGateway, "Failed to send digest", "Error sending digest", err)
		return
	}
	respondJSON(w, http.StatusOK, digestResponse{Digest: d, Sent: true})
}

// ownedKid resolves the {id} path value to a child of the current parent,
// writing the error response when it cannot.
func (h *KidHandler) ownedKid(w http.ResponseWriter, r *http.Request) (*models.Kid, bool) {
	kidID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid child ID", "", nil)
		return nil, false
	}

	user := GetUserFromContext(r.Context())
	kid, err := h.kidService.GetOwnedKid(user.ID, kidID)
	if err != nil {
		respondWithServiceError(w, h.log, "Error loading kid", err)
		return nil, false
	}
	return kid, true
}

func decodeCommands(raw json.RawMessage) ([]filter.Command, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var cmds []filter.Command
		if err := json.Unmarshal(trimmed, &cmds); err != nil {
			return nil, err
		}
		return cmds, nil
	}
	var cmd filter.Command
	if err := json.Unmarshal(trimmed, &cmd); err != nil {
		return nil, err
	}
	return []filter.Command{cmd}, nil
}

func sessionID(r *http.Request) string {
	return GetSessionFromContext(r.Context()).ID
}
