package api

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/logger"
)

// MatchesHandler serves match discovery, contact exposure and rating.
type MatchesHandler struct {
	matches   MatchService
	validator *validator.Validate
	log       logger.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(matches MatchService, v *validator.Validate, log logger.Logger) *MatchesHandler {
	return &MatchesHandler{matches: matches, validator: v, log: log}
}

// contactResponse is returned after a successful exposure.
type contactResponse struct {
	Match       model.MatchRecord `json:"match"`
	ContactInfo model.ContactInfo `json:"contactInfo"`
}

// HandleFind handles GET /matches.
func (h *MatchesHandler) HandleFind(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	results, err := h.matches.FindMatches(r.Context(), member.ID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	if results == nil {
		results = []model.MatchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleExpose handles POST /matches/{matchedUserId}/contact.
func (h *MatchesHandler) HandleExpose(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	candidateID, ok := matchedUserID(w, r)
	if !ok {
		return
	}
	rec, err := h.matches.ExposeContactInfo(r.Context(), member.ID, candidateID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	contact, err := h.matches.ContactInfo(r.Context(), member.ID, candidateID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{Match: rec, ContactInfo: contact})
}

// HandleContact handles GET /matches/{matchedUserId}/contact.
func (h *MatchesHandler) HandleContact(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	candidateID, ok := matchedUserID(w, r)
	if !ok {
		return
	}
	contact, err := h.matches.ContactInfo(r.Context(), member.ID, candidateID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// HandleRate handles POST /matches/{matchedUserId}/rate.
func (h *MatchesHandler) HandleRate(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	candidateID, ok := matchedUserID(w, r)
	if !ok {
		return
	}
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationError(err))
		return
	}
	rec, err := h.matches.RateMatch(r.Context(), member.ID, candidateID, *req.Rating)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func matchedUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("matchedUserId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", ErrBadRequest)
		return "", false
	}
	return id, true
}
