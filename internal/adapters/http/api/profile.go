package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/logger"
)

// ProfileHandler serves the member's own profile and membership.
type ProfileHandler struct {
	users     Directory
	validator *validator.Validate
	log       logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(users Directory, v *validator.Validate, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, validator: v, log: log}
}

// HandleGet handles GET /profile. The owner sees their own contact details.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, _ *http.Request, member model.UserProfile) {
	writeJSON(w, http.StatusOK, member)
}

// HandleUpdateDetails handles PUT /profile. Only display fields are writable.
func (h *ProfileHandler) HandleUpdateDetails(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	var req detailsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationError(err))
		return
	}
	updated, err := h.users.UpdateDetails(r.Context(), member.ID, req.details())
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleUpdatePhoto handles PUT /profile/photo.
func (h *ProfileHandler) HandleUpdatePhoto(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	var req photoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationError(err))
		return
	}
	updated, err := h.users.SetPhoto(r.Context(), member.ID, req.PhotoURL)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleUpdateSkills handles PUT /profile/skills by replacing both skill lists.
// The write is scoped to the skill columns so a concurrent upgrade survives.
func (h *ProfileHandler) HandleUpdateSkills(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	var req skillsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationError(err))
		return
	}
	updated, err := h.users.SetSkills(r.Context(), member.ID, toSkills(req.Owned, true), toSkills(req.Desired, false))
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	h.log.Info(r.Context(), "skills updated",
		logger.String("user_id", updated.ID),
		logger.Int("owned", len(updated.SkillsOwned)),
		logger.Int("desired", len(updated.SkillsDesired)))
	writeJSON(w, http.StatusOK, updated)
}

// HandleUpgrade handles POST /membership/upgrade. No payment is taken:
// free members become paid, other tiers are returned unchanged.
func (h *ProfileHandler) HandleUpgrade(w http.ResponseWriter, r *http.Request, member model.UserProfile) {
	if member.MembershipTier != types.Free {
		writeJSON(w, http.StatusOK, member)
		return
	}
	updated, err := h.users.SetTier(r.Context(), member.ID, types.Paid)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	h.log.Info(r.Context(), "membership upgraded", logger.String("user_id", updated.ID))
	writeJSON(w, http.StatusOK, updated)
}
