package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/logger"
)

// RegisterHandler creates new members.
type RegisterHandler struct {
	users     Directory
	tokens    TokenIssuer
	validator *validator.Validate
	log       logger.Logger
}

// NewRegisterHandler creates a new registration handler.
func NewRegisterHandler(users Directory, tokens TokenIssuer, v *validator.Validate, log logger.Logger) *RegisterHandler {
	return &RegisterHandler{users: users, tokens: tokens, validator: v, log: log}
}

type registerResponse struct {
	User  model.UserProfile `json:"user"`
	Token string            `json:"token"`
}

// HandleRegister handles POST /auth/register. The new member starts on the
// free tier and receives a bearer token, since there is no password login.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", validationError(err))
		return
	}

	created, err := h.users.UpsertUser(r.Context(), req.profile())
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	token, err := h.tokens.IssueToken(created.ID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	h.log.Info(r.Context(), "member registered", logger.String("user_id", created.ID))
	writeJSON(w, http.StatusCreated, registerResponse{User: created, Token: token})
}
