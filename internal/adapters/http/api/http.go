// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/lookingforlove/internal/adapters/identity"
	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// MatchService is the match core consumed by the handlers.
type MatchService interface {
	FindMatches(ctx context.Context, requesterID string) ([]model.MatchResult, error)
	ExposeContactInfo(ctx context.Context, requesterID, candidateID string) (model.MatchRecord, error)
	RateMatch(ctx context.Context, requesterID, candidateID string, rating int) (model.MatchRecord, error)
	ContactInfo(ctx context.Context, requesterID, candidateID string) (model.ContactInfo, error)
}

// StatisticsService exposes the platform aggregate.
type StatisticsService interface {
	Refresh(ctx context.Context) (model.StatisticsSnapshot, error)
	Current(ctx context.Context) (model.StatisticsSnapshot, error)
	MatchQualityBreakdown(ctx context.Context) (model.MatchQuality, error)
}

// Directory reads and updates member profiles.
type Directory interface {
	GetUserByID(ctx context.Context, id string) (model.UserProfile, error)
	UpsertUser(ctx context.Context, u model.UserProfile) (model.UserProfile, error)
	SetTier(ctx context.Context, id string, tier types.MembershipTier) (model.UserProfile, error)
	SetSkills(ctx context.Context, id string, owned, desired []model.Skill) (model.UserProfile, error)
	UpdateDetails(ctx context.Context, id string, d model.ProfileDetails) (model.UserProfile, error)
	SetPhoto(ctx context.Context, id, photoURL string) (model.UserProfile, error)
}

// TokenIssuer signs and validates bearer tokens.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
	Verify(token string) (*identity.Claims, error)
}

// ReadinessChecker reports whether the backing stores are reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Dependencies bundles what the handlers need. Using a struct keeps the
// handler layer loosely coupled to implementations in other packages.
type Dependencies struct {
	Matches    MatchService
	Statistics StatisticsService
	Users      Directory
	Tokens     TokenIssuer
	// Readiness is optional. Without it /readyz always reports ready.
	Readiness ReadinessChecker
}

// Server wires HTTP routes for the business API.
type Server struct {
	auth              *authenticator
	healthHandler     *HealthHandler
	matchesHandler    *MatchesHandler
	profileHandler    *ProfileHandler
	registerHandler   *RegisterHandler
	statisticsHandler *StatisticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	log := logger.Get().Named("api")
	v := newValidator()
	return &Server{
		auth:              &authenticator{tokens: deps.Tokens, users: deps.Users, log: log},
		healthHandler:     NewHealthHandler(deps.Readiness, log),
		matchesHandler:    NewMatchesHandler(deps.Matches, v, log),
		profileHandler:    NewProfileHandler(deps.Users, v, log),
		registerHandler:   NewRegisterHandler(deps.Users, deps.Tokens, v, log),
		statisticsHandler: NewStatisticsHandler(deps.Statistics, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	member := s.auth.require()
	contact := s.auth.require(types.Paid, types.Product)
	operator := s.auth.require(types.Product)

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	mux.HandleFunc("POST /auth/register", MetricsMiddleware(s.registerHandler.HandleRegister, "auth_register"))

	mux.HandleFunc("GET /matches", MetricsMiddleware(member(s.matchesHandler.HandleFind), "matches"))
	mux.HandleFunc("POST /matches/{matchedUserId}/contact", MetricsMiddleware(contact(s.matchesHandler.HandleExpose), "matches_contact"))
	mux.HandleFunc("GET /matches/{matchedUserId}/contact", MetricsMiddleware(member(s.matchesHandler.HandleContact), "matches_contact"))
	mux.HandleFunc("POST /matches/{matchedUserId}/rate", MetricsMiddleware(member(s.matchesHandler.HandleRate), "matches_rate"))

	mux.HandleFunc("GET /profile", MetricsMiddleware(member(s.profileHandler.HandleGet), "profile"))
	mux.HandleFunc("PUT /profile", MetricsMiddleware(member(s.profileHandler.HandleUpdateDetails), "profile_update"))
	mux.HandleFunc("PUT /profile/skills", MetricsMiddleware(member(s.profileHandler.HandleUpdateSkills), "profile_skills"))
	mux.HandleFunc("PUT /profile/photo", MetricsMiddleware(member(s.profileHandler.HandleUpdatePhoto), "profile_photo"))
	mux.HandleFunc("POST /membership/upgrade", MetricsMiddleware(member(s.profileHandler.HandleUpgrade), "membership_upgrade"))

	mux.HandleFunc("GET /statistics", MetricsMiddleware(operator(s.statisticsHandler.HandleCurrent), "statistics"))
	mux.HandleFunc("POST /statistics/update", MetricsMiddleware(operator(s.statisticsHandler.HandleRefresh), "statistics_update"))
	mux.HandleFunc("GET /statistics/match-quality", MetricsMiddleware(operator(s.statisticsHandler.HandleMatchQuality), "statistics_match_quality"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates a core error into its HTTP shape.
// Unclassified failures are logged and reported without detail.
func writeDomainError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	msg := model.KindOf(err)
	if msg == nil {
		msg = err
	}
	writeError(w, status, code, msg)
}

// statusFor maps error kinds to status codes and stable error codes.
func statusFor(err error) (int, string) {
	switch model.KindOf(err) {
	case model.ErrProfileNotFound:
		return http.StatusNotFound, "profile_not_found"
	case model.ErrMatchNotFound:
		return http.StatusNotFound, "match_not_found"
	case model.ErrStatisticsNotInitialized:
		return http.StatusNotFound, "statistics_not_initialized"
	case model.ErrInvalidRating:
		return http.StatusBadRequest, "invalid_rating"
	case model.ErrInvalidProficiencyLevel:
		return http.StatusBadRequest, "invalid_proficiency_level"
	case model.ErrContactNotExposed:
		return http.StatusForbidden, "contact_not_exposed"
	}
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "profile_not_found"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
