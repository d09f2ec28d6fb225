// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/okian/lookingforlove/internal/adapters/identity"
	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/okian/lookingforlove/pkg/metrics"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusUnauthorized    = 401
	statusForbidden       = 403
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= statusBadRequest {
			errorType := getErrorType(wrapped.statusCode)
			severity := getErrorSeverity(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, severity)
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode == statusUnauthorized:
		return "unauthorized"
	case statusCode == statusForbidden:
		return "forbidden"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// memberHandler is a handler that runs on behalf of an authenticated member.
type memberHandler func(w http.ResponseWriter, r *http.Request, member model.UserProfile)

// authenticator resolves the bearer token to a member and enforces tiers.
type authenticator struct {
	tokens TokenIssuer
	users  Directory
	log    logger.Logger
}

// require returns a wrapper admitting members on any of the given tiers.
// With no tiers every authenticated member is admitted.
func (a *authenticator) require(tiers ...types.MembershipTier) func(memberHandler) http.HandlerFunc {
	return func(next memberHandler) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			member, err := a.authenticate(r.Context(), r)
			if err != nil {
				switch {
				case errors.Is(err, ErrUnauthorized):
					writeError(w, http.StatusUnauthorized, "unauthorized", err)
				default:
					writeDomainError(r.Context(), w, a.log, err)
				}
				return
			}
			if len(tiers) > 0 && !slices.Contains(tiers, member.MembershipTier) {
				writeError(w, http.StatusForbidden, "forbidden", ErrForbidden)
				return
			}
			next(w, r, member)
		}
	}
}

func (a *authenticator) authenticate(ctx context.Context, r *http.Request) (model.UserProfile, error) {
	token, err := identity.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	member, err := a.users.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProfile{}, fmt.Errorf("%w: unknown member", ErrUnauthorized)
		}
		return model.UserProfile{}, err
	}
	return member, nil
}
