package model

import "time"

// MatchKey identifies a directed (requester, candidate) pair.
// (A, B) and (B, A) are distinct keys.
type MatchKey struct {
	UserID        string
	MatchedUserID string
}

// MatchRecord is the persisted relationship between a requester and a candidate.
type MatchRecord struct {
	UserID               string    `json:"userId"`
	MatchedUserID        string    `json:"matchedUserId"`
	MatchScore           int       `json:"matchScore"`
	IsContactInfoExposed bool      `json:"isContactInfoExposed"`
	MatchDate            time.Time `json:"matchDate"`
	UserRating           *int      `json:"userRating,omitempty"`
}

// Key returns the directed key of the record.
func (m MatchRecord) Key() MatchKey {
	return MatchKey{UserID: m.UserID, MatchedUserID: m.MatchedUserID}
}

// Rated reports whether a rating has been submitted.
func (m MatchRecord) Rated() bool {
	return m.UserRating != nil
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r lies in [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
