// Package types contains the enumerations shared across the application.
package types

import (
	"errors"
	"strings"
)

// Sentinel kinds for enumeration parsing.
var (
	ErrUnknownProficiency = errors.New("unknown proficiency level")
	ErrUnknownTier        = errors.New("unknown membership tier")
)

// Proficiency is an ordinal skill mastery level.
type Proficiency string

// Known proficiency levels, lowest first.
const (
	Beginner     Proficiency = "beginner"
	Intermediate Proficiency = "intermediate"
	Advanced     Proficiency = "advanced"
	Expert       Proficiency = "expert"
)

// proficiencyRank orders levels; beginner < intermediate < advanced < expert.
var proficiencyRank = map[Proficiency]int{
	Beginner:     0,
	Intermediate: 1,
	Advanced:     2,
	Expert:       3,
}

// Rank returns the ordinal position of p. Unrecognized levels return ErrUnknownProficiency.
func (p Proficiency) Rank() (int, error) {
	r, ok := proficiencyRank[p]
	if !ok {
		return 0, ErrUnknownProficiency
	}
	return r, nil
}

// Valid reports whether p is a recognized level.
func (p Proficiency) Valid() bool {
	_, ok := proficiencyRank[p]
	return ok
}

// ParseProficiency normalizes s and returns the matching level.
func ParseProficiency(s string) (Proficiency, error) {
	p := Proficiency(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownProficiency
	}
	return p, nil
}

// MembershipTier is the subscription level of a user.
type MembershipTier string

// Membership tiers. Product denotes an internal operator with statistics access.
const (
	Free    MembershipTier = "free"
	Paid    MembershipTier = "paid"
	Product MembershipTier = "product"
)

// Tiers lists every tier in reporting order.
func Tiers() []MembershipTier {
	return []MembershipTier{Free, Paid, Product}
}

// Valid reports whether t is a recognized tier.
func (t MembershipTier) Valid() bool {
	switch t {
	case Free, Paid, Product:
		return true
	}
	return false
}

// ParseTier normalizes s and returns the matching tier.
func ParseTier(s string) (MembershipTier, error) {
	t := MembershipTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrUnknownTier
	}
	return t, nil
}
