// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/lookingforlove/internal/domain/types"
)

// Skill is a named technical skill at a proficiency level.
// YearsOfExperience is only meaningful on owned skills.
type Skill struct {
	Name              string            `json:"name"`
	ProficiencyLevel  types.Proficiency `json:"proficiencyLevel"`
	YearsOfExperience *int              `json:"yearsOfExperience,omitempty"`
}

// ContactInfo holds the details revealed by contact exposure.
type ContactInfo struct {
	Email      string `json:"email"`
	WhatsAppID string `json:"whatsAppId,omitempty"`
}

// UserProfile is a member of the directory.
type UserProfile struct {
	ID               string               `json:"id"`
	Salutation       string               `json:"salutation,omitempty"`
	FirstName        string               `json:"firstName"`
	LastName         string               `json:"lastName"`
	Nickname         string               `json:"nickname,omitempty"`
	Gender           string               `json:"gender,omitempty"`
	PhotoURL         string               `json:"photoUrl,omitempty"`
	ContactInfo      ContactInfo          `json:"contactInfo"`
	MembershipTier   types.MembershipTier `json:"memberType"`
	SkillsOwned      []Skill              `json:"technicalSkillsOwned"`
	SkillsDesired    []Skill              `json:"technicalSkillsDesired"`
	SubscriptionDate *time.Time           `json:"subscriptionDate,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// CanExposeContact reports whether the member's tier allows revealing contact details.
func (u UserProfile) CanExposeContact() bool {
	return u.MembershipTier == types.Paid || u.MembershipTier == types.Product
}

// IsOperator reports whether the member is an internal product operator.
func (u UserProfile) IsOperator() bool {
	return u.MembershipTier == types.Product
}

// Public returns the profile without contact details.
func (u UserProfile) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Salutation:     u.Salutation,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Nickname:       u.Nickname,
		Gender:         u.Gender,
		PhotoURL:       u.PhotoURL,
		MembershipTier: u.MembershipTier,
		SkillsOwned:    u.SkillsOwned,
		SkillsDesired:  u.SkillsDesired,
	}
}

// PublicProfile is the view of a member shown to other members.
type PublicProfile struct {
	ID             string               `json:"id"`
	Salutation     string               `json:"salutation,omitempty"`
	FirstName      string               `json:"firstName"`
	LastName       string               `json:"lastName"`
	Nickname       string               `json:"nickname,omitempty"`
	Gender         string               `json:"gender,omitempty"`
	PhotoURL       string               `json:"photoUrl,omitempty"`
	MembershipTier types.MembershipTier `json:"memberType"`
	SkillsOwned    []Skill              `json:"technicalSkillsOwned"`
	SkillsDesired  []Skill              `json:"technicalSkillsDesired"`
}

// MatchResult pairs a candidate with its compatibility score.
type MatchResult struct {
	Candidate  PublicProfile `json:"user"`
	MatchScore int           `json:"matchScore"`
}

// ProfileDetails is a partial update of the display fields of a profile.
// Nil fields are left unchanged. Tier, contact details and skills are not
// reachable through it.
type ProfileDetails struct {
	Salutation *string `json:"salutation,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Nickname   *string `json:"nickname,omitempty"`
	Gender     *string `json:"gender,omitempty"`
}

// Apply copies the set fields of d onto u.
func (d ProfileDetails) Apply(u *UserProfile) {
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{d.Salutation, &u.Salutation},
		{d.FirstName, &u.FirstName},
		{d.LastName, &u.LastName},
		{d.Nickname, &u.Nickname},
		{d.Gender, &u.Gender},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}
