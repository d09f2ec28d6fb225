package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/internal/domain/types"
)

type skillRequest struct {
	Name              string `json:"name" validate:"required,max=64"`
	ProficiencyLevel  string `json:"proficiencyLevel" validate:"required,proficiency"`
	YearsOfExperience *int   `json:"yearsOfExperience,omitempty" validate:"omitempty,min=0,max=80"`
}

// skillsRequest mirrors the OpenAPI schema for PUT /profile/skills.
type skillsRequest struct {
	Owned   []skillRequest `json:"technicalSkillsOwned" validate:"max=50,dive"`
	Desired []skillRequest `json:"technicalSkillsDesired" validate:"max=50,dive"`
}

// rateRequest mirrors the OpenAPI schema for POST /matches/{matchedUserId}/rate.
// The range is enforced by the match core.
type rateRequest struct {
	Rating *int `json:"rating" validate:"required"`
}

// detailsRequest mirrors the OpenAPI schema for PUT /profile. Absent fields
// are left unchanged.
type detailsRequest struct {
	Salutation *string `json:"salutation" validate:"omitnil,max=16"`
	FirstName  *string `json:"firstName" validate:"omitnil,min=1,max=64"`
	LastName   *string `json:"lastName" validate:"omitnil,min=1,max=64"`
	Nickname   *string `json:"nickname" validate:"omitnil,max=64"`
	Gender     *string `json:"gender" validate:"omitnil,max=32"`
}

func (r detailsRequest) details() model.ProfileDetails {
	return model.ProfileDetails{
		Salutation: r.Salutation,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Nickname:   r.Nickname,
		Gender:     r.Gender,
	}
}

type photoRequest struct {
	PhotoURL string `json:"photoUrl" validate:"required,http_url,max=2048"`
}

type contactRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	WhatsAppID string `json:"whatsAppId" validate:"omitempty,max=32"`
}

// registerRequest mirrors the OpenAPI schema for POST /auth/register.
// The tier is not accepted: new members always start free.
type registerRequest struct {
	Salutation  string         `json:"salutation" validate:"omitempty,max=16"`
	FirstName   string         `json:"firstName" validate:"required,max=64"`
	LastName    string         `json:"lastName" validate:"required,max=64"`
	Nickname    string         `json:"nickname" validate:"omitempty,max=64"`
	Gender      string         `json:"gender" validate:"omitempty,max=32"`
	PhotoURL    string         `json:"photoUrl" validate:"omitempty,http_url,max=2048"`
	ContactInfo contactRequest `json:"contactInfo" validate:"required"`
	Owned       []skillRequest `json:"technicalSkillsOwned" validate:"max=50,dive"`
	Desired     []skillRequest `json:"technicalSkillsDesired" validate:"max=50,dive"`
}

func (r registerRequest) profile() model.UserProfile {
	return model.UserProfile{
		Salutation:     r.Salutation,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Nickname:       r.Nickname,
		Gender:         r.Gender,
		PhotoURL:       r.PhotoURL,
		ContactInfo:    model.ContactInfo{Email: strings.TrimSpace(r.ContactInfo.Email), WhatsAppID: r.ContactInfo.WhatsAppID},
		MembershipTier: types.Free,
		SkillsOwned:    toSkills(r.Owned, true),
		SkillsDesired:  toSkills(r.Desired, false),
	}
}

// newValidator returns a validator that reports JSON field names and knows
// the proficiency vocabulary.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("proficiency", func(fl validator.FieldLevel) bool {
		_, err := types.ParseProficiency(fl.Field().String())
		return err == nil
	})
	return v
}

// validationError condenses validator output into a single client message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, ve := range verrs {
			_, field, _ := strings.Cut(ve.Namespace(), ".")
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, ve.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: invalid request", ErrBadRequest)
}

// toSkills normalizes validated skill requests. Years only apply to owned skills.
func toSkills(in []skillRequest, owned bool) []model.Skill {
	out := make([]model.Skill, 0, len(in))
	for _, s := range in {
		level, _ := types.ParseProficiency(s.ProficiencyLevel)
		sk := model.Skill{Name: strings.TrimSpace(s.Name), ProficiencyLevel: level}
		if owned && s.YearsOfExperience != nil {
			years := *s.YearsOfExperience
			sk.YearsOfExperience = &years
		}
		out = append(out, sk)
	}
	return out
}
