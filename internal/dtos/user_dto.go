package dtos

import (
	"encoding/json"

	"github.com/justsurfingit/connect-jobs/internal/models"
	"gorm.io/datatypes"
)

type SocialLinksRequest struct {
	LinkedIn  *string `json:"linkedIn" binding:"omitempty,url"`
	GitHub    *string `json:"github" binding:"omitempty,url"`
	Portfolio *string `json:"portfolio" binding:"omitempty,url"`
}

// ProfileUpdateRequest changes only the fields present in the body. Email, password and role are
// not editable here.
type ProfileUpdateRequest struct {
	FullName       *string             `json:"fullName" binding:"omitempty,min=1,max=100"`
	PhoneNumber    *string             `json:"phoneNumber" binding:"omitempty,e164"`
	Bio            *string             `json:"bio" binding:"omitempty,max=500"`
	Location       *string             `json:"location" binding:"omitempty,max=200"`
	Qualifications []string            `json:"qualifications" binding:"omitempty,dive,required"`
	Skills         []string            `json:"skills" binding:"omitempty,dive,required"`
	Experience     json.RawMessage     `json:"experience"`
	SocialLinks    *SocialLinksRequest `json:"socialLinks"`
}

func (r ProfileUpdateRequest) Apply(user *models.User) {
	setString(&user.FullName, r.FullName)
	setString(&user.Bio, r.Bio)
	setString(&user.Location, r.Location)
	if r.PhoneNumber != nil {
		phone := *r.PhoneNumber
		user.PhoneNumber = &phone
	}
	if r.Qualifications != nil {
		user.Qualifications = r.Qualifications
	}
	if r.Skills != nil {
		user.Skills = r.Skills
	}
	if len(r.Experience) > 0 {
		user.Experience = datatypes.JSON(r.Experience)
	}
	if r.SocialLinks != nil {
		setString(&user.SocialLinks.LinkedIn, r.SocialLinks.LinkedIn)
		setString(&user.SocialLinks.GitHub, r.SocialLinks.GitHub)
		setString(&user.SocialLinks.Portfolio, r.SocialLinks.Portfolio)
	}
}
