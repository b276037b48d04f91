package dtos

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/connect-jobs/internal/models"
)

var (
	jobTypes        = map[string]bool{"Full-time": true, "Part-time": true, "Contract": true, "Internship": true, "Freelance": true}
	employmentModes = map[string]bool{"Remote": true, "On-site": true, "Hybrid": true}
)

func ValidateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func ValidateJobStatus(fl validator.FieldLevel) bool {
	s := models.JobStatus(fl.Field().String())
	return s == models.JobOpen || s == models.JobClosed
}

func ValidateJobType(fl validator.FieldLevel) bool {
	return jobTypes[fl.Field().String()]
}

func ValidateEmploymentMode(fl validator.FieldLevel) bool {
	return employmentModes[fl.Field().String()]
}

// RegisterValidators adds the domain tags used in binding to v.
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("role", ValidateRole)
	v.RegisterValidation("jobstatus", ValidateJobStatus)
	v.RegisterValidation("jobtype", ValidateJobType)
	v.RegisterValidation("employmentmode", ValidateEmploymentMode)
}

// RegisterWithGin installs the validators on gin's default binding engine.
func RegisterWithGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidators(v)
	}
}
