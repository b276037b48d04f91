package dtos

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidators(v)
	return v
}

func validJob() JobCreationRequest {
	return JobCreationRequest{
		Title:            "Backend Engineer",
		Company:          "Initech",
		Location:         "Remote",
		JobType:          "Full-time",
		EmploymentMode:   "Remote",
		Description:      "Build services.",
		Responsibilities: []string{"Write Go"},
		Requirements:     []string{"3 years"},
	}
}

func TestJobCreationRequestValidation(t *testing.T) {
	v := newValidator()
	require.NoError(t, v.Struct(validJob()))

	tests := []struct {
		name   string
		mutate func(*JobCreationRequest)
	}{
		{"missing title", func(r *JobCreationRequest) { r.Title = "" }},
		{"bad job type", func(r *JobCreationRequest) { r.JobType = "Gig" }},
		{"bad mode", func(r *JobCreationRequest) { r.EmploymentMode = "Mars" }},
		{"empty responsibilities", func(r *JobCreationRequest) { r.Responsibilities = nil }},
		{"blank requirement", func(r *JobCreationRequest) { r.Requirements = []string{""} }},
		{"bad status", func(r *JobCreationRequest) { r.Status = "Paused" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validJob()
			tt.mutate(&req)
			assert.Error(t, v.Struct(req))
		})
	}
}

func TestJobCreationDefaultsToOpen(t *testing.T) {
	job := validJob().ToModel()
	assert.Equal(t, models.JobOpen, job.Status)
}

func TestJobUpdateAppliesPresentFields(t *testing.T) {
	job := validJob().ToModel()
	title, closed := "Staff Engineer", "Closed"
	JobUpdateRequest{Title: &title, Status: &closed}.Apply(&job)

	assert.Equal(t, "Staff Engineer", job.Title)
	assert.Equal(t, models.JobClosed, job.Status)
	assert.Equal(t, "Initech", job.Company)
}

func TestRegisterRequestRole(t *testing.T) {
	v := newValidator()
	req := RegisterRequest{FullName: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: "employer"}
	assert.NoError(t, v.Struct(req))
	req.Role = "superuser"
	assert.Error(t, v.Struct(req))
}

func TestProfileUpdateApply(t *testing.T) {
	user := models.User{FullName: "Ada", Email: "ada@example.com"}
	bio, gh := "Engineer", "https://github.com/ada"
	ProfileUpdateRequest{
		Bio:         &bio,
		Skills:      []string{"go", "sql"},
		Experience:  []byte(`[{"company":"Initech"}]`),
		SocialLinks: &SocialLinksRequest{GitHub: &gh},
	}.Apply(&user)

	assert.Equal(t, "Ada", user.FullName)
	assert.Equal(t, "Engineer", user.Bio)
	assert.Equal(t, []string{"go", "sql"}, []string(user.Skills))
	assert.JSONEq(t, `[{"company":"Initech"}]`, string(user.Experience))
	assert.Equal(t, "https://github.com/ada", user.SocialLinks.GitHub)
}
