package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/models"
)

const (
	subjectApproved = "Good News! Your Job Application Has Been Approved"
	subjectRejected = "Update on Your Job Application"
)

func applicationSubmittedNote(job *models.Job) models.Notification {
	jobID := job.ID
	return models.Notification{
		Message:  "A new application has been submitted for the job " + job.Title,
		Category: models.CategoryJob,
		JobID:    &jobID,
	}
}

func decisionNote(job *models.Job, status models.ApplicationStatus) models.Notification {
	jobID := job.ID
	msg := fmt.Sprintf("Your application for %q was not selected to move forward.", job.Title)
	if status == models.StatusApproved {
		msg = fmt.Sprintf("Your application for %q has been approved!", job.Title)
	}
	return models.Notification{Message: msg, Category: models.CategoryJob, JobID: &jobID}
}

func withdrawnNote(job *models.Job, applicant *models.User) models.Notification {
	jobID := job.ID
	return models.Notification{
		Message:  fmt.Sprintf("Application for %s by %s has been withdrawn.", job.Title, applicant.FullName),
		Category: models.CategoryJob,
		JobID:    &jobID,
	}
}

func jobRemovedNote(job *models.Job) models.Notification {
	return models.Notification{
		Message:  fmt.Sprintf("The job %s at %s has been removed and your application was withdrawn.", job.Title, job.Company),
		Category: models.CategoryJob,
	}
}

var approvedHTML = htmltemplate.Must(htmltemplate.New("approved").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e1e1e1; border-radius: 5px;">
  <h1 style="color: #4a5568; text-align: center;">Application Approved!</h1>
  <p>Hello {{.Name}},</p>
  <p>We're pleased to inform you that your application for <strong>{{.Title}}</strong> at <strong>{{.Company}}</strong> has been approved!</p>
  <p>The employer will be contacting you soon with next steps. Please make sure your contact information is up to date in your profile.</p>
  <div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p style="margin: 5px 0;"><strong>Job:</strong> {{.Title}}</p>
    <p style="margin: 5px 0;"><strong>Company:</strong> {{.Company}}</p>
    <p style="margin: 5px 0;"><strong>Location:</strong> {{.Location}}</p>
  </div>
  <p>Thank you for using Connect!</p>
  <p>Best regards,<br><strong>The Connect Team</strong></p>
</div>`))

var rejectedHTML = htmltemplate.Must(htmltemplate.New("rejected").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e1e1e1; border-radius: 5px;">
  <h1 style="color: #4a5568; text-align: center;">Application Update</h1>
  <p>Hello {{.Name}},</p>
  <p>Thank you for your interest in the <strong>{{.Title}}</strong> position at <strong>{{.Company}}</strong>.</p>
  <p>After careful consideration, the employer has decided to pursue other candidates whose qualifications more closely match their current needs.</p>
  <p>We encourage you to continue exploring other opportunities on Connect that match your skills and experience.</p>
  <p style="margin: 20px 0;"><a href="{{.JobsURL}}" style="background-color: #3182ce; color: white; padding: 10px 15px; text-decoration: none; border-radius: 5px;">Browse More Jobs</a></p>
  <p>Don't be discouraged! Finding the right position takes time.</p>
  <p>Best regards,<br><strong>The Connect Team</strong></p>
</div>`))

var approvedText = texttemplate.Must(texttemplate.New("approved").Parse(
	`Congratulations {{.Name}}, your application for "{{.Title}}" at {{.Company}} has been approved!

Job: {{.Title}}
Company: {{.Company}}
Location: {{.Location}}

The employer will be contacting you soon with next steps.
`))

var rejectedText = texttemplate.Must(texttemplate.New("rejected").Parse(
	`Hello {{.Name}},

Thank you for your interest in "{{.Title}}" at {{.Company}}. After careful consideration, the employer has decided to pursue other candidates at this time.

Browse more jobs: {{.JobsURL}}
`))

type decisionView struct {
	Name     string
	Title    string
	Company  string
	Location string
	JobsURL  string
}

// DecisionEmails renders the outbox message sent to an applicant once their application is decided.
type DecisionEmails struct {
	FrontendURL string
}

func (d DecisionEmails) Compose(app *models.Application, applicant *models.User, job *models.Job) (*models.OutboxMessage, error) {
	view := decisionView{
		Name:     applicant.FullName,
		Title:    job.Title,
		Company:  job.Company,
		Location: job.Location,
		JobsURL:  strings.TrimRight(d.FrontendURL, "/") + "/jobs",
	}
	subject, html, text := subjectRejected, rejectedHTML, rejectedText
	if app.Status == models.StatusApproved {
		subject, html, text = subjectApproved, approvedHTML, approvedText
	}

	var htmlBody, textBody bytes.Buffer
	if err := html.Execute(&htmlBody, view); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	if err := text.Execute(&textBody, view); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	appID := app.ID
	if appID == uuid.Nil {
		return nil, fmt.Errorf("application id is required")
	}
	return &models.OutboxMessage{
		ApplicationID: &appID,
		Recipient:     applicant.Email,
		Subject:       subject,
		TextBody:      textBody.String(),
		HTMLBody:      htmlBody.String(),
		Status:        models.OutboxPending,
	}, nil
}
