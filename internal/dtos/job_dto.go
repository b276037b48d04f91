package dtos

import "github.com/justsurfingit/connect-jobs/internal/models"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// JobDraft is what the extractor hands back to prefill the posting form.
type JobDraft struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	JobType          string   `json:"jobType"`
	EmploymentMode   string   `json:"employmentMode"`
	Description      string   `json:"description"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Benefits         []string `json:"benefits"`
}

type JobCreationRequest struct {
	Title            string   `json:"title" binding:"required,max=200"`
	Company          string   `json:"company" binding:"required,max=200"`
	Location         string   `json:"location" binding:"max=200"`
	JobType          string   `json:"jobType" binding:"required,jobtype"`
	EmploymentMode   string   `json:"employmentMode" binding:"required,employmentmode"`
	Description      string   `json:"description" binding:"required"`
	Responsibilities []string `json:"responsibilities" binding:"required,min=1,dive,required"`
	Requirements     []string `json:"requirements" binding:"required,min=1,dive,required"`
	Benefits         []string `json:"benefits" binding:"omitempty,dive,required"`
	Status           string   `json:"status" binding:"omitempty,jobstatus"`
}

func (r JobCreationRequest) ToModel() models.Job {
	status := models.JobOpen
	if r.Status != "" {
		status = models.JobStatus(r.Status)
	}
	return models.Job{
		Title:            r.Title,
		Company:          r.Company,
		Location:         r.Location,
		JobType:          r.JobType,
		EmploymentMode:   r.EmploymentMode,
		Description:      r.Description,
		Responsibilities: r.Responsibilities,
		Requirements:     r.Requirements,
		Benefits:         r.Benefits,
		Status:           status,
	}
}

// JobUpdateRequest changes only the fields present in the body. The owner cannot be changed.
type JobUpdateRequest struct {
	Title            *string  `json:"title" binding:"omitempty,min=1,max=200"`
	Company          *string  `json:"company" binding:"omitempty,min=1,max=200"`
	Location         *string  `json:"location" binding:"omitempty,max=200"`
	JobType          *string  `json:"jobType" binding:"omitempty,jobtype"`
	EmploymentMode   *string  `json:"employmentMode" binding:"omitempty,employmentmode"`
	Description      *string  `json:"description" binding:"omitempty,min=1"`
	Responsibilities []string `json:"responsibilities" binding:"omitempty,min=1,dive,required"`
	Requirements     []string `json:"requirements" binding:"omitempty,min=1,dive,required"`
	Benefits         []string `json:"benefits" binding:"omitempty,dive,required"`
	Status           *string  `json:"status" binding:"omitempty,jobstatus"`
}

func (r JobUpdateRequest) Apply(job *models.Job) {
	setString(&job.Title, r.Title)
	setString(&job.Company, r.Company)
	setString(&job.Location, r.Location)
	setString(&job.JobType, r.JobType)
	setString(&job.EmploymentMode, r.EmploymentMode)
	setString(&job.Description, r.Description)
	if r.Responsibilities != nil {
		job.Responsibilities = r.Responsibilities
	}
	if r.Requirements != nil {
		job.Requirements = r.Requirements
	}
	if r.Benefits != nil {
		job.Benefits = r.Benefits
	}
	if r.Status != nil {
		job.Status = models.JobStatus(*r.Status)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
