package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobseeker Role = "jobseeker"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployer, RoleJobseeker, RoleAdmin:
		return true
	}
	return false
}

type NotificationCategory string

const (
	CategoryJob     NotificationCategory = "job"
	CategorySystem  NotificationCategory = "system"
	CategoryMessage NotificationCategory = "message"
)

type JobStatus string

const (
	JobOpen   JobStatus = "Open"
	JobClosed JobStatus = "Closed"
)

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Terminal reports whether no further transition is defined out of s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// FileBlob is an uploaded file kept inline with its owning row.
type FileBlob struct {
	Name      string `json:"name"`
	MediaType string `json:"mimetype"`
	Size      int64  `json:"size"`
	Data      []byte `gorm:"type:bytea" json:"-"`
}

func (f FileBlob) Empty() bool {
	return len(f.Data) == 0
}

type SocialLinks struct {
	LinkedIn  string `json:"linkedIn,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FullName       string         `gorm:"not null" json:"fullName"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"not null" json:"-"`
	PhoneNumber    *string        `gorm:"uniqueIndex" json:"phoneNumber,omitempty"`
	Bio            string         `gorm:"size:500" json:"bio,omitempty"`
	Location       string         `json:"location,omitempty"`
	Qualifications pq.StringArray `gorm:"type:text[]" json:"qualifications"`
	Skills         pq.StringArray `gorm:"type:text[]" json:"skills"`
	Experience     datatypes.JSON `json:"experience,omitempty"`
	SocialLinks    SocialLinks    `gorm:"embedded;embeddedPrefix:social_" json:"socialLinks"`
	ProfilePicture FileBlob       `gorm:"embedded;embeddedPrefix:picture_" json:"profilePicture"`
	Role           Role           `gorm:"type:varchar(16);not null;default:jobseeker" json:"role"`

	Notifications []Notification `gorm:"constraint:OnDelete:CASCADE" json:"notifications,omitempty"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Notification struct {
	ID        uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"-"`
	Message   string               `gorm:"not null" json:"message"`
	Category  NotificationCategory `gorm:"type:varchar(16);not null;default:system" json:"type"`
	Read      bool                 `gorm:"not null;default:false" json:"read"`
	JobID     *uuid.UUID           `gorm:"type:uuid" json:"jobId,omitempty"`
	CreatedAt time.Time            `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Contact is the part of a user shown to the owner of a job they applied to.
func (u *User) Contact() *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

type Job struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title            string         `gorm:"not null" json:"title"`
	Company          string         `gorm:"not null" json:"company"`
	Location         string         `json:"location,omitempty"`
	JobType          string         `gorm:"not null" json:"jobType"`
	EmploymentMode   string         `gorm:"not null" json:"employmentMode"`
	Description      string         `gorm:"type:text;not null" json:"description"`
	Responsibilities pq.StringArray `gorm:"type:text[]" json:"responsibilities"`
	Requirements     pq.StringArray `gorm:"type:text[]" json:"requirements"`
	Benefits         pq.StringArray `gorm:"type:text[]" json:"benefits"`
	Status           JobStatus      `gorm:"type:varchar(16);not null;default:Open" json:"status"`

	// Owner is fixed at creation.
	PostedByID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"postedById"`
	PostedBy   *User     `gorm:"foreignKey:PostedByID" json:"postedBy,omitempty"`

	// Ordered by AppliedAt when loaded. Only the owner and admins see them.
	Applications     []Application `gorm:"foreignKey:JobID" json:"applications,omitempty"`
	ApplicationCount int           `gorm:"-" json:"applicationCount"`
}

// PublicView drops applicant records and the owner's contact details, keeping the count.
func (j *Job) PublicView() {
	j.ApplicationCount = len(j.Applications)
	j.Applications = nil
	if j.PostedBy != nil {
		j.PostedBy = &User{ID: j.PostedBy.ID, FullName: j.PostedBy.FullName}
	}
}

func (j *Job) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

type Application struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_job,priority:1" json:"userId"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JobID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_applications_user_job,priority:2" json:"jobId"`
	Job    *Job      `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`

	Resume    FileBlob          `gorm:"embedded;embeddedPrefix:resume_" json:"resume"`
	Status    ApplicationStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	AppliedAt time.Time         `gorm:"not null;index" json:"appliedAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (a *Application) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now().UTC()
	}
	return nil
}

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxMessage is an email queued in the same transaction as the state change it reports.
type OutboxMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ApplicationID *uuid.UUID `gorm:"type:uuid;index" json:"applicationId,omitempty"`
	Recipient     string     `gorm:"not null" json:"recipient"`
	Subject       string     `gorm:"not null" json:"subject"`
	TextBody      string     `gorm:"type:text" json:"textBody"`
	HTMLBody      string     `gorm:"type:text" json:"htmlBody"`

	Status        OutboxStatus `gorm:"type:varchar(16);not null;default:pending;index:idx_outbox_due,priority:1" json:"status"`
	Attempts      int          `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt time.Time    `gorm:"not null;index:idx_outbox_due,priority:2" json:"nextAttemptAt"`
	LastError     string       `gorm:"type:text" json:"lastError,omitempty"`
	SentAt        *time.Time   `json:"sentAt,omitempty"`
}

func (m *OutboxMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
