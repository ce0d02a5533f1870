package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	ProfileImage string `json:"profileImage"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`

	// RoqUserID is the identity platform's id for this user; sessions carry it.
	RoqUserID string `gorm:"uniqueIndex;not null" json:"roq_user_id"`
	TenantID  string `gorm:"index;not null" json:"tenant_id"`
}

type Company struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `gorm:"not null" json:"name"`
	TenantID string `gorm:"index;not null" json:"tenant_id"`
	UserID   string `gorm:"type:uuid" json:"user_id"`

	// 'omitempty' prevents infinite loops when fetching a Job -> Company -> Jobs -> ...
	Jobs []Job `json:"jobs,omitempty"`
}

type Job struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Foreign Key
	CompanyID string `gorm:"type:uuid;not null;index" json:"company_id"`
	// Association: filled only when the caller asks for the "company" relation
	Company *Company `json:"company,omitempty"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	Applications []Application `gorm:"foreignKey:JobID" json:"application,omitempty"`
	Count        *JobCount     `gorm:"-" json:"_count,omitempty"`
}

// JobCount is the aggregate block requested with the "application.count" relation.
type JobCount struct {
	Application int64 `json:"application"`
}

type Application struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	JobID string `gorm:"type:uuid;not null;index" json:"job_id"`
	Job   *Job   `json:"job,omitempty"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `json:"user,omitempty"`

	Status          ApplicationStatus `gorm:"not null;default:'Submitted'" json:"status"`
	CoverLetter     string            `gorm:"type:text;not null" json:"coverLetter"`
	Attachement     string            `json:"attachement"`
	AttachementName string            `json:"attachementName"`

	// ConversationID references the external chat thread opened on submit.
	ConversationID string `gorm:"column:roq_conversation_id" json:"roqConversationId"`
}

// ApplicationEvent records each workflow step taken on an application.
type ApplicationEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ApplicationID string    `gorm:"type:uuid;index" json:"application_id"`
	EventType     string    `json:"event_type"`
	Details       string    `gorm:"type:text" json:"details"`
}

const (
	EventSubmitted          = "SUBMITTED"
	EventStatusChanged      = "STATUS_CHANGED"
	EventConversationOpened = "CONVERSATION_OPENED"
	EventConversationFailed = "CONVERSATION_FAILED"
	EventNotified           = "NOTIFIED"
	EventNotifyFailed       = "NOTIFY_FAILED"
)

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusSubmitted
	}
	return nil
}

// All returns every model that needs a table, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&Job{},
		&Application{},
		&ApplicationEvent{},
	}
}
