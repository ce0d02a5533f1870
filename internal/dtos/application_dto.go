package dtos

import "github.com/justsurfingit/job-board/internal/models"

type ApplicationCreationRequest struct {
	JobID       string `json:"job_id" binding:"required"`
	CoverLetter string `json:"coverLetter" binding:"required"`

	// Optional Fields
	Attachement     string `json:"attachement" binding:"omitempty,url"`
	AttachementName string `json:"attachementName"`
	// UserID may be sent by older clients; it must match the caller.
	UserID string `json:"user_id"`
}

// ApplicationUpdateRequest carries either a status decision from the job
// poster or content edits from the applicant.
type ApplicationUpdateRequest struct {
	Status          *models.ApplicationStatus `json:"status"`
	CoverLetter     *string                   `json:"coverLetter"`
	Attachement     *string                   `json:"attachement" binding:"omitempty,url"`
	AttachementName *string                   `json:"attachementName"`
}

func (r *ApplicationUpdateRequest) HasContentChanges() bool {
	return r.CoverLetter != nil || r.Attachement != nil || r.AttachementName != nil
}
