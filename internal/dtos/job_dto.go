package dtos

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// JobDraft is the model's suggestion for a new posting; the poster reviews it
// before calling POST /jobs.
type JobDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type JobCreationRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	CompanyID   string `json:"company_id" binding:"required"`
}

// JobUpdateRequest changes only the fields that are present.
type JobUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CompanyID   *string `json:"company_id"`
}

type CompanyCreationRequest struct {
	Name string `json:"name" binding:"required"`
}
