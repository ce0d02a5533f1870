package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/query"
	"github.com/justsurfingit/job-board/internal/services"
)

type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
}

func NewJobHandler(llm *services.LLMService, j *services.JobService) *JobHandler {
	return &JobHandler{
		LLMService: llm,
		JobService: j,
	}
}

// ListJobs godoc
// @Summary List jobs
// @Description Newest first. Filters: company_id, title. Relations: company, application, application.user, application.count
// @Tags jobs
// @Produce json
// @Param relations query string false "Comma separated relations"
// @Param limit query int false "Page size (1-100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Job
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, err := query.Parse(c.Request.URL.Query(), query.JobSchema)
	if err != nil {
		respondError(c, err)
		return
	}
	jobs, err := h.JobService.List(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// SearchJobs godoc
// @Summary Search jobs
// @Description Case-insensitive substring match on title and description. A blank q returns every job.
// @Tags jobs
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {array} models.Job
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/search [get]
func (h *JobHandler) SearchJobs(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, q, err := query.ParseSearch(c.Request.URL.Query(), query.JobSchema)
	if err != nil {
		respondError(c, err)
		return
	}
	jobs, err := h.JobService.Search(c.Request.Context(), caller, q, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} services.JobView
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, err := query.Parse(c.Request.URL.Query(), query.JobSchema)
	if err != nil {
		respondError(c, err)
		return
	}
	job, err := h.JobService.Get(c.Request.Context(), caller, c.Param("id"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateJob godoc
// @Summary Create a job
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body dtos.JobCreationRequest true "Job"
// @Success 201 {object} models.Job
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, &req))
		return
	}
	job, err := h.JobService.Create(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// UpdateJob godoc
// @Summary Update a job
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param job body dtos.JobUpdateRequest true "Fields to change"
// @Success 200 {object} models.Job
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id} [put]
func (h *JobHandler) UpdateJob(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req dtos.JobUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, &req))
		return
	}
	job, err := h.JobService.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob godoc
// @Summary Delete a job and its applications
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.Job
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	job, err := h.JobService.Delete(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ParseJob godoc
// @Summary Draft a job from an existing posting
// @Description Sends the pasted HTML to the language model and returns a title and description to review.
// @Tags jobs
// @Accept json
// @Produce json
// @Param posting body dtos.JobExtractionRequest true "Raw posting"
// @Success 200 {object} dtos.JobDraft
// @Failure 503 {object} ErrorResponse
// @Security BearerAuth
// @Router /jobs/extract [post]
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, &req))
		return
	}
	draft, err := h.LLMService.ExtractJobDraft(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
