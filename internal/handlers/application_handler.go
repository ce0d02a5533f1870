package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/query"
	"github.com/justsurfingit/job-board/internal/services"
)

type ApplicationHandler struct {
	ApplicationService *services.ApplicationService
}

func NewApplicationHandler(a *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{ApplicationService: a}
}

// ListApplications godoc
// @Summary List applications visible to the caller
// @Description Applicants see their own; posters see those for their tenant's jobs. Filters: job_id, user_id, status.
// @Tags applications
// @Produce json
// @Param status query string false "Submitted, Hired or Rejected"
// @Success 200 {array} models.Application
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, err := query.Parse(c.Request.URL.Query(), query.ApplicationSchema)
	if err != nil {
		respondError(c, err)
		return
	}
	apps, err := h.ApplicationService.List(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// GetApplication godoc
// @Summary Get an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} services.ApplicationView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, err := query.Parse(c.Request.URL.Query(), query.ApplicationSchema)
	if err != nil {
		respondError(c, err)
		return
	}
	app, err := h.ApplicationService.Get(c.Request.Context(), caller, c.Param("id"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ListApplicationEvents godoc
// @Summary Audit trail of an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {array} models.ApplicationEvent
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/events [get]
func (h *ApplicationHandler) ListApplicationEvents(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	app, err := h.ApplicationService.Get(ctx, caller, c.Param("id"), query.Params{})
	if err != nil {
		respondError(c, err)
		return
	}
	events, err := h.ApplicationService.Events(ctx, app.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// SubmitApplication godoc
// @Summary Apply to a job
// @Tags applications
// @Accept json
// @Produce json
// @Param application body dtos.ApplicationCreationRequest true "Application"
// @Success 201 {object} models.Application
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications [post]
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req dtos.ApplicationCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, &req))
		return
	}
	app, err := h.ApplicationService.Submit(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// UpdateApplication godoc
// @Summary Decide on or edit an application
// @Description Posters move a Submitted application to Hired or Rejected; applicants edit content while it is Submitted.
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param application body dtos.ApplicationUpdateRequest true "Changes"
// @Success 200 {object} models.Application
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id} [put]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req dtos.ApplicationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, &req))
		return
	}
	app, err := h.ApplicationService.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// DeleteApplication godoc
// @Summary Withdraw or remove an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} models.Application
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	app, err := h.ApplicationService.Delete(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
