package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/query"
	"github.com/justsurfingit/job-board/internal/services"
)

// DirectoryHandler serves users and companies.
type DirectoryHandler struct {
	UserService    *services.UserService
	CompanyService *services.CompanyService
}

func NewDirectoryHandler(u *services.UserService, co *services.CompanyService) *DirectoryHandler {
	return &DirectoryHandler{UserService: u, CompanyService: co}
}

// ListUsers godoc
// @Summary List users
// @Description Posters see their tenant; applicants see only themselves.
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Security BearerAuth
// @Router /users [get]
func (h *DirectoryHandler) ListUsers(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, err := query.Parse(c.Request.URL.Query(), query.UserSchema)
	if err != nil {
		respondError(c, err)
		return
	}
	users, err := h.UserService.List(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *DirectoryHandler) GetUser(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	user, err := h.UserService.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListCompanies godoc
// @Summary List companies
// @Tags companies
// @Produce json
// @Success 200 {array} models.Company
// @Security BearerAuth
// @Router /companies [get]
func (h *DirectoryHandler) ListCompanies(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	params, err := query.Parse(c.Request.URL.Query(), query.CompanySchema)
	if err != nil {
		respondError(c, err)
		return
	}
	companies, err := h.CompanyService.List(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

// CreateCompany godoc
// @Summary Register a company in the caller's tenant
// @Tags companies
// @Accept json
// @Produce json
// @Param company body dtos.CompanyCreationRequest true "Company"
// @Success 201 {object} models.Company
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /companies [post]
func (h *DirectoryHandler) CreateCompany(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req dtos.CompanyCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, &req))
		return
	}
	company, err := h.CompanyService.Create(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}
