package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/session"
	"github.com/justsurfingit/job-board/internal/uploads"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Logger      *zap.Logger
	Sessions    session.Resolver
	Users       UserLookup
	CORSOrigins []string
	UploadsDir  string

	Jobs         *JobHandler
	Applications *ApplicationHandler
	Directory    *DirectoryHandler
	Uploads      *UploadHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": fmt.Sprintf("Method %s not allowed", c.Request.Method)})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", Type: "NOT_FOUND"})
	})

	r.Use(gin.Recovery())
	r.Use(RequestLogger(d.Logger))

	config := cors.DefaultConfig()
	if len(d.CORSOrigins) == 0 || (len(d.CORSOrigins) == 1 && d.CORSOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = d.CORSOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	if d.UploadsDir != "" {
		r.Static(uploads.Prefix, d.UploadsDir)
	}

	api := r.Group("/api/v1")
	api.GET("/health", HealthCheck)

	authed := api.Group("")
	authed.Use(RequireSession(d.Sessions, d.Users))
	{
		// Job Routes
		authed.GET("/jobs", d.Jobs.ListJobs)
		authed.POST("/jobs", d.Jobs.CreateJob)
		authed.GET("/jobs/search", d.Jobs.SearchJobs)
		authed.POST("/jobs/extract", d.Jobs.ParseJob)
		authed.GET("/jobs/:id", d.Jobs.GetJob)
		authed.PUT("/jobs/:id", d.Jobs.UpdateJob)
		authed.DELETE("/jobs/:id", d.Jobs.DeleteJob)

		// Application Routes
		authed.GET("/applications", d.Applications.ListApplications)
		authed.POST("/applications", d.Applications.SubmitApplication)
		authed.GET("/applications/:id", d.Applications.GetApplication)
		authed.PUT("/applications/:id", d.Applications.UpdateApplication)
		authed.DELETE("/applications/:id", d.Applications.DeleteApplication)
		authed.GET("/applications/:id/events", d.Applications.ListApplicationEvents)

		authed.GET("/users", d.Directory.ListUsers)
		authed.GET("/users/:id", d.Directory.GetUser)
		authed.GET("/companies", d.Directory.ListCompanies)
		authed.POST("/companies", d.Directory.CreateCompany)

		authed.POST("/uploads", d.Uploads.Upload)
	}
	return r
}
