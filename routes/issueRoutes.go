package routes

import (
	"civicresolve-be/controllers"
	"civicresolve-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueGates are the middlewares that guard issue routes.
type IssueGates struct {
	Citizen     gin.HandlerFunc
	Officer     gin.HandlerFunc
	ReportLimit gin.HandlerFunc
}

// NewIssueGates builds the gates from a session verifier. limit may be nil.
func NewIssueGates(verifier middlewares.SessionVerifier, limit gin.HandlerFunc) IssueGates {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	return IssueGates{
		Citizen:     middlewares.RequireCitizen(verifier),
		Officer:     middlewares.RequireOfficer(verifier),
		ReportLimit: limit,
	}
}

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, gates IssueGates) {
	issues := r.Group("/api/issues")

	// Public
	issues.POST("/check-duplicate", ic.CheckDuplicate)
	issues.GET("/track/:ticketId", ic.TrackIssue)
	issues.GET("/stats", ic.Stats)
	issues.GET("/public-map", ic.PublicMap)

	// Citizens and workers
	issues.POST("/report", gates.Citizen, gates.ReportLimit, ic.ReportIssue)
	issues.GET("/my-issues", gates.Citizen, ic.MyIssues)
	issues.PUT("/feedback/:ticketId", gates.Citizen, ic.SubmitFeedback)
	issues.GET("/worker/tasks", gates.Citizen, ic.WorkerTasks)
	issues.PUT("/worker-complete/:id", gates.Citizen, ic.WorkerComplete)

	// Officers
	issues.GET("/admin/all", gates.Officer, ic.AllIssues)
	issues.PUT("/assign-dept/:id", gates.Officer, ic.AssignDepartment)
	issues.PUT("/:id/status", gates.Officer, ic.UpdateStatus)
	issues.GET("/dept/all", gates.Officer, ic.DepartmentIssues)
	issues.GET("/workers/:dept", gates.Officer, ic.WorkersByDepartment)
	issues.PUT("/assign-worker/:id", gates.Officer, ic.AssignWorker)
}
