package controllers

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"civicresolve-be/middlewares"
	"civicresolve-be/models"
	"civicresolve-be/services"

	"github.com/gin-gonic/gin"
)

// Upload folders inside the media bucket.
const (
	issueImageFolder      = "issues"
	resolutionImageFolder = "resolutions"
)

// BlobStore persists uploaded photos and returns their public URL.
type BlobStore interface {
	Store(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64) (string, error)
}

// IssueController serves the issue lifecycle endpoints.
type IssueController struct {
	issues *services.IssueService
	blobs  BlobStore
}

func NewIssueController(issues *services.IssueService, blobs BlobStore) *IssueController {
	RegisterValidators()
	return &IssueController{issues: issues, blobs: blobs}
}

type reportRequest struct {
	Location    string          `form:"location" binding:"required"`
	Ward        string          `form:"ward" binding:"required,max=100"`
	Category    models.Category `form:"category" binding:"required,category"`
	Description string          `form:"description" binding:"max=2000"`
	IsHazard    bool            `form:"isHazard"`
}

// reportLocation is the JSON document sent in the location form field.
type reportLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func parseLocation(raw string) (lng, lat float64, err error) {
	var loc reportLocation
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&loc); err != nil {
		return 0, 0, models.NewValidationError("Invalid location", "location must be a JSON object with latitude and longitude")
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return 0, 0, models.NewValidationError("Invalid location", "latitude and longitude are required")
	}
	if err := services.ValidateCoordinates(*loc.Longitude, *loc.Latitude); err != nil {
		return 0, 0, err
	}
	return *loc.Longitude, *loc.Latitude, nil
}

// ReportIssue accepts a multipart report with an issueImage file.
func (ic *IssueController) ReportIssue(c *gin.Context) {
	citizen, ok := middlewares.CitizenFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("User not authenticated"))
		return
	}

	var input reportRequest
	if err := c.ShouldBind(&input); err != nil {
		respondError(c, bindError(err))
		return
	}
	lng, lat, err := parseLocation(input.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	header, err := formFile(c, "issueImage")
	if err != nil {
		respondError(c, models.NewValidationError("Invalid upload", err.Error()))
		return
	}
	if header == nil {
		respondError(c, models.NewValidationError("Issue image is required"))
		return
	}
	imageURL, err := ic.upload(c.Request.Context(), issueImageFolder, header)
	if err != nil {
		respondError(c, err)
		return
	}

	issue, err := ic.issues.Report(c.Request.Context(), citizen, services.ReportInput{
		Lng:         lng,
		Lat:         lat,
		Ward:        input.Ward,
		Category:    input.Category,
		Description: input.Description,
		ImageURL:    imageURL,
		IsHazard:    input.IsHazard,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Reported", "ticketId": issue.TicketID, "issue": issue})
}

type duplicateRequest struct {
	Lat      *float64        `json:"lat" binding:"required"`
	Lng      *float64        `json:"lng" binding:"required"`
	Category models.Category `json:"category" binding:"required,category"`
}

// CheckDuplicate lists active same-category issues within the duplicate radius.
func (ic *IssueController) CheckDuplicate(c *gin.Context) {
	var input duplicateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, models.NewValidationError("Missing location or category", strings.Join(ParseErrors(err), "; ")))
		return
	}
	if err := services.ValidateCoordinates(*input.Lng, *input.Lat); err != nil {
		respondError(c, err)
		return
	}

	issues, err := ic.issues.FindNearbyActive(c.Request.Context(), *input.Lng, *input.Lat, input.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (ic *IssueController) MyIssues(c *gin.Context) {
	citizen, ok := middlewares.CitizenFrom(c)
	if !ok {
		respondError(c, models.NewForbiddenError("Access Denied"))
		return
	}
	issues, err := ic.issues.MyIssues(c.Request.Context(), citizen)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (ic *IssueController) TrackIssue(c *gin.Context) {
	issue, err := ic.issues.Track(c.Request.Context(), c.Param("ticketId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (ic *IssueController) Stats(c *gin.Context) {
	stats, err := ic.issues.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ic *IssueController) PublicMap(c *gin.Context) {
	pins, err := ic.issues.PublicMap(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pins)
}

type feedbackRequest struct {
	Feedback models.CitizenFeedback `json:"feedback" binding:"required,feedback"`
}

func (ic *IssueController) SubmitFeedback(c *gin.Context) {
	citizen, ok := middlewares.CitizenFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("User not authenticated"))
		return
	}
	var input feedbackRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	issue, err := ic.issues.SubmitFeedback(c.Request.Context(), citizen, c.Param("ticketId"), input.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback submitted", "issue": issue})
}

func (ic *IssueController) AllIssues(c *gin.Context) {
	issues, err := ic.issues.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

type assignDeptRequest struct {
	Department models.Department `json:"department" binding:"required,department"`
}

func (ic *IssueController) AssignDepartment(c *gin.Context) {
	officer, ok := middlewares.OfficerFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("Officer not authenticated"))
		return
	}
	var input assignDeptRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	issue, err := ic.issues.AssignDepartment(c.Request.Context(), officer, c.Param("id"), input.Department)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

type updateStatusRequest struct {
	Status          models.IssueStatus `form:"status" json:"status" binding:"required,issue_status"`
	ResolutionNote  *string            `form:"resolutionNote" json:"resolutionNote"`
	ResolutionCost  *float64           `form:"resolutionCost" json:"resolutionCost" binding:"omitempty,gte=0"`
	RejectionReason *string            `form:"rejectionReason" json:"rejectionReason"`
}

// UpdateStatus accepts JSON or multipart with an optional resolutionImage.
func (ic *IssueController) UpdateStatus(c *gin.Context) {
	officer, ok := middlewares.OfficerFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("Officer not authenticated"))
		return
	}
	var input updateStatusRequest
	if err := c.ShouldBind(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	imageURL, err := ic.optionalUpload(c, "resolutionImage")
	if err != nil {
		respondError(c, err)
		return
	}

	issue, err := ic.issues.UpdateStatus(c.Request.Context(), officer, c.Param("id"), services.StatusUpdate{
		Status:             input.Status,
		ResolutionNote:     input.ResolutionNote,
		ResolutionCost:     input.ResolutionCost,
		ResolutionImageURL: imageURL,
		RejectionReason:    input.RejectionReason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (ic *IssueController) DepartmentIssues(c *gin.Context) {
	officer, ok := middlewares.OfficerFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("Officer not authenticated"))
		return
	}
	issues, err := ic.issues.DepartmentIssues(c.Request.Context(), officer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (ic *IssueController) WorkerTasks(c *gin.Context) {
	worker, ok := middlewares.CitizenFrom(c)
	if !ok {
		respondError(c, models.NewForbiddenError("Access Denied"))
		return
	}
	issues, err := ic.issues.WorkerTasks(c.Request.Context(), worker)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (ic *IssueController) WorkersByDepartment(c *gin.Context) {
	workers, err := ic.issues.WorkersByDepartment(c.Request.Context(), models.Department(c.Param("dept")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workers)
}

type assignWorkerRequest struct {
	WorkerID string `json:"workerId" binding:"required"`
}

func (ic *IssueController) AssignWorker(c *gin.Context) {
	officer, ok := middlewares.OfficerFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("Officer not authenticated"))
		return
	}
	var input assignWorkerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	issue, err := ic.issues.AssignWorker(c.Request.Context(), officer, c.Param("id"), input.WorkerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

type workerCompleteRequest struct {
	Note           string   `form:"note" json:"note" binding:"max=2000"`
	ResolutionCost *float64 `form:"resolutionCost" json:"resolutionCost" binding:"omitempty,gte=0"`
}

// WorkerComplete accepts JSON or multipart with an optional resolutionImage.
func (ic *IssueController) WorkerComplete(c *gin.Context) {
	worker, ok := middlewares.CitizenFrom(c)
	if !ok {
		respondError(c, models.NewUnauthorizedError("User not authenticated"))
		return
	}
	if !worker.IsWorker() {
		respondError(c, models.NewForbiddenError("Only workers can complete tasks"))
		return
	}
	var input workerCompleteRequest
	if err := c.ShouldBind(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	imageURL, err := ic.optionalUpload(c, "resolutionImage")
	if err != nil {
		respondError(c, err)
		return
	}

	issue, err := ic.issues.CompleteWork(c.Request.Context(), worker, c.Param("id"), services.Completion{
		Note:               input.Note,
		ResolutionCost:     input.ResolutionCost,
		ResolutionImageURL: imageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (ic *IssueController) optionalUpload(c *gin.Context, field string) (*string, error) {
	header, err := formFile(c, field)
	if err != nil {
		return nil, models.NewValidationError("Invalid upload", err.Error())
	}
	if header == nil {
		return nil, nil
	}
	url, err := ic.upload(c.Request.Context(), resolutionImageFolder, header)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// upload must finish before the issue is mutated so stored URLs always resolve.
func (ic *IssueController) upload(ctx context.Context, folder string, header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", models.NewValidationError("Invalid upload", err.Error())
	}
	defer f.Close()

	url, err := ic.blobs.Store(ctx, folder, header.Filename, header.Header.Get("Content-Type"), f, header.Size)
	if err != nil {
		return "", models.NewInternalError("Image upload failed", err)
	}
	return url, nil
}
