package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/middlewares"
	"civicpulse-be/models"
	"civicpulse-be/services"
	"civicpulse-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueService is the issue lifecycle as seen by the HTTP layer.
type IssueService interface {
	CreateIssue(ctx context.Context, author *models.User, in services.CreateIssueInput) (*models.Issue, error)
	GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	ListIssues(ctx context.Context, filter store.IssueFilter) ([]models.Issue, int64, error)
	TrendingIssues(ctx context.Context, limit int) ([]models.Issue, error)
	TackledIssues(ctx context.Context, limit int) ([]models.Issue, error)
	UpdateIssue(ctx context.Context, actor *models.User, id primitive.ObjectID, in services.UpdateIssueInput) (*models.Issue, error)
	DeleteIssue(ctx context.Context, actor *models.User, id primitive.ObjectID) error
	Vote(ctx context.Context, voter *models.User, id primitive.ObjectID, priority models.Priority) (*models.Issue, error)
	ToggleSubscription(ctx context.Context, user *models.User, id primitive.ObjectID) (bool, int, error)
	AddResolutionStep(ctx context.Context, actor *models.User, id primitive.ObjectID, in engine.StepInput) (*models.Issue, error)
	CompleteResolutionStep(ctx context.Context, actor *models.User, id, stepID primitive.ObjectID) (*models.Issue, error)
}

// MediaService issues attachment upload URLs.
type MediaService interface {
	UploadURL(ctx context.Context, fileName string) (*services.Upload, error)
}

type IssueController struct {
	issues IssueService
	media  MediaService
	log    *slog.Logger
}

func NewIssueController(issues IssueService, media MediaService, log *slog.Logger) *IssueController {
	return &IssueController{issues: issues, media: media, log: log}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}

// CreateIssue handles the creation of a new issue
func (h *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
		Location    struct {
			RegionID     string              `json:"regionId"`
			IsNationwide bool                `json:"isNationwide"`
			Coordinates  *models.Coordinates `json:"coordinates"`
		} `json:"location"`
		MediaURLs []string `json:"mediaUrls" binding:"omitempty,dive,url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	region, err := optionalObjectID(input.Location.RegionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.CreateIssue(ctx, middlewares.CurrentUser(c), services.CreateIssueInput{
		Title:        input.Title,
		Description:  input.Description,
		Region:       region,
		IsNationwide: input.Location.IsNationwide,
		Coordinates:  input.Location.Coordinates,
		MediaURLs:    input.MediaURLs,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues lists issues with filtering, sorting and pagination
func (h *IssueController) GetAllIssues(c *gin.Context) {
	page, limit := pagination(c, 10)
	filter := store.IssueFilter{Page: page, Limit: limit}

	if status := c.Query("status"); status != "" && status != "all" {
		s := models.IssueStatus(status)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		filter.Status = s
	}
	region, err := optionalObjectID(c.Query("regionId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	filter.Region = region
	if v := c.Query("nationwide"); v != "" {
		nationwide, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nationwide must be true or false"})
			return
		}
		filter.Nationwide = &nationwide
	}

	switch sortBy := store.IssueSort(c.DefaultQuery("sortBy", string(store.SortCreatedAt))); sortBy {
	case store.SortCreatedAt, store.SortUpdatedAt, store.SortVotes:
		filter.SortBy = sortBy
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sortBy must be createdAt, updatedAt or votes"})
		return
	}
	switch c.DefaultQuery("order", "desc") {
	case "asc":
		filter.Ascending = true
	case "desc":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be asc or desc"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issues, total, err := h.issues.ListIssues(ctx, filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"issues":      issues,
		"totalIssues": total,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
	})
}

// GetTrendingIssues lists the most-voted unresolved issues of the last 30 days
func (h *IssueController) GetTrendingIssues(c *gin.Context) {
	_, limit := pagination(c, 5)
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := h.issues.TrendingIssues(ctx, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// GetTackledIssues lists recently resolved issues
func (h *IssueController) GetTackledIssues(c *gin.Context) {
	_, limit := pagination(c, 5)
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := h.issues.TackledIssues(ctx, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// GetIssue retrieves an issue by its ID
func (h *IssueController) GetIssue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.GetIssue(ctx, issueID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpdateIssue edits an issue; status and escalation are privileged overrides
func (h *IssueController) UpdateIssue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	var input struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		MediaURLs   []string            `json:"mediaUrls" binding:"omitempty,dive,url"`
		Status      *models.IssueStatus `json:"status"`
		IsEscalated *bool               `json:"isEscalated"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.UpdateIssue(ctx, middlewares.CurrentUser(c), issueID, services.UpdateIssueInput{
		Title:       input.Title,
		Description: input.Description,
		MediaURLs:   input.MediaURLs,
		Status:      input.Status,
		IsEscalated: input.IsEscalated,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// DeleteIssue removes an issue (author or admin)
func (h *IssueController) DeleteIssue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.issues.DeleteIssue(ctx, middlewares.CurrentUser(c), issueID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// VoteIssue casts or changes the caller's priority vote
func (h *IssueController) VoteIssue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	var input struct {
		Priority models.Priority `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.Vote(ctx, middlewares.CurrentUser(c), issueID, input.Priority)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":              "Vote recorded successfully",
		"votes":                issue.Votes,
		"responseTimeExpected": issue.ResponseDeadline,
		"isEscalated":          issue.IsEscalated,
	})
}

// ToggleSubscription follows or unfollows an issue
func (h *IssueController) ToggleSubscription(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	subscribed, count, err := h.issues.ToggleSubscription(ctx, middlewares.CurrentUser(c), issueID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": subscribed, "subscriberCount": count})
}

// AddResolutionStep appends a step to the resolution ledger
func (h *IssueController) AddResolutionStep(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	var input struct {
		Description string            `json:"description" binding:"required"`
		Status      models.StepStatus `json:"status"`
		Date        *time.Time        `json:"date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	step := engine.StepInput{Description: input.Description, Status: input.Status}
	if input.Date != nil {
		step.Date = *input.Date
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.AddResolutionStep(ctx, middlewares.CurrentUser(c), issueID, step)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// CompleteResolutionStep marks a pending step completed
func (h *IssueController) CompleteResolutionStep(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id", "issue")
	if !ok {
		return
	}
	stepID, ok := objectIDParam(c, "stepId", "resolution step")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.CompleteResolutionStep(ctx, middlewares.CurrentUser(c), issueID, stepID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// GetUploadURL returns a presigned URL for an attachment upload
func (h *IssueController) GetUploadURL(c *gin.Context) {
	fileName := c.Query("fileName")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileName is required"})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	upload, err := h.media.UploadURL(ctx, fileName)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
