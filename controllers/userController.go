package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"civicpulse-be/middlewares"
	"civicpulse-be/models"
	"civicpulse-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	GetProfile(ctx context.Context, id primitive.ObjectID) (*models.User, models.Statistics, error)
	UpdateProfile(ctx context.Context, actor *models.User, in services.ProfileInput) (*models.User, error)
	ChangeRole(ctx context.Context, actor *models.User, id primitive.ObjectID, role models.Role) (*models.User, error)
	AwardBadge(ctx context.Context, actor *models.User, id primitive.ObjectID, badge models.BadgeType) (*models.User, error)
	UserIssues(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, page, limit int) ([]models.Issue, int64, error)
	SubscribedIssues(ctx context.Context, user *models.User, page, limit int) ([]models.Issue, int64, error)
}

type UserController struct {
	users UserService
	log   *slog.Logger
}

func NewUserController(users UserService, log *slog.Logger) *UserController {
	return &UserController{users: users, log: log}
}

// GetUserProfile returns a profile with a freshly computed trust score
func (h *UserController) GetUserProfile(c *gin.Context) {
	userID, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, stats, err := h.users.GetProfile(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "statistics": stats})
}

// UpdateProfile edits the caller's own profile
func (h *UserController) UpdateProfile(c *gin.Context) {
	var input struct {
		FirstName    *string `json:"firstName"`
		LastName     *string `json:"lastName"`
		Phone        *string `json:"phone"`
		RegionID     *string `json:"regionId"`
		Bio          *string `json:"bio"`
		Organization *string `json:"organization"`
		Position     *string `json:"position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := services.ProfileInput{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Bio:          input.Bio,
		Organization: input.Organization,
		Position:     input.Position,
	}
	if input.RegionID != nil {
		region, err := primitive.ObjectIDFromHex(*input.RegionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid region ID"})
			return
		}
		in.Region = &region
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.UpdateProfile(ctx, middlewares.CurrentUser(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUserIssues lists the issues a user created
func (h *UserController) GetUserIssues(c *gin.Context) {
	userID, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	var status models.IssueStatus
	if s := c.Query("status"); s != "" && s != "all" {
		status = models.IssueStatus(s)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}
	page, limit := pagination(c, 10)
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, total, err := h.users.UserIssues(ctx, userID, status, page, limit)
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

// GetSubscribedIssues lists the issues the caller follows
func (h *UserController) GetSubscribedIssues(c *gin.Context) {
	page, limit := pagination(c, 10)
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, total, err := h.users.SubscribedIssues(ctx, middlewares.CurrentUser(c), page, limit)
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

// UpdateUserRole sets a user's role (admin only)
func (h *UserController) UpdateUserRole(c *gin.Context) {
	userID, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	var input struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.ChangeRole(ctx, middlewares.CurrentUser(c), userID, input.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// AwardBadge grants a badge (admin only)
func (h *UserController) AwardBadge(c *gin.Context) {
	userID, ok := objectIDParam(c, "id", "user")
	if !ok {
		return
	}
	var input struct {
		Badge models.BadgeType `json:"badge" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.AwardBadge(ctx, middlewares.CurrentUser(c), userID, input.Badge)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Badge awarded successfully", "user": user})
}
