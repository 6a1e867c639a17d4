package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"civicpulse-be/engine"
	"civicpulse-be/middlewares"
	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentService interface {
	CreateComment(ctx context.Context, author *models.User, issueID primitive.ObjectID, parentID *primitive.ObjectID, in engine.CommentInput) (*models.Comment, error)
	ListComments(ctx context.Context, issueID primitive.ObjectID, page, limit int) ([]models.Comment, int64, error)
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor *models.User, id primitive.ObjectID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor *models.User, id primitive.ObjectID) error
	LikeComment(ctx context.Context, user *models.User, id primitive.ObjectID) (bool, int, error)
}

type CommentController struct {
	comments CommentService
	log      *slog.Logger
}

func NewCommentController(comments CommentService, log *slog.Logger) *CommentController {
	return &CommentController{comments: comments, log: log}
}

// CreateComment posts a comment or a reply on an issue
func (h *CommentController) CreateComment(c *gin.Context) {
	var input struct {
		IssueID         string   `json:"issueId" binding:"required"`
		Content         string   `json:"content" binding:"required"`
		ParentCommentID string   `json:"parentCommentId"`
		MediaURLs       []string `json:"mediaUrls" binding:"omitempty,dive,url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issueID, err := primitive.ObjectIDFromHex(input.IssueID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}
	parent, err := optionalObjectID(input.ParentCommentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := h.comments.CreateComment(ctx, middlewares.CurrentUser(c), issueID, parent,
		engine.CommentInput{Content: input.Content, MediaURLs: input.MediaURLs})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetIssueComments lists an issue's comments, oldest first
func (h *CommentController) GetIssueComments(c *gin.Context) {
	issueID, ok := objectIDParam(c, "issueId", "issue")
	if !ok {
		return
	}
	page, limit := pagination(c, 20)
	ctx, cancel := requestContext(c)
	defer cancel()

	comments, total, err := h.comments.ListComments(ctx, issueID, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments":      comments,
		"totalComments": total,
		"totalPages":    totalPages(total, limit),
		"currentPage":   page,
	})
}

func (h *CommentController) GetComment(c *gin.Context) {
	commentID, ok := objectIDParam(c, "id", "comment")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := h.comments.GetComment(ctx, commentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentController) UpdateComment(c *gin.Context) {
	commentID, ok := objectIDParam(c, "id", "comment")
	if !ok {
		return
	}
	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := h.comments.UpdateComment(ctx, middlewares.CurrentUser(c), commentID, input.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentController) DeleteComment(c *gin.Context) {
	commentID, ok := objectIDParam(c, "id", "comment")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.comments.DeleteComment(ctx, middlewares.CurrentUser(c), commentID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// LikeComment toggles the caller's like
func (h *CommentController) LikeComment(c *gin.Context) {
	commentID, ok := objectIDParam(c, "id", "comment")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	liked, count, err := h.comments.LikeComment(ctx, middlewares.CurrentUser(c), commentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likeCount": count})
}
