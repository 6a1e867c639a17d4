package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// CommentRoutes sets up threaded discussion routes
func CommentRoutes(r *gin.Engine, comments *controllers.CommentController, authenticated gin.HandlerFunc) {
	comment := r.Group("/api/comments")
	{
		comment.POST("", authenticated, middlewares.RequireVerified(), comments.CreateComment)
		comment.GET("/issue/:issueId", comments.GetIssueComments)
		comment.GET("/:id", comments.GetComment)
		comment.PUT("/:id", authenticated, comments.UpdateComment)
		comment.DELETE("/:id", authenticated, comments.DeleteComment)
		comment.POST("/:id/like", authenticated, comments.LikeComment)
	}
}
