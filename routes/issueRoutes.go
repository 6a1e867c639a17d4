package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"
	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue, vote, subscription and ledger routes.
// Listings are public; everything else needs a session.
func IssueRoutes(r *gin.Engine, issues *controllers.IssueController, authenticated, issueLimiter gin.HandlerFunc) {
	issue := r.Group("/api/issues")
	{
		issue.GET("", issues.GetAllIssues)
		issue.GET("/trending", issues.GetTrendingIssues)
		issue.GET("/tackled", issues.GetTackledIssues)
		issue.GET("/:id", issues.GetIssue)

		issue.POST("", authenticated, middlewares.RequireVerified(), issueLimiter, issues.CreateIssue)
		issue.GET("/upload-url", authenticated, middlewares.RequireVerified(), issues.GetUploadURL)
		issue.PUT("/:id", authenticated, issues.UpdateIssue)
		issue.DELETE("/:id", authenticated, issues.DeleteIssue)
		issue.POST("/:id/vote", authenticated, middlewares.RequireVerified(), issues.VoteIssue)
		issue.POST("/:id/subscribe", authenticated, issues.ToggleSubscription)

		steps := issue.Group("/:id/resolution-step", authenticated, middlewares.RequireCapability(models.CapAddResolutionStep))
		steps.POST("", issues.AddResolutionStep)
		steps.PUT("/:stepId/complete", issues.CompleteResolutionStep)
	}
}
