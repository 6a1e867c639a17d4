package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"civicpulse-be/engine"
	"civicpulse-be/services"
	"civicpulse-be/store"
	authUtils "civicpulse-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// statusFor maps the error taxonomy onto HTTP status codes. Zero means the
// error is internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrDuplicateVote), errors.Is(err, engine.ErrDuplicateBadge):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidBadge), errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, authUtils.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrMediaUnavailable):
		return http.StatusServiceUnavailable
	}
	return 0
}

// respondError writes err in the API's error shape. Internal errors are
// logged and replaced with a generic message.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)
	if status == 0 {
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// objectIDParam parses the named path parameter, answering 400 on failure.
func objectIDParam(c *gin.Context, name, kind string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + kind + " ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID parses a hex id that may be empty.
func optionalObjectID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, engine.Invalid("invalid id %q", hex)
	}
	return &id, nil
}

func pagination(c *gin.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
