package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"civicpulse-be/middlewares"
	"civicpulse-be/models"
	"civicpulse-be/services"
	authUtils "civicpulse-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, subject string) (*models.User, error)
}

type PhoneVerifier interface {
	SendCode(ctx context.Context, user *models.User) (string, error)
	VerifyCode(ctx context.Context, user *models.User, code string) (*models.User, error)
}

type IdentityVerifier interface {
	Verify(idToken string) (authUtils.Identity, error)
}

type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

type AuthController struct {
	accounts AccountService
	phones   PhoneVerifier
	identity IdentityVerifier
	tokens   TokenIssuer
	// exposeCodes echoes verification codes back outside production.
	exposeCodes bool
	log         *slog.Logger
}

func NewAuthController(accounts AccountService, phones PhoneVerifier, identity IdentityVerifier, tokens TokenIssuer, exposeCodes bool, log *slog.Logger) *AuthController {
	return &AuthController{
		accounts:    accounts,
		phones:      phones,
		identity:    identity,
		tokens:      tokens,
		exposeCodes: exposeCodes,
		log:         log,
	}
}

// RegisterUser creates an account for a verified identity-provider user
func (h *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		IDToken   string `json:"idToken" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Phone     string `json:"phone" binding:"required"`
		RegionID  string `json:"regionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.identity.Verify(input.IDToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if identity.Email != "" && !strings.EqualFold(strings.TrimSpace(identity.Email), strings.TrimSpace(input.Email)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email does not match the identity token"})
		return
	}
	region, err := primitive.ObjectIDFromHex(input.RegionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid region ID"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.accounts.Register(ctx, services.RegisterInput{
		Subject:       identity.Subject,
		EmailVerified: identity.EmailVerified,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		Phone:         input.Phone,
		Region:        region,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

// LoginUser exchanges an identity token for a session token
func (h *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.identity.Verify(input.IDToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.accounts.Login(ctx, identity.Subject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthController) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

// GetMe returns the authenticated account
func (h *AuthController) GetMe(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user, "isVerified": user.IsVerified()})
}

// SendPhoneVerification issues a one-time code for the caller's phone
func (h *AuthController) SendPhoneVerification(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user.IsPhoneVerified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number already verified"})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	code, err := h.phones.SendCode(ctx, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := gin.H{"message": "Verification code sent"}
	if h.exposeCodes {
		resp["code"] = code
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyPhoneCode confirms the caller's phone with a one-time code
func (h *AuthController) VerifyPhoneCode(c *gin.Context) {
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.phones.VerifyCode(ctx, middlewares.CurrentUser(c), input.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone number verified successfully", "user": user})
}
