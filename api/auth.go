package api

import (
	"net/http"
	"strings"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service    auth.AuthUseCase
	appBaseURL string
}

func NewAuthHandler(service auth.AuthUseCase, appBaseURL string) *AuthHandler {
	return &AuthHandler{service: service, appBaseURL: strings.TrimRight(appBaseURL, "/")}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/signup", h.signup)
	router.POST("/login", h.login)
	router.GET("/verify-email", h.verifyEmail)
	router.POST("/forgot-password", h.forgotPassword)
	router.POST("/reset-password", h.resetPassword)
}

func userPayload(u *domain.User) gin.H {
	return gin.H{
		"id":             u.ID,
		"email":          u.Email,
		"name":           u.Name,
		"email_verified": u.EmailVerified,
	}
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req auth.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, session, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": userPayload(user), "token": session})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": session, "user": userPayload(user)})
}

// verifyEmail is a browser-facing link target, so outcomes are redirects to
// frontend pages rather than JSON bodies.
func (h *AuthHandler) verifyEmail(c *gin.Context) {
	token := c.Query("token")
	if _, err := h.service.RedeemToken(c.Request.Context(), token, domain.TokenTypeEmailVerification); err != nil {
		c.Redirect(http.StatusFound, h.appBaseURL+"/verify-email/failure?reason=invalid_token")
		return
	}
	c.Redirect(http.StatusFound, h.appBaseURL+"/verify-email/success")
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// forgotPassword answers identically for known and unknown accounts.
func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If that account exists, a reset link has been sent."})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
