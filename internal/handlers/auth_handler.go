package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/middleware"
)

// Credentials is the single operator account allowed to log in
type Credentials struct {
	Username string
	Password string
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *middleware.AuthService
	credentials Credentials
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *middleware.AuthService, credentials Credentials) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		credentials: credentials,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo represents user information
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// RefreshTokenRequest represents the refresh token request
type RefreshTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *AuthHandler) validCredentials(username, password string) bool {
	if h.credentials.Username == "" || h.credentials.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.credentials.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.credentials.Password)) == 1
	return userOK && passOK
}

// @Summary Login
// @Description Authenticate the operator account and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	if !h.validCredentials(req.Username, req.Password) {
		logrus.WithFields(logrus.Fields{
			"username":  req.Username,
			"client_ip": c.ClientIP(),
		}).Warn("Login failed")

		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Invalid credentials",
			Message: "username or password is incorrect",
		})
		return
	}

	user := UserInfo{
		ID:       "operator-" + req.Username,
		Username: req.Username,
		Roles:    []string{string(middleware.RoleAdmin), string(middleware.RoleOperator)},
	}

	token, err := h.authService.GenerateToken(user.ID, user.Username, user.Roles)
	if err != nil {
		respondError(c, err, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.authService.TokenDuration()),
		User:      user,
	})
}

// @Summary Refresh Token
// @Description Refresh an existing JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param token body RefreshTokenRequest true "Token to refresh"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	newToken, err := h.authService.RefreshToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Invalid or expired token",
			Message: err.Error(),
		})
		return
	}

	claims, err := h.authService.ValidateToken(newToken)
	if err != nil {
		respondError(c, err, "Failed to validate new token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     newToken,
		ExpiresAt: claims.ExpiresAt.Time,
		User: UserInfo{
			ID:       claims.UserID,
			Username: claims.Username,
			Roles:    claims.Roles,
		},
	})
}

// @Summary Get Current User
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserInfo
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, username, roles, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Not authenticated",
			Message: "no user in request context",
		})
		return
	}

	c.JSON(http.StatusOK, UserInfo{
		ID:       userID,
		Username: username,
		Roles:    roles,
	})
}
