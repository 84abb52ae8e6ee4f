package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service"
)

// AuthHandler handles account, profile and waitlist endpoints
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// currentUserID pulls the authenticated user ID set by AuthMiddleware
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Register godoc
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.RegisterRequest true "Register request"
// @Success 201 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.LoginRequest true "Login request"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Log out (revokes the current token)
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Get("token")
	tokenString, _ := token.(string)

	if err := h.authService.Logout(c.Request.Context(), tokenString); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Logged out"})
}

// Me godoc
// @Summary Get the current user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	resp, err := h.authService.GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /users/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	resp, err := h.authService.UpdateProfile(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchUsers godoc
// @Summary Search community members by name or email
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param limit query int false "Max results (default 20)"
// @Success 200 {array} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /users/search [get]
func (h *AuthHandler) SearchUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, err := h.authService.SearchUsers(query, userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Follow godoc
// @Summary Follow another user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID to follow"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /users/{id}/follow [post]
func (h *AuthHandler) Follow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	followeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.authService.Follow(userID, followeeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Following"})
}

// Unfollow godoc
// @Summary Unfollow a user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID to unfollow"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /users/{id}/follow [delete]
func (h *AuthHandler) Unfollow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	followeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.authService.Unfollow(userID, followeeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Unfollowed"})
}

// FollowerCount godoc
// @Summary Get a user's follower count
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /users/{id}/followers/count [get]
func (h *AuthHandler) FollowerCount(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	count, err := h.authService.FollowerCount(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// RegisterFCMToken godoc
// @Summary Register a push token for the companion app
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RegisterFCMTokenRequest true "FCM token"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /users/me/fcm-token [post]
func (h *AuthHandler) RegisterFCMToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	var req model.RegisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.authService.RegisterFCMToken(userID, req); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to register token"})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Token registered"})
}

// JoinWaitlist godoc
// @Summary Join the wearable hardware waitlist
// @Description Public endpoint. Records a signup and sends a confirmation email.
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param body body model.WaitlistRequest true "Waitlist signup"
// @Success 201 {object} model.WaitlistEntry
// @Failure 400 {object} model.ErrorResponse
// @Router /waitlist [post]
func (h *AuthHandler) JoinWaitlist(c *gin.Context) {
	var req model.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	entry, err := h.authService.JoinWaitlist(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entry)
}
