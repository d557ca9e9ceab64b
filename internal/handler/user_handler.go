package handler

import (
	"errors"
	"net/http"

	"sociogram/backend/internal/database"
	"sociogram/backend/internal/models"
	"sociogram/backend/internal/notify"
	"sociogram/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// region --- DTOs ---

// SignupInput defines the structure for user registration.
type SignupInput struct {
	Email          string `json:"email" binding:"required,email" example:"test@example.com"`
	Password       string `json:"password" binding:"required,min=8" example:"password123"`
	Secret         string `json:"secret" binding:"required" example:"blue bicycle"`
	SecretPassword string `json:"secretPassword" binding:"required,min=8" example:"recovery123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// RecoverInput defines the structure for password recovery.
type RecoverInput struct {
	Email string `json:"email" binding:"required,email" example:"test@example.com"`
}

// RecoverResponse carries the recovery token and the stored secret phrase.
// Both are empty for unknown emails, so the endpoint does not leak which
// addresses exist.
type RecoverResponse struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
}

// ChangePasswordInput supports two paths: the recovery path (recoverToken +
// secretPassword) and the authenticated path (oldPassword).
type ChangePasswordInput struct {
	NewPassword    string `json:"newPassword" binding:"required,min=8"`
	OldPassword    string `json:"oldPassword"`
	SecretPassword string `json:"secretPassword"`
	RecoverToken   string `json:"recoverToken"`
}

// UpdateProfileInput defines the editable profile fields.
type UpdateProfileInput struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Image    string `json:"image"`
}

// UserResponse defines the structure for a user profile.
type UserResponse struct {
	ID       uint   `json:"id" example:"1"`
	Username string `json:"username" example:"testuser"`
	Email    string `json:"email" example:"test@example.com"`
	Image    string `json:"image,omitempty"`
}

// AuthResponse bundles a session token with the authenticated user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Image:    user.Image,
	}
}

// endregion

// UserHandler serves auth and profile endpoints. The notifier is injected so
// mutations can announce themselves on the event bus.
type UserHandler struct {
	notifier *notify.Notifier
}

// NewUserHandler creates a UserHandler publishing through notifier.
func NewUserHandler(notifier *notify.Notifier) *UserHandler {
	return &UserHandler{notifier: notifier}
}

// region --- Auth Handlers ---

// Signup godoc
// @Summary      Register a new user
// @Description  Creates a new user with a recovery secret and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body SignupInput true "Registration Info"
// @Success      201  {object}  AuthResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if err := database.DB.Where("email = ?", input.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	secretHash, err := bcrypt.GenerateFromPassword([]byte(input.SecretPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash recovery password"})
		return
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: string(passwordHash),
		Secret:       input.Secret,
		SecretHash:   string(secretHash),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.notifier.UserCreated(&user)

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  AuthResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		// Same answer as a bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Recover godoc
// @Summary      Start password recovery
// @Description  Returns a short-lived recovery token and the user's stored secret phrase. Unknown emails get empty fields.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RecoverInput true "Recovery Info"
// @Success      200  {object}  RecoverResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/recover [post]
func (h *UserHandler) Recover(c *gin.Context) {
	var input RecoverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, RecoverResponse{})
		return
	}

	token, err := jwt.GenerateRecoveryToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recovery token"})
		return
	}

	c.JSON(http.StatusOK, RecoverResponse{Token: token, Secret: user.Secret})
}

// ChangePassword godoc
// @Summary      Change a user's password
// @Description  Changes the password either via a recovery token plus the recovery password, or via the current password when authenticated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body ChangePasswordInput true "Change Info"
// @Success      200  {object}  map[string]bool "{"changed": true}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID uint
	switch {
	case input.RecoverToken != "":
		id, purpose, err := jwt.ParseToken(input.RecoverToken)
		if err != nil || purpose != jwt.PurposeRecover {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired recovery token"})
			return
		}
		userID = id
	default:
		id, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "A recovery token or a session token is required"})
			return
		}
		userID = id.(uint)
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.RecoverToken != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(input.SecretPassword)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Recovery password does not match"})
			return
		}
	} else {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password does not match"})
			return
		}
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := database.DB.Model(&user).Update("password_hash", string(newHash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": true})
}

// endregion

// region --- User Handlers ---

// SearchUsers godoc
// @Summary      List users
// @Description  Lists users other than the caller, optionally filtered by username, with pagination.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Success      200   {object}  PaginatedResponse[UserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page := pageParam(c)

	query := database.DB.Model(&models.User{}).Where("id <> ?", viewerID)
	if q := c.Query("q"); q != "" {
		query = query.Where("username ILIKE ?", "%"+q+"%")
	}

	response, err := Paginate[models.User](query, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	userResponses := make([]UserResponse, 0, len(response.Data))
	for _, user := range response.Data {
		userResponses = append(userResponses, newUserResponse(user))
	}

	c.JSON(http.StatusOK, PaginatedResponse[UserResponse]{Data: userResponses, Meta: response.Meta})
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Description  Updates username, email and/or profile image, and announces the change to subscribers.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Email already in use"
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{}
	if input.Username != "" {
		updates["username"] = input.Username
	}
	if input.Email != "" && input.Email != user.Email {
		var other models.User
		if err := database.DB.Where("email = ? AND id <> ?", input.Email, user.ID).First(&other).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		updates["email"] = input.Email
	}
	if input.Image != "" {
		updates["image"] = input.Image
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	// Re-read the committed row before announcing it.
	if err := database.DB.First(&user, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload profile"})
		return
	}

	h.notifier.UserUpdated(&user)

	c.JSON(http.StatusOK, newUserResponse(user))
}

// DeleteMe godoc
// @Summary      Delete current user's account
// @Description  Soft-deletes the account. The row is tombstoned, not removed, and drops out of friend resolution.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "Account deleted"}"
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	if err := database.DB.Delete(&models.User{}, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// endregion
