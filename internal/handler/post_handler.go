package handler

import (
	"net/http"
	"strconv"
	"time"

	"sociogram/backend/internal/database"
	"sociogram/backend/internal/models"
	"sociogram/backend/internal/notify"
	"sociogram/backend/internal/social"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// PostInput defines the structure for creating or updating a post.
type PostInput struct {
	Title string `json:"title" binding:"required,max=255"`
	Text  string `json:"text" binding:"required"`
}

// PostResponse defines the structure for a post.
type PostResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newPostResponse(post models.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		Title:     post.Title,
		Text:      post.Text,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// endregion

// PostHandler serves post endpoints.
type PostHandler struct {
	notifier *notify.Notifier
}

// NewPostHandler creates a PostHandler publishing through notifier.
func NewPostHandler(notifier *notify.Notifier) *PostHandler {
	return &PostHandler{notifier: notifier}
}

// CreatePost godoc
// @Summary      Create a post
// @Description  Creates a post owned by the caller and announces it to the owner's and their friends' subscriptions.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PostInput true "Post content"
// @Success      201  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		UserID: viewerID.(uint),
		Title:  input.Title,
		Text:   input.Text,
	}

	if err := database.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	h.notifier.PostCreated(&post)

	c.JSON(http.StatusCreated, newPostResponse(post))
}

// GetPost godoc
// @Summary      Get a post
// @Description  Retrieves a single post by ID.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Post ID"
// @Success      200  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := database.DB.First(&post, uint(postID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, newPostResponse(post))
}

// ListPosts godoc
// @Summary      List posts
// @Description  Lists a user's posts, newest first, with pagination. Defaults to the caller's own posts.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        user_id query   int  false  "Owner user ID (defaults to the caller)"
// @Param        page    query   int  false  "Page number" default(1)
// @Success      200  {object}  PaginatedResponse[PostResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page := pageParam(c)

	ownerID := viewerID.(uint)
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		ownerID = uint(parsed)
	}

	query := database.DB.Model(&models.Post{}).
		Where("user_id = ?", ownerID).
		Order("created_at DESC")

	h.respondPostPage(c, query, page)
}

// ListFeed godoc
// @Summary      List friends' posts
// @Description  Lists posts owned by any of the caller's friends, newest first, with pagination.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number" default(1)
// @Success      200  {object}  PaginatedResponse[PostResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /posts/feed [get]
func (h *PostHandler) ListFeed(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page := pageParam(c)

	ids, err := social.FriendIDs(database.DB, viewerID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve friends"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, NewPaginatedResponse([]PostResponse{}, 0, page))
		return
	}

	query := database.DB.Model(&models.Post{}).
		Where("user_id IN ?", ids).
		Order("created_at DESC")

	h.respondPostPage(c, query, page)
}

// UpdatePost godoc
// @Summary      Update a post
// @Description  Updates a post's title and text. Only the owner may update it.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int        true  "Post ID"
// @Param        input body      PostInput  true  "New content"
// @Success      200   {object}  PostResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Caller is not the owner"
// @Failure      404   {object}  ErrorResponse
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := database.DB.First(&post, uint(postID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.UserID != viewerID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own posts"})
		return
	}

	if err := database.DB.Model(&post).Updates(map[string]interface{}{
		"title": input.Title,
		"text":  input.Text,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	// Re-read the committed row before announcing it.
	if err := database.DB.First(&post, post.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload post"})
		return
	}

	h.notifier.PostUpdated(&post)

	c.JSON(http.StatusOK, newPostResponse(post))
}

// DeletePost godoc
// @Summary      Delete a post
// @Description  Soft-deletes a post. Only the owner may delete it.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Post ID"
// @Success      200  {object}  map[string]string "{"message": "Post deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the owner"
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := database.DB.First(&post, uint(postID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.UserID != viewerID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	h.notifier.PostDeleted(&post)

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *PostHandler) respondPostPage(c *gin.Context, query *gorm.DB, page int) {
	response, err := Paginate[models.Post](query, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve posts"})
		return
	}

	postResponses := make([]PostResponse, 0, len(response.Data))
	for _, post := range response.Data {
		postResponses = append(postResponses, newPostResponse(post))
	}

	c.JSON(http.StatusOK, PaginatedResponse[PostResponse]{Data: postResponses, Meta: response.Meta})
}
