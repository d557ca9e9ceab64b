package handler

import (
	"errors"
	"net/http"
	"strconv"

	"sociogram/backend/internal/database"
	"sociogram/backend/internal/hub"
	"sociogram/backend/internal/models"
	"sociogram/backend/internal/notify"
	"sociogram/backend/internal/social"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// FriendResponse defines the structure for a friendship edge.
type FriendResponse struct {
	ID            uint                    `json:"id"`
	RequestUserID uint                    `json:"requestUserId"`
	TargetUserID  uint                    `json:"targetUserId"`
	Status        models.FriendshipStatus `json:"status"`
	Block         bool                    `json:"block"`
}

// UpdateFriendInput changes an edge's status and/or block flag. Status NONE
// removes the edge instead of persisting the state.
type UpdateFriendInput struct {
	Status models.FriendshipStatus `json:"status" binding:"required,oneof=PENDING ACCEPTED DENIED NONE"`
	Block  *bool                   `json:"block"`
}

func newFriendResponse(edge models.Friend) FriendResponse {
	return FriendResponse{
		ID:            edge.ID,
		RequestUserID: edge.RequestUserID,
		TargetUserID:  edge.TargetUserID,
		Status:        edge.Status,
		Block:         edge.Block,
	}
}

// endregion

// FriendHandler serves friendship endpoints.
type FriendHandler struct {
	notifier *notify.Notifier
}

// NewFriendHandler creates a FriendHandler publishing through notifier.
func NewFriendHandler(notifier *notify.Notifier) *FriendHandler {
	return &FriendHandler{notifier: notifier}
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Creates a PENDING friendship edge from the caller to the target user. At most one live edge may exist per pair, in either direction.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      201  {object}  FriendResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Edge already exists"
// @Router       /users/{id}/friend [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	if viewerID.(uint) == uint(targetUserID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send a request to yourself"})
		return
	}

	var target models.User
	if err := database.DB.First(&target, uint(targetUserID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found"})
		return
	}

	// One canonical edge per unordered pair: refuse when any live edge
	// exists, whichever side created it.
	if _, err := social.EdgeBetween(database.DB, viewerID.(uint), uint(targetUserID)); !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "A relationship with this user already exists"})
		return
	}

	edge := models.Friend{
		RequestUserID: viewerID.(uint),
		TargetUserID:  uint(targetUserID),
		Status:        models.StatusPending,
	}

	if err := database.DB.Create(&edge).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	h.notifier.FriendChanged(&edge, hub.ActionAdd)

	c.JSON(http.StatusCreated, newFriendResponse(edge))
}

// UpdateFriend godoc
// @Summary      Update a friendship edge
// @Description  Changes an edge's status (NONE deletes the edge) and/or the block flag. Only an endpoint of the edge may change it.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Edge ID"
// @Param        input body      UpdateFriendInput  true  "New state"
// @Success      200   {object}  FriendResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Caller is not an endpoint"
// @Failure      404   {object}  ErrorResponse "Edge not found"
// @Router       /friends/{id} [put]
func (h *FriendHandler) UpdateFriend(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	edgeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid edge ID"})
		return
	}

	var input UpdateFriendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var edge models.Friend
	if err := database.DB.First(&edge, uint(edgeID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Edge not found"})
		return
	}

	if !edge.Involves(viewerID.(uint)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this relationship"})
		return
	}

	if input.Status == models.StatusNone {
		// NONE is a removal, not a state.
		if err := database.DB.Delete(&edge).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove edge"})
			return
		}
		h.notifier.FriendChanged(&edge, hub.ActionDelete)
		c.JSON(http.StatusOK, newFriendResponse(edge))
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.Block != nil {
		updates["block"] = *input.Block
	}
	if err := database.DB.Model(&edge).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update edge"})
		return
	}

	h.notifier.FriendChanged(&edge, hub.ActionChange)

	c.JSON(http.StatusOK, newFriendResponse(edge))
}

// ListFriends godoc
// @Summary      List friends
// @Description  Lists the users connected to the caller by an ACCEPTED, unblocked edge, with pagination and username search.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Success      200   {object}  PaginatedResponse[UserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page := pageParam(c)

	ids, err := social.FriendIDs(database.DB, viewerID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve friends"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, NewPaginatedResponse([]UserResponse{}, 0, page))
		return
	}

	query := database.DB.Model(&models.User{}).Where("id IN ?", ids)
	if q := c.Query("q"); q != "" {
		query = query.Where("username ILIKE ?", "%"+q+"%")
	}

	h.respondUserPage(c, query, page)
}

// ListRequests godoc
// @Summary      List friend requests
// @Description  Lists pending requests involving the caller. own=true lists requests the caller sent; otherwise requests the caller received.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        own   query     bool    false  "List outgoing instead of incoming requests"
// @Param        page  query     int     false  "Page number" default(1)
// @Success      200   {object}  PaginatedResponse[UserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /friends/requests [get]
func (h *FriendHandler) ListRequests(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page := pageParam(c)
	own := c.Query("own") == "true"

	var edges []models.Friend
	query := database.DB.Where("status = ?", models.StatusPending)
	if own {
		query = query.Where("request_user_id = ?", viewerID)
	} else {
		query = query.Where("target_user_id = ?", viewerID)
	}
	if err := query.Find(&edges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
		return
	}

	ids := make([]uint, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].OtherEndpoint(viewerID.(uint)))
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, NewPaginatedResponse([]UserResponse{}, 0, page))
		return
	}

	h.respondUserPage(c, database.DB.Model(&models.User{}).Where("id IN ?", ids), page)
}

// ListBlocked godoc
// @Summary      List blocked relationships
// @Description  Lists users on a blocked edge involving the caller.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int     false  "Page number" default(1)
// @Success      200   {object}  PaginatedResponse[UserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /friends/blocked [get]
func (h *FriendHandler) ListBlocked(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	page := pageParam(c)

	var edges []models.Friend
	err := database.DB.
		Where("request_user_id = ? OR target_user_id = ?", viewerID, viewerID).
		Where("block = ?", true).
		Find(&edges).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blocked users"})
		return
	}

	ids := make([]uint, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].OtherEndpoint(viewerID.(uint)))
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, NewPaginatedResponse([]UserResponse{}, 0, page))
		return
	}

	h.respondUserPage(c, database.DB.Model(&models.User{}).Where("id IN ?", ids), page)
}

func (h *FriendHandler) respondUserPage(c *gin.Context, query *gorm.DB, page int) {
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
