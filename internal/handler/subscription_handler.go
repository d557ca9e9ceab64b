package handler

import (
	"io"
	"net/http"

	"sociogram/backend/internal/hub"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler attaches clients to the event bus, either as one SSE
// stream per topic or through the multiplexed websocket endpoint.
type SubscriptionHandler struct {
	hub *hub.Hub
}

// NewSubscriptionHandler creates a SubscriptionHandler on the given bus.
func NewSubscriptionHandler(h *hub.Hub) *SubscriptionHandler {
	return &SubscriptionHandler{hub: h}
}

// Stream godoc
// @Summary      Subscribe to a topic
// @Description  Opens a server-sent-events stream of envelopes for one topic, scoped to the authenticated user. Only events published after attachment are delivered; on reconnect the client must resubscribe, there is no replay.
// @Tags         subscriptions
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        topic  path  string  true  "Topic name"  Enums(userCreated, userUpdated, friendsChange, postCreated, postUpdated, postDeleted, friendsPostsChanges)
// @Success      200
// @Failure      400  {object}  ErrorResponse "Unknown topic"
// @Failure      401  {object}  ErrorResponse
// @Router       /subscribe/{topic} [get]
func (h *SubscriptionHandler) Stream(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	topic := c.Param("topic")

	pred, err := hub.PredicateFor(topic, viewerID.(uint))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown topic"})
		return
	}

	sub := h.hub.Subscribe(topic, pred)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case env, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("message", env)
			return true
		case <-clientGone:
			return false
		}
	})
}
