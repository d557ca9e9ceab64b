package notify

import (
	"log"
	"time"

	"sociogram/backend/internal/hub"
	"sociogram/backend/internal/models"
	"sociogram/backend/internal/social"

	"gorm.io/gorm"
)

// Notifier builds event envelopes for committed mutations and publishes them
// on the hub. Everything here is best-effort: a failed count or friend lookup
// is logged and never surfaces to the mutating caller, because the primary
// write has already committed.
type Notifier struct {
	db  *gorm.DB
	hub *hub.Hub
}

// New creates a Notifier publishing on h with counts resolved through db.
func New(db *gorm.DB, h *hub.Hub) *Notifier {
	return &Notifier{db: db, hub: h}
}

// Hub exposes the underlying bus for subscription handlers.
func (n *Notifier) Hub() *hub.Hub {
	return n.hub
}

// UserSnapshot is the user payload carried by user events. It deliberately
// omits the password and recovery hashes.
type UserSnapshot struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
}

// PostSnapshot is the post payload carried by post events.
type PostSnapshot struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostRef identifies a deleted post; the row is gone, so only the IDs and
// the refreshed page count are sent.
type PostRef struct {
	ID     uint `json:"id"`
	UserID uint `json:"userId"`
}

// EdgeSnapshot is the friendship payload carried by friendsChange events.
type EdgeSnapshot struct {
	ID            uint                    `json:"id"`
	RequestUserID uint                    `json:"requestUserId"`
	TargetUserID  uint                    `json:"targetUserId"`
	Status        models.FriendshipStatus `json:"status"`
	Block         bool                    `json:"block"`
}

func snapshotUser(u *models.User) UserSnapshot {
	return UserSnapshot{ID: u.ID, Username: u.Username, Email: u.Email, Image: u.Image}
}

func snapshotPost(p *models.Post) PostSnapshot {
	return PostSnapshot{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func snapshotEdge(f *models.Friend) EdgeSnapshot {
	return EdgeSnapshot{
		ID:            f.ID,
		RequestUserID: f.RequestUserID,
		TargetUserID:  f.TargetUserID,
		Status:        f.Status,
		Block:         f.Block,
	}
}

// UserCreated publishes a userCreated event with the refreshed user-list
// page count.
func (n *Notifier) UserCreated(user *models.User) {
	n.publishUser(hub.TopicUserCreated, user)
}

// UserUpdated publishes a userUpdated event with the refreshed user-list
// page count.
func (n *Notifier) UserUpdated(user *models.User) {
	n.publishUser(hub.TopicUserUpdated, user)
}

func (n *Notifier) publishUser(topic string, user *models.User) {
	pages, err := social.UsersPageCount(n.db)
	if err != nil {
		log.Printf("notify: %s: user page count failed, sending zero: %v", topic, err)
	}
	n.hub.Publish(topic, hub.Envelope{
		Topic:      topic,
		Payload:    snapshotUser(user),
		TotalPages: pages,
	})
}

// FriendChanged publishes a friendsChange event scoped to the edge's two
// endpoints. action is add for a new request, change for a status update,
// delete for a removed edge.
func (n *Notifier) FriendChanged(edge *models.Friend, action hub.Action) {
	n.hub.Publish(hub.TopicFriendsChange, hub.Envelope{
		Topic:       hub.TopicFriendsChange,
		Action:      action,
		Payload:     snapshotEdge(edge),
		EdgeUserIDs: [2]uint{edge.RequestUserID, edge.TargetUserID},
	})
}

// PostCreated publishes postCreated to the owner and friendsPostsChanges
// (action added) to the owner's friends, in that order.
func (n *Notifier) PostCreated(post *models.Post) {
	n.publishPost(hub.TopicPostCreated, hub.ActionAdded, post, snapshotPost(post))
}

// PostUpdated publishes postUpdated to the owner and friendsPostsChanges
// (action updated) to the owner's friends, in that order.
func (n *Notifier) PostUpdated(post *models.Post) {
	n.publishPost(hub.TopicPostUpdated, hub.ActionUpdated, post, snapshotPost(post))
}

// PostDeleted publishes postDeleted to the owner and friendsPostsChanges
// (action deleted) to the owner's friends, in that order. Only the post
// reference is sent; the row no longer exists.
func (n *Notifier) PostDeleted(post *models.Post) {
	n.publishPost(hub.TopicPostDeleted, hub.ActionDeleted, post, PostRef{ID: post.ID, UserID: post.UserID})
}

func (n *Notifier) publishPost(ownerTopic string, action hub.Action, post *models.Post, payload any) {
	ownerPages, err := social.PostsPageCount(n.db, post.UserID)
	if err != nil {
		log.Printf("notify: %s: post page count failed, sending zero: %v", ownerTopic, err)
	}
	n.hub.Publish(ownerTopic, hub.Envelope{
		Topic:      ownerTopic,
		Payload:    payload,
		TotalPages: ownerPages,
		OwnerID:    post.UserID,
	})

	// Resolve the audience once per event, at publish time; friendships
	// changed afterwards do not affect this delivery.
	friendIDs, err := social.FriendIDs(n.db, post.UserID)
	if err != nil {
		log.Printf("notify: friendsPostsChanges: audience lookup failed, skipping fan-out: %v", err)
		return
	}
	if len(friendIDs) == 0 {
		return
	}

	audience := make(map[uint]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		audience[id] = struct{}{}
	}

	// The feed count spans the owner and their friends, so a recipient whose
	// only friend is the owner sees their exact feed total.
	feedPages, err := social.PostsPageCountForUsers(n.db, append(friendIDs, post.UserID))
	if err != nil {
		log.Printf("notify: friendsPostsChanges: feed page count failed, sending zero: %v", err)
	}

	n.hub.Publish(hub.TopicFriendsPostsChanges, hub.Envelope{
		Topic:      hub.TopicFriendsPostsChanges,
		Action:     action,
		Payload:    payload,
		TotalPages: feedPages,
		OwnerID:    post.UserID,
		Audience:   audience,
	})
}
