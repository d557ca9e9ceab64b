package models

import "gorm.io/gorm"

// FriendshipStatus defines the state of a friendship edge between two users.
type FriendshipStatus string

const (
	// StatusPending means a friend request has been sent but not yet answered.
	StatusPending FriendshipStatus = "PENDING"

	// StatusAccepted means the request was accepted; the two endpoints are
	// mutual friends regardless of who initiated the edge.
	StatusAccepted FriendshipStatus = "ACCEPTED"

	// StatusDenied means the request was rejected but the edge is kept.
	StatusDenied FriendshipStatus = "DENIED"

	// StatusNone is never persisted: transitioning an edge to NONE deletes
	// the row instead.
	StatusNone FriendshipStatus = "NONE"
)

// Friend represents a friendship edge. The requester/target fields are
// directional, but an ACCEPTED edge makes the endpoints friends symmetrically;
// membership checks must always go through the symmetric helpers rather than
// comparing one direction inline.
type Friend struct {
	gorm.Model
	RequestUserID uint             `gorm:"not null;index"`
	TargetUserID  uint             `gorm:"not null;index"`
	Status        FriendshipStatus `gorm:"type:varchar(20);not null"`
	Block         bool             `gorm:"not null;default:false"`

	RequestUser User `gorm:"foreignKey:RequestUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	TargetUser  User `gorm:"foreignKey:TargetUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Involves reports whether userID is one of the edge's endpoints.
func (f *Friend) Involves(userID uint) bool {
	return f.RequestUserID == userID || f.TargetUserID == userID
}

// OtherEndpoint returns the endpoint that is not userID. It assumes
// Involves(userID) is true.
func (f *Friend) OtherEndpoint(userID uint) uint {
	if f.RequestUserID == userID {
		return f.TargetUserID
	}
	return f.RequestUserID
}
