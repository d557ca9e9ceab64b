package hub

import "fmt"

// PredicateKind selects the matching rule applied to envelopes before they
// are delivered to one subscriber. Each topic has exactly one kind; the
// variant carries only the data it needs instead of closing over handler
// state.
type PredicateKind int

const (
	// MatchAll delivers every envelope (userCreated, userUpdated).
	MatchAll PredicateKind = iota

	// MatchEdgeEndpoint delivers envelopes whose friendship edge has UserID
	// as requester or target (friendsChange).
	MatchEdgeEndpoint

	// MatchPostOwner delivers envelopes whose post is owned by UserID
	// (postCreated, postUpdated, postDeleted).
	MatchPostOwner

	// MatchAudience delivers envelopes whose precomputed audience set
	// contains UserID (friendsPostsChanges).
	MatchAudience
)

// Predicate decides whether a single subscriber sees an envelope.
// Non-matching envelopes are silently skipped for that subscriber; other
// subscribers are unaffected. Predicates read only the envelope's scoping
// metadata and mutate nothing.
type Predicate struct {
	Kind   PredicateKind
	UserID uint
}

// Match reports whether the envelope should be delivered.
func (p Predicate) Match(e Envelope) bool {
	switch p.Kind {
	case MatchAll:
		return true
	case MatchEdgeEndpoint:
		return e.EdgeUserIDs[0] == p.UserID || e.EdgeUserIDs[1] == p.UserID
	case MatchPostOwner:
		return e.OwnerID == p.UserID
	case MatchAudience:
		_, ok := e.Audience[p.UserID]
		return ok
	default:
		return false
	}
}

// PredicateFor maps a topic name to the predicate a subscriber scoped to
// userID must use. Unknown topics are rejected.
func PredicateFor(topic string, userID uint) (Predicate, error) {
	switch topic {
	case TopicUserCreated, TopicUserUpdated:
		return Predicate{Kind: MatchAll}, nil
	case TopicFriendsChange:
		return Predicate{Kind: MatchEdgeEndpoint, UserID: userID}, nil
	case TopicPostCreated, TopicPostUpdated, TopicPostDeleted:
		return Predicate{Kind: MatchPostOwner, UserID: userID}, nil
	case TopicFriendsPostsChanges:
		return Predicate{Kind: MatchAudience, UserID: userID}, nil
	default:
		return Predicate{}, fmt.Errorf("unknown topic %q", topic)
	}
}
