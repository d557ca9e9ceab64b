package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicate_MatchAll(t *testing.T) {
	p := Predicate{Kind: MatchAll}
	assert.True(t, p.Match(Envelope{}))
	assert.True(t, p.Match(Envelope{OwnerID: 99}))
}

func TestPredicate_MatchEdgeEndpoint(t *testing.T) {
	p := Predicate{Kind: MatchEdgeEndpoint, UserID: 5}

	assert.True(t, p.Match(Envelope{EdgeUserIDs: [2]uint{5, 9}}), "requester side")
	assert.True(t, p.Match(Envelope{EdgeUserIDs: [2]uint{9, 5}}), "target side")
	assert.False(t, p.Match(Envelope{EdgeUserIDs: [2]uint{8, 9}}))
}

func TestPredicate_MatchPostOwner(t *testing.T) {
	p := Predicate{Kind: MatchPostOwner, UserID: 3}

	assert.True(t, p.Match(Envelope{OwnerID: 3}))
	assert.False(t, p.Match(Envelope{OwnerID: 4}))
	assert.False(t, p.Match(Envelope{}))
}

func TestPredicate_MatchAudience(t *testing.T) {
	p := Predicate{Kind: MatchAudience, UserID: 2}

	audience := map[uint]struct{}{1: {}, 2: {}}
	assert.True(t, p.Match(Envelope{Audience: audience}))
	assert.False(t, p.Match(Envelope{Audience: map[uint]struct{}{1: {}}}))
	assert.False(t, p.Match(Envelope{}), "nil audience matches nobody")
}

func TestPredicateFor(t *testing.T) {
	tests := []struct {
		topic string
		kind  PredicateKind
	}{
		{TopicUserCreated, MatchAll},
		{TopicUserUpdated, MatchAll},
		{TopicFriendsChange, MatchEdgeEndpoint},
		{TopicPostCreated, MatchPostOwner},
		{TopicPostUpdated, MatchPostOwner},
		{TopicPostDeleted, MatchPostOwner},
		{TopicFriendsPostsChanges, MatchAudience},
	}

	for _, tt := range tests {
		p, err := PredicateFor(tt.topic, 42)
		require.NoError(t, err, tt.topic)
		assert.Equal(t, tt.kind, p.Kind, tt.topic)
	}

	_, err := PredicateFor("commentsChange", 42)
	assert.Error(t, err)
}
