package notify

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"sociogram/backend/internal/hub"
	"sociogram/backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func expectPostsCount(mock sqlmock.Sqlmock, total int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))
}

func expectUsersCount(mock sqlmock.Sqlmock, total int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))
}

func expectFriendEdges(mock sqlmock.Sqlmock, pairs ...[2]uint) {
	rows := sqlmock.NewRows([]string{"id", "request_user_id", "target_user_id", "status", "block"})
	for i, p := range pairs {
		rows.AddRow(i+1, p[0], p[1], "ACCEPTED", false)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "friends"`)).WillReturnRows(rows)
}

func recvOne(t *testing.T, sub *hub.Subscription) hub.Envelope {
	t.Helper()
	select {
	case env, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return hub.Envelope{}
	}
}

func assertSilent(t *testing.T, sub *hub.Subscription) {
	t.Helper()
	select {
	case env, ok := <-sub.C():
		if ok {
			t.Fatalf("expected no delivery, got %+v", env)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func subscribe(t *testing.T, h *hub.Hub, topic string, userID uint) *hub.Subscription {
	t.Helper()
	pred, err := hub.PredicateFor(topic, userID)
	require.NoError(t, err)
	sub := h.Subscribe(topic, pred)
	t.Cleanup(sub.Close)
	return sub
}

func TestNotifier_PostCreated_DeliversToOwnerAndFriend(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	// User 1 and 2 have an ACCEPTED edge; user 1 creates their first post.
	ownerSub := subscribe(t, h, hub.TopicPostCreated, 1)
	friendSub := subscribe(t, h, hub.TopicFriendsPostsChanges, 2)

	expectPostsCount(mock, 1)                // owner's posts after the create
	expectFriendEdges(mock, [2]uint{1, 2})   // audience lookup
	expectPostsCount(mock, 1)                // feed total across {2, 1}

	post := &models.Post{Model: gorm.Model{ID: 10}, UserID: 1, Title: "hello", Text: "world"}
	n.PostCreated(post)

	ownerEnv := recvOne(t, ownerSub)
	assert.Equal(t, hub.TopicPostCreated, ownerEnv.Topic)
	assert.Equal(t, 1, ownerEnv.TotalPages)
	assert.Equal(t, uint(1), ownerEnv.OwnerID)

	friendEnv := recvOne(t, friendSub)
	assert.Equal(t, hub.TopicFriendsPostsChanges, friendEnv.Topic)
	assert.Equal(t, hub.ActionAdded, friendEnv.Action)
	assert.Equal(t, 1, friendEnv.TotalPages)
	assertSilent(t, friendSub)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifier_PostCreated_AudienceExcludesNonFriends(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	// A (1) and B (2) are friends with each other. C (3) is friends with
	// nobody and creates a post: A and B must hear nothing.
	aSub := subscribe(t, h, hub.TopicFriendsPostsChanges, 1)
	bSub := subscribe(t, h, hub.TopicFriendsPostsChanges, 2)

	expectPostsCount(mock, 1)
	expectFriendEdges(mock) // C has no accepted edges

	n.PostCreated(&models.Post{Model: gorm.Model{ID: 11}, UserID: 3, Title: "alone"})

	assertSilent(t, aSub)
	assertSilent(t, bSub)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifier_PostCreated_OwnerTopicNotDeliveredToOthers(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	otherSub := subscribe(t, h, hub.TopicPostCreated, 2)

	expectPostsCount(mock, 1)
	expectFriendEdges(mock)

	n.PostCreated(&models.Post{Model: gorm.Model{ID: 12}, UserID: 1, Title: "mine"})

	assertSilent(t, otherSub)
}

func TestNotifier_PostDeleted_SendsRefWithRefreshedCount(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	ownerSub := subscribe(t, h, hub.TopicPostDeleted, 1)
	friendSub := subscribe(t, h, hub.TopicFriendsPostsChanges, 2)

	expectPostsCount(mock, 0)              // owner has no posts left
	expectFriendEdges(mock, [2]uint{2, 1}) // edge direction must not matter
	expectPostsCount(mock, 0)

	n.PostDeleted(&models.Post{Model: gorm.Model{ID: 13}, UserID: 1})

	ownerEnv := recvOne(t, ownerSub)
	ref, ok := ownerEnv.Payload.(PostRef)
	require.True(t, ok)
	assert.Equal(t, uint(13), ref.ID)
	assert.Equal(t, 0, ownerEnv.TotalPages)

	friendEnv := recvOne(t, friendSub)
	assert.Equal(t, hub.ActionDeleted, friendEnv.Action)
}

func TestNotifier_CountFailureStillPublishes(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	ownerSub := subscribe(t, h, hub.TopicPostCreated, 1)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts"`)).
		WillReturnError(errors.New("connection reset"))
	expectFriendEdges(mock)

	// The mutation already committed; a failed count must not suppress the
	// owner event nor surface anywhere.
	n.PostCreated(&models.Post{Model: gorm.Model{ID: 14}, UserID: 1})

	env := recvOne(t, ownerSub)
	assert.Equal(t, 0, env.TotalPages)
}

func TestNotifier_AudienceLookupFailureSkipsFanOut(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	ownerSub := subscribe(t, h, hub.TopicPostCreated, 1)
	friendSub := subscribe(t, h, hub.TopicFriendsPostsChanges, 2)

	expectPostsCount(mock, 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "friends"`)).
		WillReturnError(errors.New("connection reset"))

	n.PostCreated(&models.Post{Model: gorm.Model{ID: 15}, UserID: 1})

	recvOne(t, ownerSub)
	assertSilent(t, friendSub)
}

func TestNotifier_FriendChanged_ReachesBothEndpointsOnly(t *testing.T) {
	db, _ := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	requester := subscribe(t, h, hub.TopicFriendsChange, 1)
	target := subscribe(t, h, hub.TopicFriendsChange, 2)
	bystander := subscribe(t, h, hub.TopicFriendsChange, 3)

	// A PENDING edge transitioning to NONE is deleted and announced to both
	// original endpoints.
	edge := &models.Friend{Model: gorm.Model{ID: 5}, RequestUserID: 1, TargetUserID: 2, Status: models.StatusPending}
	n.FriendChanged(edge, hub.ActionDelete)

	for _, sub := range []*hub.Subscription{requester, target} {
		env := recvOne(t, sub)
		assert.Equal(t, hub.ActionDelete, env.Action)
		snap, ok := env.Payload.(EdgeSnapshot)
		require.True(t, ok)
		assert.Equal(t, uint(5), snap.ID)
	}
	assertSilent(t, bystander)
}

func TestNotifier_UserCreated_BroadcastsWithUserPageCount(t *testing.T) {
	db, mock := newMockDB(t)
	h := hub.NewHub()
	defer h.Shutdown()
	n := New(db, h)

	sub := subscribe(t, h, hub.TopicUserCreated, 0)

	expectUsersCount(mock, 11)

	n.UserCreated(&models.User{Model: gorm.Model{ID: 4}, Email: "new@user.io", PasswordHash: "x"})

	env := recvOne(t, sub)
	assert.Equal(t, 2, env.TotalPages)
	snap, ok := env.Payload.(UserSnapshot)
	require.True(t, ok)
	assert.Equal(t, "new@user.io", snap.Email)
}
