package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"sociogram/backend/internal/hub"
	"sociogram/backend/pkg/jwt"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthRouter(h *UserHandler) *gin.Engine {
	router := gin.New()
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/recover", h.Recover)
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignup_CreatesUserAndAnnounces(t *testing.T) {
	mock := newMockDB(t)
	notifier, eventHub := newTestNotifier(t)
	router := newAuthRouter(NewUserHandler(notifier))

	sub := eventHub.Subscribe(hub.TopicUserCreated, hub.Predicate{Kind: hub.MatchAll})
	defer sub.Close()

	expectEmptyUserLookup(mock) // no account on this email yet
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	expectUsersCount(mock, 1)

	w := postJSON(router, "/signup", SignupInput{
		Email:          "new@example.com",
		Password:       "password123",
		Secret:         "blue bicycle",
		SecretPassword: "recovery123",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(1), resp.User.ID)
	assert.Equal(t, "new@example.com", resp.User.Email)

	userID, purpose, err := jwt.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), userID)
	assert.Empty(t, purpose)

	select {
	case env := <-sub.C():
		assert.Equal(t, hub.TopicUserCreated, env.Topic)
		assert.Equal(t, 1, env.TotalPages)
	case <-time.After(time.Second):
		t.Fatal("no userCreated envelope published")
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	mock := newMockDB(t)
	notifier, _ := newTestNotifier(t)
	router := newAuthRouter(NewUserHandler(notifier))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(3, "taken@example.com"))

	w := postJSON(router, "/signup", SignupInput{
		Email:          "taken@example.com",
		Password:       "password123",
		Secret:         "blue bicycle",
		SecretPassword: "recovery123",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_IssuesTokenForKnownUser(t *testing.T) {
	mock := newMockDB(t)
	notifier, _ := newTestNotifier(t)
	router := newAuthRouter(NewUserHandler(notifier))

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
			AddRow(5, "known@example.com", string(hash)))

	w := postJSON(router, "/login", LoginInput{Email: "known@example.com", Password: "password123"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(5), resp.User.ID)

	userID, _, err := jwt.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), userID)
}

func TestLogin_SameAnswerForBadPasswordAndUnknownEmail(t *testing.T) {
	mock := newMockDB(t)
	notifier, _ := newTestNotifier(t)
	router := newAuthRouter(NewUserHandler(notifier))

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
			AddRow(5, "known@example.com", string(hash)))
	badPassword := postJSON(router, "/login", LoginInput{Email: "known@example.com", Password: "wrong-password"})

	expectEmptyUserLookup(mock)
	unknownEmail := postJSON(router, "/login", LoginInput{Email: "nobody@example.com", Password: "password123"})

	assert.Equal(t, http.StatusUnauthorized, badPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.JSONEq(t, badPassword.Body.String(), unknownEmail.Body.String())
}

func TestRecover_EmptyResponseForUnknownEmail(t *testing.T) {
	mock := newMockDB(t)
	notifier, _ := newTestNotifier(t)
	router := newAuthRouter(NewUserHandler(notifier))

	expectEmptyUserLookup(mock)

	w := postJSON(router, "/recover", RecoverInput{Email: "nobody@example.com"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp RecoverResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Token)
	assert.Empty(t, resp.Secret)
}

func TestRecover_ReturnsSecretAndRecoveryToken(t *testing.T) {
	mock := newMockDB(t)
	notifier, _ := newTestNotifier(t)
	router := newAuthRouter(NewUserHandler(notifier))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "secret"}).
			AddRow(9, "known@example.com", "blue bicycle"))

	w := postJSON(router, "/recover", RecoverInput{Email: "known@example.com"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp RecoverResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "blue bicycle", resp.Secret)

	userID, purpose, err := jwt.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), userID)
	assert.Equal(t, jwt.PurposeRecover, purpose, "recovery tokens must not pass as session tokens")
}
