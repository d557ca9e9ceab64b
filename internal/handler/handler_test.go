package handler

import (
	"regexp"
	"testing"

	"sociogram/backend/internal/config"
	"sociogram/backend/internal/database"
	"sociogram/backend/internal/hub"
	"sociogram/backend/internal/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "handler-test-secret", Port: "0"}
}

// newMockDB bridges sqlmock into gorm and installs it as the global handle
// the handlers read from.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
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

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return mock
}

// newTestNotifier wires a notifier and its bus onto the global DB handle.
func newTestNotifier(t *testing.T) (*notify.Notifier, *hub.Hub) {
	t.Helper()
	eventHub := hub.NewHub()
	t.Cleanup(eventHub.Shutdown)
	return notify.New(database.DB, eventHub), eventHub
}

func expectEmptyUserLookup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func expectUsersCount(mock sqlmock.Sqlmock, total int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))
}
