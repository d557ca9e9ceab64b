package social

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB bridges sqlmock into gorm so resolver and counter queries can be
// exercised without a live database.
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

func expectFriendEdges(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "friends"`)).WillReturnRows(rows)
}

func friendRows(pairs ...[2]uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "request_user_id", "target_user_id", "status", "block"})
	for i, p := range pairs {
		rows.AddRow(i+1, p[0], p[1], "ACCEPTED", false)
	}
	return rows
}

func expectCount(mock sqlmock.Sqlmock, table string, total int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "`+table+`"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))
}
