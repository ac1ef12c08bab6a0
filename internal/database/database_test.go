package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/northgate-advisors/intake-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

func memDSN(t *testing.T) string {
	return "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
}

func TestMigrateShared_SQLite(t *testing.T) {
	db, err := Open(sqlite.Open(memDSN(t)))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, MigrateShared(db))

	for _, m := range SharedModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.NotificationTask{}, "idx_notification_task_subject_kind"))
}

func TestMigrateModels_Empty(t *testing.T) {
	db, err := Open(sqlite.Open(memDSN(t)))
	require.NoError(t, err)
	defer Close(db)

	assert.NoError(t, MigrateModels(db, nil))
}

func TestPing(t *testing.T) {
	t.Run("nil handle", func(t *testing.T) {
		assert.Error(t, Ping(nil))
	})

	t.Run("healthy connection", func(t *testing.T) {
		db, err := Open(sqlite.Open(memDSN(t)))
		require.NoError(t, err)
		defer Close(db)
		assert.NoError(t, Ping(db))
	})

	t.Run("ping failure is reported", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer sqlDB.Close()

		// gorm.Open pings once on startup
		mock.ExpectPing()
		db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}))
		require.NoError(t, err)

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		assert.EqualError(t, Ping(db), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
