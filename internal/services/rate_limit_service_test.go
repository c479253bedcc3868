package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
)

func setupRateLimitTest(t *testing.T) (*RateLimitService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}
	service := NewRateLimitService(postgresDB, &config.RateLimitConfig{
		LoginMaxAttempts:   5,
		LoginWindowMinutes: 15,
		GuideMaxRequests:   10,
		GuideWindowMinutes: 60,
	})

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func TestCheckLoginLimit_UnderLimit(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	identifier := "9876543210"
	ip := "203.0.113.9"

	mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
		WithArgs("login", identifier, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).
			AddRow(2, time.Now()))

	mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
		WithArgs("login", ip, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).
			AddRow(2, time.Now()))

	err := service.CheckLoginLimit(identifier, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginLimit_IdentifierExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	identifier := "9876543210"
	lastAttempt := time.Now().Add(-2 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
		WithArgs("login", identifier, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).
			AddRow(5, lastAttempt))

	err := service.CheckLoginLimit(identifier, "203.0.113.9")
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "Error should be RateLimitError")
	assert.Equal(t, "login", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "Too many login attempts")
	assert.True(t, rateLimitErr.RetryAfter.After(time.Now()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckGuideLimit_IPExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	userID := "b2c1a6de-0000-4000-8000-000000000000"
	ip := "203.0.113.9"
	lastRequest := time.Now().Add(-10 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
		WithArgs("guide", userID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).
			AddRow(3, time.Now()))

	mock.ExpectQuery("SELECT COUNT(.+) FROM rate_limit_events").
		WithArgs("guide", ip, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).
			AddRow(10, lastRequest))

	err := service.CheckGuideLimit(userID, ip)
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok)
	assert.Equal(t, "guide", rateLimitErr.Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginAttempt(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO rate_limit_events").
		WithArgs("login", "9876543210").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec("INSERT INTO rate_limit_events").
		WithArgs("login", "203.0.113.9").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.RecordLoginAttempt("9876543210", "203.0.113.9")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginAttempt_SkipsEmptyKeys(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO rate_limit_events").
		WithArgs("login", "203.0.113.9").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.RecordLoginAttempt("", "203.0.113.9")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupOldEvents(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM rate_limit_events").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 17))

	deleted, err := service.CleanupOldEvents(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(17), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
