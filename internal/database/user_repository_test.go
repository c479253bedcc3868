package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var userRows = []string{
	"id", "phone", "email", "name", "password_hash",
	"is_admin", "is_captain", "is_user", "captain_code", "admin_verified",
	"is_active", "created_at", "updated_at",
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				userID, "9876543210", nil, "Ravi Kumar", "hash",
				false, false, true, nil, false,
				false, now, now,
			))

		user, err := repo.CreateUser(&models.User{
			ID:           userID,
			Phone:        models.NewNullString("9876543210"),
			Name:         "Ravi Kumar",
			PasswordHash: "hash",
			IsUser:       true,
		})
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "9876543210", user.Phone.String)
		assert.False(t, user.IsActive)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Phone", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})

		user, err := repo.CreateUser(&models.User{
			ID:    uuid.New(),
			Phone: models.NewNullString("9876543210"),
		})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("database error"))

		user, err := repo.CreateUser(&models.User{ID: uuid.New()})
		assert.Error(t, err)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	userID := uuid.New()
	now := time.Now()

	t.Run("By Phone", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone`).
			WithArgs("9876543210").
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				userID, "9876543210", nil, "Ravi Kumar", "hash",
				false, false, true, nil, false,
				true, now, now,
			))

		user, err := repo.GetByPhone("9876543210")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.True(t, user.IsActive)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("By Email", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("ravi@example.com").
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				userID, nil, "ravi@example.com", "Ravi Kumar", "hash",
				false, false, true, nil, false,
				true, now, now,
			))

		user, err := repo.GetByEmail("ravi@example.com")
		require.NoError(t, err)
		assert.Equal(t, "ravi@example.com", user.Email.String)
		assert.False(t, user.Phone.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("By Captain Code", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE captain_code`).
			WithArgs("CAP00012345").
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				userID, "9876543210", nil, "Ravi Kumar", "hash",
				false, true, true, "CAP00012345", true,
				true, now, now,
			))

		user, err := repo.GetByCaptainCode("CAP00012345")
		require.NoError(t, err)
		assert.True(t, user.IsCaptain)
		assert.True(t, user.AdminVerified)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone`).
			WithArgs("9999999999").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByPhone("9999999999")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestActivateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	t.Run("Fresh Activation", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users SET is_active = true`).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Activate(userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Active", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users SET is_active = true`).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.Activate(userID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCaptainCodeExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewUserRepository(mockDB)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("CAP00012345").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CaptainCodeExists("CAP00012345")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
