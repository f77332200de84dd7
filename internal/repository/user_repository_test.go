package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealthapp/backend/internal/model"
)

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)
		user := &model.User{Email: "asha@example.com", Name: "Asha", Currency: "INR", AlertEmail: true}

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		require.NoError(t, repo.Create(context.Background(), user))
		assert.NotEqual(t, uuid.Nil, user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(context.Background(), &model.User{Email: "dup@example.com"})
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "name", "phone", "currency", "alert_email", "alert_whatsapp", "alert_push", "created_at", "updated_at",
		}).AddRow(id.String(), "asha@example.com", "Asha", "9876543210", "INR", true, false, true, now, now))

	user, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "9876543210", *user.Phone)
	assert.False(t, user.AlertWhatsApp)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAlertRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewAlertRepository(db)
	alert := &model.Alert{
		UserID:  uuid.New(),
		Type:    model.AlertType80Percent,
		Message: "Budget Warning",
		SentVia: "email,whatsapp",
	}

	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(sqlmock.AnyArg(), alert.UserID, model.AlertType80Percent, "Budget Warning", "email,whatsapp").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, repo.Create(context.Background(), alert))
	assert.Equal(t, []string{"email", "whatsapp"}, alert.Channels())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushRepository_Save(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewPushRepository(db)
	sub := &model.PushSubscription{UserID: uuid.New(), Endpoint: "https://push.example/abc", P256dh: "k", Auth: "a"}
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT INTO push_subscriptions.*ON CONFLICT \(user_id, endpoint\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), now, now))

	require.NoError(t, repo.Save(context.Background(), sub))
	assert.Equal(t, id, sub.ID)
}
