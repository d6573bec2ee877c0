package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

var eventRowColumns = []string{"id", "title", "description", "event_type", "start_date", "end_date", "location", "organizer_id",
	"department_id", "department_name", "max_participants", "registration_required", "registration_deadline",
	"contact_email", "contact_phone", "image", "is_featured", "is_published", "registration_count", "created_at", "updated_at"}

func TestEventListOngoingWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ev.is_published = TRUE AND ev.event_type = $1 AND ev.start_date <= $2 AND ev.end_date >= $2 ORDER BY ev.start_date DESC LIMIT 12 OFFSET 0")).
		WithArgs(models.EventSeminar, now).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow("ev-1", "Quantum talk", "", "seminar", now.Add(-time.Hour), now.Add(time.Hour), "Hall A", "user-1",
				nil, nil, nil, false, nil, "", "", nil, false, true, 0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events ev")).
		WithArgs(models.EventSeminar, now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), models.EventFilter{Type: models.EventSeminar, Window: models.WindowOngoing, Now: now})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, total)
	assert.True(t, events[0].IsOngoing(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func lockEventRows(start, end time.Time, maxParticipants, deadline interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "start_date", "end_date", "max_participants", "registration_deadline"}).
		AddRow("ev-1", start, end, maxParticipants, deadline)
}

func TestEventRegisterRespectsCapacity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM events WHERE id = \\$1 AND is_published = TRUE FOR UPDATE").
		WithArgs("ev-1").
		WillReturnRows(lockEventRows(now.Add(24*time.Hour), now.Add(26*time.Hour), 1, nil))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("ev-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM event_registrations").WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), &models.EventRegistration{EventID: "ev-1", UserID: "user-1"}, now)
	assert.ErrorIs(t, err, ErrEventAtCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegisterAfterDeadline(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(lockEventRows(now.Add(time.Hour), now.Add(2*time.Hour), nil, deadline))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), &models.EventRegistration{EventID: "ev-1", UserID: "user-1"}, now)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegisterSucceeds(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(lockEventRows(now.Add(time.Hour), now.Add(2*time.Hour), nil, nil))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO event_registrations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reg := &models.EventRegistration{EventID: "ev-1", UserID: "user-1", Notes: "vegetarian lunch"}
	require.NoError(t, repo.Register(context.Background(), reg, now))
	assert.NotEmpty(t, reg.ID)
	assert.True(t, reg.IsConfirmed)
	assert.Equal(t, now, reg.RegistrationDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCancelRegistrationMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("DELETE FROM event_registrations").WithArgs("ev-1", "user-1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.CancelRegistration(context.Background(), "ev-1", "user-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
