package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

var announcementRowColumns = []string{"id", "title", "content", "author_id", "author_name", "department_id", "department_name",
	"priority", "target_audience", "expiry_date", "attachment", "is_published", "is_pinned", "created_at", "updated_at"}

func TestAnnouncementListOrdersPinnedFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.is_published = TRUE AND a.priority = $1 AND (LOWER(a.title) LIKE $2 OR LOWER(a.content) LIKE $2 OR LOWER(a.target_audience) LIKE $2) ORDER BY a.is_pinned DESC, a.created_at DESC LIMIT 15 OFFSET 0")).
		WithArgs(models.PriorityUrgent, "%exam%").
		WillReturnRows(sqlmock.NewRows(announcementRowColumns).
			AddRow("an-1", "Exam schedule", "Finals start Monday", "user-1", "Dean Office", nil, nil, "urgent", "all students", nil, nil, true, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM announcements a")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.AnnouncementFilter{Priority: models.PriorityUrgent, Search: "Exam"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.True(t, items[0].IsPinned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRelatedMatchesNullDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("a.department_id IS NOT DISTINCT FROM $1 AND a.id <> $2")).
		WithArgs(nil, "an-1", 3).
		WillReturnRows(sqlmock.NewRows(announcementRowColumns))

	related, err := repo.ListRelated(context.Background(), &models.Announcement{ID: "an-1"}, 3)
	require.NoError(t, err)
	assert.Empty(t, related)
	assert.NoError(t, mock.ExpectationsWereMet())
}
