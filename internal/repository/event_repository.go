package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// Registration outcomes detected inside the register transaction.
var (
	ErrRegistrationExists = errors.New("registration already exists")
	ErrEventAtCapacity    = errors.New("event at capacity")
	ErrRegistrationClosed = errors.New("registration closed")
)

// EventRepository manages events and their registrations.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventFrom = `FROM events ev
LEFT JOIN departments d ON d.id = ev.department_id`

const eventSelect = `SELECT ev.id, ev.title, ev.description, ev.event_type, ev.start_date, ev.end_date, ev.location, ev.organizer_id,
	ev.department_id, d.name AS department_name, ev.max_participants, ev.registration_required, ev.registration_deadline,
	ev.contact_email, ev.contact_phone, ev.image, ev.is_featured, ev.is_published,
	(SELECT COUNT(*) FROM event_registrations er WHERE er.event_id = ev.id) AS registration_count,
	ev.created_at, ev.updated_at
` + eventFrom

const eventOrder = ` ORDER BY ev.start_date DESC`

// List returns a page of published events matching the filter.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	conditions := []string{"ev.is_published = TRUE"}
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("ev.event_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.DepartmentCode != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(d.code) = UPPER($%d)", len(args)+1))
		args = append(args, filter.DepartmentCode)
	}
	switch filter.Window {
	case models.WindowUpcoming:
		conditions = append(conditions, fmt.Sprintf("ev.start_date > $%d", len(args)+1))
		args = append(args, filter.Now)
	case models.WindowOngoing:
		conditions = append(conditions, fmt.Sprintf("ev.start_date <= $%d AND ev.end_date >= $%d", len(args)+1, len(args)+1))
		args = append(args, filter.Now)
	case models.WindowPast:
		conditions = append(conditions, fmt.Sprintf("ev.end_date < $%d", len(args)+1))
		args = append(args, filter.Now)
	}
	if strings.TrimSpace(filter.Search) != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(ev.title) LIKE $%d OR LOWER(ev.description) LIKE $%d OR LOWER(ev.location) LIKE $%d)", n, n, n))
		args = append(args, likePattern(filter.Search))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	page, size := clampPage(filter.Page, filter.PageSize, 12)
	listQuery := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", eventSelect, where, eventOrder, size, (page-1)*size)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+eventFrom+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// ListFeaturedUpcoming returns up to limit featured published events starting after now.
func (r *EventRepository) ListFeaturedUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	query := eventSelect + ` WHERE ev.is_published = TRUE AND ev.is_featured = TRUE AND ev.start_date > $1` + eventOrder + ` LIMIT $2`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, now, limit); err != nil {
		return nil, fmt.Errorf("list featured events: %w", err)
	}
	return events, nil
}

// ListRecent returns the latest published events.
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	query := eventSelect + ` WHERE ev.is_published = TRUE` + eventOrder + ` LIMIT $1`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	return events, nil
}

// FindPublished returns a published event by identifier.
func (r *EventRepository) FindPublished(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, eventSelect+` WHERE ev.id = $1 AND ev.is_published = TRUE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// ListRelated returns other published events of the same type.
func (r *EventRepository) ListRelated(ctx context.Context, event *models.Event, limit int) ([]models.Event, error) {
	query := eventSelect + ` WHERE ev.is_published = TRUE AND ev.event_type = $1 AND ev.id <> $2` + eventOrder + ` LIMIT $3`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, event.EventType, event.ID, limit); err != nil {
		return nil, fmt.Errorf("list related events: %w", err)
	}
	return events, nil
}

// ListStartingBetween returns published events starting in [from, to).
func (r *EventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	query := eventSelect + ` WHERE ev.is_published = TRUE AND ev.start_date >= $1 AND ev.start_date < $2 ORDER BY ev.start_date ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, from, to); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// Search matches published events on title or description.
func (r *EventRepository) Search(ctx context.Context, term string, limit int) ([]models.Event, error) {
	query := eventSelect + ` WHERE ev.is_published = TRUE AND (LOWER(ev.title) LIKE $1 OR LOWER(ev.description) LIKE $1)` + eventOrder + ` LIMIT $2`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, likePattern(term), limit); err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now
	const query = `INSERT INTO events (id, title, description, event_type, start_date, end_date, location, organizer_id, department_id,
	max_participants, registration_required, registration_deadline, contact_email, contact_phone, image, is_featured, is_published, created_at, updated_at)
VALUES (:id, :title, :description, :event_type, :start_date, :end_date, :location, :organizer_id, :department_id,
	:max_participants, :registration_required, :registration_deadline, :contact_email, :contact_phone, :image, :is_featured, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// IsRegistered reports whether the user holds a registration for the event.
func (r *EventRepository) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, eventID, userID); err != nil {
		return false, fmt.Errorf("check event registration: %w", err)
	}
	return exists, nil
}

// Register records a registration while holding a lock on the event row so
// the participant cap cannot be exceeded by concurrent sign-ups.
func (r *EventRepository) Register(ctx context.Context, reg *models.EventRegistration, now time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var event models.Event
	const lockQuery = `SELECT id, start_date, end_date, max_participants, registration_deadline FROM events WHERE id = $1 AND is_published = TRUE FOR UPDATE`
	if err = tx.GetContext(ctx, &event, lockQuery, reg.EventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock event: %w", err)
	}
	if !event.RegistrationOpen(now) {
		err = ErrRegistrationClosed
		return err
	}

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2)`, reg.EventID, reg.UserID); err != nil {
		return fmt.Errorf("check event registration: %w", err)
	}
	if exists {
		err = ErrRegistrationExists
		return err
	}

	if event.MaxParticipants != nil {
		if err = tx.GetContext(ctx, &event.RegistrationCount, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, reg.EventID); err != nil {
			return fmt.Errorf("count event registrations: %w", err)
		}
		if event.IsFull() {
			err = ErrEventAtCapacity
			return err
		}
	}

	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	reg.RegistrationDate = now
	reg.IsConfirmed = true
	const insertQuery = `INSERT INTO event_registrations (id, event_id, user_id, registration_date, notes, is_confirmed)
VALUES (:id, :event_id, :user_id, :registration_date, :notes, :is_confirmed)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, reg); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrRegistrationExists
			return err
		}
		return fmt.Errorf("insert event registration: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration transaction: %w", err)
	}
	return nil
}

// CancelRegistration removes the user's registration. sql.ErrNoRows is
// returned when there is none.
func (r *EventRepository) CancelRegistration(ctx context.Context, eventID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("cancel event registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel event registration rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
