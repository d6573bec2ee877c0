// Package seed loads YAML fixtures into a fresh portal database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
)

// Fixture is the document read by Load.
type Fixture struct {
	University  *University  `yaml:"university"`
	Admin       *Account     `yaml:"admin"`
	Departments []Department `yaml:"departments"`
	Faculty     []Faculty    `yaml:"faculty"`
	Courses     []Course     `yaml:"courses"`
	Events      []Event      `yaml:"events"`
	Videos      []Video      `yaml:"videos"`
}

// University seeds the singleton university_info row.
type University struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	Address         string `yaml:"address"`
	Phone           string `yaml:"phone"`
	Email           string `yaml:"email"`
	EstablishedYear int    `yaml:"established_year"`
	TotalStudents   int    `yaml:"total_students"`
	TotalFaculty    int    `yaml:"total_faculty"`
	TotalPrograms   int    `yaml:"total_programs"`
}

// Account is a login created by the seed.
type Account struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Department is keyed by its code.
type Department struct {
	Code            string `yaml:"code"`
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	EstablishedYear *int   `yaml:"established_year"`
}

// Faculty is keyed by employee id and references a department by code.
type Faculty struct {
	Account        `yaml:",inline"`
	EmployeeID     string             `yaml:"employee_id"`
	Department     string             `yaml:"department"`
	Designation    models.Designation `yaml:"designation"`
	Specialization string             `yaml:"specialization"`
	Qualification  string             `yaml:"qualification"`
	Experience     int                `yaml:"experience_years"`
	OfficeRoom     string             `yaml:"office_room"`
	OfficeHours    string             `yaml:"office_hours"`
	Bio            string             `yaml:"bio"`
	Featured       bool               `yaml:"featured"`
}

// Course is keyed by code. Instructor is an employee id.
type Course struct {
	Code          string             `yaml:"code"`
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	Department    string             `yaml:"department"`
	Instructor    string             `yaml:"instructor"`
	Credits       int                `yaml:"credits"`
	Semester      models.Semester    `yaml:"semester"`
	Year          int                `yaml:"year"`
	Level         models.CourseLevel `yaml:"level"`
	MaxStudents   int                `yaml:"max_students"`
	Schedule      string             `yaml:"schedule"`
	Classroom     string             `yaml:"classroom"`
	Featured      bool               `yaml:"featured"`
	Prerequisites []string           `yaml:"prerequisites"`
}

// Event is organised by the seeded admin.
type Event struct {
	Title                string           `yaml:"title"`
	Description          string           `yaml:"description"`
	Type                 models.EventType `yaml:"type"`
	Start                time.Time        `yaml:"start"`
	End                  time.Time        `yaml:"end"`
	Location             string           `yaml:"location"`
	Department           string           `yaml:"department"`
	MaxParticipants      *int             `yaml:"max_participants"`
	RegistrationRequired bool             `yaml:"registration_required"`
	RegistrationDeadline *time.Time       `yaml:"registration_deadline"`
	Featured             bool             `yaml:"featured"`
}

// Video is an externally hosted gallery video.
type Video struct {
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Featured    bool   `yaml:"featured"`
}

// Summary counts the rows written by Apply.
type Summary struct {
	Departments int
	Faculty     int
	Courses     int
	Events      int
	Videos      int
}

// Load reads and validates a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks cross references inside the fixture.
func (f *Fixture) Validate() error {
	var errs []error
	departments := make(map[string]bool, len(f.Departments))
	for _, d := range f.Departments {
		if d.Code == "" || d.Name == "" {
			errs = append(errs, errors.New("department requires code and name"))
			continue
		}
		departments[d.Code] = true
	}
	employees := make(map[string]bool, len(f.Faculty))
	for _, m := range f.Faculty {
		if m.EmployeeID == "" || m.Email == "" || m.Password == "" {
			errs = append(errs, fmt.Errorf("faculty %q requires employee_id, email and password", m.Username))
		}
		if !departments[m.Department] {
			errs = append(errs, fmt.Errorf("faculty %s: unknown department %q", m.EmployeeID, m.Department))
		}
		employees[m.EmployeeID] = true
	}
	courses := make(map[string]bool, len(f.Courses))
	for _, c := range f.Courses {
		courses[c.Code] = true
	}
	for _, c := range f.Courses {
		if !departments[c.Department] {
			errs = append(errs, fmt.Errorf("course %s: unknown department %q", c.Code, c.Department))
		}
		if c.Instructor != "" && !employees[c.Instructor] {
			errs = append(errs, fmt.Errorf("course %s: unknown instructor %q", c.Code, c.Instructor))
		}
		for _, p := range c.Prerequisites {
			if !courses[p] || p == c.Code {
				errs = append(errs, fmt.Errorf("course %s: invalid prerequisite %q", c.Code, p))
			}
		}
	}
	if len(f.Events) > 0 && f.Admin == nil {
		errs = append(errs, errors.New("events require an admin account to organise them"))
	}
	for _, e := range f.Events {
		if e.End.Before(e.Start) {
			errs = append(errs, fmt.Errorf("event %q ends before it starts", e.Title))
		}
		if e.Department != "" && !departments[e.Department] {
			errs = append(errs, fmt.Errorf("event %q: unknown department %q", e.Title, e.Department))
		}
	}
	return errors.Join(errs...)
}

// Seeder writes fixtures inside one transaction. Rows keyed by a natural key
// are upserted so the seed can be re-run.
type Seeder struct {
	db       *sqlx.DB
	clock    clock.Clock
	logger   *zap.Logger
	hashCost int
}

// NewSeeder constructs a Seeder.
func NewSeeder(db *sqlx.DB, clk clock.Clock, logger *zap.Logger) *Seeder {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: db, clock: clk, logger: logger, hashCost: bcrypt.DefaultCost}
}

// Apply writes the fixture.
func (s *Seeder) Apply(ctx context.Context, fx *Fixture) (summary Summary, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := s.clock.Now()
	if fx.University != nil {
		if err = s.university(ctx, tx, fx.University, now); err != nil {
			return summary, err
		}
	}

	var adminID string
	if fx.Admin != nil {
		if adminID, err = s.account(ctx, tx, *fx.Admin, models.RoleAdmin, now); err != nil {
			return summary, err
		}
	}

	departmentIDs := make(map[string]string, len(fx.Departments))
	for _, d := range fx.Departments {
		var id string
		err = tx.QueryRowxContext(ctx, `INSERT INTO departments (id, name, code, description, established_year, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, established_year = EXCLUDED.established_year
RETURNING id`, uuid.NewString(), d.Name, d.Code, d.Description, d.EstablishedYear, now).Scan(&id)
		if err != nil {
			return summary, fmt.Errorf("seed department %s: %w", d.Code, err)
		}
		departmentIDs[d.Code] = id
		summary.Departments++
	}

	facultyIDs := make(map[string]string, len(fx.Faculty))
	for _, m := range fx.Faculty {
		var userID, id string
		if userID, err = s.account(ctx, tx, m.Account, models.RoleFaculty, now); err != nil {
			return summary, err
		}
		err = tx.QueryRowxContext(ctx, `INSERT INTO faculty (id, user_id, employee_id, department_id, designation, specialization, qualification, experience_years, office_room, office_hours, bio, is_featured, join_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (employee_id) DO UPDATE SET department_id = EXCLUDED.department_id, designation = EXCLUDED.designation,
  specialization = EXCLUDED.specialization, qualification = EXCLUDED.qualification, experience_years = EXCLUDED.experience_years,
  office_room = EXCLUDED.office_room, office_hours = EXCLUDED.office_hours, bio = EXCLUDED.bio, is_featured = EXCLUDED.is_featured
RETURNING id`, uuid.NewString(), userID, m.EmployeeID, departmentIDs[m.Department], orDefault(string(m.Designation), string(models.DesignationLecturer)),
			m.Specialization, m.Qualification, m.Experience, m.OfficeRoom, m.OfficeHours, m.Bio, m.Featured, now).Scan(&id)
		if err != nil {
			return summary, fmt.Errorf("seed faculty %s: %w", m.EmployeeID, err)
		}
		facultyIDs[m.EmployeeID] = id
		summary.Faculty++
	}

	courseIDs := make(map[string]string, len(fx.Courses))
	for _, c := range fx.Courses {
		var instructor *string
		if id, ok := facultyIDs[c.Instructor]; ok {
			instructor = &id
		}
		maxStudents := c.MaxStudents
		if maxStudents <= 0 {
			maxStudents = models.DefaultMaxStudents
		}
		credits := c.Credits
		if credits <= 0 {
			credits = 3
		}
		var id string
		err = tx.QueryRowxContext(ctx, `INSERT INTO courses (id, name, code, description, department_id, instructor_id, credits, semester, year, level, max_students, schedule, classroom, status, is_featured, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, department_id = EXCLUDED.department_id,
  instructor_id = EXCLUDED.instructor_id, credits = EXCLUDED.credits, semester = EXCLUDED.semester, year = EXCLUDED.year,
  level = EXCLUDED.level, max_students = EXCLUDED.max_students, schedule = EXCLUDED.schedule, classroom = EXCLUDED.classroom,
  is_featured = EXCLUDED.is_featured, updated_at = EXCLUDED.updated_at
RETURNING id`, uuid.NewString(), c.Name, c.Code, c.Description, departmentIDs[c.Department], instructor, credits,
			orDefault(string(c.Semester), string(models.SemesterFall)), c.Year, orDefault(string(c.Level), string(models.LevelUndergraduate)),
			maxStudents, c.Schedule, c.Classroom, string(models.CourseStatusActive), c.Featured, now).Scan(&id)
		if err != nil {
			return summary, fmt.Errorf("seed course %s: %w", c.Code, err)
		}
		courseIDs[c.Code] = id
		summary.Courses++
	}
	for _, c := range fx.Courses {
		for _, p := range c.Prerequisites {
			if _, err = tx.ExecContext(ctx, `INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseIDs[c.Code], courseIDs[p]); err != nil {
				return summary, fmt.Errorf("seed prerequisite %s -> %s: %w", c.Code, p, err)
			}
		}
	}

	for _, e := range fx.Events {
		var department *string
		if id, ok := departmentIDs[e.Department]; ok {
			department = &id
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO events (id, title, description, event_type, start_date, end_date, location, organizer_id, department_id, max_participants, registration_required, registration_deadline, is_featured, is_published, created_at, updated_at)
SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE, $14, $14
WHERE NOT EXISTS (SELECT 1 FROM events WHERE title = $2 AND start_date = $5)`,
			uuid.NewString(), e.Title, e.Description, orDefault(string(e.Type), string(models.EventOther)), e.Start, e.End, e.Location,
			adminID, department, e.MaxParticipants, e.RegistrationRequired, e.RegistrationDeadline, e.Featured, now)
		if err != nil {
			return summary, fmt.Errorf("seed event %q: %w", e.Title, err)
		}
		summary.Events++
	}

	for _, v := range fx.Videos {
		_, err = tx.ExecContext(ctx, `INSERT INTO gallery_videos (id, title, video_url, description, is_featured, uploaded_at)
SELECT $1, $2, $3, $4, $5, $6 WHERE NOT EXISTS (SELECT 1 FROM gallery_videos WHERE video_url = $3)`,
			uuid.NewString(), v.Title, v.URL, v.Description, v.Featured, now)
		if err != nil {
			return summary, fmt.Errorf("seed video %q: %w", v.Title, err)
		}
		summary.Videos++
	}

	if err = tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit seed: %w", err)
	}
	s.logger.Info("seed applied",
		zap.Int("departments", summary.Departments),
		zap.Int("faculty", summary.Faculty),
		zap.Int("courses", summary.Courses),
		zap.Int("events", summary.Events),
		zap.Int("videos", summary.Videos),
	)
	return summary, nil
}

func (s *Seeder) university(ctx context.Context, tx *sqlx.Tx, u *University, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM university_info`); err != nil {
		return fmt.Errorf("clear university info: %w", err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO university_info (id, name, description, address, phone, email, established_year, total_students, total_faculty, total_programs, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.NewString(), u.Name, u.Description, u.Address, u.Phone, u.Email, u.EstablishedYear, u.TotalStudents, u.TotalFaculty, u.TotalPrograms, now)
	if err != nil {
		return fmt.Errorf("seed university info: %w", err)
	}
	return nil
}

func (s *Seeder) account(ctx context.Context, tx *sqlx.Tx, a Account, role models.UserRole, now time.Time) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password for %s: %w", a.Email, err)
	}
	username := a.Username
	if username == "" {
		username = strings.SplitN(a.Email, "@", 2)[0]
	}
	var id string
	err = tx.QueryRowxContext(ctx, `INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
RETURNING id`, uuid.NewString(), username, strings.ToLower(a.Email), string(hash), a.FirstName, a.LastName, string(role), now).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed account %s: %w", a.Email, err)
	}
	return id, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
