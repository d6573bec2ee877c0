package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/repository"
)

func runRoster(ctx context.Context, args []string) error {
	fs := newFlagSet("roster")
	code := fs.String("course", "", "course code, for example CS101")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*code) == "" {
		return errors.New("-course is required")
	}
	db, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer log.Sync() //nolint:errcheck

	course, entries, err := loadRoster(ctx, db, *code)
	if err != nil {
		return err
	}
	printRoster(os.Stdout, course, entries)
	return nil
}

type rosterCourse struct {
	ID          string `db:"id"`
	Code        string `db:"code"`
	Name        string `db:"name"`
	MaxStudents int    `db:"max_students"`
}

func loadRoster(ctx context.Context, db *sqlx.DB, code string) (*rosterCourse, []models.RosterEntry, error) {
	var course rosterCourse
	err := db.GetContext(ctx, &course, `SELECT id, code, name, max_students FROM courses WHERE UPPER(code) = UPPER($1)`, strings.TrimSpace(code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("course %s not found", code)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load course: %w", err)
	}
	entries, err := repository.NewEnrollmentRepository(db).Roster(ctx, course.ID)
	if err != nil {
		return nil, nil, err
	}
	return &course, entries, nil
}

func printRoster(w io.Writer, course *rosterCourse, entries []models.RosterEntry) {
	color.New(color.FgYellow).Fprintf(w, "\n%s %s (%d/%d enrolled)\n", course.Code, course.Name, len(entries), course.MaxStudents)
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Student ID", "Name", "Email", "Year", "Status", "Enrolled"})
	for _, e := range entries {
		table.Append([]string{
			e.StudentNumber,
			strings.TrimSpace(e.FirstName + " " + e.LastName),
			e.Email,
			string(e.Year),
			string(e.Status),
			e.EnrollmentDate.Format("2006-01-02"),
		})
	}
	table.Render()
}
