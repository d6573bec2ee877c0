package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/noah-isme/univ-portal-api/internal/seed"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
)

func runSeed(ctx context.Context, args []string) error {
	fs := newFlagSet("seed")
	file := fs.String("file", filepath.Join("db", "seed", "sample.yaml"), "YAML fixture to load")
	dryRun := fs.Bool("dry-run", false, "validate the fixture without touching the database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}
	fx, err := seed.Load(*file)
	if err != nil {
		return err
	}
	if *dryRun {
		color.Cyan("fixture %s is valid", *file)
		return nil
	}

	db, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer log.Sync() //nolint:errcheck

	summary, err := seed.NewSeeder(db, clock.Real(), log).Apply(ctx, fx)
	if err != nil {
		return err
	}
	color.Green("seeded %d departments, %d faculty, %d courses, %d events, %d videos",
		summary.Departments, summary.Faculty, summary.Courses, summary.Events, summary.Videos)
	return nil
}
