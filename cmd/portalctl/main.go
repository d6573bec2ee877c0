// Command portalctl runs operational tasks against the portal database and API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/pkg/config"
	"github.com/noah-isme/univ-portal-api/pkg/database"
	"github.com/noah-isme/univ-portal-api/pkg/logger"
)

const usage = `usage: portalctl <command> [flags]

commands:
  migrate   apply SQL migrations from a directory
  seed      load a YAML fixture into the database
  roster    print the active roster of a course
  smoke     check expected HTTP statuses against a running API`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "migrate":
		err = runMigrate(ctx, args)
	case "seed":
		err = runSeed(ctx, args)
	case "roster":
		err = runRoster(ctx, args)
	case "smoke":
		err = runSmoke(ctx, args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		color.Red("%s: %v", cmd, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and opens the database for commands that need it.
func bootstrap(ctx context.Context) (*sqlx.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return db, log, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: portalctl %s [flags]\n", name)
		fs.PrintDefaults()
	}
	return fs
}
