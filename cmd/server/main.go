// @title           LexDash API
// @version         1.0
// @description     Legal case management: clients, cases, documents, tasks, invoices, notifications and analytics.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/counters"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/config"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

func main() {
	root := &cli.Command{
		Name:  "lexdash",
		Usage: "Legal case management API server and maintenance commands",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			recountCommand(),
			promoteCommand(),
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx, config.Load())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API (migrates first)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides PORT)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := config.Load()
			if p := c.String("port"); p != "" {
				cfg.Port = p
			}
			return serve(ctx, cfg)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Action: func(context.Context, *cli.Command) error {
			if _, err := openDB(config.Load()); err != nil {
				return err
			}
			log.Println("migration complete")
			return nil
		},
	}
}

func recountCommand() *cli.Command {
	return &cli.Command{
		Name:  "recount",
		Usage: "Rebuild every client's activeCases from the cases table",
		Action: func(ctx context.Context, _ *cli.Command) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			res, err := counters.Recount(ctx, db)
			if err != nil {
				return err
			}
			fmt.Printf("clients: %d, corrected: %d\n", res.Clients, res.Corrected)
			return nil
		},
	}
}

func promoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "promote",
		Usage: "Grant the admin role to an existing account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, Usage: "account email"},
			&cli.BoolFlag{Name: "revoke", Usage: "demote back to attorney"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			role := models.RoleAdmin
			if c.Bool("revoke") {
				role = models.RoleAttorney
			}
			if err := auth.SetRole(ctx, db, c.String("email"), role); err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", c.String("email"), role)
			return nil
		},
	}
}

// openDB connects and migrates.
func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func newLogger(cfg config.Config) *logger.Logger {
	l, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Printf("logger init failed, falling back to nop: %v", err)
		return logger.Nop()
	}
	return l
}
