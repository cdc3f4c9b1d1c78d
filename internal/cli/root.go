package cli

import (
	"context"
	"os"

	"github.com/AdamBeresnev/bracket-lanes/internal/config"
	"github.com/AdamBeresnev/bracket-lanes/internal/db"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/service"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	charmlog "github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

type options struct {
	verbose bool
	driver  string
	dsn     string
	engine  string
}

// app bundles what a command needs. close releases the database.
type app struct {
	cfg         config.Engine
	db          *sqlx.DB
	tournaments *service.TournamentService
	scheduler   *service.LaneScheduler
	resets      *service.ResetService
}

func (a *app) close() { a.db.Close() }

func (o *options) open() (*app, error) {
	engine, err := config.LoadEngine(o.engine)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(o.driver, o.dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	tournamentStore := store.NewTournamentStore(conn)
	return &app{
		cfg:         engine,
		db:          conn,
		tournaments: service.NewTournamentService(conn, tournamentStore, progression.Linked{}),
		scheduler:   service.NewLaneScheduler(store.NewLaneStore(conn)),
		resets:      service.NewResetService(conn, tournamentStore, progression.Linked{}),
	}, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "lanectl",
		Short:        "lanectl manages events, lanes and bracket state",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			installLogger(newLogger(cmd.ErrOrStderr(), level))
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&opts.driver, "driver", envOr("DATABASE_DRIVER", db.DriverSQLite), "database driver (sqlite3 or postgres)")
	flags.StringVar(&opts.dsn, "dsn", envOr("DATABASE_URL", "bracket.db"), "database connection string")
	flags.StringVar(&opts.engine, "engine-config", os.Getenv("ENGINE_CONFIG"), "TOML file with layout and idle policy")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newCreateEventCmd(opts))
	root.AddCommand(newAssignCmd(opts))
	root.AddCommand(newReleaseCmd(opts))
	root.AddCommand(newLaneStatusCmd(opts, "maintenance", "Take a free lane out of service"))
	root.AddCommand(newLaneStatusCmd(opts, "idle", "Return a lane to service"))
	root.AddCommand(newRewriteCmd(opts, "reset", "Clear every placement, score and lane of an event",
		func(a *app) rewriteOp { return a.resets.ResetPlacements }))
	root.AddCommand(newRewriteCmd(opts, "reseed", "Seed the participants into the bracket again and walk over byes",
		func(a *app) rewriteOp { return a.resets.Reseed }))
	root.AddCommand(newLayoutCmd(opts))
	root.AddCommand(newIdleCheckCmd(opts))

	return root
}

// Execute runs lanectl with the process arguments.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
