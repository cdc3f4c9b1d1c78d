package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/config"
	"github.com/AdamBeresnev/bracket-lanes/internal/live"
	"github.com/AdamBeresnev/bracket-lanes/internal/progression"
	"github.com/AdamBeresnev/bracket-lanes/internal/service"
	"github.com/AdamBeresnev/bracket-lanes/internal/store"
	"github.com/AdamBeresnev/bracket-lanes/internal/watchdog"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type application struct {
	cfg *config.Config

	tournaments *service.TournamentService
	matches     *service.MatchService
	scheduler   *service.LaneScheduler
	resets      *service.ResetService

	hub  *live.Hub
	idle *watchdog.Registry
}

// newApplication wires the services. The hub and the idle watchdogs live
// until ctx is cancelled.
func newApplication(ctx context.Context, database *sqlx.DB, cfg *config.Config) *application {
	tournamentStore := store.NewTournamentStore(database)
	progressor := progression.Linked{}

	tournaments := service.NewTournamentService(database, tournamentStore, progressor)
	scheduler := service.NewLaneScheduler(store.NewLaneStore(database))

	hub := live.NewHub()
	go hub.Run(ctx)

	return &application{
		cfg:         cfg,
		tournaments: tournaments,
		matches:     service.NewMatchService(database, tournamentStore, tournaments, scheduler, progressor),
		scheduler:   scheduler,
		resets:      service.NewResetService(database, tournamentStore, progressor),
		hub:         hub,
		idle: watchdog.NewRegistry(ctx, cfg.Engine.IdleThreshold(), func(eventID uuid.UUID, res watchdog.Result) {
			hub.Publish(eventID, live.IdleUpdated, idlePayload(res))
		}),
	}
}

// observe hands the event's current state to its idle watchdog. Called after
// every mutation; a failed read only delays the next idle update.
func (app *application) observe(ctx context.Context, eventID uuid.UUID) {
	snap, err := app.tournaments.Snapshot(ctx, eventID)
	if err != nil {
		slog.Warn("failed to refresh idle watchdog", "event_id", eventID, "error", err)
		return
	}
	app.idle.Observe(snap)
}

func (app *application) idleNow(snap *bracket.Snapshot) watchdog.Result {
	return watchdog.Evaluate(snap, time.Now(), app.cfg.Engine.IdleThreshold())
}

func idlePayload(res watchdog.Result) live.IdlePayload {
	p := live.IdlePayload{MatchIDs: res.Idle.IDs()}
	if p.MatchIDs == nil {
		p.MatchIDs = []uuid.UUID{}
	}
	if res.RecheckAfter > 0 {
		// rounded up so a caller's timer never fires before the match turns idle
		ms := (res.RecheckAfter + time.Millisecond - 1).Milliseconds()
		p.RecheckAfterMS = &ms
	}
	return p
}
