package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/httputil"
	"github.com/AdamBeresnev/bracket-lanes/internal/layout"
	"github.com/AdamBeresnev/bracket-lanes/internal/live"
	"github.com/AdamBeresnev/bracket-lanes/internal/service"
	"github.com/AdamBeresnev/bracket-lanes/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type bracketResponse struct {
	*bracket.Snapshot
	MatchNumbers map[uuid.UUID]int    `json:"match_numbers"`
	RoundNames   map[uuid.UUID]string `json:"round_names"`
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.CORSAllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	limit := func(next http.Handler) http.Handler { return next }
	if app.cfg.RateLimitEnabled {
		limit = httputil.RateLimit(app.cfg.RateLimitRequests, app.cfg.RateLimitWindow)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		events, err := app.tournaments.ListEvents(r.Context())
		if err != nil {
			httputil.Error(w, "Failed to list events", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, events)
	})

	r.With(limit).Post("/events", func(w http.ResponseWriter, r *http.Request) {
		var in service.EventInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httputil.BadRequest(w, "Invalid event payload", err)
			return
		}
		id, err := app.tournaments.CreateEvent(r.Context(), in)
		if err != nil {
			httputil.Error(w, "Failed to create event", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
	})

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
			snap, ok := app.snapshot(w, r)
			if !ok {
				return
			}
			names := make(map[uuid.UUID]string)
			for _, g := range snap.Tree() {
				for id, name := range g.RoundNames() {
					names[id] = name
				}
			}
			httputil.WriteJSON(w, http.StatusOK, bracketResponse{
				Snapshot:     snap,
				MatchNumbers: bracket.MatchNumbers(snap),
				RoundNames:   names,
			})
		})

		r.Get("/groups/{number}/layout", func(w http.ResponseWriter, r *http.Request) {
			number, err := strconv.Atoi(chi.URLParam(r, "number"))
			if err != nil {
				httputil.BadRequest(w, "Invalid group number", err)
				return
			}
			snap, ok := app.snapshot(w, r)
			if !ok {
				return
			}
			group, ok := snap.GroupByNumber(number)
			if !ok {
				httputil.NotFound(w, "Group not found", nil)
				return
			}
			hideFinished := r.URL.Query().Get("hide_finished") == "1"
			httputil.WriteJSON(w, http.StatusOK, layout.Compute(group, hideFinished, app.cfg.Engine.Layout))
		})

		r.Get("/idle", func(w http.ResponseWriter, r *http.Request) {
			snap, ok := app.snapshot(w, r)
			if !ok {
				return
			}
			httputil.WriteJSON(w, http.StatusOK, idlePayload(app.idleNow(snap)))
		})

		r.Get("/lanes/board", func(w http.ResponseWriter, r *http.Request) {
			snap, ok := app.snapshot(w, r)
			if !ok {
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := views.Render(w, r, views.LaneBoard(views.PrepareBoardData(snap, app.idleNow(snap).Idle))); err != nil {
				httputil.InternalServerError(w, "Failed to render lane board", err)
			}
		})

		r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			app.hub.Serve(w, r, eventID)
		})

		r.With(limit).Post("/lanes/assign", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			assigned, err := app.scheduler.AutoAssign(r.Context(), eventID)
			if err != nil {
				httputil.Error(w, "Failed to assign lanes", err)
				return
			}
			app.lanesChanged(r, eventID, assigned)
			httputil.WriteJSON(w, http.StatusOK, live.LanesPayload{Assigned: assigned})
		})

		r.With(limit).Post("/matches/{matchID}/release", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			assigned, err := app.scheduler.ReleaseAndReassign(r.Context(), eventID, matchID)
			if err != nil {
				httputil.Error(w, "Failed to release lane", err)
				return
			}
			app.lanesChanged(r, eventID, assigned)
			httputil.WriteJSON(w, http.StatusOK, live.LanesPayload{Assigned: assigned})
		})

		r.With(limit).Post("/matches/{matchID}/score", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			var in service.ScoreInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				httputil.BadRequest(w, "Invalid score payload", err)
				return
			}
			res, err := app.matches.RecordScore(r.Context(), eventID, matchID, in)
			if err != nil {
				httputil.Error(w, "Failed to record score", err)
				return
			}
			app.hub.Publish(eventID, live.BracketChange, res.Match)
			app.lanesChanged(r, eventID, res.Assigned)
			httputil.WriteJSON(w, http.StatusOK, res)
		})

		r.With(limit).Post("/lanes/{laneID}/maintenance", app.laneStatusHandler(app.scheduler.SetMaintenance))
		r.With(limit).Post("/lanes/{laneID}/idle", app.laneStatusHandler(app.scheduler.SetIdle))

		r.With(limit).Post("/reset", app.rewriteHandler(app.resets.ResetPlacements, "Failed to reset placements"))
		r.With(limit).Post("/reseed", app.rewriteHandler(app.resets.Reseed, "Failed to reseed bracket"))
	})

	return r
}

type rewriteFunc func(ctx context.Context, eventID uuid.UUID) (int, error)

// rewriteHandler runs an operation that rewrites the whole bracket of an
// event and reports how many rows it changed.
func (app *application) rewriteHandler(fn rewriteFunc, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := uuidParam(w, r, "eventID")
		if !ok {
			return
		}
		changed, err := fn(r.Context(), eventID)
		if err != nil {
			httputil.Error(w, failure, err)
			return
		}
		app.hub.Publish(eventID, live.BracketReset, live.ResetPayload{Changed: changed})
		app.observe(r.Context(), eventID)
		httputil.WriteJSON(w, http.StatusOK, live.ResetPayload{Changed: changed})
	}
}

type laneStatusFunc func(ctx context.Context, eventID, laneID uuid.UUID) error

func (app *application) laneStatusHandler(set laneStatusFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := uuidParam(w, r, "eventID")
		if !ok {
			return
		}
		laneID, ok := uuidParam(w, r, "laneID")
		if !ok {
			return
		}
		if err := set(r.Context(), eventID, laneID); err != nil {
			httputil.Error(w, "Failed to change lane status", err)
			return
		}
		app.lanesChanged(r, eventID, 0)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (app *application) lanesChanged(r *http.Request, eventID uuid.UUID, assigned int) {
	app.hub.Publish(eventID, live.LanesUpdated, live.LanesPayload{Assigned: assigned})
	app.observe(r.Context(), eventID)
}

func (app *application) snapshot(w http.ResponseWriter, r *http.Request) (*bracket.Snapshot, bool) {
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return nil, false
	}
	snap, err := app.tournaments.Snapshot(r.Context(), eventID)
	if err != nil {
		httputil.Error(w, "Failed to load event", err)
		return nil, false
	}
	return snap, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
