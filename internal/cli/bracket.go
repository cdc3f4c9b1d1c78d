package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/layout"
	"github.com/AdamBeresnev/bracket-lanes/internal/service"
	"github.com/AdamBeresnev/bracket-lanes/internal/watchdog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type rewriteOp func(ctx context.Context, eventID uuid.UUID) (int, error)

// newRewriteCmd builds a command that rewrites the whole bracket of an event
// with the operation pick returns from the opened services.
func newRewriteCmd(opts *options, use, short string, pick func(*app) rewriteOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " EVENT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event", args[0])
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			changed, err := pick(a)(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d changed\n", changed)
			return nil
		},
	}
}

func newLayoutCmd(opts *options) *cobra.Command {
	var (
		group        int
		hideFinished bool
	)
	cmd := &cobra.Command{
		Use:   "layout EVENT_ID",
		Short: "Print the computed layout of a bracket group as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event", args[0])
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.tournaments.Snapshot(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			g, ok := snap.GroupByNumber(group)
			if !ok {
				return fmt.Errorf("group %d: %w", group, service.ErrNotFound)
			}
			return writeJSON(cmd, layout.Compute(g, hideFinished, a.cfg.Layout))
		},
	}
	cmd.Flags().IntVarP(&group, "group", "g", 1, "group number (1 winners, 2 losers, 3 grand final)")
	cmd.Flags().BoolVar(&hideFinished, "hide-finished", false, "hide completed and archived matches")
	return cmd
}

type idleReport struct {
	MatchIDs       []string `json:"match_ids"`
	RecheckAfterMS *int64   `json:"recheck_after_ms"`
}

func newIdleCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "idle-check EVENT_ID",
		Short: "List matches that hold a lane but have not started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event", args[0])
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.tournaments.Snapshot(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			res := watchdog.Evaluate(snap, time.Now(), a.cfg.IdleThreshold())

			report := idleReport{MatchIDs: []string{}}
			for _, id := range res.Idle.IDs() {
				report.MatchIDs = append(report.MatchIDs, id.String())
			}
			if res.RecheckAfter > 0 {
				ms := (res.RecheckAfter + time.Millisecond - 1).Milliseconds()
				report.RecheckAfterMS = &ms
			}
			return writeJSON(cmd, report)
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
