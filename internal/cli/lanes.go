package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/AdamBeresnev/bracket-lanes/internal/bracket"
	"github.com/AdamBeresnev/bracket-lanes/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()
			slog.Info("database is up to date", "driver", opts.driver)
			return nil
		},
	}
}

func newCreateEventCmd(opts *options) *cobra.Command {
	var (
		name         string
		stageType    string
		participants []string
		fromFile     string
		lanes        string
	)
	cmd := &cobra.Command{
		Use:   "create-event",
		Short: "Create an event with its bracket and lanes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("failed to read participants: %w", err)
				}
				participants = append(participants, service.ParseParticipants(string(data))...)
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.tournaments.CreateEvent(cmd.Context(), service.EventInput{
				Name:         name,
				Type:         bracket.StageType(stageType),
				Participants: participants,
				Lanes:        service.ParseLaneLabels(lanes),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "event name")
	cmd.Flags().StringVar(&stageType, "type", string(bracket.SingleElimination), "single_elimination or double_elimination")
	cmd.Flags().StringArrayVarP(&participants, "participant", "p", nil, "participant name, in seed order (repeatable)")
	cmd.Flags().StringVar(&fromFile, "participants-file", "", "file with one participant per line")
	cmd.Flags().StringVar(&lanes, "lanes", "", `lane count ("4") or comma separated labels ("A,B,C")`)
	return cmd
}

func newAssignCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign EVENT_ID",
		Short: "Hand idle lanes to waiting matches",
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

			assigned, err := a.scheduler.AutoAssign(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d assigned\n", assigned)
			return nil
		},
	}
}

func newReleaseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "release EVENT_ID MATCH_ID",
		Short: "Free the lane of a match and reassign idle lanes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event", args[0])
			if err != nil {
				return err
			}
			matchID, err := parseID("match", args[1])
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			assigned, err := a.scheduler.ReleaseAndReassign(cmd.Context(), eventID, matchID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d assigned\n", assigned)
			return nil
		},
	}
}

// newLaneStatusCmd builds the maintenance and idle commands. Lanes may be
// given by id or by label.
func newLaneStatusCmd(opts *options, status, short string) *cobra.Command {
	return &cobra.Command{
		Use:   status + " EVENT_ID LANE",
		Short: short,
		Args:  cobra.ExactArgs(2),
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
			laneID, err := findLane(snap, args[1])
			if err != nil {
				return err
			}

			if status == "maintenance" {
				err = a.scheduler.SetMaintenance(cmd.Context(), eventID, laneID)
			} else {
				err = a.scheduler.SetIdle(cmd.Context(), eventID, laneID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lane %s is %s\n", args[1], status)
			return nil
		},
	}
}

func findLane(snap *bracket.Snapshot, ref string) (uuid.UUID, error) {
	for _, lane := range snap.Lanes {
		if lane.Label == ref || lane.ID.String() == strings.ToLower(ref) {
			return lane.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("lane %q: %w", ref, service.ErrNotFound)
}

func parseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", what, s, err)
	}
	return id, nil
}
