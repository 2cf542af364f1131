package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloverville/internal/app"
	"cloverville/internal/domain"
	"cloverville/internal/engine"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Community goal and pool"}
	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsUpdateCmd())
	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show community settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				return printSettings(s.Engine.Settings.Get())
			})
		},
	}
}

func settingsUpdateCmd() *cobra.Command {
	var goal string
	var target, points int
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the community goal, target or pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				next := s.Engine.Settings.Get()
				if cmd.Flags().Changed("goal") {
					next.CommunityGoal = goal
				}
				if cmd.Flags().Changed("target") {
					next.TargetPoints = target
				}
				if cmd.Flags().Changed("points") {
					next.CommunityPoints = points
				}
				if err := s.Engine.Settings.Update(ctx, next); err != nil {
					return err
				}
				return printSettings(s.Engine.Settings.Get())
			})
		},
	}
	cmd.Flags().StringVar(&goal, "goal", "", "community goal")
	cmd.Flags().IntVar(&target, "target", 0, "target points")
	cmd.Flags().IntVar(&points, "points", 0, "community points")
	return cmd
}

func printSettings(st domain.Settings) error {
	if viper.GetBool("json") {
		return printJSON(st)
	}
	tw := newTable(table.Row{"Goal", "Community", "Target", "Weekly reset", "Point reset"})
	tw.AppendRow(table.Row{
		st.CommunityGoal,
		st.CommunityPoints,
		st.TargetPoints,
		st.LastResetDate.Format("2006-01-02"),
		st.PointResetDate.Format("2006-01-02"),
	})
	tw.Render()
	return nil
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reset", Short: "Run a periodic reset now"}
	cmd.AddCommand(&cobra.Command{
		Use:   "weekly",
		Short: "Recycle communal activities and pay the participation bonus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				bonuses := s.Engine.WeeklyReset(ctx)
				return printReport(s, engine.Report{WeeklyReset: true, Bonuses: bonuses})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "points",
		Short: "Set every balance back to the baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				if err := s.Engine.PointReset(ctx); err != nil {
					return err
				}
				return printReport(s, engine.Report{PointReset: true})
			})
		},
	})
	return cmd
}

func maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "maintenance", Short: "Scheduled maintenance"}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the GREEN sweep and any due resets, then report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				return printReport(s, s.Scheduled)
			})
		},
	})
	return cmd
}

func printReport(s *app.Session, r engine.Report) error {
	if viper.GetBool("json") {
		return printJSON(r)
	}
	fmt.Printf("green swept: %d, weekly reset: %t, point reset: %t\n", r.GreenSwept, r.WeeklyReset, r.PointReset)
	if len(r.Bonuses) == 0 {
		return nil
	}
	tw := newTable(table.Row{"Member", "Bonus"})
	for _, m := range s.Engine.Members.List() {
		if bonus, ok := r.Bonuses[m.ID]; ok {
			tw.AppendRow(table.Row{m.Name, bonus})
		}
	}
	tw.Render()
	return nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Activity history"}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest history lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				lines, err := s.History.Tail(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					if lines == nil {
						lines = []string{}
					}
					return printJSON(lines)
				}
				for _, l := range lines {
					fmt.Println(l)
				}
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of lines (0 for all)")
	cmd.AddCommand(tail)
	return cmd
}
