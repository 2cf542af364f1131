package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloverville/internal/app"
	"cloverville/internal/domain"
)

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "activity", Short: "Manage activities", Aliases: []string{"act"}}
	cmd.AddCommand(activityCreateCmd())
	cmd.AddCommand(activityListCmd())
	cmd.AddCommand(activityShowCmd())
	cmd.AddCommand(activityUpdateCmd())
	cmd.AddCommand(activityCompleteCmd())
	cmd.AddCommand(activityDeleteCmd())
	return cmd
}

func activityCreateCmd() *cobra.Command {
	var a domain.Activity
	var typ, performer, receiver, deadline string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseActivityType(typ)
			if err != nil {
				return err
			}
			a.Type = t
			a.PerformerID = optionalString(performer)
			a.ReceiverID = optionalString(receiver)
			if a.Deadline, err = parseDate(deadline); err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				created, err := s.Engine.Create(ctx, a)
				if err != nil {
					return err
				}
				return printActivity(s, created)
			})
		},
	}
	cmd.Flags().StringVar(&a.ID, "id", "", "activity id (optional, random UUID if omitted)")
	cmd.Flags().StringVar(&typ, "type", "", "GREEN, COMMUNAL, TRADE_TASK or TRADE_GOODS")
	cmd.Flags().StringVar(&a.Title, "title", "", "title")
	cmd.Flags().StringVar(&a.Description, "description", "", "description")
	cmd.Flags().IntVar(&a.PointValue, "points", 0, "point value")
	cmd.Flags().StringVar(&performer, "performer", "", "performer member id (trades)")
	cmd.Flags().StringVar(&receiver, "receiver", "", "receiver member id (trades)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline YYYY-MM-DD (required for COMMUNAL)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func activityListCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter domain.ActivityType
			if typ != "" {
				t, err := domain.ParseActivityType(typ)
				if err != nil {
					return err
				}
				filter = t
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				items := s.Engine.All()
				if filter != "" {
					items = s.Engine.List(filter)
				}
				return printActivities(s, items)
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "type filter")
	return cmd
}

func activityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				a, ok := s.Engine.Get(args[0])
				if !ok {
					return fmt.Errorf("%w: activity %s", domain.ErrNotFound, args[0])
				}
				return printActivity(s, a)
			})
		},
	}
}

func activityUpdateCmd() *cobra.Command {
	var title, description, performer, receiver, deadline string
	var points int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an activity; a deadline in the past deletes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				a, ok := s.Engine.Get(args[0])
				if !ok {
					return fmt.Errorf("%w: activity %s", domain.ErrNotFound, args[0])
				}
				flags := cmd.Flags()
				if flags.Changed("title") {
					a.Title = title
				}
				if flags.Changed("description") {
					a.Description = description
				}
				if flags.Changed("points") {
					a.PointValue = points
				}
				if flags.Changed("performer") {
					a.PerformerID = optionalString(performer)
				}
				if flags.Changed("receiver") {
					a.ReceiverID = optionalString(receiver)
				}
				if flags.Changed("deadline") {
					d, err := parseDate(deadline)
					if err != nil {
						return err
					}
					a.Deadline = d
				}
				if err := s.Engine.Update(ctx, a); err != nil {
					return err
				}
				updated, ok := s.Engine.Get(a.ID)
				if !ok {
					fmt.Println("deadline has passed; deleted", a.ID)
					return nil
				}
				return printActivity(s, updated)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().IntVar(&points, "points", 0, "point value")
	cmd.Flags().StringVar(&performer, "performer", "", "performer member id (empty clears)")
	cmd.Flags().StringVar(&receiver, "receiver", "", "receiver member id (empty clears)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline YYYY-MM-DD (empty clears)")
	return cmd
}

func activityCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an activity and transfer its points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				a, known := s.Engine.Get(args[0])
				if err := s.Engine.Complete(ctx, args[0]); err != nil {
					return err
				}
				if !known {
					fmt.Println("nothing to complete:", args[0])
					return nil
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"completed": a.ID, "type": a.Type, "points": a.PointValue})
				}
				fmt.Printf("completed %s (%s, %d points)\n", a.ID, a.Type, a.PointValue)
				return nil
			})
		},
	}
}

func activityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity without reversing points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				if err := s.Engine.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func printActivity(s *app.Session, a domain.Activity) error {
	if viper.GetBool("json") {
		return printJSON(a)
	}
	return printActivities(s, []domain.Activity{a})
}

func printActivities(s *app.Session, items []domain.Activity) error {
	if viper.GetBool("json") {
		if items == nil {
			items = []domain.Activity{}
		}
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Type", "Title", "Points", "Performer", "Receiver", "Created", "Deadline", "Completed"})
	for _, a := range items {
		tw.AppendRow(table.Row{
			a.ID, a.Type, a.Title, a.PointValue,
			s.Engine.Members.NameOf(a.PerformerID), s.Engine.Members.NameOf(a.ReceiverID),
			a.CreatedAt.Format("2006-01-02"), formatDate(a.Deadline), formatDate(a.CompletedAt),
		})
	}
	tw.Render()
	return nil
}
