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

func memberCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "member", Short: "Manage members"}
	cmd.AddCommand(memberAddCmd())
	cmd.AddCommand(memberListCmd())
	cmd.AddCommand(memberShowCmd())
	cmd.AddCommand(memberUpdateCmd())
	cmd.AddCommand(memberDeleteCmd())
	return cmd
}

func memberAddCmd() *cobra.Command {
	var m domain.Member
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				added, err := s.Engine.Members.Add(ctx, m)
				if err != nil {
					return err
				}
				return printMember(added)
			})
		},
	}
	cmd.Flags().StringVar(&m.Name, "name", "", "member name (letters, digits and spaces)")
	cmd.Flags().IntVar(&m.PersonalPoints, "points", 0, "starting points")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func memberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				return printMembers(s.Engine.Members.List())
			})
		},
	}
}

func memberShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				m, err := s.Engine.Members.Get(args[0])
				if err != nil {
					return err
				}
				return printMember(m)
			})
		},
	}
}

func memberUpdateCmd() *cobra.Command {
	var name string
	var points, tasks int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a member's name, points or task counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				m, err := s.Engine.Members.Get(args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					m.Name = name
				}
				if cmd.Flags().Changed("points") {
					m.PersonalPoints = points
				}
				if cmd.Flags().Changed("tasks") {
					m.TotalTasksCompleted = tasks
				}
				if err := s.Engine.Members.Update(ctx, m); err != nil {
					return err
				}
				m, err = s.Engine.Members.Get(m.ID)
				if err != nil {
					return err
				}
				return printMember(m)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().IntVar(&points, "points", 0, "personal points")
	cmd.Flags().IntVar(&tasks, "tasks", 0, "tasks completed this period")
	return cmd
}

func memberDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				if err := s.Engine.Members.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func printMember(m domain.Member) error {
	if viper.GetBool("json") {
		return printJSON(m)
	}
	return printMembers([]domain.Member{m})
}

func printMembers(members []domain.Member) error {
	if viper.GetBool("json") {
		return printJSON(members)
	}
	tw := newTable(table.Row{"ID", "Name", "Points", "Tasks"})
	for _, m := range members {
		tw.AppendRow(table.Row{m.ID, m.Name, m.PersonalPoints, m.TotalTasksCompleted})
	}
	tw.Render()
	return nil
}
