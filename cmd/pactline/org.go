package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pactline/internal/session"
	"pactline/internal/store"
)

func orgCmd() *cobra.Command {
	org := &cobra.Command{Use: "org", Short: "Manage the current organization"}
	org.AddCommand(orgShowCmd())
	org.AddCommand(orgStatsCmd())
	org.AddCommand(orgRenameCmd())
	org.AddCommand(orgCreateCmd())
	org.AddCommand(orgDeleteCmd())
	return org
}

func orgShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				org, err := s.Organizations.Current(ctx)
				if err != nil {
					return err
				}
				return printDetail(org)
			})
		},
	}
}

func orgStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Dashboard stats for the current organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				stats, err := s.Organizations.Stats(ctx)
				if err != nil {
					return err
				}
				return printDetail(stats)
			})
		},
	}
}

func orgRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the current organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				org, err := s.Organizations.Update(ctx, args[0])
				if err != nil {
					return err
				}
				return printDetail(org)
			})
		},
	}
}

func orgCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				org, err := s.Organizations.Create(ctx, args[0])
				if err != nil {
					return err
				}
				return printDetail(org)
			})
		},
	}
}

func orgDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the current organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing without --yes")
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Organizations.Delete(ctx); err != nil {
					return err
				}
				fmt.Println("Organization deleted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
