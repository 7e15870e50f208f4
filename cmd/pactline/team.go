package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pactline/internal/domain"
	"pactline/internal/session"
	"pactline/internal/store"
)

func teamCmd() *cobra.Command {
	team := &cobra.Command{Use: "team", Short: "Manage members and invitations"}
	team.AddCommand(teamListCmd())
	team.AddCommand(teamSearchCmd())
	team.AddCommand(teamInviteCmd())
	team.AddCommand(teamInvitationsCmd())
	team.AddCommand(teamAcceptCmd())
	team.AddCommand(teamDeclineCmd())
	team.AddCommand(teamRemoveCmd())
	team.AddCommand(teamRoleCmd())
	return team
}

func teamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members of your organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				members, err := s.Auth.OrganizationUsers(ctx)
				if err != nil {
					return err
				}
				return printDetail(members)
			})
		},
	}
}

func teamSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search users by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args[0]) < 2 {
				return fmt.Errorf("query must be at least 2 characters")
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				users, err := s.Users.Search(ctx, args[0], true, limit)
				if err != nil {
					return err
				}
				return renderUsers(users)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "max results")
	return cmd
}

func teamInviteCmd() *cobra.Command {
	var in domain.InvitationCreate
	cmd := &cobra.Command{
		Use:   "invite <email>",
		Short: "Invite someone to your organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Email = args[0]
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				inv, err := s.Users.CreateInvitation(ctx, in)
				if err != nil {
					return err
				}
				return printDetail(inv)
			})
		},
	}
	cmd.Flags().StringVar(&in.Role, "role", "user", "role to grant")
	cmd.Flags().StringVar(&in.AgreementID, "agreement", "", "scope to an agreement")
	cmd.Flags().StringVar(&in.Message, "message", "", "personal note")
	return cmd
}

func teamInvitationsCmd() *cobra.Command {
	var filter domain.InvitationFilter
	cmd := &cobra.Command{
		Use:   "invitations",
		Short: "List invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				items, err := s.Users.ListInvitations(ctx, filter)
				if err != nil {
					return err
				}
				return printDetail(items)
			})
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	cmd.Flags().BoolVar(&filter.SentByMe, "sent", false, "only ones you sent")
	cmd.Flags().BoolVar(&filter.ReceivedByMe, "received", false, "only ones sent to you")
	return cmd
}

func teamAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <token>",
		Short: "Accept an invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Users.AcceptInvitation(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Invitation accepted")
				return nil
			})
		},
	}
}

func teamDeclineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decline <token>",
		Short: "Decline an invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Users.DeclineInvitation(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Invitation declined")
				return nil
			})
		},
	}
}

func teamRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Remove a member from your organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Auth.RemoveUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Member removed")
				return nil
			})
		},
	}
}

func teamRoleCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "set-role <user-id>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "" {
				return fmt.Errorf("--role required")
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Auth.UpdateUserRole(ctx, args[0], role); err != nil {
					return err
				}
				fmt.Println("Role updated")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "new role (admin, user, viewer)")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
