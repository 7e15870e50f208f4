package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pactline/internal/domain"
	"pactline/internal/session"
	"pactline/internal/store"
)

func authCmd() *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Sign in and manage the session"}
	auth.AddCommand(signUpCmd())
	auth.AddCommand(signInCmd())
	auth.AddCommand(signOutCmd())
	auth.AddCommand(whoamiCmd())
	auth.AddCommand(switchOrgCmd())
	auth.AddCommand(myOrgsCmd())
	return auth
}

func signUpCmd() *cobra.Command {
	var email, password, fullName, orgName string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				result, err := s.Auth.SignUp(ctx, domain.SignUpRequest{
					Email:            email,
					Password:         pw,
					FullName:         fullName,
					OrganizationName: orgName,
				})
				if err != nil {
					return err
				}
				return printDetail(result)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&orgName, "org", "", "organization name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signInCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				tokens, err := s.Auth.SignIn(ctx, domain.SignInRequest{Email: email, Password: pw})
				if err != nil {
					return err
				}
				fmt.Printf("Signed in as %s\n", tokens.User.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Auth.SignOut(); err != nil {
					return err
				}
				fmt.Println("Signed out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, sess *session.Store) error {
				user, ok := sess.User()
				if !ok {
					return fmt.Errorf("not signed in")
				}
				out := map[string]any{"user": user}
				if octx, ok := sess.ActiveOrganization(); ok {
					out["organization"] = octx.Organization
					out["role"] = octx.Role
				}
				if exp, ok := sess.ExpiresAt(); ok {
					out["token_expires_at"] = exp
				}
				return printDetail(out)
			})
		},
	}
}

func switchOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch-org <organization-id>",
		Short: "Switch the active organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				octx, err := s.Auth.SwitchOrganization(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Active organization: %s (%s)\n", octx.Organization.Name, octx.Role)
				return nil
			})
		},
	}
	return cmd
}

func myOrgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List organizations you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				orgs, err := s.Auth.MyOrganizations(ctx)
				if err != nil {
					return err
				}
				return printDetail(orgs)
			})
		},
	}
}

func resolvePassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password is required")
	}
	return string(raw), nil
}
