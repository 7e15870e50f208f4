package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pactline/internal/domain"
	"pactline/internal/session"
	"pactline/internal/store"
)

func negotiationCmd() *cobra.Command {
	neg := &cobra.Command{
		Use:     "negotiation",
		Aliases: []string{"neg"},
		Short:   "Manage negotiations",
		Long:    "Negotiations run in proposal rounds. Draft a round, submit it, and the counterparty accepts or rejects; a new round supersedes the one on the table.",
	}
	neg.AddCommand(negCreateCmd())
	neg.AddCommand(negListCmd())
	neg.AddCommand(negShowCmd())
	neg.AddCommand(negUpdateCmd())
	neg.AddCommand(negParticipantCmd())
	neg.AddCommand(roundCmd())
	neg.AddCommand(msgCmd())
	neg.AddCommand(negActivityCmd())
	neg.AddCommand(negPauseCmd())
	neg.AddCommand(negResumeCmd())
	neg.AddCommand(negAbandonCmd())
	neg.AddCommand(negStatsCmd())
	return neg
}

func negCreateCmd() *cobra.Command {
	var in domain.NegotiationCreate
	var counterparty string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a negotiation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.AgreementID == "" || in.Title == "" {
				return fmt.Errorf("--agreement and --title required")
			}
			if counterparty != "" {
				in.Participants = append(in.Participants, domain.ParticipantCreate{
					UserID: counterparty,
					Role:   domain.RoleCounterparty,
				})
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				n, err := s.Negotiations.Create(ctx, in)
				if err != nil {
					return err
				}
				return printDetail(n)
			})
		},
	}
	cmd.Flags().StringVar(&in.AgreementID, "agreement", "", "agreement id")
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline (RFC 3339)")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "counterparty user id")
	_ = cmd.MarkFlagRequired("agreement")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func negListCmd() *cobra.Command {
	var filter domain.NegotiationFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List negotiations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				items, err := s.Negotiations.List(ctx, filter)
				if err != nil {
					return err
				}
				return renderNegotiations(items)
			})
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filter.AgreementID, "agreement", "", "filter by agreement")
	cmd.Flags().IntVar(&filter.Skip, "skip", 0, "offset")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")
	return cmd
}

func negShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				n, err := s.Negotiations.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printDetail(n)
			})
		},
	}
}

func negUpdateCmd() *cobra.Command {
	var title, description, deadline string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in domain.NegotiationUpdate
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("deadline") {
				in.Deadline = &deadline
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				n, err := s.Negotiations.Update(ctx, args[0], in)
				if err != nil {
					return err
				}
				return printDetail(n)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC 3339)")
	return cmd
}

func negParticipantCmd() *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "add-participant <negotiation-id>",
		Short: "Add a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user required")
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				p, err := s.Negotiations.AddParticipant(ctx, args[0], domain.ParticipantCreate{
					UserID: userID,
					Role:   role,
				})
				if err != nil {
					return err
				}
				return printDetail(p)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", domain.RoleObserver, "participant role")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func roundCmd() *cobra.Command {
	round := &cobra.Command{Use: "round", Short: "Manage proposal rounds"}
	round.AddCommand(roundCreateCmd())
	round.AddCommand(roundListCmd())
	round.AddCommand(roundSubmitCmd())
	round.AddCommand(roundRespondCmd("accept", domain.RoundAccepted))
	round.AddCommand(roundRespondCmd("reject", domain.RoundRejected))
	return round
}

func roundCreateCmd() *cobra.Command {
	var in domain.RoundCreate
	var proposal string
	cmd := &cobra.Command{
		Use:   "create <negotiation-id>",
		Short: "Draft a proposal round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Title == "" {
				return fmt.Errorf("--title required")
			}
			if proposal != "" {
				if err := json.Unmarshal([]byte(proposal), &in.ProposalData); err != nil {
					return fmt.Errorf("invalid --proposal JSON: %w", err)
				}
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				r, err := s.Negotiations.CreateRound(ctx, args[0], in)
				if err != nil {
					return err
				}
				return printDetail(r)
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "round title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.ChangesSummary, "changes", "", "summary of changes")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline (RFC 3339)")
	cmd.Flags().StringVar(&proposal, "proposal", "", "proposal data as JSON")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func roundListCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "list <negotiation-id>",
		Short: "List rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				rounds, err := s.Negotiations.ListRounds(ctx, args[0], skip, limit)
				if err != nil {
					return err
				}
				return renderRounds(rounds)
			})
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "offset")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func roundSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <negotiation-id> <round-id>",
		Short: "Submit a draft round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				out, err := s.Negotiations.SubmitRound(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printDetail(out)
			})
		},
	}
}

func roundRespondCmd(verb, status string) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   verb + " <negotiation-id> <round-id>",
		Short: verb + " a submitted round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				out, err := s.Negotiations.RespondToRound(ctx, args[0], args[1], status, notes)
				if err != nil {
					return err
				}
				return printDetail(out)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "response notes")
	return cmd
}

func msgCmd() *cobra.Command {
	msg := &cobra.Command{Use: "msg", Short: "Negotiation messages"}
	msg.AddCommand(msgPostCmd())
	msg.AddCommand(msgListCmd())
	return msg
}

func msgPostCmd() *cobra.Command {
	var in domain.MessageCreate
	cmd := &cobra.Command{
		Use:   "post <negotiation-id>",
		Short: "Post a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Content == "" {
				return fmt.Errorf("--content required")
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				m, err := s.Negotiations.CreateMessage(ctx, args[0], in)
				if err != nil {
					return err
				}
				return printDetail(m)
			})
		},
	}
	cmd.Flags().StringVar(&in.Content, "content", "", "message body")
	cmd.Flags().StringVar(&in.MessageType, "type", domain.MessageComment, "message type")
	cmd.Flags().StringVar(&in.RoundID, "round", "", "attach to round")
	cmd.Flags().BoolVar(&in.IsPrivate, "private", false, "visible only to you")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func msgListCmd() *cobra.Command {
	var roundID string
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "list <negotiation-id>",
		Short: "List messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				msgs, err := s.Negotiations.ListMessages(ctx, args[0], roundID, skip, limit)
				if err != nil {
					return err
				}
				return printDetail(msgs)
			})
		},
	}
	cmd.Flags().StringVar(&roundID, "round", "", "filter by round")
	cmd.Flags().IntVar(&skip, "skip", 0, "offset")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func negActivityCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "activity <id>",
		Short: "Show the activity feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				feed, err := s.Negotiations.Activity(ctx, args[0], skip, limit)
				if err != nil {
					return err
				}
				return printDetail(feed)
			})
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "offset")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func negPauseCmd() *cobra.Command {
	return negLifecycleCmd("pause", "Pause an active negotiation", func(ctx context.Context, s *store.Store, id string) error {
		return s.Negotiations.Pause(ctx, id)
	})
}

func negResumeCmd() *cobra.Command {
	return negLifecycleCmd("resume", "Resume a paused negotiation", func(ctx context.Context, s *store.Store, id string) error {
		return s.Negotiations.Resume(ctx, id)
	})
}

func negLifecycleCmd(verb, short string, fn func(context.Context, *store.Store, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := fn(ctx, s, args[0]); err != nil {
					return err
				}
				fmt.Printf("Negotiation %sd\n", verb)
				return nil
			})
		},
	}
}

func negAbandonCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "abandon <id>",
		Short: "Abandon a negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Negotiations.Abandon(ctx, args[0], reason); err != nil {
					return err
				}
				fmt.Println("Negotiation abandoned")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason")
	return cmd
}

func negStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Negotiation stats for your organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				stats, err := s.Negotiations.OrganizationStats(ctx)
				if err != nil {
					return err
				}
				return printDetail(stats)
			})
		},
	}
}
