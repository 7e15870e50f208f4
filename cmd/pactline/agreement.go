package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pactline/internal/domain"
	"pactline/internal/session"
	"pactline/internal/store"
)

func agreementCmd() *cobra.Command {
	agr := &cobra.Command{
		Use:     "agreement",
		Aliases: []string{"agr"},
		Short:   "Manage agreements",
	}
	agr.AddCommand(agreementCreateCmd())
	agr.AddCommand(agreementListCmd())
	agr.AddCommand(agreementShowCmd())
	agr.AddCommand(agreementUpdateCmd())
	agr.AddCommand(agreementDeleteCmd())
	agr.AddCommand(agreementApprovalCmd())
	agr.AddCommand(docCmd())
	return agr
}

func agreementCreateCmd() *cobra.Command {
	var in domain.AgreementCreate
	var value float64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agreement",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Title == "" {
				return fmt.Errorf("--title required")
			}
			if cmd.Flags().Changed("value") {
				in.Value = &value
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				a, err := s.Agreements.Create(ctx, in)
				if err != nil {
					return err
				}
				return printDetail(a)
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.AgreementNumber, "number", "", "agreement number (assigned when omitted)")
	cmd.Flags().StringVar(&in.AgreementType, "type", "", "agreement type")
	cmd.Flags().StringVar(&in.EffectiveDate, "effective", "", "effective date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.ExpirationDate, "expires", "", "expiration date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&value, "value", 0, "contract value")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "currency code")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func agreementListCmd() *cobra.Command {
	var filter domain.AgreementFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agreements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				page, err := s.Agreements.List(ctx, filter)
				if err != nil {
					return err
				}
				return renderAgreements(page.Items)
			})
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filter.Search, "search", "", "search title or number")
	cmd.Flags().StringVar(&filter.StartDate, "start", "", "effective on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "end", "", "effective on or before (YYYY-MM-DD)")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")
	return cmd
}

func agreementShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				a, err := s.Agreements.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printDetail(a)
			})
		},
	}
	return cmd
}

func agreementUpdateCmd() *cobra.Command {
	var title, status, effective, expires string
	var value float64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in domain.AgreementUpdate
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("status") {
				in.Status = &status
			}
			if cmd.Flags().Changed("effective") {
				in.EffectiveDate = &effective
			}
			if cmd.Flags().Changed("expires") {
				in.ExpirationDate = &expires
			}
			if cmd.Flags().Changed("value") {
				in.Value = &value
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				a, err := s.Agreements.Update(ctx, args[0], in)
				if err != nil {
					return err
				}
				return printDetail(a)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&status, "status", "", "status transition")
	cmd.Flags().StringVar(&effective, "effective", "", "effective date")
	cmd.Flags().StringVar(&expires, "expires", "", "expiration date")
	cmd.Flags().Float64Var(&value, "value", 0, "contract value")
	return cmd
}

func agreementDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Agreements.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Agreement deleted")
				return nil
			})
		},
	}
}

func agreementApprovalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approval <id>",
		Short: "Show approval rollup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				status, err := s.Agreements.ApprovalStatus(ctx, args[0])
				if err != nil {
					return err
				}
				return printDetail(status)
			})
		},
	}
}

func docCmd() *cobra.Command {
	doc := &cobra.Command{Use: "doc", Short: "Manage agreement documents"}
	doc.AddCommand(docUploadCmd())
	doc.AddCommand(docListCmd())
	doc.AddCommand(docDownloadCmd())
	doc.AddCommand(docDeleteCmd())
	return doc
}

func docUploadCmd() *cobra.Command {
	var agreementID string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				doc, err := s.Documents.Upload(ctx, agreementID, filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				return printDetail(doc)
			})
		},
	}
	cmd.Flags().StringVar(&agreementID, "agreement", "", "agreement id")
	_ = cmd.MarkFlagRequired("agreement")
	return cmd
}

func docListCmd() *cobra.Command {
	var agreementID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an agreement's documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				docs, err := s.Documents.List(ctx, agreementID)
				if err != nil {
					return err
				}
				return renderDocuments(docs)
			})
		},
	}
	cmd.Flags().StringVar(&agreementID, "agreement", "", "agreement id")
	_ = cmd.MarkFlagRequired("agreement")
	return cmd
}

func docDownloadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download <document-id>",
		Short: "Download a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				target := out
				if target == "" {
					target = args[0]
				}
				f, err := os.Create(target)
				if err != nil {
					return err
				}
				defer f.Close()
				name, err := s.Documents.Download(ctx, args[0], filepath.Base(target), f)
				if err != nil {
					os.Remove(target)
					return err
				}
				if out == "" && name != filepath.Base(target) {
					if err := os.Rename(target, name); err == nil {
						target = name
					}
				}
				fmt.Printf("Saved %s\n", target)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (server's file name when omitted)")
	return cmd
}

func docDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *store.Store, _ *session.Store) error {
				if err := s.Documents.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Document deleted")
				return nil
			})
		},
	}
}
