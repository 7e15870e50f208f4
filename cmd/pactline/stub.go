package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pactline/internal/stub"
)

func stubCmd() *cobra.Command {
	s := &cobra.Command{Use: "stub", Short: "Local in-memory API for development"}
	s.AddCommand(stubServeCmd())
	return s
}

func stubServeCmd() *cobra.Command {
	var addr, secret string
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the stub API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("PACTLINE_JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--jwt-secret or PACTLINE_JWT_SECRET is required")
			}
			data := stub.NewDataset()
			if seed {
				data.Seed("demo@example.com", "demo-password", "Demo User", "Demo Org")
				fmt.Println("Seeded account demo@example.com / demo-password")
			}
			handler, err := stub.New(stub.Config{JWTSecret: secret, Data: data})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving stub API on http://%s/api/v1\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringVar(&secret, "jwt-secret", "", "HS256 signing secret")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed a demo account")
	return cmd
}
