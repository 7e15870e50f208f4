package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pactline/internal/api"
	"pactline/internal/config"
	"pactline/internal/session"
	"pactline/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pactline",
	Short: "Pactline CLI",
	Long: `Pactline manages agreements, their documents, and the negotiations around them.
Core concepts:
- Workspace: your .pactline directory holding config and the signed-in session.
- Agreement: a contract with a lifecycle (draft -> in_review -> approved -> executed).
- Documents: files attached to an agreement, immutable once uploaded.
- Negotiation: a structured back-and-forth on an agreement, in proposal rounds.
- Rounds: proposals flow draft -> submitted -> accepted/rejected; a new round supersedes the last.
- Organizations: every resource belongs to one; switch with 'pactline auth switch-org'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := session.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PACTLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "log requests")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func registerCommands() {
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(agreementCmd())
	rootCmd.AddCommand(negotiationCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(stubCmd())
}

// --- helpers ---

func withStore(ctx context.Context, fn func(context.Context, *store.Store, *session.Store) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	baseURL := cfg.API.BaseURL
	if override := viper.GetString("api-url"); override != "" {
		baseURL = override
	}
	sess, err := session.Open(workspace)
	if err != nil {
		return err
	}
	defer sess.Close()
	client := api.New(baseURL, sess, newLogger(cfg))
	if cfg.API.TimeoutSeconds > 0 {
		client.HTTPClient.Timeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second
	}
	return fn(ctx, store.New(client, sess), sess)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Debug || viper.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printDetail(cfg)
		},
	})
	cfgCmd.AddCommand(configSetCmd())
	return cfgCmd
}

func configSetCmd() *cobra.Command {
	var apiURL string
	var timeout int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.API.BaseURL = apiURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.API.TimeoutSeconds = timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(workspace); err != nil {
				return err
			}
			return printDetail(cfg)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "request timeout in seconds")
	return cmd
}
