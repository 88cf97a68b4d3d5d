package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/outreachkit/outreach-agent-pipeline/internal/app"
	"github.com/outreachkit/outreach-agent-pipeline/internal/config"
	"github.com/outreachkit/outreach-agent-pipeline/internal/httpapi"
	"github.com/outreachkit/outreach-agent-pipeline/internal/logging"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/agent"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "outreach",
		Short:         "Personalized outreach-email generation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newDraftCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

func setup(configPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	var inputPath, outputPath, senderPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the batch pipeline over a contact CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			summary, err := a.RunLocal(cmd.Context(), inputPath, outputPath, senderPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"submitted=%d succeeded=%d failed=%d skipped_invalid=%d\n",
				summary.Submitted, summary.Succeeded, summary.Failed, summary.SkippedInvalid)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "Input contact CSV")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output outcome CSV (appended)")
	cmd.Flags().StringVar(&senderPath, "sender", "", "Sender profile YAML")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func newDraftCmd(configPath *string) *cobra.Command {
	var senderPath string
	var contact agent.Contact

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft a single email for one contact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			sender, err := config.LoadSender(senderPath)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			state, err := a.Draft(cmd.Context(), contact, sender)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.Draft)
			return nil
		},
	}
	cmd.Flags().StringVar(&senderPath, "sender", "", "Sender profile YAML")
	cmd.Flags().StringVar(&contact.FullName, "name", "", "Contact full name")
	cmd.Flags().StringVar(&contact.JobTitle, "title", "", "Contact job title")
	cmd.Flags().StringVar(&contact.CompanyName, "company", "", "Contact company name")
	cmd.Flags().StringVar(&contact.CompanyDomain, "domain", "", "Contact company domain")
	cmd.Flags().StringVar(&contact.WorkEmail, "email", "", "Contact work email")
	_ = cmd.MarkFlagRequired("sender")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the single-draft HTTP endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			srv, err := httpapi.NewServer(a, logger, httpapi.Config{
				Host: cfg.HTTP.Host,
				Port: cfg.HTTP.Port,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()
			logger.Info("serving",
				zap.String("host", cfg.HTTP.Host),
				zap.Int("port", cfg.HTTP.Port))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	return cmd
}
