package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/nahidhasan98/checklist-notifier/internal/config"
	"github.com/nahidhasan98/checklist-notifier/internal/delivery"
	"github.com/nahidhasan98/checklist-notifier/internal/handlers"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/pipeline"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
	"github.com/nahidhasan98/checklist-notifier/internal/scm"
	"github.com/nahidhasan98/checklist-notifier/internal/server"
)

// service holds the long-running components of the serve command
type service struct {
	cfg     *config.Config
	log     *logger.Logger
	session *delivery.Session
	server  *server.Server
	errChan chan error
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("policies"); dir != "" {
				if err := os.Setenv("POLICY_DIR", dir); err != nil {
					return err
				}
			}
			return runServe()
		},
	}
}

func runServe() error {
	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	svc, err := initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialization error: %w", err)
	}

	if svc.session != nil {
		svc.startWhatsAppSession(ctx, &wg)
	}
	svc.startWebServer(ctx, &wg)

	return svc.waitForShutdown(cancel, &wg)
}

func initialize(ctx context.Context) (*service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting Checklist Notifier")

	store, err := loadPolicies(cfg.Policy.Dir, log)
	if err != nil {
		return nil, err
	}

	synth, err := newSynthesizer(cfg.AI, log)
	if err != nil {
		return nil, err
	}

	source, err := scm.NewGitHub(scm.Options{
		Token:  cfg.GitHub.Token,
		APIURL: cfg.GitHub.APIURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	if cfg.GitHub.Token == "" {
		log.Warn("GITHUB_TOKEN not set, push events use the paths listed in the payload")
	}

	svc := &service{cfg: cfg, log: log, errChan: make(chan error, 2)}

	var targets []delivery.Target
	if cfg.Delivery.Enabled(config.TargetDiscord) {
		targets = append(targets, delivery.NewDiscord(cfg.Delivery.DiscordWebhookURL, cfg.Delivery.Timeout))
	}
	if cfg.Delivery.Enabled(config.TargetWhatsApp) {
		svc.session, err = delivery.OpenSession(ctx, delivery.SessionOptions{
			DBDriver:   cfg.WhatsApp.DBDriver,
			DBDSN:      cfg.WhatsApp.DBDSN,
			LogLevel:   cfg.WhatsApp.LogLevel,
			DeviceName: cfg.WhatsApp.DeviceName,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create WhatsApp session: %w", err)
		}
		targets = append(targets, delivery.NewWhatsApp(svc.session, cfg.WhatsApp.Recipient))
	}
	target := delivery.NewMulti(log, targets...)

	proc := pipeline.New(pipeline.Deps{
		Policies:    policy.NewResolver(store),
		Synthesizer: synth,
		Source:      source,
		Target:      target,
		Log:         log,
	})

	httpHandler := handlers.New(proc, handlers.Options{
		GitHubSecret:   cfg.GitHub.WebhookSecret,
		GiteaSecret:    cfg.Gitea.WebhookSecret,
		FetchPushDiffs: cfg.GitHub.Token != "",
		EventTimeout:   cfg.EventTimeout,
		PolicyCount:    store.Len(),
		AIConfigured:   cfg.AI.Configured(),
		Targets:        target,
	}, log)
	svc.server = server.New(cfg, httpHandler, log)

	return svc, nil
}

func (s *service) startWhatsAppSession(ctx context.Context, wg *sync.WaitGroup) {
	wg.Go(func() {
		defer s.session.Close()

		s.log.Info("Starting WhatsApp session...")
		if err := s.session.Start(ctx); err != nil {
			s.errChan <- fmt.Errorf("failed to connect to WhatsApp: %w", err)
			return
		}

		<-ctx.Done()
		s.log.Info("WhatsApp session shutting down...")
	})
}

func (s *service) startWebServer(ctx context.Context, wg *sync.WaitGroup) {
	wg.Go(func() {
		s.server.Start(s.errChan)

		<-ctx.Done()
		s.log.Info("HTTP server shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Error during HTTP server shutdown", err)
		}
	})
}

func (s *service) waitForShutdown(cancel context.CancelFunc, wg *sync.WaitGroup) error {
	// Wait for either service to fail or for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var failure error
	select {
	case failure = <-s.errChan:
		s.log.Error("Service failed", failure)
	case <-sigChan:
		s.log.Info("Received shutdown signal")
	}

	cancel()
	wg.Wait()

	s.log.Info("Application stopped")
	return failure
}
