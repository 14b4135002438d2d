package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/checklist-notifier/internal/ai"
	"github.com/nahidhasan98/checklist-notifier/internal/checklist"
	"github.com/nahidhasan98/checklist-notifier/internal/config"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

// NewRootCmd constructs the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "checklist-notifier",
		Short:         "Review checklists for merged changes, delivered to chat",
		Long:          "checklist-notifier classifies pushed and merged changes against per-repository policies and posts risk-aware review checklists to Discord and WhatsApp.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.RunE = newServeCmd().RunE

	cmd.PersistentFlags().String("policies", "", "policy directory (defaults to POLICY_DIR)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newPoliciesCmd())

	return cmd
}

// policyDir returns the --policies flag, falling back to the configured directory
func policyDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("policies"); dir != "" {
		return dir
	}
	return cfg.Policy.Dir
}

// loadPolicies reads the policy directory into an immutable store
func loadPolicies(dir string, log *logger.Logger) (*policy.Store, error) {
	policies, err := policy.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, repo := range policy.Duplicates(policies) {
		log.Warnf("Repository %s is declared by more than one policy, the first one wins", repo)
	}

	log.Infof("Loaded %d policies from %s", len(policies), dir)
	return policy.NewStore(policies), nil
}

// newSynthesizer builds the checklist synthesizer, augmented when the AI
// collaborator is configured
func newSynthesizer(cfg config.AIConfig, log *logger.Logger) (*checklist.Synthesizer, error) {
	aug := checklist.Disabled()

	if cfg.Configured() {
		client, err := ai.New(ai.Options{
			Provider: cfg.Provider,
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		aug = checklist.Enabled(client)
		log.Infof("Checklist augmentation enabled (%s)", client.Name())
	} else {
		log.Info("AI endpoint or key not set, checklists use policy rules only")
	}

	return checklist.New(aug, log,
		checklist.WithTimeout(cfg.Timeout),
		checklist.WithMaxTokens(cfg.MaxTokens),
	), nil
}
