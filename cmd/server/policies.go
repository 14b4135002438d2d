package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/checklist-notifier/internal/config"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
	"github.com/nahidhasan98/checklist-notifier/internal/validation"
)

func newPoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Inspect the policy directory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate every policy file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "text")

			dir := policyDir(cmd, cfg)
			store, err := loadPolicies(dir, log)
			if err != nil {
				return err
			}

			warnings := policyWarnings(store.ListPolicies())
			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%d policies valid in %s (%d warnings)\n", store.Len(), dir, len(warnings))
			return nil
		},
	})

	return cmd
}

// policyWarnings reports settings that load but will not behave as intended
func policyWarnings(policies []policy.Policy) []string {
	v := validation.New()
	var warnings []string

	for _, repo := range policy.Duplicates(policies) {
		warnings = append(warnings, fmt.Sprintf("%s: declared more than once, only the first policy is used", repo))
	}

	for _, p := range policies {
		if len(p.MonitoredBranches) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s: no monitored branches, events will never be processed", p.Repository))
		}
		if p.WhatsAppRecipient != "" && !v.IsValidJID(p.WhatsAppRecipient) {
			warnings = append(warnings, fmt.Sprintf("%s: whatsappRecipient %q is not a valid JID", p.Repository, p.WhatsAppRecipient))
		}
		if p.WebhookURL != "" && !strings.HasPrefix(p.WebhookURL, "https://") {
			warnings = append(warnings, fmt.Sprintf("%s: webhookUrl should use https", p.Repository))
		}
	}

	return warnings
}
