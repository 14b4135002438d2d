package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nahidhasan98/checklist-notifier/internal/checklist"
	"github.com/nahidhasan98/checklist-notifier/internal/config"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/notify"
	"github.com/nahidhasan98/checklist-notifier/internal/pipeline"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
	"github.com/nahidhasan98/checklist-notifier/internal/validation"
)

func newClassifyCmd() *cobra.Command {
	var (
		eventFile string
		asText    bool
		noAI      bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run classification and checklist synthesis over an event file without delivering",
		Example: `  checklist-notifier classify --event push.json
  checklist-notifier classify --event push.yaml --policies ./policies --text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "text")

			event, err := readEvent(eventFile)
			if err != nil {
				return err
			}

			v := validation.New()
			if appErr := v.ValidateEvent(&event); appErr != nil {
				return appErr
			}
			v.SanitizeEvent(&event)

			store, err := loadPolicies(policyDir(cmd, cfg), log)
			if err != nil {
				return err
			}

			synth := checklist.New(checklist.Disabled(), log)
			if !noAI {
				if synth, err = newSynthesizer(cfg.AI, log); err != nil {
					return err
				}
			}

			proc := pipeline.New(pipeline.Deps{
				Policies:    policy.NewResolver(store),
				Synthesizer: synth,
				Log:         log,
			})
			outcome, err := proc.Preview(cmd.Context(), event)
			if err != nil {
				return fmt.Errorf("%s: %w", event.Repository, err)
			}

			out := cmd.OutOrStdout()
			if asText {
				messages := notify.PlainText(outcome.Fragments, notify.MaxPlainTextLength)
				_, err = fmt.Fprintln(out, strings.Join(messages, "\n\n---\n\n"))
				return err
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(outcome)
		},
	}

	cmd.Flags().StringVar(&eventFile, "event", "", "normalized event file (.json, .yaml or .yml)")
	cmd.Flags().BoolVar(&asText, "text", false, "print the plain-text rendering instead of JSON")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "use policy rules only even when AI is configured")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

// readEvent decodes a normalized event, choosing the format by extension
func readEvent(path string) (models.Event, error) {
	var event models.Event

	data, err := os.ReadFile(path)
	if err != nil {
		return event, fmt.Errorf("failed to read event file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &event)
	default:
		err = json.Unmarshal(data, &event)
	}
	if err != nil {
		return event, fmt.Errorf("failed to parse event file %s: %w", path, err)
	}

	return event, nil
}
