package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nahidhasan98/checklist-notifier/internal/notify"
)

// Embed colors per fragment tag
var discordColors = map[notify.ColorTag]int{
	notify.ColorInfo:      0x3498DB,
	notify.ColorError:     0xE74C3C,
	notify.ColorPrimary:   0x2ECC71,
	notify.ColorSecondary: 0x9B59B6,
}

type discordEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type discordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

// Discord posts fragments as embeds to a chat webhook
type Discord struct {
	defaultURL string
	client     *http.Client
}

// NewDiscord creates a webhook target. defaultURL is used when the
// destination carries no override.
func NewDiscord(defaultURL string, timeout time.Duration) *Discord {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discord{
		defaultURL: defaultURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name implements Target
func (d *Discord) Name() string {
	return "discord"
}

// Ready implements Target
func (d *Discord) Ready() bool {
	return true
}

// Deliver posts one message per fragment and stops at the first failure
func (d *Discord) Deliver(ctx context.Context, dest Destination, fragments []notify.Fragment) error {
	url := dest.WebhookURL
	if url == "" {
		url = d.defaultURL
	}
	if url == "" {
		return ErrNoDestination
	}

	for i, f := range fragments {
		msg := discordMessage{
			Content: f.MentionPrefix,
			Embeds: []discordEmbed{{
				Title:       f.Title,
				Description: f.Body,
				Color:       discordColors[f.ColorTag],
			}},
		}
		if err := d.post(ctx, url, msg); err != nil {
			return fmt.Errorf("fragment %d/%d: %w", i+1, len(fragments), err)
		}
	}
	return nil
}

func (d *Discord) post(ctx context.Context, url string, msg discordMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
