package delivery

import (
	"context"
	"fmt"

	"github.com/nahidhasan98/checklist-notifier/internal/notify"
)

// TextSender sends one plain-text message
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
	Connected() bool
}

// WhatsApp renders fragments as plain text and sends them in order
type WhatsApp struct {
	sender           TextSender
	defaultRecipient string
}

// NewWhatsApp creates a WhatsApp target
func NewWhatsApp(sender TextSender, defaultRecipient string) *WhatsApp {
	return &WhatsApp{sender: sender, defaultRecipient: defaultRecipient}
}

// Name implements Target
func (w *WhatsApp) Name() string {
	return "whatsapp"
}

// Ready implements Target
func (w *WhatsApp) Ready() bool {
	return w.sender != nil && w.sender.Connected()
}

// Deliver implements Target
func (w *WhatsApp) Deliver(ctx context.Context, dest Destination, fragments []notify.Fragment) error {
	to := dest.WhatsAppRecipient
	if to == "" {
		to = w.defaultRecipient
	}
	if to == "" {
		return ErrNoDestination
	}
	if !w.Ready() {
		return fmt.Errorf("whatsapp client is not connected")
	}

	messages := notify.PlainText(fragments, notify.MaxPlainTextLength)
	for i, text := range messages {
		if err := w.sender.SendText(ctx, to, text); err != nil {
			return fmt.Errorf("message %d/%d: %w", i+1, len(messages), err)
		}
	}
	return nil
}
