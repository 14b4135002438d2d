// Package delivery posts notification fragments to chat destinations.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/notify"
)

// ErrNoDestination is returned when a target has nowhere to post
var ErrNoDestination = errors.New("no destination configured")

// Destination carries per-repository overrides of the target defaults
type Destination struct {
	WebhookURL        string
	WhatsAppRecipient string
}

// Target delivers fragments in order, one post per fragment
type Target interface {
	Name() string
	Deliver(ctx context.Context, dest Destination, fragments []notify.Fragment) error
	Ready() bool
}

// Multi fans fragments out to every target. Each target receives the
// fragments in order; a failing target does not stop the others.
type Multi struct {
	targets []Target
	log     *logger.Logger
}

// NewMulti creates a fan-out over targets
func NewMulti(log *logger.Logger, targets ...Target) *Multi {
	if log == nil {
		log = logger.Nop()
	}
	return &Multi{targets: targets, log: log}
}

// Name implements Target
func (m *Multi) Name() string {
	return "multi"
}

// Ready reports whether at least one target is ready
func (m *Multi) Ready() bool {
	for _, t := range m.targets {
		if t.Ready() {
			return true
		}
	}
	return false
}

// Status reports readiness per target
func (m *Multi) Status() map[string]bool {
	status := make(map[string]bool, len(m.targets))
	for _, t := range m.targets {
		status[t.Name()] = t.Ready()
	}
	return status
}

// Deliver implements Target. Targets without a destination are skipped;
// it is an error only when no target delivered anything.
func (m *Multi) Deliver(ctx context.Context, dest Destination, fragments []notify.Fragment) error {
	var errs []error
	delivered := 0

	for _, t := range m.targets {
		err := t.Deliver(ctx, dest, fragments)
		switch {
		case err == nil:
			delivered++
			m.log.With("target", t.Name()).Infof("Delivered %d fragments", len(fragments))
		case errors.Is(err, ErrNoDestination):
			m.log.With("target", t.Name()).Debug("Skipping target without destination")
		default:
			m.log.With("target", t.Name()).Error("Delivery failed", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if delivered == 0 {
		return ErrNoDestination
	}
	return nil
}
