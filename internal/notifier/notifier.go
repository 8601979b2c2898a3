// Package notifier delivers new listing notifications to a chat.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"mercari_watch/internal/model"
)

// ErrDeliveryFailed wraps any failure to deliver a message.
var ErrDeliveryFailed = errors.New("delivery failed")

// Destination identifies where messages are sent. The token travels with
// the destination because the configuration may change it between cycles.
type Destination struct {
	Token  string
	ChatID string
}

// Channel sends one text message to a destination.
type Channel interface {
	Send(ctx context.Context, dst Destination, text string, markdown bool) error
}

// Notifier sends a summary followed by one link per listing.
type Notifier struct {
	ch      Channel
	baseURL string
	limiter *rate.Limiter
}

// New creates a Notifier sending through ch, building item links from
// baseURL and pacing sends to at most perSecond messages per second.
func New(ch Channel, baseURL string, perSecond int) *Notifier {
	return &Notifier{
		ch:      ch,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Notify sends the summary and then the per-item links in order. It stops at
// the first failed send. An empty items slice sends nothing.
func (n *Notifier) Notify(ctx context.Context, dst Destination, items []model.Listing) error {
	if len(items) == 0 {
		return nil
	}

	if err := n.send(ctx, dst, FormatSummary(len(items)), false); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	for i, item := range items {
		if err := n.send(ctx, dst, FormatLink(i+1, n.baseURL, item.ID), true); err != nil {
			return fmt.Errorf("send item %s: %w", item.ID, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, dst Destination, text string, markdown bool) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if err := n.ch.Send(ctx, dst, text, markdown); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
