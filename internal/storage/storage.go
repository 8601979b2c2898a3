// Package storage defines the dedup persistence interface and its implementations.
package storage

import (
	"context"

	"mercari_watch/internal/model"
)

// Storage records which listings have already been notified.
type Storage interface {
	// FilterUnseen returns the candidates whose ids have not been recorded,
	// preserving order.
	FilterUnseen(ctx context.Context, candidates []model.Listing) ([]model.Listing, error)
	// RecordSent persists the ids of listings that were delivered.
	RecordSent(ctx context.Context, items []model.Listing) error

	Close() error
}

func unseen(candidates []model.Listing, seen func(id string) bool) []model.Listing {
	var out []model.Listing
	for _, c := range candidates {
		if !seen(c.ID) {
			out = append(out, c)
		}
	}
	return out
}
