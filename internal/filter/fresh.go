package filter

import (
	"time"

	"mercari_watch/internal/model"
)

// Limit returns at most n leading listings.
func Limit(listings []model.Listing, n int) []model.Listing {
	if n <= 0 {
		return nil
	}
	if len(listings) > n {
		return listings[:n]
	}
	return listings
}

// Fresh returns the listings created within the lookback window ending at
// now: a listing qualifies iff now - CreatedAt < window. Input order is kept.
func Fresh(listings []model.Listing, now time.Time, window time.Duration) []model.Listing {
	var out []model.Listing
	for _, l := range listings {
		if now.Sub(l.CreatedAt) < window {
			out = append(out, l)
		}
	}
	return out
}
