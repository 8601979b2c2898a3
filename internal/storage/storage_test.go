package storage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercari_watch/internal/model"
)

func listings(ids ...string) []model.Listing {
	out := make([]model.Listing, len(ids))
	for i, id := range ids {
		out[i] = model.Listing{ID: id, Name: "item " + id}
	}
	return out
}

func unseenIDs(t *testing.T, s Storage, candidates []model.Listing) []string {
	t.Helper()
	got, err := s.FilterUnseen(context.Background(), candidates)
	if err != nil {
		t.Fatalf("filter unseen: %v", err)
	}
	if len(got) == 0 {
		return nil
	}
	return model.IDs(got)
}

// testStorageContract exercises the behaviour every Storage must share.
func testStorageContract(t *testing.T, newStore func(t *testing.T) Storage) {
	t.Run("empty store returns all candidates", func(t *testing.T) {
		s := newStore(t)
		got := unseenIDs(t, s, listings("m3", "m2", "m1"))
		if diff := cmp.Diff([]string{"m3", "m2", "m1"}, got); diff != "" {
			t.Errorf("FilterUnseen mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("filter is idempotent without record", func(t *testing.T) {
		s := newStore(t)
		if err := s.RecordSent(context.Background(), listings("m2")); err != nil {
			t.Fatalf("record: %v", err)
		}
		first := unseenIDs(t, s, listings("m3", "m2", "m1"))
		second := unseenIDs(t, s, listings("m3", "m2", "m1"))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("repeated FilterUnseen differs (-first +second):\n%s", diff)
		}
	})

	t.Run("recorded ids are excluded and order kept", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.RecordSent(ctx, listings("m4", "m2")); err != nil {
			t.Fatalf("record: %v", err)
		}
		got := unseenIDs(t, s, listings("m5", "m4", "m3", "m2", "m1"))
		if diff := cmp.Diff([]string{"m5", "m3", "m1"}, got); diff != "" {
			t.Errorf("FilterUnseen mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("records accumulate across calls", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.RecordSent(ctx, listings("abc123")); err != nil {
			t.Fatalf("record first: %v", err)
		}
		if err := s.RecordSent(ctx, listings("def456")); err != nil {
			t.Fatalf("record second: %v", err)
		}
		got := unseenIDs(t, s, listings("abc123", "def456", "ghi789"))
		if diff := cmp.Diff([]string{"ghi789"}, got); diff != "" {
			t.Errorf("FilterUnseen mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("recording nothing is a no-op", func(t *testing.T) {
		s := newStore(t)
		if err := s.RecordSent(context.Background(), nil); err != nil {
			t.Fatalf("record nil: %v", err)
		}
		got := unseenIDs(t, s, listings("m1"))
		if diff := cmp.Diff([]string{"m1"}, got); diff != "" {
			t.Errorf("FilterUnseen mismatch (-want +got):\n%s", diff)
		}
	})
}
