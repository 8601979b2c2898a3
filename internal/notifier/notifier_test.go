package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercari_watch/internal/model"
)

type sentMessage struct {
	Dst      Destination
	Text     string
	Markdown bool
}

type mockChannel struct {
	mu     sync.Mutex
	sent   []sentMessage
	failAt int // 1-based call index that fails; 0 never fails
	calls  int
}

func (m *mockChannel) Send(_ context.Context, dst Destination, text string, markdown bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAt != 0 && m.calls == m.failAt {
		return errors.New("telegram: Bad Request")
	}
	m.sent = append(m.sent, sentMessage{Dst: dst, Text: text, Markdown: markdown})
	return nil
}

var dst = Destination{Token: "tok", ChatID: "42"}

func TestNotifySummaryThenLinks(t *testing.T) {
	ch := &mockChannel{}
	n := New(ch, "https://jp.mercari.com/item/", 100)

	items := []model.Listing{{ID: "m300"}, {ID: "m200"}}
	if err := n.Notify(context.Background(), dst, items); err != nil {
		t.Fatalf("notify: %v", err)
	}

	want := []sentMessage{
		{Dst: dst, Text: "少吃一口会死! Found 2 items"},
		{Dst: dst, Text: "[link 1](https://jp.mercari.com/item/m300)", Markdown: true},
		{Dst: dst, Text: "[link 2](https://jp.mercari.com/item/m200)", Markdown: true},
	}
	if diff := cmp.Diff(want, ch.sent); diff != "" {
		t.Errorf("sent messages mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifyEmptySendsNothing(t *testing.T) {
	ch := &mockChannel{}
	n := New(ch, "https://jp.mercari.com/item/", 100)

	if err := n.Notify(context.Background(), dst, nil); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if diff := cmp.Diff(0, ch.calls); diff != "" {
		t.Errorf("channel calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifyStopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		name     string
		failAt   int
		wantSent int
	}{
		{name: "summary fails", failAt: 1, wantSent: 0},
		{name: "second link fails", failAt: 3, wantSent: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &mockChannel{failAt: tt.failAt}
			n := New(ch, "https://jp.mercari.com/item/", 100)

			items := []model.Listing{{ID: "m3"}, {ID: "m2"}, {ID: "m1"}}
			err := n.Notify(context.Background(), dst, items)
			if !errors.Is(err, ErrDeliveryFailed) {
				t.Fatalf("Notify() error = %v, want ErrDeliveryFailed", err)
			}
			if diff := cmp.Diff(tt.failAt, ch.calls); diff != "" {
				t.Errorf("channel calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSent, len(ch.sent)); diff != "" {
				t.Errorf("delivered count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNotifyCancelledContext(t *testing.T) {
	ch := &mockChannel{}
	n := New(ch, "https://jp.mercari.com/item/", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Notify(ctx, dst, []model.Listing{{ID: "m1"}})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Notify() error = %v, want ErrDeliveryFailed", err)
	}
	if diff := cmp.Diff(0, ch.calls); diff != "" {
		t.Errorf("channel calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat(t *testing.T) {
	if diff := cmp.Diff("少吃一口会死! Found 1 items", FormatSummary(1)); diff != "" {
		t.Errorf("FormatSummary mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("[link 3](https://x/item/m9)", FormatLink(3, "https://x/item/", "m9")); diff != "" {
		t.Errorf("FormatLink mismatch (-want +got):\n%s", diff)
	}
}
