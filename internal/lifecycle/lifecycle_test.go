package lifecycle

import "testing"

func TestPublishNotifiesInOrder(t *testing.T) {
	h := NewHub()
	var got []string
	h.Subscribe(func(s State) { got = append(got, "a:"+s.String()) })
	h.Subscribe(func(s State) { got = append(got, "b:"+s.String()) })

	h.Publish(Background)
	if len(got) != 2 || got[0] != "a:background" || got[1] != "b:background" {
		t.Fatalf("unexpected notifications %v", got)
	}
	if h.Current() != Background {
		t.Fatalf("expected current background, got %s", h.Current())
	}
}

func TestPublishDropsRepeats(t *testing.T) {
	h := NewHub()
	calls := 0
	h.Subscribe(func(State) { calls++ })
	h.Publish(Active)
	h.Publish(Inactive)
	h.Publish(Inactive)
	h.Publish(Active)
	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	calls := 0
	unsubscribe := h.Subscribe(func(State) { calls++ })
	unsubscribe()
	unsubscribe()
	h.Publish(Background)
	if calls != 0 {
		t.Fatalf("unsubscribed handler was called")
	}
}

func TestSubscriberMayPublish(t *testing.T) {
	h := NewHub()
	var seen []State
	h.Subscribe(func(s State) {
		seen = append(seen, s)
		if s == Inactive {
			h.Publish(Background)
		}
	})
	h.Publish(Inactive)
	if len(seen) != 2 || seen[1] != Background {
		t.Fatalf("unexpected states %v", seen)
	}
}

func TestNewHubStartsActive(t *testing.T) {
	h := NewHub()
	if h.Current() != Active {
		t.Fatalf("expected active, got %s", h.Current())
	}
	var got []State
	h.Subscribe(func(s State) { got = append(got, s) })
	h.Publish(Active)
	if len(got) != 0 {
		t.Fatalf("publishing the initial state should be dropped, got %v", got)
	}
}
