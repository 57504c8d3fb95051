// bus/bus_test.go
package bus

import (
	"sort"
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("board", "lamp", "value"))
	conn.Publish(conn.NewMessage(T("board", "lamp", "value"), "hello", false))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("expected payload 'hello', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("board", "state"), "persist", true))

	sub := conn.Subscribe(T("board", "state"))
	expectOneOf(t, sub, "persist")

	if m, ok := b.Retained(T("board", "state")); !ok || m.Payload != "persist" {
		t.Fatalf("Retained() = %v,%v", m, ok)
	}
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("a", "+", "c"))
	s2 := c.Subscribe(T("a", "+", "+"))
	sNo := c.Subscribe(T("a", "+", "d"))

	c.Publish(b.NewMessage(T("a", "b", "c"), "m1", false))
	expectOneOf(t, s1, "m1")
	expectOneOf(t, s2, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(T("a", "c"), "m2", false))
	expectNoMessage(t, s1)
	expectNoMessage(t, s2)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sAHash := c.Subscribe(T("a", "#"))
	sHash := c.Subscribe(T("#"))
	sAExact := c.Subscribe(T("a"))

	c.Publish(b.NewMessage(T("a"), "p1", false))
	expectOneOf(t, sAHash, "p1")
	expectOneOf(t, sHash, "p1")
	expectOneOf(t, sAExact, "p1")

	c.Publish(b.NewMessage(T("a", "b", "c"), "p2", false))
	expectOneOf(t, sAHash, "p2")
	expectOneOf(t, sHash, "p2")
	expectNoMessage(t, sAExact)
}

func TestWildcard_RetainedDeliveryAndClear(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("a", "b"), "r1", true))
	c.Publish(b.NewMessage(T("a", "x"), "r2", true))
	c.Publish(b.NewMessage(T("a", "b", "c"), "r3", true))

	sPlus := c.Subscribe(T("a", "+"))
	assertUnorderedEqual(t, drainPayloads(t, sPlus, 2), []string{"r1", "r2"})

	c.Publish(b.NewMessage(T("a", "b"), nil, true))
	sAll := c.Subscribe(T("a", "#"))
	assertUnorderedEqual(t, drainPayloads(t, sAll, 2), []string{"r2", "r3"})
}

func TestQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("q"))

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(T("q"), p, false))
	}
	assertUnorderedEqual(t, drainPayloads(t, s, 2), []string{"2", "3"})
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("x", "y"))
	s1.Unsubscribe()
	if _, ok := <-s1.Channel(); ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
	// Second unsubscribe is a no-op.
	c.Unsubscribe(s1)

	s2 := c.Subscribe(T("x", "#"))
	c.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("channel should be closed after Disconnect")
	}
	// Publishing after everything is gone must not panic.
	c.Publish(b.NewMessage(T("x", "y"), "late", false))
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, topic Topic
		want           bool
	}{
		{T("a", "b"), T("a", "b"), true},
		{T("a", "+"), T("a", "b"), true},
		{T("a", "+"), T("a"), false},
		{T("a", "#"), T("a"), true},
		{T("#"), T("x", "y", "z"), true},
		{T("a", "b"), T("a", "b", "c"), false},
	}
	for _, tc := range cases {
		if got := Match(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("Match(%v,%v) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectOneOf(t *testing.T, s *Subscription, want string) {
	t.Helper()
	select {
	case m := <-s.Channel():
		if got, _ := m.Payload.(string); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Fatalf("unexpected message %v on %v", m.Payload, s.Topic())
	case <-time.After(20 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, s *Subscription, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for len(out) < n {
		select {
		case m := <-s.Channel():
			out = append(out, m.Payload.(string))
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout after %d/%d messages", len(out), n)
		}
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	if len(g) != len(w) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range g {
		if g[i] != w[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
