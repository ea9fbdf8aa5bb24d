package realtime

import (
	"testing"
	"time"

	"github.com/pushkargithub0611/comm-module-goa/internal/backendtest"
	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestConn(t *testing.T, s *backendtest.Server, delay time.Duration) *Conn {
	t.Helper()
	c := New(Options{URL: s.WSURL(), ReconnectDelay: delay})
	t.Cleanup(c.Disconnect)
	return c
}

func TestConnectReplacesPriorSocket(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, time.Second)

	c.Connect("u1", "g1")
	if !s.WaitForSockets("g1", 1, 2*time.Second) {
		t.Fatal("first socket never opened")
	}

	c.Connect("u1", "g2")
	if !s.WaitForSockets("g2", 1, 2*time.Second) {
		t.Fatal("second socket never opened")
	}
	if !s.WaitForSockets("g1", 0, 2*time.Second) {
		t.Fatal("prior socket leaked")
	}
	if got := s.OpenSockets(""); got != 1 {
		t.Fatalf("expected exactly one live socket, got %d", got)
	}
}

func TestUnexpectedCloseReconnectsExactlyOnce(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, 100*time.Millisecond)

	c.Connect("u1", "g1")
	if !s.WaitForSockets("g1", 1, 2*time.Second) {
		t.Fatal("socket never opened")
	}
	if got := s.Dials(); got != 1 {
		t.Fatalf("expected 1 dial, got %d", got)
	}

	s.KickAll("g1")
	waitFor(t, 2*time.Second, func() bool { return s.Dials() == 2 && s.OpenSockets("g1") == 1 },
		"reconnect never happened")

	// no further attempts while the new socket stays healthy
	time.Sleep(350 * time.Millisecond)
	if got := s.Dials(); got != 2 {
		t.Fatalf("expected exactly one reconnect, got %d dials", got)
	}
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, 300*time.Millisecond)

	c.Connect("u1", "g1")
	waitFor(t, 2*time.Second, c.IsConnected, "never connected")

	s.KickAll("g1")
	waitFor(t, 2*time.Second, func() bool { return !c.IsConnected() }, "close never observed")
	c.Disconnect()

	time.Sleep(700 * time.Millisecond)
	if got := s.Dials(); got != 1 {
		t.Fatalf("expected no reconnect after disconnect, got %d dials", got)
	}
	if got := s.OpenSockets(""); got != 0 {
		t.Fatalf("expected no live sockets, got %d", got)
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, time.Second)

	c.Connect("u1", "g1")
	waitFor(t, 2*time.Second, c.IsConnected, "never connected")

	got := make(chan chat.Message, 1)
	c.OnMessage(func(chat.Message) { panic("boom") })
	c.OnMessage(func(m chat.Message) { got <- m })

	s.Broadcast(chat.Message{ID: "m1", Content: "hi", GroupID: "g1", SenderID: "u2", CreatedAt: time.Now()})

	select {
	case m := <-got:
		if m.ID != "m1" {
			t.Fatalf("unexpected message: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second handler never invoked")
	}
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, time.Second)

	c.Connect("u1", "g1")
	waitFor(t, 2*time.Second, c.IsConnected, "never connected")

	first := make(chan chat.Message, 2)
	second := make(chan chat.Message, 2)
	unsub := c.OnMessage(func(m chat.Message) { first <- m })
	c.OnMessage(func(m chat.Message) { second <- m })

	unsub()
	s.Broadcast(chat.Message{ID: "m1", GroupID: "g1", CreatedAt: time.Now()})

	select {
	case m := <-second:
		if m.ID != "m1" {
			t.Fatalf("unexpected message: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("remaining handler never invoked")
	}

	select {
	case m := <-first:
		t.Fatalf("unsubscribed handler still invoked with %+v", m)
	default:
	}
}

func TestMalformedAndUnknownFramesAreDropped(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, time.Second)

	c.Connect("u1", "g1")
	waitFor(t, 2*time.Second, c.IsConnected, "never connected")

	got := make(chan chat.Message, 3)
	c.OnMessage(func(m chat.Message) { got <- m })

	s.BroadcastRaw("g1", []byte(`{"type":"new_message",`)) // malformed
	s.BroadcastRaw("g1", []byte(`{"type":"presence"}`))    // unknown type
	s.Broadcast(chat.Message{ID: "m1", GroupID: "g1", CreatedAt: time.Now()})

	select {
	case m := <-got:
		if m.ID != "m1" {
			t.Fatalf("unexpected message: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after junk never delivered")
	}
	if len(got) != 0 {
		t.Fatal("junk frames produced deliveries")
	}
}

func TestSendMessageWhileDisconnectedIsSilent(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, time.Second)

	// never connected; must not panic or block
	c.SendMessage("hello", "g1", "u1")
	if c.IsConnected() {
		t.Fatal("conn should not report connected")
	}
}

func TestSendMessageReachesOtherViewer(t *testing.T) {
	s := backendtest.New(t)
	sender := newTestConn(t, s, time.Second)
	viewer := newTestConn(t, s, time.Second)

	sender.Connect("u1", "g1")
	viewer.Connect("u2", "g1")
	waitFor(t, 2*time.Second, func() bool { return sender.IsConnected() && viewer.IsConnected() },
		"conns never established")

	got := make(chan chat.Message, 1)
	viewer.OnMessage(func(m chat.Message) { got <- m })

	sender.SendMessage("over the wire", "g1", "u1")

	select {
	case m := <-got:
		if m.Content != "over the wire" || m.GroupID != "g1" || m.SenderID != "u1" {
			t.Fatalf("unexpected delivery: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("viewer never received the echo")
	}
}

func TestConnectionChangeNotifications(t *testing.T) {
	s := backendtest.New(t)
	c := newTestConn(t, s, time.Second)

	transitions := make(chan bool, 4)
	c.OnConnectionChange(func(connected bool) { transitions <- connected })

	c.Connect("u1", "g1")
	select {
	case v := <-transitions:
		if !v {
			t.Fatalf("expected open transition first, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("open transition never observed")
	}

	c.Disconnect()
	select {
	case v := <-transitions:
		if v {
			t.Fatalf("expected close transition, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close transition never observed")
	}
}
